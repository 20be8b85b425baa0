package services

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"alfredoptarigan/nexus-talent/internal/models"
	"alfredoptarigan/nexus-talent/internal/repositories"
)

const stateKey = "nexus-talent-os-state"

func TestStatePersisterRoundTrip(t *testing.T) {
	repo := repositories.NewMemoryKeyValueRepository(0)
	p := NewStatePersister(repo, stateKey, zap.NewNop())

	_, ok := p.Load()
	assert.False(t, ok)

	state := models.NewAppState()
	state.Roles = []models.Role{{ID: "role_1", Title: "SRE", Candidates: []models.Candidate{}}}
	state.ActiveRoleID = "role_1"
	state.ShowRolesOverview = true
	p.Save(state)

	raw, found, err := repo.Load(stateKey)
	require.NoError(t, err)
	require.True(t, found)
	assert.Contains(t, raw, `"activeRoleId":"role_1"`)
	assert.Contains(t, raw, `"showRolesOverview":true`)

	loaded, ok := p.Load()
	require.True(t, ok)
	assert.Equal(t, state, loaded)
}

func TestStatePersisterCorruptSnapshot(t *testing.T) {
	repo := repositories.NewMemoryKeyValueRepository(0)
	require.NoError(t, repo.Save(stateKey, "{not json"))

	loaded, ok := NewStatePersister(repo, stateKey, zap.NewNop()).Load()
	assert.False(t, ok)
	assert.Empty(t, loaded.Roles)
	assert.Equal(t, models.DefaultPhaseID, loaded.ActivePhaseID)
}

func TestStatePersisterSwallowsQuota(t *testing.T) {
	dir := t.TempDir()
	repo := repositories.NewFileKeyValueRepository(dir, 16)
	p := NewStatePersister(repo, stateKey, zap.NewNop())

	p.Save(models.NewAppState())

	_, err := os.Stat(filepath.Join(dir, stateKey+".json"))
	assert.True(t, os.IsNotExist(err))
}

func TestStateStoreIsolatesSnapshots(t *testing.T) {
	repo := repositories.NewMemoryKeyValueRepository(0)
	p := NewStatePersister(repo, stateKey, zap.NewNop())
	store := NewStateStore(models.NewAppState(), p)

	store.Update(func(s models.AppState) models.AppState {
		return s.PrependChat(models.ChatSession{ID: "chat_1", Messages: []models.Message{{ID: "m1", Text: "hi"}}})
	})

	snap := store.Snapshot()
	snap.Chats[0].Messages[0].Text = "mutated"
	assert.Equal(t, "hi", store.Snapshot().Chats[0].Messages[0].Text)

	applied := store.TryUpdate(func(s models.AppState) (models.AppState, bool) {
		return s.AppendMessage("chat_missing", models.Message{ID: "m2"})
	})
	assert.False(t, applied)

	saved, ok := p.Load()
	require.True(t, ok)
	require.Len(t, saved.Chats, 1)
	assert.Len(t, saved.Chats[0].Messages, 1)
}

func TestStateStoreRestoreKeepsStoredSnapshot(t *testing.T) {
	repo := repositories.NewMemoryKeyValueRepository(0)
	require.NoError(t, repo.Save(stateKey, "{not json"))
	p := NewStatePersister(repo, stateKey, zap.NewNop())

	loaded, ok := p.Load()
	require.False(t, ok)

	store := NewStateStore(models.NewAppState(), p)
	store.Restore(loaded.Reconcile())
	assert.Empty(t, store.Snapshot().Roles)

	raw, found, err := repo.Load(stateKey)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "{not json", raw)

	store.Update(func(s models.AppState) models.AppState { return s.WithActivePhase("phase2") })
	_, ok = p.Load()
	assert.True(t, ok, "changes after a restore are persisted")
}
