package services

import (
	"encoding/json"

	"go.uber.org/zap"

	"alfredoptarigan/nexus-talent/internal/models"
	"alfredoptarigan/nexus-talent/internal/repositories"
)

// StatePersister reads and writes the workspace snapshot under one key.
// Storage problems are logged and swallowed: a broken store must never stop
// the recruiter from working.
type StatePersister interface {
	// Load returns ok=false when nothing usable is stored.
	Load() (models.AppState, bool)
	Save(state models.AppState)
}

type statePersister struct {
	repo repositories.KeyValueRepository
	key  string
	log  *zap.Logger
}

func NewStatePersister(repo repositories.KeyValueRepository, key string, log *zap.Logger) StatePersister {
	return &statePersister{repo: repo, key: key, log: log}
}

// Load implements StatePersister.
func (p *statePersister) Load() (models.AppState, bool) {
	raw, ok, err := p.repo.Load(p.key)
	if err != nil {
		p.log.Error("❌ Failed to load saved state", zap.String("key", p.key), zap.Error(err))
		return models.NewAppState(), false
	}
	if !ok || raw == "" {
		return models.NewAppState(), false
	}

	state := models.NewAppState()
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		p.log.Error("❌ Saved state is corrupt, starting fresh", zap.String("key", p.key), zap.Error(err))
		return models.NewAppState(), false
	}
	return state, true
}

// Save implements StatePersister.
func (p *statePersister) Save(state models.AppState) {
	data, err := json.Marshal(state)
	if err != nil {
		p.log.Error("❌ Failed to serialize state", zap.Error(err))
		return
	}
	if err := p.repo.Save(p.key, string(data)); err != nil {
		p.log.Error("❌ Failed to persist state", zap.String("key", p.key), zap.Error(err))
	}
}
