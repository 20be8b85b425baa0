package services

import (
	"context"
	"errors"
	"iter"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"alfredoptarigan/nexus-talent/internal/models"
	"alfredoptarigan/nexus-talent/internal/repositories"
)

type scriptedReply struct {
	fragments []string
	err       error
	// gate, when set, blocks the stream until it is closed.
	gate chan struct{}
}

type fakeHandle struct {
	provider *fakeProvider
	seed     []Turn
}

func (h *fakeHandle) SendStream(ctx context.Context, text string) iter.Seq2[string, error] {
	reply := h.provider.nextReply(text)
	return func(yield func(string, error) bool) {
		if reply.gate != nil {
			<-reply.gate
		}
		for _, f := range reply.fragments {
			if !yield(f, nil) {
				return
			}
		}
		if reply.err != nil {
			yield("", reply.err)
		}
	}
}

type fakeProvider struct {
	mu        sync.Mutex
	createErr error
	replies   []scriptedReply
	creates   int
	sends     []string
	seeds     [][]Turn
}

func (p *fakeProvider) CreateSession(_ context.Context, history []Turn) (ChatHandle, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.creates++
	if p.createErr != nil {
		return nil, p.createErr
	}
	p.seeds = append(p.seeds, history)
	return &fakeHandle{provider: p, seed: history}, nil
}

func (p *fakeProvider) nextReply(text string) scriptedReply {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sends = append(p.sends, text)
	if len(p.replies) == 0 {
		return scriptedReply{fragments: []string{"ok"}}
	}
	r := p.replies[0]
	p.replies = p.replies[1:]
	return r
}

func (p *fakeProvider) sendCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.sends)
}

type orchestratorFixture struct {
	orch     *ChatOrchestrator
	provider *fakeProvider
	registry SessionRegistry
	store    *StateStore
	persist  StatePersister
	online   bool
}

func newFixture(t *testing.T) *orchestratorFixture {
	t.Helper()
	log := zap.NewNop()
	f := &orchestratorFixture{provider: &fakeProvider{}, online: true}
	f.persist = NewStatePersister(repositories.NewMemoryKeyValueRepository(0), "nexus-talent-os-state", log)
	f.store = NewStateStore(models.NewAppState(), f.persist)
	f.registry = NewSessionRegistry(f.provider, log)
	probe := OnlineFunc(func(context.Context) bool { return f.online })
	f.orch = NewChatOrchestrator(f.store, f.registry, probe, log)
	require.NoError(t, f.orch.Bootstrap(context.Background(), models.NewAppState()))
	return f
}

func (f *orchestratorFixture) activeChat(t *testing.T) models.ChatSession {
	t.Helper()
	chat, ok := f.store.Snapshot().ActiveChat()
	require.True(t, ok)
	return chat
}

func TestBootstrapEmptyState(t *testing.T) {
	f := newFixture(t)
	state := f.orch.State()

	require.Len(t, state.Roles, 1)
	require.Len(t, state.Chats, 1)
	assert.Equal(t, models.DefaultRoleTitle, state.Roles[0].Title)
	assert.Equal(t, state.Roles[0].ID, state.ActiveRoleID)
	assert.Equal(t, state.Chats[0].ID, state.ActiveChatID)
	assert.Equal(t, state.Roles[0].ID, state.Chats[0].RoleID)
	assert.Equal(t, models.DefaultPhaseID, state.ActivePhaseID)

	msgs := state.Chats[0].Messages
	require.Len(t, msgs, 1)
	assert.Equal(t, models.SenderAssistant, msgs[0].Sender)
	assert.Equal(t, models.GreetingText, msgs[0].Text)
	assert.Equal(t, 1, f.registry.Len())
	assert.Empty(t, f.orch.LastError())

	stored, ok := f.persist.Load()
	require.True(t, ok)
	assert.Equal(t, state.ActiveChatID, stored.ActiveChatID)
}

func TestBootstrapRestoresSavedState(t *testing.T) {
	log := zap.NewNop()
	provider := &fakeProvider{}
	store := NewStateStore(models.NewAppState(), nil)
	orch := NewChatOrchestrator(store, NewSessionRegistry(provider, log), nil, log)

	saved := models.NewAppState()
	saved.Roles = []models.Role{{ID: "role_1", Title: "Backend Engineer"}}
	saved.Chats = []models.ChatSession{{ID: "chat_1", RoleID: "role_1", Title: "Sourcing"}}
	saved.ActiveRoleID = "role_gone"
	saved.ActivePhaseID = "phase9"

	require.NoError(t, orch.Bootstrap(context.Background(), saved))

	state := orch.State()
	assert.Equal(t, "role_1", state.ActiveRoleID)
	assert.Equal(t, "chat_1", state.ActiveChatID)
	assert.Equal(t, models.DefaultPhaseID, state.ActivePhaseID)
	assert.Zero(t, provider.creates)
}

func TestBootstrapWithoutCredential(t *testing.T) {
	log := zap.NewNop()
	provider := &fakeProvider{createErr: ErrMissingCredential}
	store := NewStateStore(models.NewAppState(), nil)
	orch := NewChatOrchestrator(store, NewSessionRegistry(provider, log), nil, log)

	err := orch.Bootstrap(context.Background(), models.NewAppState())
	var f *Failure
	require.ErrorAs(t, err, &f)
	assert.Equal(t, FailureConfiguration, f.Kind)
	assert.Equal(t, BannerInitFailed, orch.LastError())

	state := orch.State()
	assert.Len(t, state.Roles, 1)
	assert.Empty(t, state.Chats)
	assert.False(t, orch.Busy())
}

func TestSendMessageStreamsFragments(t *testing.T) {
	f := newFixture(t)
	f.provider.replies = []scriptedReply{{fragments: []string{"Hel", "lo, ", "recruiter"}}}

	var seen []string
	res, err := f.orch.SendMessage(context.Background(), "Help me hire a Go engineer", func(id, frag string) {
		seen = append(seen, frag)
	})
	require.NoError(t, err)
	require.Nil(t, res.Failure)
	require.NotNil(t, res.Reply)

	chat := f.activeChat(t)
	require.Len(t, chat.Messages, 3)
	assert.Equal(t, models.SenderUser, chat.Messages[1].Sender)
	assert.Equal(t, "Help me hire a Go engineer", chat.Messages[1].Text)
	assert.Equal(t, "Hello, recruiter", chat.Messages[2].Text)
	assert.Equal(t, res.Reply.ID, chat.Messages[2].ID)
	assert.Equal(t, []string{"Hel", "lo, ", "recruiter"}, seen)
	assert.Equal(t, "Help me hire a Go engineer", chat.Title)
	assert.False(t, f.orch.Busy())
}

func TestSendMessageTitleAdoption(t *testing.T) {
	f := newFixture(t)

	long := strings.Repeat("x", models.MaxAdoptedTitleLen)
	_, err := f.orch.SendMessage(context.Background(), long, nil)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultChatTitle, f.activeChat(t).Title)

	_, err = f.orch.SendMessage(context.Background(), "short one", nil)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultChatTitle, f.activeChat(t).Title, "only the first user message can become the title")
}

func TestSendMessagePhaseTransition(t *testing.T) {
	f := newFixture(t)
	f.provider.replies = []scriptedReply{{fragments: []string{"This belongs to **Phase ", "2: Sourcing**. Let's go."}}}

	res, err := f.orch.SendMessage(context.Background(), "find me people", nil)
	require.NoError(t, err)
	assert.Equal(t, "phase2", res.PhaseID)
	assert.Equal(t, "phase2", f.orch.State().ActivePhaseID)
}

func TestSendMessageBusyRejection(t *testing.T) {
	f := newFixture(t)
	gate := make(chan struct{})
	f.provider.replies = []scriptedReply{{fragments: []string{"slow"}, gate: gate}}

	done := make(chan error, 1)
	go func() {
		_, err := f.orch.SendMessage(context.Background(), "first", nil)
		done <- err
	}()
	require.Eventually(t, func() bool { return f.provider.sendCount() == 1 }, time.Second, 5*time.Millisecond)

	before := len(f.activeChat(t).Messages)
	_, err := f.orch.SendMessage(context.Background(), "second", nil)
	require.ErrorIs(t, err, ErrBusy)
	assert.Len(t, f.activeChat(t).Messages, before)
	assert.Equal(t, 1, f.provider.sendCount())

	_, err = f.orch.EditAndResubmit(context.Background(), "anything", "x", nil)
	require.ErrorIs(t, err, ErrBusy)
	require.ErrorIs(t, f.orch.SelectChat(f.activeChat(t).ID), ErrBusy)

	close(gate)
	require.NoError(t, <-done)
	assert.False(t, f.orch.Busy())
}

func TestSendMessageInvalidKeyWhileOnline(t *testing.T) {
	f := newFixture(t)
	f.provider.replies = []scriptedReply{{err: errors.New("API key not valid. Please pass a valid API key.")}}

	res, err := f.orch.SendMessage(context.Background(), "hello", nil)
	require.NoError(t, err)
	require.NotNil(t, res.Failure)
	assert.Equal(t, FailureConfiguration, res.Failure.Kind)
	assert.Equal(t, "Invalid API Key. Please check your configuration.", f.orch.LastError())

	chat := f.activeChat(t)
	require.Len(t, chat.Messages, 3)
	last := chat.Messages[2]
	assert.Equal(t, models.SenderAssistant, last.Sender)
	assert.Contains(t, last.Text, "connection credentials")
	assert.True(t, strings.HasPrefix(last.ID, "nexus_err_"))
	assert.False(t, f.orch.Busy())
}

func TestSendMessageOffline(t *testing.T) {
	f := newFixture(t)
	f.online = false
	f.provider.replies = []scriptedReply{{fragments: []string{"partial"}, err: errors.New("stream reset")}}

	res, err := f.orch.SendMessage(context.Background(), "hello", nil)
	require.NoError(t, err)
	assert.Equal(t, FailureConnectivity, res.Failure.Kind)

	chat := f.activeChat(t)
	require.Len(t, chat.Messages, 4)
	assert.Equal(t, "partial", chat.Messages[2].Text)
	require.NotNil(t, res.Reply)
	assert.Equal(t, chat.Messages[2].ID, res.Reply.ID)
	assert.Equal(t, "partial", res.Reply.Text)
	assert.Contains(t, chat.Messages[3].Text, "lost connection")
}

func TestSendMessageClearsPreviousBanner(t *testing.T) {
	f := newFixture(t)
	f.provider.replies = []scriptedReply{{err: errors.New("boom")}, {fragments: []string{"fine"}}}

	_, err := f.orch.SendMessage(context.Background(), "one", nil)
	require.NoError(t, err)
	require.NotEmpty(t, f.orch.LastError())

	_, err = f.orch.SendMessage(context.Background(), "two", nil)
	require.NoError(t, err)
	assert.Empty(t, f.orch.LastError())
}

func TestSendMessageRecreatesMissingHandle(t *testing.T) {
	f := newFixture(t)
	chat := f.activeChat(t)
	f.registry.Delete(chat.ID)
	createsBefore := f.provider.creates

	res, err := f.orch.SendMessage(context.Background(), "after restart", nil)
	require.NoError(t, err)
	require.Nil(t, res.Failure)
	assert.Equal(t, createsBefore+1, f.provider.creates)

	seed := f.provider.seeds[len(f.provider.seeds)-1]
	require.Len(t, seed, 1)
	assert.Equal(t, models.GreetingText, seed[0].Text)
	assert.Equal(t, models.SenderAssistant, seed[0].Sender)
}

func TestSendMessageWithoutActiveChat(t *testing.T) {
	f := newFixture(t)
	f.store.Update(func(s models.AppState) models.AppState { return s.WithActiveChat("") })

	_, err := f.orch.SendMessage(context.Background(), "hello", nil)
	require.ErrorIs(t, err, ErrNoActiveSession)
	assert.Equal(t, PreconditionBanner(ErrNoActiveSession), f.orch.LastError())
	assert.Zero(t, f.provider.sendCount())
	assert.False(t, f.orch.Busy())
}

func TestEditAndResubmitTruncates(t *testing.T) {
	f := newFixture(t)
	for _, text := range []string{"first", "second", "third"} {
		_, err := f.orch.SendMessage(context.Background(), text, nil)
		require.NoError(t, err)
	}
	chat := f.activeChat(t)
	require.Len(t, chat.Messages, 7)

	edited := chat.Messages[3]
	require.Equal(t, "second", edited.Text)
	f.provider.replies = []scriptedReply{{fragments: []string{"new ", "answer"}}}

	res, err := f.orch.EditAndResubmit(context.Background(), edited.ID, "second, revised", nil)
	require.NoError(t, err)
	require.Nil(t, res.Failure)

	after := f.activeChat(t)
	require.Len(t, after.Messages, 5)
	assert.Equal(t, edited.ID, after.Messages[3].ID)
	assert.Equal(t, "second, revised", after.Messages[3].Text)
	assert.Equal(t, "new answer", after.Messages[4].Text)
	for _, m := range after.Messages {
		assert.NotEqual(t, "third", m.Text)
	}

	seed := f.provider.seeds[len(f.provider.seeds)-1]
	assert.Len(t, seed, 3)
	assert.Equal(t, "second, revised", f.provider.sends[len(f.provider.sends)-1])
}

func TestEditAndResubmitPreconditions(t *testing.T) {
	f := newFixture(t)
	chat := f.activeChat(t)

	_, err := f.orch.EditAndResubmit(context.Background(), "missing", "x", nil)
	require.ErrorIs(t, err, ErrMessageNotFound)

	_, err = f.orch.EditAndResubmit(context.Background(), chat.Messages[0].ID, "x", nil)
	require.ErrorIs(t, err, ErrNotEditable)
	assert.Empty(t, f.orch.LastError())
	assert.False(t, f.orch.Busy())
}

func TestEditAndResubmitFailureUsesEditWording(t *testing.T) {
	f := newFixture(t)
	res, err := f.orch.SendMessage(context.Background(), "hello", nil)
	require.NoError(t, err)

	f.provider.replies = []scriptedReply{{err: errors.New("internal")}}
	res, err = f.orch.EditAndResubmit(context.Background(), res.UserMessage.ID, "hello again", nil)
	require.NoError(t, err)
	require.NotNil(t, res.Failure)
	assert.Equal(t, "An unexpected error occurred while editing. Please try again.", f.orch.LastError())

	chat := f.activeChat(t)
	assert.Equal(t, "I'm sorry, I ran into a problem while processing your edit.", chat.Messages[len(chat.Messages)-1].Text)
}

func TestEditAndResubmitReinitFailure(t *testing.T) {
	f := newFixture(t)
	res, err := f.orch.SendMessage(context.Background(), "hello", nil)
	require.NoError(t, err)

	f.provider.createErr = errors.New("quota")
	res, err = f.orch.EditAndResubmit(context.Background(), res.UserMessage.ID, "edited", nil)
	require.NoError(t, err)
	require.NotNil(t, res.Failure)
	assert.Equal(t, BannerReinitFailed, f.orch.LastError())

	chat := f.activeChat(t)
	require.Len(t, chat.Messages, 3)
	assert.Equal(t, "edited", chat.Messages[1].Text)
	assert.Equal(t, models.SenderAssistant, chat.Messages[2].Sender)
}

func TestNewRoleAndWorkspaceNavigation(t *testing.T) {
	f := newFixture(t)
	first := f.orch.State().Roles[0]

	role, err := f.orch.NewRole(context.Background())
	require.NoError(t, err)

	state := f.orch.State()
	require.Len(t, state.Roles, 2)
	assert.Equal(t, role.ID, state.Roles[0].ID, "new roles are prepended")
	assert.Equal(t, role.ID, state.ActiveRoleID)
	active, ok := state.ActiveChat()
	require.True(t, ok)
	assert.Equal(t, role.ID, active.RoleID)

	f.orch.ToggleRolesOverview()
	require.NoError(t, f.orch.OpenRoleWorkspace(context.Background(), first.ID))
	state = f.orch.State()
	assert.Equal(t, first.ID, state.ActiveRoleID)
	assert.False(t, state.ShowRolesOverview)
	active, _ = state.ActiveChat()
	assert.Equal(t, first.ID, active.RoleID)
	assert.Len(t, state.Chats, 2, "an existing chat is resumed")

	require.ErrorIs(t, f.orch.OpenRoleWorkspace(context.Background(), "role_missing"), ErrRoleNotFound)
}

func TestStartNewSessionForOtherRoleActivatesIt(t *testing.T) {
	f := newFixture(t)
	first := f.orch.State().Roles[0]
	_, err := f.orch.NewRole(context.Background())
	require.NoError(t, err)

	chat, err := f.orch.StartNewSession(context.Background(), first.ID, false)
	require.NoError(t, err)
	state := f.orch.State()
	assert.Equal(t, first.ID, state.ActiveRoleID)
	assert.Equal(t, chat.ID, state.ActiveChatID)
	assert.Equal(t, chat.ID, state.Chats[0].ID)
}

func TestSetActivePhase(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.orch.SetActivePhase("phase3"))
	assert.Equal(t, "phase3", f.orch.State().ActivePhaseID)
	require.ErrorIs(t, f.orch.SetActivePhase("phase7"), ErrInvalidPhase)
	require.ErrorIs(t, f.orch.SelectRole("nope"), ErrRoleNotFound)
	require.ErrorIs(t, f.orch.SelectChat("nope"), ErrChatNotFound)
}
