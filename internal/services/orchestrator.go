package services

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"alfredoptarigan/nexus-talent/internal/models"
)

// FragmentFunc receives each streamed fragment together with the id of the
// assistant message it was appended to.
type FragmentFunc func(messageID, fragment string)

// ExchangeResult describes one finished send or edit.
type ExchangeResult struct {
	ChatID      string          `json:"chatId"`
	UserMessage models.Message  `json:"userMessage"`
	Reply       *models.Message `json:"reply,omitempty"`
	PhaseID     string          `json:"phaseId,omitempty"`
	Failure     *Failure        `json:"failure,omitempty"`
}

// ChatOrchestrator drives chat sessions against the provider. At most one
// exchange runs at a time; a second request while busy is rejected with
// ErrBusy, never queued.
type ChatOrchestrator struct {
	store    *StateStore
	registry SessionRegistry
	probe    ConnectivityProbe
	log      *zap.Logger
	now      func() time.Time

	busy atomic.Bool

	errMu     sync.RWMutex
	lastError string
}

type OrchestratorOption func(*ChatOrchestrator)

// WithClock replaces time.Now, used for role creation timestamps.
func WithClock(now func() time.Time) OrchestratorOption {
	return func(o *ChatOrchestrator) { o.now = now }
}

func NewChatOrchestrator(store *StateStore, registry SessionRegistry, probe ConnectivityProbe, log *zap.Logger, opts ...OrchestratorOption) *ChatOrchestrator {
	if probe == nil {
		probe = OnlineFunc(func(context.Context) bool { return true })
	}
	o := &ChatOrchestrator{
		store:    store,
		registry: registry,
		probe:    probe,
		log:      log,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func newID(prefix string) string {
	return prefix + "_" + uuid.NewString()
}

// Busy reports whether an exchange is in flight.
func (o *ChatOrchestrator) Busy() bool { return o.busy.Load() }

// LastError returns the current banner text, "" when clear.
func (o *ChatOrchestrator) LastError() string {
	o.errMu.RLock()
	defer o.errMu.RUnlock()
	return o.lastError
}

func (o *ChatOrchestrator) setError(msg string) {
	o.errMu.Lock()
	o.lastError = msg
	o.errMu.Unlock()
}

func (o *ChatOrchestrator) ClearError() { o.setError("") }

// State returns a snapshot of the workspace.
func (o *ChatOrchestrator) State() models.AppState { return o.store.Snapshot() }

func (o *ChatOrchestrator) acquire() error {
	if !o.busy.CompareAndSwap(false, true) {
		return ErrBusy
	}
	return nil
}

func (o *ChatOrchestrator) release() { o.busy.Store(false) }

// Bootstrap installs the loaded snapshot. A snapshot without roles is replaced
// by a fresh default role with one greeting chat.
func (o *ChatOrchestrator) Bootstrap(ctx context.Context, loaded models.AppState) error {
	if err := o.acquire(); err != nil {
		return err
	}
	defer o.release()

	loaded = loaded.Reconcile()
	if len(loaded.Roles) > 0 {
		o.store.Replace(loaded)
		o.log.Info("📂 Workspace restored",
			zap.Int("roles", len(loaded.Roles)),
			zap.Int("chats", len(loaded.Chats)))
		return nil
	}

	role := o.newRole()
	base := models.NewAppState()
	base.Playbooks = loaded.Playbooks
	base.Reminders = loaded.Reminders
	o.store.Replace(base.PrependRole(role).WithActiveRole(role.ID))
	o.log.Info("🆕 Created initial role", zap.String("role_id", role.ID))

	_, err := o.startSession(ctx, role.ID, true)
	return err
}

func (o *ChatOrchestrator) newRole() models.Role {
	created := o.now()
	return models.Role{
		ID:             newID("role"),
		Title:          models.DefaultRoleTitle,
		CreatedAt:      &created,
		Location:       "",
		EmploymentType: "Full-time",
		Candidates:     []models.Candidate{},
	}
}

// StartNewSession opens a chat for roleID, or for the active role when roleID
// is empty. Unless initial is set the chat's role becomes the active role.
func (o *ChatOrchestrator) StartNewSession(ctx context.Context, roleID string, initial bool) (models.ChatSession, error) {
	if err := o.acquire(); err != nil {
		return models.ChatSession{}, err
	}
	defer o.release()
	return o.startSession(ctx, roleID, initial)
}

func (o *ChatOrchestrator) startSession(ctx context.Context, roleID string, initial bool) (models.ChatSession, error) {
	o.ClearError()

	state := o.store.Snapshot()
	if roleID == "" {
		roleID = state.ActiveRoleID
	}
	if _, _, ok := state.FindRole(roleID); roleID == "" || !ok {
		o.setError(PreconditionBanner(ErrNoActiveRole))
		return models.ChatSession{}, ErrNoActiveRole
	}

	handle, err := o.registry.Create(ctx, nil)
	if err != nil {
		f := ClassifyFailure(err, true, OpSend)
		f.Banner = BannerInitFailed
		o.setError(f.Banner)
		o.log.Error("❌ Failed to start chat session", zap.String("role_id", roleID), zap.Error(err))
		return models.ChatSession{}, f
	}

	chat := models.ChatSession{
		ID:     newID("chat"),
		Title:  models.DefaultChatTitle,
		RoleID: roleID,
		Messages: []models.Message{{
			ID:     newID("nexus"),
			Sender: models.SenderAssistant,
			Text:   models.GreetingText,
		}},
	}
	o.registry.Put(chat.ID, handle)

	o.store.Update(func(s models.AppState) models.AppState {
		s = s.PrependChat(chat).WithActiveChat(chat.ID)
		if !initial {
			s = s.WithActiveRole(roleID)
		}
		return s
	})

	o.log.Info("💬 Chat session started", zap.String("chat_id", chat.ID), zap.String("role_id", roleID))
	return chat, nil
}

// SendMessage appends a user message to the active chat and streams the
// assistant's reply into it. Provider failures are not returned as errors:
// they end up in the result's Failure, the banner and the transcript.
func (o *ChatOrchestrator) SendMessage(ctx context.Context, text string, onFragment FragmentFunc) (*ExchangeResult, error) {
	if err := o.acquire(); err != nil {
		return nil, err
	}
	defer o.release()
	o.ClearError()

	state := o.store.Snapshot()
	chat, ok := state.ActiveChat()
	if !ok {
		o.setError(PreconditionBanner(ErrNoActiveSession))
		return nil, ErrNoActiveSession
	}

	handle, ok := o.registry.Get(chat.ID)
	if !ok {
		// Handles do not survive a restart; rebuild one from the transcript.
		var err error
		handle, err = o.registry.Create(ctx, turnsOf(chat.Messages))
		if err != nil {
			f := ClassifyFailure(err, true, OpSend)
			f.Banner = BannerInitFailed
			o.setError(f.Banner)
			o.log.Error("❌ Failed to recreate chat handle", zap.String("chat_id", chat.ID), zap.Error(err))
			return nil, f
		}
		o.registry.Put(chat.ID, handle)
		o.log.Info("♻️ Chat handle recreated", zap.String("chat_id", chat.ID), zap.Int("history", len(chat.Messages)))
	}

	userMsg := models.Message{ID: newID("user"), Sender: models.SenderUser, Text: text}
	o.store.TryUpdate(func(s models.AppState) (models.AppState, bool) {
		c, _, ok := s.FindChat(chat.ID)
		if !ok {
			return s, false
		}
		if !c.HasUserMessage() && utf8.RuneCountInString(text) < models.MaxAdoptedTitleLen {
			c.Title = text
			s, _ = s.ReplaceChat(c)
		}
		return s.AppendMessage(chat.ID, userMsg)
	})

	result := &ExchangeResult{ChatID: chat.ID, UserMessage: userMsg}
	o.stream(ctx, handle, chat.ID, text, OpSend, onFragment, result)
	return result, nil
}

// EditAndResubmit rewrites a user message, drops everything after it and
// resends it on a fresh handle primed with the messages before it.
func (o *ChatOrchestrator) EditAndResubmit(ctx context.Context, messageID, newText string, onFragment FragmentFunc) (*ExchangeResult, error) {
	if err := o.acquire(); err != nil {
		return nil, err
	}
	defer o.release()
	o.ClearError()

	state := o.store.Snapshot()
	chat, ok := state.ActiveChat()
	if !ok {
		return nil, ErrNoActiveSession
	}
	idx := chat.MessageIndex(messageID)
	if idx < 0 {
		return nil, ErrMessageNotFound
	}
	if chat.Messages[idx].Sender != models.SenderUser {
		return nil, ErrNotEditable
	}

	var prior []models.Message
	if !o.store.TryUpdate(func(s models.AppState) (models.AppState, bool) {
		next, before, ok := s.TruncateAt(chat.ID, messageID, newText)
		prior = before
		return next, ok
	}) {
		return nil, ErrMessageNotFound
	}

	result := &ExchangeResult{
		ChatID:      chat.ID,
		UserMessage: models.Message{ID: messageID, Sender: models.SenderUser, Text: newText},
	}

	handle, err := o.registry.Create(ctx, turnsOf(prior))
	if err != nil {
		f := ClassifyFailure(err, true, OpEdit)
		f.Banner = BannerReinitFailed
		o.fail(chat.ID, f, result)
		return result, nil
	}
	o.registry.Put(chat.ID, handle)

	o.stream(ctx, handle, chat.ID, newText, OpEdit, onFragment, result)
	return result, nil
}

func (o *ChatOrchestrator) stream(ctx context.Context, handle ChatHandle, chatID, text string, op Operation, onFragment FragmentFunc, result *ExchangeResult) {
	replyID := newID("nexus")
	var full strings.Builder
	started := false

	for fragment, err := range handle.SendStream(ctx, text) {
		if err != nil {
			// The partial reply stays in the transcript ahead of the error.
			if started {
				result.Reply = &models.Message{ID: replyID, Sender: models.SenderAssistant, Text: full.String()}
			}
			online := o.probe.Online(context.WithoutCancel(ctx))
			o.fail(chatID, ClassifyFailure(err, online, op), result)
			return
		}
		full.WriteString(fragment)

		var applied bool
		if !started {
			started = true
			applied = o.store.TryUpdate(func(s models.AppState) (models.AppState, bool) {
				return s.AppendMessage(chatID, models.Message{ID: replyID, Sender: models.SenderAssistant, Text: fragment})
			})
		} else {
			applied = o.store.TryUpdate(func(s models.AppState) (models.AppState, bool) {
				return s.AppendFragment(chatID, replyID, fragment)
			})
		}
		if !applied {
			o.log.Debug("Dropped stream fragment", zap.String("chat_id", chatID), zap.String("message_id", replyID))
			continue
		}
		if onFragment != nil {
			onFragment(replyID, fragment)
		}
	}

	if started {
		result.Reply = &models.Message{ID: replyID, Sender: models.SenderAssistant, Text: full.String()}
	}

	if phaseID, ok := ClassifyPhase(full.String()); ok {
		o.store.Update(func(s models.AppState) models.AppState { return s.WithActivePhase(phaseID) })
		result.PhaseID = phaseID
		o.log.Info("🧭 Phase transition", zap.String("chat_id", chatID), zap.String("phase_id", phaseID))
	}
}

func (o *ChatOrchestrator) fail(chatID string, f *Failure, result *ExchangeResult) {
	o.log.Error("❌ Chat exchange failed",
		zap.String("chat_id", chatID),
		zap.String("kind", string(f.Kind)),
		zap.Error(f.Err))

	o.setError(f.Banner)
	o.store.TryUpdate(func(s models.AppState) (models.AppState, bool) {
		return s.AppendMessage(chatID, models.Message{
			ID:     newID("nexus_err"),
			Sender: models.SenderAssistant,
			Text:   f.Transcript,
		})
	})
	result.Failure = f
}

func turnsOf(msgs []models.Message) []Turn {
	turns := make([]Turn, 0, len(msgs))
	for _, m := range msgs {
		turns = append(turns, Turn{Sender: m.Sender, Text: m.Text})
	}
	return turns
}

// NewRole creates a role, makes it active and opens its first chat.
func (o *ChatOrchestrator) NewRole(ctx context.Context) (models.Role, error) {
	if err := o.acquire(); err != nil {
		return models.Role{}, err
	}
	defer o.release()

	role := o.newRole()
	o.store.Update(func(s models.AppState) models.AppState {
		return s.PrependRole(role).WithActiveRole(role.ID)
	})
	_, err := o.startSession(ctx, role.ID, true)
	return role, err
}

// OpenRoleWorkspace activates a role, resumes its newest chat or starts one,
// and leaves the overview.
func (o *ChatOrchestrator) OpenRoleWorkspace(ctx context.Context, roleID string) error {
	if err := o.acquire(); err != nil {
		return err
	}
	defer o.release()

	state := o.store.Snapshot()
	if _, _, ok := state.FindRole(roleID); !ok {
		return ErrRoleNotFound
	}

	chats := state.ChatsForRole(roleID)
	o.store.Update(func(s models.AppState) models.AppState {
		s = s.WithActiveRole(roleID).WithRolesOverview(false)
		if len(chats) > 0 {
			s = s.WithActiveChat(chats[0].ID)
		}
		return s
	})
	if len(chats) > 0 {
		return nil
	}
	_, err := o.startSession(ctx, roleID, true)
	return err
}

// SelectRole changes the active role. Ignored while busy.
func (o *ChatOrchestrator) SelectRole(roleID string) error {
	if o.Busy() {
		return ErrBusy
	}
	if !o.store.TryUpdate(func(s models.AppState) (models.AppState, bool) {
		if _, _, ok := s.FindRole(roleID); !ok {
			return s, false
		}
		return s.WithActiveRole(roleID), true
	}) {
		return ErrRoleNotFound
	}
	return nil
}

// SelectChat changes the active chat. Ignored while busy.
func (o *ChatOrchestrator) SelectChat(chatID string) error {
	if o.Busy() {
		return ErrBusy
	}
	if !o.store.TryUpdate(func(s models.AppState) (models.AppState, bool) {
		if _, _, ok := s.FindChat(chatID); !ok {
			return s, false
		}
		return s.WithActiveChat(chatID), true
	}) {
		return ErrChatNotFound
	}
	return nil
}

func (o *ChatOrchestrator) SetActivePhase(phaseID string) error {
	if !models.IsKnownPhase(phaseID) {
		return ErrInvalidPhase
	}
	o.store.Update(func(s models.AppState) models.AppState { return s.WithActivePhase(phaseID) })
	return nil
}

// ToggleRolesOverview flips the overview flag and returns the new value.
func (o *ChatOrchestrator) ToggleRolesOverview() bool {
	next := o.store.Update(func(s models.AppState) models.AppState {
		return s.WithRolesOverview(!s.ShowRolesOverview)
	})
	return next.ShowRolesOverview
}
