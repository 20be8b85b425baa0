package models

// AppState is the whole single-user workspace. It is also the persisted
// snapshot shape.
//
// Transitions are value methods that return a new AppState; they copy every
// slice they change and never write through the receiver, so a state handed
// out earlier is never modified behind its holder's back.
type AppState struct {
	Roles             []Role        `json:"roles"`
	Chats             []ChatSession `json:"chats"`
	ActiveRoleID      string        `json:"activeRoleId"`
	ActiveChatID      string        `json:"activeChatId"`
	ActivePhaseID     string        `json:"activePhaseId"`
	Playbooks         []Playbook    `json:"playbooks"`
	Reminders         []Reminder    `json:"reminders"`
	ShowRolesOverview bool          `json:"showRolesOverview"`
}

func NewAppState() AppState {
	return AppState{
		Roles:         []Role{},
		Chats:         []ChatSession{},
		ActivePhaseID: DefaultPhaseID,
		Playbooks:     []Playbook{},
		Reminders:     []Reminder{},
	}
}

// Clone returns a deep copy.
func (s AppState) Clone() AppState {
	out := s
	out.Roles = make([]Role, len(s.Roles))
	for i, r := range s.Roles {
		out.Roles[i] = r.clone()
	}
	out.Chats = make([]ChatSession, len(s.Chats))
	for i, c := range s.Chats {
		out.Chats[i] = c.clone()
	}
	out.Playbooks = append([]Playbook{}, s.Playbooks...)
	out.Reminders = append([]Reminder{}, s.Reminders...)
	return out
}

func (s AppState) FindRole(id string) (Role, int, bool) {
	for i, r := range s.Roles {
		if r.ID == id {
			return r, i, true
		}
	}
	return Role{}, -1, false
}

func (s AppState) FindChat(id string) (ChatSession, int, bool) {
	for i, c := range s.Chats {
		if c.ID == id {
			return c, i, true
		}
	}
	return ChatSession{}, -1, false
}

func (s AppState) ActiveRole() (Role, bool) {
	if s.ActiveRoleID == "" {
		return Role{}, false
	}
	r, _, ok := s.FindRole(s.ActiveRoleID)
	return r, ok
}

func (s AppState) ActiveChat() (ChatSession, bool) {
	if s.ActiveChatID == "" {
		return ChatSession{}, false
	}
	c, _, ok := s.FindChat(s.ActiveChatID)
	return c, ok
}

// ChatsForRole keeps the state's ordering (newest first).
func (s AppState) ChatsForRole(roleID string) []ChatSession {
	var out []ChatSession
	for _, c := range s.Chats {
		if c.RoleID == roleID {
			out = append(out, c)
		}
	}
	return out
}

func (s AppState) RemindersForRole(roleID string) []Reminder {
	var out []Reminder
	for _, r := range s.Reminders {
		if r.RoleID == roleID {
			out = append(out, r)
		}
	}
	return out
}

func (s AppState) PrependRole(role Role) AppState {
	s.Roles = append([]Role{role}, s.Roles...)
	return s
}

// ReplaceRole swaps the role with the same id. ok is false when no such role
// exists, in which case s is returned unchanged.
func (s AppState) ReplaceRole(role Role) (AppState, bool) {
	_, idx, ok := s.FindRole(role.ID)
	if !ok {
		return s, false
	}
	roles := append([]Role(nil), s.Roles...)
	roles[idx] = role
	s.Roles = roles
	return s, true
}

func (s AppState) PrependChat(chat ChatSession) AppState {
	s.Chats = append([]ChatSession{chat}, s.Chats...)
	return s
}

func (s AppState) ReplaceChat(chat ChatSession) (AppState, bool) {
	_, idx, ok := s.FindChat(chat.ID)
	if !ok {
		return s, false
	}
	chats := append([]ChatSession(nil), s.Chats...)
	chats[idx] = chat
	s.Chats = chats
	return s, true
}

func (s AppState) AppendMessage(chatID string, msg Message) (AppState, bool) {
	chat, _, ok := s.FindChat(chatID)
	if !ok {
		return s, false
	}
	chat.Messages = append(append([]Message(nil), chat.Messages...), msg)
	return s.ReplaceChat(chat)
}

// AppendFragment extends the assistant message messageID with fragment. The
// message must still be the last one in the chat and be assistant-authored;
// otherwise the fragment is dropped and ok is false.
func (s AppState) AppendFragment(chatID, messageID, fragment string) (AppState, bool) {
	chat, _, ok := s.FindChat(chatID)
	if !ok || len(chat.Messages) == 0 {
		return s, false
	}
	last := chat.Messages[len(chat.Messages)-1]
	if last.ID != messageID || last.Sender != SenderAssistant {
		return s, false
	}
	msgs := append([]Message(nil), chat.Messages...)
	msgs[len(msgs)-1].Text = last.Text + fragment
	chat.Messages = msgs
	return s.ReplaceChat(chat)
}

// TruncateAt cuts the chat so it ends at messageID (inclusive) and rewrites
// that message's text. It returns the messages strictly before the cut.
func (s AppState) TruncateAt(chatID, messageID, newText string) (AppState, []Message, bool) {
	chat, _, ok := s.FindChat(chatID)
	if !ok {
		return s, nil, false
	}
	idx := chat.MessageIndex(messageID)
	if idx < 0 {
		return s, nil, false
	}
	msgs := append([]Message(nil), chat.Messages[:idx+1]...)
	msgs[idx].Text = newText
	chat.Messages = msgs
	next, _ := s.ReplaceChat(chat)
	return next, append([]Message(nil), msgs[:idx]...), true
}

func (s AppState) WithActiveRole(id string) AppState {
	s.ActiveRoleID = id
	return s
}

func (s AppState) WithActiveChat(id string) AppState {
	s.ActiveChatID = id
	return s
}

func (s AppState) WithActivePhase(id string) AppState {
	s.ActivePhaseID = id
	return s
}

func (s AppState) WithRolesOverview(show bool) AppState {
	s.ShowRolesOverview = show
	return s
}

func (s AppState) PrependPlaybook(p Playbook) AppState {
	s.Playbooks = append([]Playbook{p}, s.Playbooks...)
	return s
}

func (s AppState) RemovePlaybook(id string) (AppState, bool) {
	out := make([]Playbook, 0, len(s.Playbooks))
	found := false
	for _, p := range s.Playbooks {
		if p.ID == id {
			found = true
			continue
		}
		out = append(out, p)
	}
	if !found {
		return s, false
	}
	s.Playbooks = out
	return s, true
}

func (s AppState) PrependReminder(r Reminder) AppState {
	s.Reminders = append([]Reminder{r}, s.Reminders...)
	return s
}

// ToggleReminder flips the done flag of reminder id and nothing else.
func (s AppState) ToggleReminder(id string) (AppState, bool) {
	for i, r := range s.Reminders {
		if r.ID != id {
			continue
		}
		reminders := append([]Reminder(nil), s.Reminders...)
		reminders[i].Done = !r.Done
		s.Reminders = reminders
		return s, true
	}
	return s, false
}

// Reconcile repairs references that may be stale after loading a persisted
// snapshot: nil collections become empty, the active role falls back to the
// first role, the active chat to the active role's newest chat, and an unknown
// phase to the default one.
func (s AppState) Reconcile() AppState {
	if s.Roles == nil {
		s.Roles = []Role{}
	}
	if s.Chats == nil {
		s.Chats = []ChatSession{}
	}
	if s.Playbooks == nil {
		s.Playbooks = []Playbook{}
	}
	if s.Reminders == nil {
		s.Reminders = []Reminder{}
	}

	if _, ok := s.ActiveRole(); !ok {
		s.ActiveRoleID = ""
		if len(s.Roles) > 0 {
			s.ActiveRoleID = s.Roles[0].ID
		}
	}

	if _, ok := s.ActiveChat(); !ok {
		s.ActiveChatID = ""
		if chats := s.ChatsForRole(s.ActiveRoleID); len(chats) > 0 {
			s.ActiveChatID = chats[0].ID
		}
	}

	if !IsKnownPhase(s.ActivePhaseID) {
		s.ActivePhaseID = DefaultPhaseID
	}
	return s
}
