package services

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"alfredoptarigan/nexus-talent/internal/models"
)

const (
	suggestionSource    = "AI suggestion"
	maxPlaybookTitleLen = 60
	playbookTitleCut    = 57
)

// WorkspaceService covers the recruiter's edits to roles, pipelines,
// playbooks and reminders. None of it talks to the chat provider.
type WorkspaceService struct {
	store   *StateStore
	worker  Worker
	prompts *PromptBuilder
	log     *zap.Logger
	now     func() time.Time
}

// NewWorkspaceService wires the service. worker may be nil when candidate
// indexing is disabled.
func NewWorkspaceService(store *StateStore, worker Worker, prompts *PromptBuilder, log *zap.Logger) *WorkspaceService {
	return &WorkspaceService{
		store:   store,
		worker:  worker,
		prompts: prompts,
		log:     log,
		now:     time.Now,
	}
}

func (w *WorkspaceService) resolveRole(s models.AppState, roleID string) (models.Role, error) {
	if roleID == "" {
		roleID = s.ActiveRoleID
		if roleID == "" {
			return models.Role{}, ErrNoActiveRole
		}
	}
	role, _, ok := s.FindRole(roleID)
	if !ok {
		return models.Role{}, ErrRoleNotFound
	}
	return role, nil
}

// UpdateRole replaces the stored role with the same id.
func (w *WorkspaceService) UpdateRole(role models.Role) error {
	if role.Candidates == nil {
		role.Candidates = []models.Candidate{}
	}
	if !w.store.TryUpdate(func(s models.AppState) (models.AppState, bool) {
		return s.ReplaceRole(role)
	}) {
		return ErrRoleNotFound
	}
	return nil
}

// AddCandidateFromSuggestion adds an assistant-suggested candidate to a role's
// pipeline (the active role when roleID is empty). A candidate with the same
// name and current role is skipped silently and added is false.
func (w *WorkspaceService) AddCandidateFromSuggestion(roleID string, c models.Candidate) (models.Candidate, bool, error) {
	if c.ID == "" {
		c.ID = newID("cand")
	}
	c.Status = models.CandidateSourced
	if c.Source == "" {
		c.Source = suggestionSource
	}

	var (
		resolveErr error
		target     string
	)
	added := w.store.TryUpdate(func(s models.AppState) (models.AppState, bool) {
		role, err := w.resolveRole(s, roleID)
		if err != nil {
			resolveErr = err
			return s, false
		}
		if role.HasCandidate(c.Name, c.CurrentRole) {
			return s, false
		}
		target = role.ID
		candidates := append(append([]models.Candidate(nil), role.Candidates...), c)
		return s.ReplaceRole(role.WithCandidates(candidates))
	})
	if resolveErr != nil {
		return models.Candidate{}, false, resolveErr
	}
	if !added {
		w.log.Debug("Candidate already in pipeline", zap.String("name", c.Name))
		return c, false, nil
	}

	w.log.Info("➕ Candidate added to pipeline",
		zap.String("role_id", target),
		zap.String("candidate_id", c.ID))
	if w.worker != nil {
		w.worker.EnqueueJob(IndexJob{RoleID: target, Candidate: c})
	}
	return c, true, nil
}

func (w *WorkspaceService) updateCandidate(roleID, candidateID string, fn func(models.Candidate) models.Candidate) (models.Candidate, error) {
	var (
		opErr   error
		updated models.Candidate
	)
	w.store.TryUpdate(func(s models.AppState) (models.AppState, bool) {
		role, err := w.resolveRole(s, roleID)
		if err != nil {
			opErr = err
			return s, false
		}
		c, idx, ok := role.FindCandidate(candidateID)
		if !ok {
			opErr = ErrCandidateNotFound
			return s, false
		}
		updated = fn(c)
		candidates := append([]models.Candidate(nil), role.Candidates...)
		candidates[idx] = updated
		return s.ReplaceRole(role.WithCandidates(candidates))
	})
	return updated, opErr
}

// UpdateCandidateStatus moves a candidate to another pipeline stage. A
// rejected candidate leaves the search index.
func (w *WorkspaceService) UpdateCandidateStatus(roleID, candidateID string, status models.CandidateStatus) error {
	if !status.Valid() {
		return ErrInvalidStatus
	}
	c, err := w.updateCandidate(roleID, candidateID, func(c models.Candidate) models.Candidate {
		c.Status = status
		return c
	})
	if err != nil {
		return err
	}
	w.reindex(roleID, c)
	return nil
}

// reindex queues c for the search index, or for removal once rejected.
func (w *WorkspaceService) reindex(roleID string, c models.Candidate) {
	if w.worker == nil {
		return
	}
	if roleID == "" {
		roleID = w.store.Snapshot().ActiveRoleID
	}
	w.worker.EnqueueJob(IndexJob{
		RoleID:    roleID,
		Candidate: c,
		Remove:    c.Status == models.CandidateRejected,
	})
}

// UpdateCandidateFields applies patch, status included, and re-indexes the
// candidate.
func (w *WorkspaceService) UpdateCandidateFields(roleID, candidateID string, patch models.CandidatePatch) (models.Candidate, error) {
	if patch.Status != nil && !patch.Status.Valid() {
		return models.Candidate{}, ErrInvalidStatus
	}
	c, err := w.updateCandidate(roleID, candidateID, func(c models.Candidate) models.Candidate {
		c = patch.Apply(c)
		if patch.Status != nil {
			c.Status = *patch.Status
		}
		return c
	})
	if err != nil {
		return models.Candidate{}, err
	}
	w.reindex(roleID, c)
	return c, nil
}

// PlaybookTitle is the first line of prompt, shortened with an ellipsis when
// longer than sixty characters.
func PlaybookTitle(prompt string) string {
	title, _, _ := strings.Cut(prompt, "\n")
	if title == "" {
		title = prompt
	}
	if utf8.RuneCountInString(title) <= maxPlaybookTitleLen {
		return title
	}
	runes := []rune(title)
	return strings.TrimRight(string(runes[:playbookTitleCut]), " \t\r\n") + "…"
}

// SavePlaybook stores prompt as a reusable playbook scoped to phaseID, or to
// the active phase when phaseID is empty.
func (w *WorkspaceService) SavePlaybook(prompt, phaseID string) (models.Playbook, error) {
	if strings.TrimSpace(prompt) == "" {
		return models.Playbook{}, ErrEmptyInput
	}
	if phaseID != "" && !models.IsKnownPhase(phaseID) {
		return models.Playbook{}, ErrInvalidPhase
	}

	pb := models.Playbook{
		ID:     newID("pb"),
		Title:  PlaybookTitle(prompt),
		Prompt: prompt,
	}
	w.store.Update(func(s models.AppState) models.AppState {
		pb.PhaseID = phaseID
		if pb.PhaseID == "" {
			pb.PhaseID = s.ActivePhaseID
		}
		return s.PrependPlaybook(pb)
	})
	return pb, nil
}

// ImportPlaybooks prepends playbooks loaded from a file, keeping their order.
// Entries without an id get one; an id already present is skipped.
func (w *WorkspaceService) ImportPlaybooks(playbooks []models.Playbook) int {
	var accepted []models.Playbook
	w.store.Update(func(s models.AppState) models.AppState {
		accepted = accepted[:0]
		seen := make(map[string]bool, len(s.Playbooks))
		for _, p := range s.Playbooks {
			seen[p.ID] = true
		}
		for _, p := range playbooks {
			if strings.TrimSpace(p.Prompt) == "" {
				continue
			}
			if p.ID == "" {
				p.ID = newID("pb")
			}
			if seen[p.ID] {
				continue
			}
			if p.Title == "" {
				p.Title = PlaybookTitle(p.Prompt)
			}
			seen[p.ID] = true
			accepted = append(accepted, p)
		}
		s.Playbooks = append(append([]models.Playbook(nil), accepted...), s.Playbooks...)
		return s
	})
	return len(accepted)
}

func (w *WorkspaceService) DeletePlaybook(id string) error {
	if !w.store.TryUpdate(func(s models.AppState) (models.AppState, bool) {
		return s.RemovePlaybook(id)
	}) {
		return ErrPlaybookNotFound
	}
	return nil
}

// AddReminder attaches a reminder to the active role.
func (w *WorkspaceService) AddReminder(text, phaseID string, due *time.Time) (models.Reminder, error) {
	if strings.TrimSpace(text) == "" {
		return models.Reminder{}, ErrEmptyInput
	}
	r := models.Reminder{
		ID:      newID("rem"),
		PhaseID: phaseID,
		Text:    text,
		DueDate: due,
	}
	var opErr error
	w.store.TryUpdate(func(s models.AppState) (models.AppState, bool) {
		if _, ok := s.ActiveRole(); !ok {
			opErr = ErrNoActiveRole
			return s, false
		}
		r.RoleID = s.ActiveRoleID
		return s.PrependReminder(r), true
	})
	if opErr != nil {
		return models.Reminder{}, opErr
	}
	return r, nil
}

// AddReminderInDays is AddReminder due days from now; days <= 0 means no due
// date.
func (w *WorkspaceService) AddReminderInDays(text, phaseID string, days int) (models.Reminder, error) {
	var due *time.Time
	if days > 0 {
		d := w.now().Add(time.Duration(days) * 24 * time.Hour)
		due = &d
	}
	return w.AddReminder(text, phaseID, due)
}

func (w *WorkspaceService) ToggleReminder(id string) error {
	if !w.store.TryUpdate(func(s models.AppState) (models.AppState, bool) {
		return s.ToggleReminder(id)
	}) {
		return ErrReminderNotFound
	}
	return nil
}

// ImportJobDescription stores jdText as the role's responsibilities and
// returns the prompt that asks the assistant to structure it.
func (w *WorkspaceService) ImportJobDescription(roleID, jdText string) (string, error) {
	if strings.TrimSpace(jdText) == "" {
		return "", ErrEmptyInput
	}
	var (
		opErr error
		role  models.Role
	)
	w.store.TryUpdate(func(s models.AppState) (models.AppState, bool) {
		r, err := w.resolveRole(s, roleID)
		if err != nil {
			opErr = err
			return s, false
		}
		r.Responsibilities = jdText
		role = r
		return s.ReplaceRole(r)
	})
	if opErr != nil {
		return "", opErr
	}
	return w.prompts.BuildJobDescriptionPrompt(role, jdText), nil
}

// ComparePrompt builds the compare request for candidates of a role.
func (w *WorkspaceService) ComparePrompt(roleID string, keys []string) (string, error) {
	role, err := w.resolveRole(w.store.Snapshot(), roleID)
	if err != nil {
		return "", err
	}
	return w.prompts.BuildComparePrompt(role, keys)
}

// Export renders a copyable pipeline summary for a role.
func (w *WorkspaceService) Export(roleID string, kind ExportKind) (string, error) {
	role, err := w.resolveRole(w.store.Snapshot(), roleID)
	if err != nil {
		return "", err
	}
	return w.prompts.BuildExport(kind, role)
}

// PhaseShortcuts lists the quick actions for the active phase and role.
func (w *WorkspaceService) PhaseShortcuts() []QuickAction {
	s := w.store.Snapshot()
	role, _ := s.ActiveRole()
	return w.prompts.PhaseShortcuts(s.ActivePhaseID, role, s.Playbooks)
}

// CandidateSearch finds indexed candidates similar to a free-text query.
type CandidateSearch struct {
	embedder Embedder
	index    CandidateIndex
}

func NewCandidateSearch(embedder Embedder, index CandidateIndex) *CandidateSearch {
	return &CandidateSearch{embedder: embedder, index: index}
}

func (c *CandidateSearch) Search(ctx context.Context, query, roleID string, limit int) ([]CandidateMatch, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyInput
	}
	if limit <= 0 {
		limit = 5
	}
	vec, err := c.embedder.GenerateEmbedding(ctx, query)
	if err != nil {
		return nil, err
	}
	return c.index.SearchSimilar(ctx, vec, roleID, limit)
}
