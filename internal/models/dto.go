package models

import "time"

// CandidatePatch holds the editable candidate fields; nil means unchanged.
type CandidatePatch struct {
	Status      *CandidateStatus `json:"status,omitempty"`
	Notes       *string          `json:"notes,omitempty"`
	Email       *string          `json:"email,omitempty"`
	LinkedInURL *string          `json:"linkedinUrl,omitempty"`
	CurrentRole *string          `json:"currentRole,omitempty"`
	Summary     *string          `json:"summary,omitempty"`
	Source      *string          `json:"source,omitempty"`
}

// Apply returns c with the patch's fields set. Status is left to the caller,
// which validates it.
func (p CandidatePatch) Apply(c Candidate) Candidate {
	set := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	set(&c.Notes, p.Notes)
	set(&c.Email, p.Email)
	set(&c.LinkedInURL, p.LinkedInURL)
	set(&c.CurrentRole, p.CurrentRole)
	set(&c.Summary, p.Summary)
	set(&c.Source, p.Source)
	return c
}

type MessageRequest struct {
	Text string `json:"text"`
}

type NewChatRequest struct {
	RoleID string `json:"roleId"`
}

type PhaseRequest struct {
	PhaseID string `json:"phaseId"`
}

type CompareRequest struct {
	CandidateIDs []string `json:"candidateIds"`
}

type PlaybookRequest struct {
	Prompt  string `json:"prompt"`
	PhaseID string `json:"phaseId"`
}

// ReminderRequest sets the due date either directly or as days from now.
type ReminderRequest struct {
	Text      string     `json:"text"`
	PhaseID   string     `json:"phaseId"`
	DueInDays int        `json:"dueInDays"`
	DueDate   *time.Time `json:"dueDate,omitempty"`
}

type JobDescriptionRequest struct {
	Text string `json:"text"`
}

type StateResponse struct {
	State     AppState `json:"state"`
	Busy      bool     `json:"busy"`
	LastError string   `json:"lastError,omitempty"`
}

type ExportResponse struct {
	Kind string `json:"kind"`
	Text string `json:"text"`
}

type ReminderView struct {
	Reminder
	DueLabel string `json:"dueLabel,omitempty"`
}
