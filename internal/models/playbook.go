package models

import "time"

type Playbook struct {
	ID      string `json:"id" yaml:"id,omitempty"`
	Title   string `json:"title" yaml:"title"`
	PhaseID string `json:"phaseId,omitempty" yaml:"phaseId,omitempty"`
	Prompt  string `json:"prompt" yaml:"prompt"`
}

type Reminder struct {
	ID      string     `json:"id"`
	RoleID  string     `json:"roleId"`
	PhaseID string     `json:"phaseId,omitempty"`
	Text    string     `json:"text"`
	DueDate *time.Time `json:"dueDate,omitempty"`
	Done    bool       `json:"done"`
}

// Overdue reports whether an open reminder is past its due date.
func (r Reminder) Overdue(now time.Time) bool {
	return !r.Done && r.DueDate != nil && r.DueDate.Before(now)
}
