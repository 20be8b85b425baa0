package services

import (
	"fmt"
	"math"
	"strings"
	"time"

	"alfredoptarigan/nexus-talent/internal/models"
)

const (
	agendaLimit        = 3
	minActiveShortlist = 3
	day                = 24 * time.Hour
)

type RoleSummary struct {
	RoleID           string                         `json:"roleId"`
	Title            string                         `json:"title"`
	Details          string                         `json:"details"`
	DaysOpen         *int                           `json:"daysOpen,omitempty"`
	Risk             string                         `json:"risk,omitempty"`
	Total            int                            `json:"total"`
	ByStatus         map[models.CandidateStatus]int `json:"byStatus"`
	ActiveCount      int                            `json:"activeCount"`
	HiredCount       int                            `json:"hiredCount"`
	Responsibilities string                         `json:"responsibilities,omitempty"`
}

type AgendaKind string

const (
	AgendaFollowUp AgendaKind = "follow_up"
	AgendaSourcing AgendaKind = "sourcing"
	AgendaOffer    AgendaKind = "offer"
)

type AgendaItem struct {
	Kind   AgendaKind `json:"kind"`
	RoleID string     `json:"roleId,omitempty"`
	Text   string     `json:"text"`
	Hint   string     `json:"hint,omitempty"`
}

// Overview is the cross-role "today" dashboard.
type Overview struct {
	Agenda []AgendaItem  `json:"agenda"`
	Roles  []RoleSummary `json:"roles"`
}

// SummarizeRole counts a role's pipeline and labels its main risk.
func SummarizeRole(role models.Role, now time.Time) RoleSummary {
	s := RoleSummary{
		RoleID:           role.ID,
		Title:            role.DisplayTitle("Untitled role"),
		Total:            len(role.Candidates),
		ByStatus:         make(map[models.CandidateStatus]int),
		Responsibilities: role.Responsibilities,
	}
	for _, c := range role.Candidates {
		s.ByStatus[c.EffectiveStatus()]++
	}
	s.ActiveCount = s.ByStatus[models.CandidateScreened] + s.ByStatus[models.CandidateInterview] + s.ByStatus[models.CandidateOffer]
	s.HiredCount = s.ByStatus[models.CandidateHired]

	var details []string
	for _, d := range []string{role.Level, role.Location} {
		if d != "" {
			details = append(details, d)
		}
	}
	s.Details = strings.Join(details, " · ")
	if s.Details == "" {
		s.Details = "Details not set"
	}

	if role.CreatedAt != nil {
		days := 0
		if diff := now.Sub(*role.CreatedAt); diff > 0 {
			days = int(diff / day)
		}
		s.DaysOpen = &days
	}

	switch {
	case s.Total == 0:
		s.Risk = "No candidates in pipeline"
	case s.ActiveCount < minActiveShortlist:
		s.Risk = "Shortlist under 3 candidates"
	case s.ByStatus[models.CandidateOffer] > 0 && s.HiredCount == 0:
		s.Risk = "Offer decision pending"
	}
	return s
}

// BuildOverview assembles the dashboard. Each agenda list holds at most three
// items: overdue reminders, roles that need sourcing, roles with open offers.
func BuildOverview(state models.AppState, now time.Time) Overview {
	ov := Overview{Agenda: []AgendaItem{}, Roles: make([]RoleSummary, 0, len(state.Roles))}
	for _, role := range state.Roles {
		ov.Roles = append(ov.Roles, SummarizeRole(role, now))
	}

	followUps := 0
	for _, r := range state.Reminders {
		if followUps == agendaLimit {
			break
		}
		if !r.Overdue(now) {
			continue
		}
		text := "Follow up: " + r.Text
		if role, _, ok := state.FindRole(r.RoleID); ok {
			text += " - " + role.DisplayTitle("Untitled role")
		}
		ov.Agenda = append(ov.Agenda, AgendaItem{Kind: AgendaFollowUp, RoleID: r.RoleID, Text: text})
		followUps++
	}

	sourcing := 0
	for _, s := range ov.Roles {
		if sourcing == agendaLimit {
			break
		}
		if s.Total == 0 || s.ActiveCount < minActiveShortlist {
			ov.Agenda = append(ov.Agenda, AgendaItem{
				Kind:   AgendaSourcing,
				RoleID: s.RoleID,
				Text:   fmt.Sprintf("Source more candidates for %s.", titleOrThisRole(state, s.RoleID)),
				Hint:   "Use a Phase 1 sourcing prompt or ask Nexus to draft outreach.",
			})
			sourcing++
		}
	}

	offers := 0
	for _, s := range ov.Roles {
		if offers == agendaLimit {
			break
		}
		if s.ByStatus[models.CandidateOffer] > 0 {
			ov.Agenda = append(ov.Agenda, AgendaItem{
				Kind:   AgendaOffer,
				RoleID: s.RoleID,
				Text:   fmt.Sprintf("Decide on open offers for %s.", titleOrThisRole(state, s.RoleID)),
				Hint:   "Ask Nexus for an offer recommendation summary.",
			})
			offers++
		}
	}
	return ov
}

func titleOrThisRole(state models.AppState, roleID string) string {
	role, _, _ := state.FindRole(roleID)
	return role.DisplayTitle("this role")
}

// DescribeDue labels a reminder's due date; "" when it has none.
func DescribeDue(r models.Reminder, now time.Time) string {
	if r.DueDate == nil {
		return ""
	}
	if r.Done {
		return "Completed"
	}
	diff := r.DueDate.Sub(now)
	if diff < 0 {
		return "Overdue"
	}
	days := int(math.Round(float64(diff) / float64(day)))
	switch days {
	case 0:
		return "Due today"
	case 1:
		return "Due in 1 day"
	default:
		return fmt.Sprintf("Due in %d days", days)
	}
}
