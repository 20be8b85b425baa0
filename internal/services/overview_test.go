package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alfredoptarigan/nexus-talent/internal/models"
)

func withStatuses(statuses ...models.CandidateStatus) []models.Candidate {
	out := make([]models.Candidate, 0, len(statuses))
	for i, s := range statuses {
		out = append(out, models.Candidate{ID: string(rune('a' + i)), Name: "c", Status: s})
	}
	return out
}

func TestSummarizeRoleRisk(t *testing.T) {
	now := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)
	created := now.Add(-49 * time.Hour)

	tests := []struct {
		name   string
		role   models.Role
		risk   string
		active int
	}{
		{"empty pipeline", models.Role{}, "No candidates in pipeline", 0},
		{"thin shortlist", models.Role{Candidates: withStatuses(models.CandidateScreened, "", models.CandidateContacted)}, "Shortlist under 3 candidates", 1},
		{"offer pending", models.Role{Candidates: withStatuses(models.CandidateScreened, models.CandidateInterview, models.CandidateOffer)}, "Offer decision pending", 3},
		{"healthy", models.Role{Candidates: withStatuses(models.CandidateScreened, models.CandidateInterview, models.CandidateInterview, models.CandidateHired)}, "", 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.role.CreatedAt = &created
			s := SummarizeRole(tt.role, now)
			assert.Equal(t, tt.risk, s.Risk)
			assert.Equal(t, tt.active, s.ActiveCount)
			require.NotNil(t, s.DaysOpen)
			assert.Equal(t, 2, *s.DaysOpen)
		})
	}

	s := SummarizeRole(models.Role{Candidates: withStatuses("")}, now)
	assert.Equal(t, 1, s.ByStatus[models.CandidateSourced], "missing status counts as sourced")
	assert.Nil(t, s.DaysOpen)
	assert.Equal(t, "Untitled role", s.Title)
	assert.Equal(t, "Details not set", s.Details)

	s = SummarizeRole(models.Role{Level: "Senior", Location: "Berlin"}, now)
	assert.Equal(t, "Senior · Berlin", s.Details)
}

func TestBuildOverviewAgenda(t *testing.T) {
	now := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	state := models.NewAppState()
	for _, id := range []string{"r1", "r2", "r3", "r4"} {
		state.Roles = append(state.Roles, models.Role{ID: id, Title: "Role " + id})
	}
	state.Roles = append(state.Roles, models.Role{
		ID: "r5", Title: "Closer",
		Candidates: withStatuses(models.CandidateScreened, models.CandidateInterview, models.CandidateOffer),
	})
	state.Reminders = []models.Reminder{
		{ID: "a", RoleID: "r1", Text: "call", DueDate: &past},
		{ID: "b", RoleID: "r1", Text: "done", DueDate: &past, Done: true},
		{ID: "c", RoleID: "r2", Text: "later", DueDate: &future},
		{ID: "d", RoleID: "gone", Text: "orphan", DueDate: &past},
	}

	ov := BuildOverview(state, now)
	require.Len(t, ov.Roles, 5)

	var kinds []AgendaKind
	for _, item := range ov.Agenda {
		kinds = append(kinds, item.Kind)
	}
	assert.Equal(t, []AgendaKind{
		AgendaFollowUp, AgendaFollowUp,
		AgendaSourcing, AgendaSourcing, AgendaSourcing,
		AgendaOffer,
	}, kinds)
	assert.Equal(t, "Follow up: call - Role r1", ov.Agenda[0].Text)
	assert.Equal(t, "Follow up: orphan", ov.Agenda[1].Text)
	assert.Equal(t, "Source more candidates for Role r1.", ov.Agenda[2].Text)
	assert.Equal(t, "Decide on open offers for Closer.", ov.Agenda[5].Text)
}

func TestDescribeDue(t *testing.T) {
	now := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)
	at := func(d time.Duration) *time.Time { v := now.Add(d); return &v }

	assert.Equal(t, "", DescribeDue(models.Reminder{}, now))
	assert.Equal(t, "Completed", DescribeDue(models.Reminder{DueDate: at(-time.Hour), Done: true}, now))
	assert.Equal(t, "Overdue", DescribeDue(models.Reminder{DueDate: at(-time.Minute)}, now))
	assert.Equal(t, "Due today", DescribeDue(models.Reminder{DueDate: at(3 * time.Hour)}, now))
	assert.Equal(t, "Due in 1 day", DescribeDue(models.Reminder{DueDate: at(20 * time.Hour)}, now))
	assert.Equal(t, "Due in 3 days", DescribeDue(models.Reminder{DueDate: at(72 * time.Hour)}, now))
}
