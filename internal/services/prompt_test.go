package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alfredoptarigan/nexus-talent/internal/models"
)

func pipelineRole() models.Role {
	return models.Role{
		ID:    "role_1",
		Title: "Data Engineer",
		Candidates: []models.Candidate{
			{ID: "c1", Name: "Ada", Match: 90, Status: models.CandidateInterview, CurrentRole: "Analytics Lead", Summary: "Spark expert", Skills: []string{"Spark", "dbt"}},
			{ID: "c2", Name: "Linus", Match: 72.5, Summary: "Generalist", LinkedInURL: "https://linkedin.com/in/linus"},
			{ID: "c3", Name: "Grace", Match: 88, Status: models.CandidateOffer, Notes: "Wants remote"},
			{Name: "Idless", Match: 50, Status: models.CandidateIdea},
		},
	}
}

func TestBuildShortlist(t *testing.T) {
	pb := NewPromptBuilder()
	got := pb.BuildShortlist(pipelineRole())
	want := strings.Join([]string{
		"# Shortlist for Data Engineer",
		"",
		"- Ada (interview, match 90%)",
		"  - Summary: Spark expert",
		"- Grace (offer, match 88%)",
		"  - Notes: Wants remote",
	}, "\n")
	assert.Equal(t, want, got)

	fallback := pb.BuildShortlist(models.Role{Candidates: []models.Candidate{{Name: "Linus", Match: 72.5}}})
	assert.Contains(t, fallback, "# Shortlist for role")
	assert.Contains(t, fallback, "- Linus (sourced, match 72.5%)")
}

func TestBuildPanelAndOffer(t *testing.T) {
	pb := NewPromptBuilder()

	panel, err := pb.BuildPanelBrief(pipelineRole())
	require.NoError(t, err)
	assert.Contains(t, panel, "- Ada (Analytics Lead, match 90%)")
	assert.Contains(t, panel, "  - Focus areas: Spark, dbt")
	assert.True(t, strings.HasSuffix(panel, "- Identify any risks or concerns to clarify before offer."))
	assert.NotContains(t, panel, "Grace")

	offer, err := pb.BuildOfferSummary(pipelineRole())
	require.NoError(t, err)
	assert.Contains(t, offer, "- Grace (current role n/a, match 88%)")
	assert.True(t, strings.HasSuffix(offer, "- Main risks and how to mitigate them."))

	_, err = pb.BuildExport(ExportOffer, models.Role{Candidates: []models.Candidate{{Name: "x"}}})
	require.ErrorIs(t, err, ErrNothingToExport)
	_, err = pb.BuildExport("bogus", pipelineRole())
	require.Error(t, err)
}

func TestBuildComparePrompt(t *testing.T) {
	pb := NewPromptBuilder()

	prompt, err := pb.BuildComparePrompt(pipelineRole(), []string{"c2", "Idless"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(prompt, `Please compare the following 2 candidates for the role "Data Engineer".`))
	assert.Contains(t, prompt, "Candidate 1: Linus\n- Status: sourced\n- Match: 72.5%")
	assert.Contains(t, prompt, "- LinkedIn: https://linkedin.com/in/linus")
	assert.Contains(t, prompt, "Candidate 2: Idless\n- Status: idea")

	_, err = pb.BuildComparePrompt(pipelineRole(), []string{"c1"})
	require.ErrorIs(t, err, ErrCompareSelection)
	_, err = pb.BuildComparePrompt(pipelineRole(), []string{"c1", "c2", "c3", "Idless"})
	require.ErrorIs(t, err, ErrCompareSelection)
}

func TestPhaseActionsCoverEveryPhase(t *testing.T) {
	pb := NewPromptBuilder()
	for _, p := range models.Phases {
		actions := pb.PhaseActions(p.ID, models.Role{})
		require.Len(t, actions, 2, p.ID)
		for _, a := range actions {
			assert.Contains(t, a.Prompt, "this role")
		}
	}
	assert.Empty(t, pb.PhaseActions("phase9", models.Role{}))
}

func TestLoadSystemInstruction(t *testing.T) {
	text, err := LoadSystemInstruction("")
	require.NoError(t, err)
	assert.Contains(t, text, "belongs to **Phase [N]: [Phase Name]**")
	assert.Contains(t, text, "`candidates`")

	_, err = LoadSystemInstruction("/nonexistent/instruction.md")
	require.Error(t, err)
}
