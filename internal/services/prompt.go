package services

import (
	_ "embed"
	"fmt"
	"os"
	"strconv"
	"strings"

	"alfredoptarigan/nexus-talent/internal/models"
)

//go:embed prompts/system_instruction.md
var defaultSystemInstruction string

// LoadSystemInstruction returns the file at path, or the built-in instruction
// when path is empty.
func LoadSystemInstruction(path string) (string, error) {
	if path == "" {
		return defaultSystemInstruction, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read system instruction: %w", err)
	}
	return string(data), nil
}

// QuickAction is a one-click prompt offered for the active phase.
type QuickAction struct {
	Label    string `json:"label"`
	Prompt   string `json:"prompt"`
	Playbook bool   `json:"playbook,omitempty"`
}

type ExportKind string

const (
	ExportShortlist ExportKind = "shortlist"
	ExportPanel     ExportKind = "panel"
	ExportOffer     ExportKind = "offer"
)

type PromptBuilder struct{}

func NewPromptBuilder() *PromptBuilder {
	return &PromptBuilder{}
}

func roleTitleOr(role models.Role, fallback string) string {
	return role.DisplayTitle(fallback)
}

// PhaseActions returns the built-in quick actions of a phase.
func (pb *PromptBuilder) PhaseActions(phaseID string, role models.Role) []QuickAction {
	t := roleTitleOr(role, "this role")
	switch phaseID {
	case "phase0":
		return []QuickAction{
			{Label: "Refine job description", Prompt: fmt.Sprintf("Help me refine a clear, structured job description for %s. Use the role details we have (level, location, salary band, must-have skills, responsibilities) and propose a JD in sections: Overview, Responsibilities, Requirements, Nice-to-haves.", t)},
			{Label: "Define ideal candidate profile", Prompt: fmt.Sprintf("Based on the current role details for %s, define an ideal candidate profile: background, years of experience, typical companies, core skills, and red flags.", t)},
		}
	case "phase1":
		return []QuickAction{
			{Label: "Generate sourcing strategy", Prompt: fmt.Sprintf("For %s, propose a sourcing strategy: target channels, search keywords/Boolean strings, and 3 quick-win sourcing experiments I can run this week.", t)},
			{Label: "Draft outreach messages", Prompt: fmt.Sprintf("Create 3 variants of a short, personalized outreach message for %s: one formal, one casual, and one very concise. Include placeholders for candidate name and company.", t)},
		}
	case "phase2":
		return []QuickAction{
			{Label: "Summarize & shortlist candidates", Prompt: fmt.Sprintf("Looking at our current candidate pipeline for %s, propose a shortlist ranked by fit. Highlight why each candidate is strong and where there is risk or missing information.", t)},
			{Label: "Create screening rubric", Prompt: fmt.Sprintf(`Create a structured screening rubric for %s with 5-7 criteria, rating scale, and example evidence for "strong yes" vs "no".`, t)},
		}
	case "phase3":
		return []QuickAction{
			{Label: "Build interview plan", Prompt: fmt.Sprintf("Design an interview plan for %s: stages, who should be on the panel, what each stage should focus on, and suggested questions per stage.", t)},
			{Label: "Draft panel brief", Prompt: fmt.Sprintf(`Draft a short panel brief for %s that I can share with interviewers: role context, what "great" looks like, key risks to probe, and evaluation criteria.`, t)},
		}
	case "phase4":
		return []QuickAction{
			{Label: "Prepare offer summary", Prompt: fmt.Sprintf("Help me prepare an offer summary for the top candidate for %s: compensation breakdown, non-monetary benefits, and how to position the offer compellingly.", t)},
			{Label: "Onboarding checklist", Prompt: fmt.Sprintf("Create a 30-60-90 day onboarding checklist for %s, focusing on outcomes, milestones, and alignment with stakeholders.", t)},
		}
	default:
		return nil
	}
}

// PhaseShortcuts is PhaseActions followed by the saved playbooks that apply
// to the phase. Playbooks without a phase apply everywhere.
func (pb *PromptBuilder) PhaseShortcuts(phaseID string, role models.Role, playbooks []models.Playbook) []QuickAction {
	out := pb.PhaseActions(phaseID, role)
	for _, p := range playbooks {
		if p.PhaseID == "" || p.PhaseID == phaseID {
			out = append(out, QuickAction{Label: p.Title, Prompt: p.Prompt, Playbook: true})
		}
	}
	if out == nil {
		out = []QuickAction{}
	}
	return out
}

// BuildJobDescriptionPrompt asks the assistant to structure a pasted JD.
func (pb *PromptBuilder) BuildJobDescriptionPrompt(role models.Role, jdText string) string {
	return fmt.Sprintf(`I have a job description for the role "%s". `+
		"Please structure it into clear sections (Overview, Responsibilities, Requirements, Nice-to-haves) "+
		"and suggest any improvements or missing elements.\n\n%s", roleTitleOr(role, "role"), jdText)
}

// BuildComparePrompt builds a side-by-side request for two or three
// candidates, selected by id or, for id-less candidates, by name.
func (pb *PromptBuilder) BuildComparePrompt(role models.Role, keys []string) (string, error) {
	selected := make([]models.Candidate, 0, len(keys))
	for _, c := range role.Candidates {
		for _, k := range keys {
			if c.Key() == k {
				selected = append(selected, c)
				break
			}
		}
	}
	if len(selected) < 2 || len(selected) > 3 {
		return "", ErrCompareSelection
	}

	var lines []string
	lines = append(lines,
		fmt.Sprintf(`Please compare the following %d candidates for the role "%s".`, len(selected), roleTitleOr(role, "this role")),
		"Create a concise table comparing: skills/experience fit, compensation or level risk (if you can infer it), interview/notes signals, and overall risk for each candidate.",
		"Then give a clear recommendation: who you would advance, any close calls, and key risks to watch.",
		"",
		"Candidate details:",
	)
	for i, c := range selected {
		lines = append(lines,
			fmt.Sprintf("Candidate %d: %s", i+1, c.Name),
			"- Status: "+string(c.EffectiveStatus()),
			"- Match: "+formatMatch(c.Match)+"%",
		)
		if c.CurrentRole != "" {
			lines = append(lines, "- Current role: "+c.CurrentRole)
		}
		if c.Summary != "" {
			lines = append(lines, "- Summary: "+c.Summary)
		}
		if len(c.Skills) > 0 {
			lines = append(lines, "- Skills: "+strings.Join(c.Skills, ", "))
		}
		if c.Notes != "" {
			lines = append(lines, "- Notes: "+c.Notes)
		}
		if c.LinkedInURL != "" {
			lines = append(lines, "- LinkedIn: "+c.LinkedInURL)
		}
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n"), nil
}

func formatMatch(m float64) string {
	return strconv.FormatFloat(m, 'f', -1, 64)
}

func candidatesWithStatus(role models.Role, statuses ...models.CandidateStatus) []models.Candidate {
	var out []models.Candidate
	for _, c := range role.Candidates {
		s := c.EffectiveStatus()
		for _, want := range statuses {
			if s == want {
				out = append(out, c)
				break
			}
		}
	}
	return out
}

// BuildExport renders one of the copyable pipeline summaries. Panel and offer
// exports return ErrNothingToExport when no candidate qualifies.
func (pb *PromptBuilder) BuildExport(kind ExportKind, role models.Role) (string, error) {
	switch kind {
	case ExportShortlist:
		return pb.BuildShortlist(role), nil
	case ExportPanel:
		return pb.BuildPanelBrief(role)
	case ExportOffer:
		return pb.BuildOfferSummary(role)
	default:
		return "", fmt.Errorf("%w %q", ErrUnknownExport, kind)
	}
}

// BuildShortlist lists screened-or-later candidates, or everyone when nobody
// got that far yet.
func (pb *PromptBuilder) BuildShortlist(role models.Role) string {
	list := candidatesWithStatus(role, models.CandidateScreened, models.CandidateInterview, models.CandidateOffer, models.CandidateHired)
	if len(list) == 0 {
		list = role.Candidates
	}

	lines := []string{"# Shortlist for " + roleTitleOr(role, "role"), ""}
	for _, c := range list {
		lines = append(lines, fmt.Sprintf("- %s (%s, match %s%%)", c.Name, c.EffectiveStatus(), formatMatch(c.Match)))
		if c.Summary != "" {
			lines = append(lines, "  - Summary: "+c.Summary)
		}
		if c.Notes != "" {
			lines = append(lines, "  - Notes: "+c.Notes)
		}
		if c.LinkedInURL != "" {
			lines = append(lines, "  - LinkedIn: "+c.LinkedInURL)
		}
	}
	return strings.Join(lines, "\n")
}

func currentRoleOrNA(c models.Candidate) string {
	if c.CurrentRole == "" {
		return "current role n/a"
	}
	return c.CurrentRole
}

func (pb *PromptBuilder) BuildPanelBrief(role models.Role) (string, error) {
	list := candidatesWithStatus(role, models.CandidateInterview, models.CandidateScreened)
	if len(list) == 0 {
		return "", ErrNothingToExport
	}

	lines := []string{"# Interview panel brief for " + roleTitleOr(role, "role"), ""}
	for _, c := range list {
		lines = append(lines, fmt.Sprintf("- %s (%s, match %s%%)", c.Name, currentRoleOrNA(c), formatMatch(c.Match)))
		if c.Summary != "" {
			lines = append(lines, "  - Summary: "+c.Summary)
		}
		if c.Notes != "" {
			lines = append(lines, "  - Notes: "+c.Notes)
		}
		if len(c.Skills) > 0 {
			lines = append(lines, "  - Focus areas: "+strings.Join(c.Skills, ", "))
		}
	}
	lines = append(lines,
		"",
		"Suggested asks for the panel:",
		"- Confirm strengths and gaps against the core requirements.",
		"- Probe for ownership, collaboration, and decision-making.",
		"- Identify any risks or concerns to clarify before offer.",
	)
	return strings.Join(lines, "\n"), nil
}

func (pb *PromptBuilder) BuildOfferSummary(role models.Role) (string, error) {
	list := candidatesWithStatus(role, models.CandidateOffer, models.CandidateHired)
	if len(list) == 0 {
		return "", ErrNothingToExport
	}

	lines := []string{"# Offer summary for " + roleTitleOr(role, "role"), ""}
	for _, c := range list {
		lines = append(lines, fmt.Sprintf("- %s (%s, match %s%%)", c.Name, currentRoleOrNA(c), formatMatch(c.Match)))
		if c.Summary != "" {
			lines = append(lines, "  - Summary: "+c.Summary)
		}
		if c.Notes != "" {
			lines = append(lines, "  - Notes: "+c.Notes)
		}
		if c.LinkedInURL != "" {
			lines = append(lines, "  - LinkedIn: "+c.LinkedInURL)
		}
	}
	lines = append(lines,
		"",
		"Include in your internal approval thread:",
		"- Level and compensation recommendation.",
		"- Key reasons to hire now.",
		"- Main risks and how to mitigate them.",
	)
	return strings.Join(lines, "\n"), nil
}
