package models

type CandidateStatus string

const (
	CandidateIdea      CandidateStatus = "idea"
	CandidateSourced   CandidateStatus = "sourced"
	CandidateContacted CandidateStatus = "contacted"
	CandidateResponded CandidateStatus = "responded"
	CandidateScreened  CandidateStatus = "screened"
	CandidateInterview CandidateStatus = "interview"
	CandidateOffer     CandidateStatus = "offer"
	CandidateHired     CandidateStatus = "hired"
	CandidateRejected  CandidateStatus = "rejected"
)

// PipelineStatuses is the ordered pipeline a candidate moves through once
// confirmed. Idea precedes it and rejected is terminal.
var PipelineStatuses = []CandidateStatus{
	CandidateSourced,
	CandidateContacted,
	CandidateResponded,
	CandidateScreened,
	CandidateInterview,
	CandidateOffer,
	CandidateHired,
	CandidateRejected,
}

func (s CandidateStatus) Valid() bool {
	if s == CandidateIdea {
		return true
	}
	for _, p := range PipelineStatuses {
		if p == s {
			return true
		}
	}
	return false
}

type WorkHistoryEntry struct {
	Role     string `json:"role" yaml:"role"`
	Company  string `json:"company" yaml:"company"`
	Duration string `json:"duration" yaml:"duration"`
}

type Candidate struct {
	ID                string             `json:"id,omitempty"`
	Name              string             `json:"name"`
	Match             float64            `json:"match"`
	Summary           string             `json:"summary"`
	Status            CandidateStatus    `json:"status,omitempty"`
	CurrentRole       string             `json:"currentRole,omitempty"`
	YearsOfExperience *float64           `json:"yearsOfExperience,omitempty"`
	LinkedInURL       string             `json:"linkedinUrl,omitempty"`
	Email             string             `json:"email,omitempty"`
	Skills            []string           `json:"skills,omitempty"`
	Notes             string             `json:"notes,omitempty"`
	Source            string             `json:"source,omitempty"`
	Experience        string             `json:"experience,omitempty"`
	WorkHistory       []WorkHistoryEntry `json:"workHistory,omitempty"`
}

// EffectiveStatus treats a missing status as sourced.
func (c Candidate) EffectiveStatus() CandidateStatus {
	if c.Status == "" {
		return CandidateSourced
	}
	return c.Status
}

// Key identifies a candidate for selection when it has no id yet.
func (c Candidate) Key() string {
	if c.ID != "" {
		return c.ID
	}
	return c.Name
}

func (c Candidate) clone() Candidate {
	out := c
	out.Skills = append([]string(nil), c.Skills...)
	out.WorkHistory = append([]WorkHistoryEntry(nil), c.WorkHistory...)
	if c.YearsOfExperience != nil {
		v := *c.YearsOfExperience
		out.YearsOfExperience = &v
	}
	return out
}
