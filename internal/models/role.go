package models

import "time"

type Role struct {
	ID               string      `json:"id"`
	Title            string      `json:"title"`
	CreatedAt        *time.Time  `json:"createdAt,omitempty"`
	Level            string      `json:"level,omitempty"`
	Location         string      `json:"location"`
	EmploymentType   string      `json:"employmentType"`
	SalaryMin        *float64    `json:"salaryMin,omitempty"`
	SalaryMax        *float64    `json:"salaryMax,omitempty"`
	Currency         string      `json:"currency,omitempty"`
	MustHaveSkills   []string    `json:"mustHaveSkills,omitempty"`
	NiceToHaveSkills []string    `json:"niceToHaveSkills,omitempty"`
	Responsibilities string      `json:"responsibilities,omitempty"`
	HiringUrgency    string      `json:"hiringUrgency,omitempty"`
	Notes            string      `json:"notes,omitempty"`
	Candidates       []Candidate `json:"candidates"`
}

const DefaultRoleTitle = "New Role"

// DisplayTitle falls back to fallback when the role has no title yet.
func (r Role) DisplayTitle(fallback string) string {
	if r.Title == "" {
		return fallback
	}
	return r.Title
}

func (r Role) FindCandidate(id string) (Candidate, int, bool) {
	for i, c := range r.Candidates {
		if c.ID == id {
			return c, i, true
		}
	}
	return Candidate{}, -1, false
}

// HasCandidate reports whether the pipeline already holds someone with the
// same name and current role.
func (r Role) HasCandidate(name, currentRole string) bool {
	for _, c := range r.Candidates {
		if c.Name == name && c.CurrentRole == currentRole {
			return true
		}
	}
	return false
}

// WithCandidates returns a copy of r whose pipeline is candidates.
func (r Role) WithCandidates(candidates []Candidate) Role {
	out := r.clone()
	out.Candidates = candidates
	return out
}

func (r Role) clone() Role {
	out := r
	out.MustHaveSkills = append([]string(nil), r.MustHaveSkills...)
	out.NiceToHaveSkills = append([]string(nil), r.NiceToHaveSkills...)
	out.Candidates = make([]Candidate, len(r.Candidates))
	for i, c := range r.Candidates {
		out.Candidates[i] = c.clone()
	}
	return out
}
