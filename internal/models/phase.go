package models

// Phase is one of the fixed recruitment stages used to contextualise the
// assistant and the workspace.
type Phase struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

const DefaultPhaseID = "phase0"

var Phases = []Phase{
	{
		ID:          "phase0",
		Title:       "Phase 0: Role Creation & Strategy",
		Description: "Defining the hiring need with precision and data.",
	},
	{
		ID:          "phase1",
		Title:       "Phase 1: Sourcing & Attraction",
		Description: "Casting a wide, intelligent net to attract candidates.",
	},
	{
		ID:          "phase2",
		Title:       "Phase 2: Screening & Assessment",
		Description: "Removing noise and bias, presenting true potential.",
	},
	{
		ID:          "phase3",
		Title:       "Phase 3: Interview & Engagement",
		Description: "Seamless logistics and deep human connection.",
	},
	{
		ID:          "phase4",
		Title:       "Phase 4: Offer & Onboarding",
		Description: "Closing the deal and creating an amazing Day 1.",
	},
}

func FindPhase(id string) (Phase, bool) {
	for _, p := range Phases {
		if p.ID == id {
			return p, true
		}
	}
	return Phase{}, false
}

func IsKnownPhase(id string) bool {
	_, ok := FindPhase(id)
	return ok
}
