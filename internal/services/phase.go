package services

import (
	"regexp"

	"alfredoptarigan/nexus-talent/internal/models"
)

var phaseMarker = regexp.MustCompile(`belongs to \*\*Phase (\d+):`)

// ClassifyPhase looks for the assistant's phase declaration and returns the
// phase id it names. Only the first marker counts, and an unknown phase
// number yields ok=false.
func ClassifyPhase(responseText string) (string, bool) {
	m := phaseMarker.FindStringSubmatch(responseText)
	if m == nil {
		return "", false
	}
	id := "phase" + m[1]
	if !models.IsKnownPhase(id) {
		return "", false
	}
	return id, true
}
