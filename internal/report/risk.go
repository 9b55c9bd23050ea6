package report

import (
	"github.com/maumcare/pulse/internal/domain/threshold"
	"github.com/maumcare/pulse/internal/history"
)

// RiskOverview tallies how many participants fall into each risk band per
// category for one week. Band keys are the Korean report labels.
type RiskOverview map[string]map[string]int

// RiskCounts classifies every participant's category averages for a week
// against the cutoff set. Participants without a score for the week, and
// categories without defined cutoffs, are left out.
func RiskCounts(histories []*history.ParticipantHistory, cuts threshold.Set, week int) RiskOverview {
	overview := make(RiskOverview)
	for _, h := range histories {
		score, ok := h.Score(week)
		if !ok {
			continue
		}
		for category, value := range score.CategoryAverages {
			band, ok := cuts.ClassifyCategory(category, h.Identity.Gender, value)
			if !ok {
				continue
			}
			if overview[category] == nil {
				overview[category] = make(map[string]int)
			}
			overview[category][band.Label()]++
		}
	}
	return overview
}
