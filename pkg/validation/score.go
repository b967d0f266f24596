package validation

import (
	"math"

	"market-cutover/pkg/model"
)

// Score is the activation readiness score: round((pass + 0.5*warning) / total * 100)
// over every result given. An empty set scores 0.
func Score(results []model.ValidationResult) int {
	if len(results) == 0 {
		return 0
	}
	var pass, warning int
	for _, r := range results {
		switch r.Status {
		case model.ValidationPass:
			pass++
		case model.ValidationWarning:
			warning++
		}
	}
	return int(math.Round((float64(pass) + 0.5*float64(warning)) / float64(len(results)) * 100))
}

// CountByStatus tallies results per status.
func CountByStatus(results []model.ValidationResult) map[model.ValidationStatus]int {
	out := map[model.ValidationStatus]int{
		model.ValidationPass:    0,
		model.ValidationWarning: 0,
		model.ValidationFail:    0,
	}
	for _, r := range results {
		out[r.Status]++
	}
	return out
}
