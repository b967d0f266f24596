package target

import (
	"fmt"
	"math"
)

// ReadyThreshold is the minimum component score for the replacement system to be considered ready.
const ReadyThreshold = 70

// Bucket is one weighted slice of the readiness score.
type Bucket struct {
	Name   string  `json:"name"`
	Points float64 `json:"points"`
	Max    int     `json:"max"`
}

// Readiness is the self-assessment of the replacement system.
type Readiness struct {
	Score          int      `json:"score"`
	IsReady        bool     `json:"isReady"`
	CriticalIssues []string `json:"criticalIssues"`
	Warnings       []string `json:"warnings"`
	Breakdown      []Bucket `json:"breakdown"`
}

// ValidateSystemReadiness scores the catalog, business rules and feature flags.
// It is independent of the activation gate, which scores accumulated validation results.
func (m *Manager) ValidateSystemReadiness() Readiness {
	categories := m.Categories()
	concepts := m.Concepts()
	features := m.Features()
	rules := m.rules.All()

	r := Readiness{CriticalIssues: []string{}, Warnings: []string{}}

	catPts := 10.0
	if n := len(categories); n < 5 {
		catPts = float64(2 * n)
		r.CriticalIssues = append(r.CriticalIssues, fmt.Sprintf("only %d super-categories configured (minimum 5)", n))
	}
	r.Breakdown = append(r.Breakdown, Bucket{Name: "categories", Points: catPts, Max: 10})

	subPts := 0.0
	if len(categories) > 0 {
		covered := 0
		for _, c := range categories {
			if len(c.Subcategories) > 0 {
				covered++
			} else {
				r.Warnings = append(r.Warnings, fmt.Sprintf("category %q has no subcategories", c.ID))
			}
		}
		subPts = 15 * float64(covered) / float64(len(categories))
	}
	r.Breakdown = append(r.Breakdown, Bucket{Name: "subcategories", Points: subPts, Max: 15})

	var conceptPts float64
	switch n := len(concepts); {
	case n >= 30:
		conceptPts = 20
	case n >= 20:
		conceptPts = 15
		r.Warnings = append(r.Warnings, fmt.Sprintf("%d concepts configured; 30 recommended", n))
	case n >= 15:
		conceptPts = 10
		r.Warnings = append(r.Warnings, fmt.Sprintf("%d concepts configured; 30 recommended", n))
	default:
		r.CriticalIssues = append(r.CriticalIssues, fmt.Sprintf("only %d concepts configured (minimum 15)", n))
	}
	r.Breakdown = append(r.Breakdown, Bucket{Name: "concepts", Points: conceptPts, Max: 20})

	if len(rules) == 0 {
		r.Warnings = append(r.Warnings, "no business rules registered")
	}
	for _, rule := range rules {
		if !rule.Implemented {
			r.Warnings = append(r.Warnings, fmt.Sprintf("business rule %q not implemented (coverage %d%%)", rule.Rule, rule.Coverage))
		}
	}
	r.Breakdown = append(r.Breakdown, Bucket{Name: "businessRules", Points: 25 * m.rules.EnabledRatio(), Max: 25})

	featPts := 0.0
	if features.Wishlist && features.Comparison {
		featPts += 10
	} else {
		r.Warnings = append(r.Warnings, "wishlist and comparison must both be enabled")
	}
	if features.ProviderIDVerification {
		featPts += 10
	} else {
		r.Warnings = append(r.Warnings, "provider ID verification disabled")
	}
	if features.SMSVerification {
		featPts += 10
	} else {
		r.Warnings = append(r.Warnings, "SMS verification disabled")
	}
	r.Breakdown = append(r.Breakdown, Bucket{Name: "features", Points: featPts, Max: 30})

	total := 0.0
	for _, b := range r.Breakdown {
		total += b.Points
	}
	r.Score = int(math.Round(total))
	r.IsReady = r.Score >= ReadyThreshold && len(r.CriticalIssues) == 0
	return r
}
