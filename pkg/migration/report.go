package migration

import (
	"market-cutover/pkg/model"
	"market-cutover/pkg/validation"
)

// Report is the comprehensive cut-over report.
type Report struct {
	Steps             []model.MigrationStep      `json:"steps"`
	ValidationResults []model.ValidationResult   `json:"validationResults"`
	MissingComponents []model.MissingComponent   `json:"missingComponents"`
	BusinessRules     []model.BusinessRuleStatus `json:"businessRules"`
	ReadinessScore    int                        `json:"readinessScore"`
}

// TestResults tallies the accumulated validation results.
type TestResults struct {
	Total          int `json:"total"`
	Pass           int `json:"pass"`
	Warning        int `json:"warning"`
	Fail           int `json:"fail"`
	ReadinessScore int `json:"readinessScore"`
}

// DetailedReport describes the replacement system as validated.
type DetailedReport struct {
	Categories      []model.Category               `json:"categories"`
	Concepts        []model.Concept                `json:"concepts"`
	SystemFields    map[string][]model.CustomField `json:"systemFields"`
	ProductFeatures model.FeatureFlags             `json:"productFeatures"`
	BusinessRules   []model.BusinessRuleStatus     `json:"businessRules"`
	Integrations    []model.Integration            `json:"integrations"`
	TestResults     TestResults                    `json:"testResults"`
}

// Report is a read projection; the score is recomputed on every call.
func (o *Orchestrator) Report() Report {
	o.mu.Lock()
	defer o.mu.Unlock()
	return Report{
		Steps:             o.copySteps(),
		ValidationResults: append([]model.ValidationResult{}, o.results...),
		MissingComponents: append([]model.MissingComponent{}, o.missing...),
		BusinessRules:     o.deps.Target.Rules().All(),
		ReadinessScore:    validation.Score(o.results),
	}
}

func (o *Orchestrator) DetailedReport() DetailedReport {
	o.mu.Lock()
	defer o.mu.Unlock()
	t := o.deps.Target
	categories := t.Categories()
	fields := map[string][]model.CustomField{}
	for _, c := range categories {
		for _, s := range c.Subcategories {
			fields[s.ID] = append([]model.CustomField{}, s.Fields...)
		}
	}
	counts := validation.CountByStatus(o.results)
	return DetailedReport{
		Categories:      categories,
		Concepts:        t.Concepts(),
		SystemFields:    fields,
		ProductFeatures: t.Features(),
		BusinessRules:   t.Rules().All(),
		Integrations:    t.Integrations(),
		TestResults: TestResults{
			Total:          len(o.results),
			Pass:           counts[model.ValidationPass],
			Warning:        counts[model.ValidationWarning],
			Fail:           counts[model.ValidationFail],
			ReadinessScore: validation.Score(o.results),
		},
	}
}
