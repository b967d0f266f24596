package migration

import "market-cutover/pkg/model"

// Step identifiers in execution order.
const (
	StepFreezeLegacy     = "freeze-legacy"
	StepValidateTarget   = "validate-target"
	StepTestUI           = "test-ui"
	StepTestIntegrations = "test-integrations"
	StepActivateTarget   = "activate-target"
	StepDeleteLegacy     = "delete-legacy"
)

var stepNames = []struct{ id, name string }{
	{StepFreezeLegacy, "Freeze legacy system"},
	{StepValidateTarget, "Validate new system"},
	{StepTestUI, "Test user interface"},
	{StepTestIntegrations, "Test integrations"},
	{StepActivateTarget, "Activate new system"},
	{StepDeleteLegacy, "Delete legacy system"},
}

func initialSteps() []model.MigrationStep {
	out := make([]model.MigrationStep, len(stepNames))
	for i, s := range stepNames {
		out[i] = model.MigrationStep{ID: s.id, Name: s.name, Status: model.StepPending}
	}
	return out
}

// validStoredSteps reports whether a persisted list still matches the fixed step layout.
func validStoredSteps(steps []model.MigrationStep) bool {
	if len(steps) != len(stepNames) {
		return false
	}
	for i, s := range steps {
		if s.ID != stepNames[i].id {
			return false
		}
	}
	return true
}

func cloneStep(s model.MigrationStep) model.MigrationStep {
	if s.CompletedAt != nil {
		t := *s.CompletedAt
		s.CompletedAt = &t
	}
	return s
}
