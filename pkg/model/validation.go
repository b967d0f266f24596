package model

// ValidationStatus is the outcome of a single readiness check.
type ValidationStatus string

const (
	ValidationPass    ValidationStatus = "pass"
	ValidationWarning ValidationStatus = "warning"
	ValidationFail    ValidationStatus = "fail"
)

// ValidationResult records one check against the replacement system.
type ValidationResult struct {
	Component    string           `json:"component"`
	Status       ValidationStatus `json:"status"`
	Details      string           `json:"details"`
	Requirements []string         `json:"requirements,omitempty"`
	ActualState  string           `json:"actualState,omitempty"`
}

// Priority ranks a missing component.
type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityMedium   Priority = "medium"
	PriorityLow      Priority = "low"
)

// MissingComponent is a gap discovered while validating the replacement system.
type MissingComponent struct {
	Category      string   `json:"category"`
	Name          string   `json:"name"`
	Priority      Priority `json:"priority"`
	Description   string   `json:"description"`
	EstimatedDays int      `json:"estimatedDays"`
}

// BusinessRuleStatus tracks how completely a named rule is enforced.
type BusinessRuleStatus struct {
	Rule        string `json:"rule" yaml:"rule"`
	Implemented bool   `json:"implemented" yaml:"implemented"`
	Coverage    int    `json:"coverage" yaml:"coverage"` // 0..100
	Notes       string `json:"notes,omitempty" yaml:"notes,omitempty"`
}
