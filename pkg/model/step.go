package model

import "time"

// StepStatus is the lifecycle state of a migration step.
type StepStatus string

const (
	StepPending    StepStatus = "pending"
	StepInProgress StepStatus = "in_progress"
	StepCompleted  StepStatus = "completed"
	StepFailed     StepStatus = "failed"
)

// MigrationStep is one of the six fixed phases of the cut-over.
type MigrationStep struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Status       StepStatus `json:"status"`
	Details      string     `json:"details,omitempty"`
	CompletedAt  *time.Time `json:"completedAt,omitempty"`
	ErrorMessage string     `json:"errorMessage,omitempty"`
}

// StepEvent is emitted on every step transition.
type StepEvent struct {
	Step      MigrationStep `json:"step"`
	Timestamp time.Time     `json:"timestamp"`
}
