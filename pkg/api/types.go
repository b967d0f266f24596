package api

import "market-cutover/pkg/model"

// StepResponse is returned by every step endpoint.
type StepResponse struct {
	Success bool                `json:"success"`
	Step    model.MigrationStep `json:"step"`
	Error   string              `json:"error,omitempty"`
}

type DeleteLegacyRequest struct {
	Approved bool `json:"approved"`
}

// RuleUpdateRequest is the body of PUT /api/v1/rules/{rule}.
type RuleUpdateRequest struct {
	Implemented bool   `json:"implemented"`
	Coverage    int    `json:"coverage"`
	Notes       string `json:"notes,omitempty"`
}

type RestoreResponse struct {
	Restored bool   `json:"restored"`
	Snapshot string `json:"snapshot"`
}
