package store

import (
	"encoding/json"

	"market-cutover/pkg/model"
)

// Keys of the records the cut-over core persists.
const (
	KeySteps             = "steps"
	KeySnapshots         = "snapshots"
	KeyFrozenFlag        = "frozen-flag"
	KeyDeletedFlag       = "deleted-flag"
	KeyEmergencyBackup   = "emergency-backup"
	KeyValidationResults = "validation-results"
	KeyMissingComponents = "missing-components"
	KeyBusinessRules     = "business-rules"
	KeyTargetActive      = "target-active"
)

// Store is the durable key-value layer plus the audit trail.
// Values are opaque bytes; callers serialise with GetJSON/SetJSON.
type Store interface {
	Get(key string) ([]byte, bool, error)
	Set(key string, value []byte) error
	Remove(key string) error
	AppendAudit(model.AuditEntry) error
	ListAudit(limit int) ([]model.AuditEntry, error)
}

// GetJSON decodes the value under key into v. It reports false when the key is absent.
func GetJSON(s Store, key string, v interface{}) (bool, error) {
	b, ok, err := s.Get(key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(b, v); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON encodes v and stores it under key.
func SetJSON(s Store, key string, v interface{}) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.Set(key, b)
}

// GetFlag reads a boolean flag; absent keys read as false.
func GetFlag(s Store, key string) (bool, error) {
	var v bool
	_, err := GetJSON(s, key, &v)
	return v, err
}
