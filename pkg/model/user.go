package model

import "time"

type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"uniqueIndex;size:64" json:"username"`
	PasswordHash string    `json:"-"`
	IsAdmin      bool      `json:"isAdmin"`
	CreatedAt    time.Time `json:"createdAt"`

	// FirstOperator is true only on the bootstrap account and NULL elsewhere,
	// so the unique index rejects a second bootstrap insert.
	FirstOperator *bool `gorm:"uniqueIndex" json:"-"`
}

// KVRecord backs store.Store on MySQL.
type KVRecord struct {
	Key       string    `gorm:"primaryKey;size:128"`
	Value     []byte    `gorm:"type:longblob"`
	UpdatedAt time.Time
}

func (KVRecord) TableName() string { return "cutover_kv" }

// AuditRecord is the persisted form of AuditEntry on MySQL.
type AuditRecord struct {
	ID        uint `gorm:"primaryKey"`
	Actor     string
	Action    string `gorm:"size:64"`
	Target    string
	Detail    string
	Timestamp time.Time `gorm:"index"`
}

func (AuditRecord) TableName() string { return "cutover_audit" }
