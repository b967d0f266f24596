package db

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"market-cutover/pkg/model"
)

// KVStore implements the controller key-value store on a gorm database.
type KVStore struct {
	db *gorm.DB
}

func NewKVStore(db *gorm.DB) *KVStore {
	return &KVStore{db: db}
}

func (s *KVStore) Get(key string) ([]byte, bool, error) {
	var rec model.KVRecord
	err := s.db.Where("`key` = ?", key).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return rec.Value, true, nil
}

func (s *KVStore) Set(key string, value []byte) error {
	rec := model.KVRecord{Key: key, Value: value, UpdatedAt: time.Now()}
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&rec).Error
}

func (s *KVStore) Remove(key string) error {
	return s.db.Where("`key` = ?", key).Delete(&model.KVRecord{}).Error
}

func (s *KVStore) Ping() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

func (s *KVStore) AppendAudit(entry model.AuditEntry) error {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	return s.db.Create(&model.AuditRecord{
		Actor:     entry.Actor,
		Action:    entry.Action,
		Target:    entry.Target,
		Detail:    entry.Detail,
		Timestamp: entry.Timestamp,
	}).Error
}

func (s *KVStore) ListAudit(limit int) ([]model.AuditEntry, error) {
	var recs []model.AuditRecord
	q := s.db.Order("id desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&recs).Error; err != nil {
		return nil, err
	}
	out := make([]model.AuditEntry, 0, len(recs))
	for i := len(recs) - 1; i >= 0; i-- {
		r := recs[i]
		out = append(out, model.AuditEntry{
			Actor:     r.Actor,
			Action:    r.Action,
			Target:    r.Target,
			Detail:    r.Detail,
			Timestamp: r.Timestamp,
		})
	}
	return out, nil
}
