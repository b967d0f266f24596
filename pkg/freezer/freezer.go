package freezer

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"market-cutover/pkg/model"
	"market-cutover/pkg/store"
)

var (
	ErrLegacyDeleted = errors.New("legacy system permanently deleted")
	ErrMissingKeys   = errors.New("admin and master keys must be set and distinct")
)

// Restorer writes a snapshot's dataset back into the legacy system.
type Restorer interface {
	RestoreLegacyDataset(ctx context.Context, data model.LegacyDataset) error
}

// Keys gate the destructive operations. Admin covers per-snapshot restore
// and delete; Master covers permanent deletion of the legacy system.
type Keys struct {
	Admin  string
	Master string
}

// Freezer holds immutable snapshots of the legacy dataset.
type Freezer struct {
	mu        sync.RWMutex
	snapshots []model.Snapshot
	frozen    bool
	deleted   bool

	st       store.Store
	restorer Restorer
	keys     Keys
	logger   *zap.Logger
	now      func() time.Time
}

// New replays snapshots and both flags from st.
func New(st store.Store, restorer Restorer, keys Keys, logger *zap.Logger) (*Freezer, error) {
	if keys.Admin == "" || keys.Master == "" || keys.Admin == keys.Master {
		return nil, ErrMissingKeys
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	f := &Freezer{st: st, restorer: restorer, keys: keys, logger: logger, now: time.Now}
	if _, err := store.GetJSON(st, store.KeySnapshots, &f.snapshots); err != nil {
		return nil, fmt.Errorf("load snapshots: %w", err)
	}
	var err error
	if f.frozen, err = store.GetFlag(st, store.KeyFrozenFlag); err != nil {
		return nil, fmt.Errorf("load frozen flag: %w", err)
	}
	if f.deleted, err = store.GetFlag(st, store.KeyDeletedFlag); err != nil {
		return nil, fmt.Errorf("load deleted flag: %w", err)
	}
	if f.deleted && len(f.snapshots) > 0 {
		logger.Warn("dropping snapshots left behind by permanent deletion", zap.Int("snapshots", len(f.snapshots)))
		f.snapshots = nil
	}
	if len(f.snapshots) > 0 || f.frozen || f.deleted {
		logger.Info("freezer state replayed",
			zap.Int("snapshots", len(f.snapshots)),
			zap.Bool("frozen", f.frozen),
			zap.Bool("deleted", f.deleted))
	}
	return f, nil
}

// Freeze deep-copies data into a new snapshot and marks the legacy system frozen.
func (f *Freezer) Freeze(data model.LegacyDataset, frozenBy, reason string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleted || f.durableFlag(store.KeyDeletedFlag) {
		return "", ErrLegacyDeleted
	}
	snap := model.Snapshot{
		ID:          uuid.NewString(),
		FreezeDate:  f.now().UTC(),
		Description: fmt.Sprintf("legacy freeze by %s: %s", frozenBy, reason),
		Data:        data.Clone(),
		Metadata: model.SnapshotMetadata{
			TotalProviders:     len(data.Providers),
			TotalServices:      len(data.Services),
			TotalCategories:    len(data.Categories),
			TotalSubcategories: len(data.Subcategories),
			FrozenBy:           frozenBy,
			Reason:             reason,
		},
	}
	next := append(append([]model.Snapshot(nil), f.snapshots...), snap)
	if err := store.SetJSON(f.st, store.KeySnapshots, next); err != nil {
		return "", fmt.Errorf("persist snapshots: %w", err)
	}
	if !f.frozen {
		if err := store.SetJSON(f.st, store.KeyFrozenFlag, true); err != nil {
			f.rollbackSnapshots()
			return "", fmt.Errorf("persist frozen flag: %w", err)
		}
	}
	f.snapshots = next
	f.frozen = true
	f.logger.Info("legacy dataset frozen",
		zap.String("snapshot", snap.ID),
		zap.String("frozenBy", frozenBy),
		zap.Int("providers", snap.Metadata.TotalProviders),
		zap.Int("services", snap.Metadata.TotalServices))
	return snap.ID, nil
}

func (f *Freezer) Get(id string) (model.Snapshot, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if i := f.indexOf(id); i >= 0 {
		return f.snapshots[i].Clone(), true
	}
	return model.Snapshot{}, false
}

// List returns copies of every snapshot, oldest first.
func (f *Freezer) List() []model.Snapshot {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]model.Snapshot, len(f.snapshots))
	for i, s := range f.snapshots {
		out[i] = s.Clone()
	}
	return out
}

// Restore hands snapshot id back to the legacy system. It reports false
// without side effects on a bad admin key, an unknown id or once the legacy
// system is deleted; the error is the restorer's.
func (f *Freezer) Restore(ctx context.Context, id, adminKey string) (bool, error) {
	if !keyMatches(adminKey, f.keys.Admin) {
		f.logger.Warn("snapshot restore rejected: bad admin key", zap.String("snapshot", id))
		return false, nil
	}
	f.mu.RLock()
	if f.deleted || f.durableFlag(store.KeyDeletedFlag) {
		f.mu.RUnlock()
		return false, nil
	}
	i := f.indexOf(id)
	if i < 0 {
		f.mu.RUnlock()
		return false, nil
	}
	data := f.snapshots[i].Data.Clone()
	f.mu.RUnlock()

	if err := f.restorer.RestoreLegacyDataset(ctx, data); err != nil {
		return false, fmt.Errorf("restore snapshot %s: %w", id, err)
	}
	f.logger.Info("snapshot restored", zap.String("snapshot", id))
	return true, nil
}

// DeleteSnapshot removes one snapshot. It reports false on a bad admin key,
// an unknown id or a persistence failure.
func (f *Freezer) DeleteSnapshot(id, adminKey string) bool {
	if !keyMatches(adminKey, f.keys.Admin) {
		f.logger.Warn("snapshot delete rejected: bad admin key", zap.String("snapshot", id))
		return false
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.indexOf(id)
	if i < 0 {
		return false
	}
	next := make([]model.Snapshot, 0, len(f.snapshots)-1)
	next = append(next, f.snapshots[:i]...)
	next = append(next, f.snapshots[i+1:]...)
	if err := store.SetJSON(f.st, store.KeySnapshots, next); err != nil {
		f.logger.Error("persist snapshots", zap.Error(err))
		return false
	}
	f.snapshots = next
	f.logger.Info("snapshot deleted", zap.String("snapshot", id))
	return true
}

// PermanentlyDelete writes every snapshot to the emergency backup key, marks
// the legacy system deleted and then drops the snapshots. There is no way back.
// An existing backup is extended, never replaced.
func (f *Freezer) PermanentlyDelete(masterKey string) bool {
	if !keyMatches(masterKey, f.keys.Master) {
		f.logger.Warn("permanent deletion rejected: bad master key")
		return false
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleted || f.durableFlag(store.KeyDeletedFlag) {
		f.deleted = true
		f.snapshots = nil
		return true
	}
	var backup []model.Snapshot
	if _, err := store.GetJSON(f.st, store.KeyEmergencyBackup, &backup); err != nil {
		f.logger.Error("read emergency backup", zap.Error(err))
		return false
	}
	backup = mergeSnapshots(backup, f.snapshots)
	if err := store.SetJSON(f.st, store.KeyEmergencyBackup, backup); err != nil {
		f.logger.Error("write emergency backup", zap.Error(err))
		return false
	}
	if err := store.SetJSON(f.st, store.KeyDeletedFlag, true); err != nil {
		f.logger.Error("persist deleted flag", zap.Error(err))
		return false
	}
	n := len(f.snapshots)
	f.snapshots = nil
	f.deleted = true
	// the flag is durable, so a leftover list is ignored on replay
	if err := f.st.Remove(store.KeySnapshots); err != nil {
		f.logger.Error("clear snapshots", zap.Error(err))
	}
	f.logger.Warn("legacy system permanently deleted",
		zap.Int("backedUpSnapshots", n),
		zap.Int("backupSize", len(backup)))
	return true
}

func (f *Freezer) IsFrozen() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.frozen || f.durableFlag(store.KeyFrozenFlag)
}

func (f *Freezer) IsLegacySystemDeleted() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.deleted || f.durableFlag(store.KeyDeletedFlag)
}

func (f *Freezer) durableFlag(key string) bool {
	v, err := store.GetFlag(f.st, key)
	if err != nil {
		f.logger.Warn("read flag", zap.String("key", key), zap.Error(err))
		return false
	}
	return v
}

// rollbackSnapshots puts the durable list back to the in-memory one after a
// partially persisted freeze.
func (f *Freezer) rollbackSnapshots() {
	var err error
	if len(f.snapshots) == 0 {
		err = f.st.Remove(store.KeySnapshots)
	} else {
		err = store.SetJSON(f.st, store.KeySnapshots, f.snapshots)
	}
	if err != nil {
		f.logger.Error("roll back snapshots", zap.Error(err))
	}
}

// mergeSnapshots appends the snapshots of add missing from base, by id.
func mergeSnapshots(base, add []model.Snapshot) []model.Snapshot {
	seen := make(map[string]bool, len(base))
	for _, s := range base {
		seen[s.ID] = true
	}
	for _, s := range add {
		if !seen[s.ID] {
			base = append(base, s)
		}
	}
	return base
}

func (f *Freezer) indexOf(id string) int {
	for i, s := range f.snapshots {
		if s.ID == id {
			return i
		}
	}
	return -1
}

func keyMatches(got, want string) bool {
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}
