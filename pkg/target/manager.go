package target

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"market-cutover/pkg/model"
	"market-cutover/pkg/store"
)

// Manager owns the replacement system's catalog and its active flag.
type Manager struct {
	mu      sync.RWMutex
	catalog model.Catalog
	rules   *RuleRegistry
	active  bool
	st      store.Store
	logger  *zap.Logger
}

// NewManager builds the manager and replays the persisted active flag.
// st may be nil, in which case activation only lives in memory.
func NewManager(catalog model.Catalog, rules *RuleRegistry, st store.Store, logger *zap.Logger) (*Manager, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if rules == nil {
		var err error
		if rules, err = NewRuleRegistry(catalog.BusinessRules, st); err != nil {
			return nil, err
		}
	}
	m := &Manager{catalog: catalog, rules: rules, st: st, logger: logger}
	if st != nil {
		active, err := store.GetFlag(st, store.KeyTargetActive)
		if err != nil {
			return nil, fmt.Errorf("load target active flag: %w", err)
		}
		m.active = active
	}
	return m, nil
}

func (m *Manager) Categories() []model.Category {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.Category, len(m.catalog.Categories))
	for i, c := range m.catalog.Categories {
		subs := make([]model.Subcategory, len(c.Subcategories))
		for j, s := range c.Subcategories {
			s.Fields = append([]model.CustomField(nil), s.Fields...)
			subs[j] = s
		}
		c.Subcategories = subs
		out[i] = c
	}
	return out
}

func (m *Manager) Concepts() []model.Concept {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.Concept, len(m.catalog.Concepts))
	for i, c := range m.catalog.Concepts {
		c.EventTypes = append([]string(nil), c.EventTypes...)
		out[i] = c
	}
	return out
}

func (m *Manager) EventTypes() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.catalog.EventTypes...)
}

func (m *Manager) Features() model.FeatureFlags {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.catalog.Features
}

func (m *Manager) Integrations() []model.Integration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]model.Integration(nil), m.catalog.Integrations...)
}

func (m *Manager) Rules() *RuleRegistry {
	return m.rules
}

func (m *Manager) IsActive() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.active
}

// Activate switches traffic to the replacement system. Activating twice is a no-op.
func (m *Manager) Activate() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active {
		return nil
	}
	if m.st != nil {
		if err := store.SetJSON(m.st, store.KeyTargetActive, true); err != nil {
			return fmt.Errorf("persist target active flag: %w", err)
		}
	}
	m.active = true
	m.logger.Info("replacement system activated",
		zap.Int("categories", len(m.catalog.Categories)),
		zap.Int("concepts", len(m.catalog.Concepts)))
	return nil
}
