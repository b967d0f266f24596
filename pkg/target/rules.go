package target

import (
	"errors"
	"fmt"
	"sync"

	"market-cutover/pkg/model"
	"market-cutover/pkg/store"
)

var (
	ErrUnknownRule     = errors.New("unknown business rule")
	ErrInvalidCoverage = errors.New("coverage must be within 0..100")
)

// RuleRegistry holds the fixed set of business rules and their enforcement status.
type RuleRegistry struct {
	mu    sync.RWMutex
	rules []model.BusinessRuleStatus
	index map[string]int
	st    store.Store
}

// NewRuleRegistry seeds the registry. When st holds a persisted registry, the
// persisted status of every known rule wins over the seed.
func NewRuleRegistry(seed []model.BusinessRuleStatus, st store.Store) (*RuleRegistry, error) {
	r := &RuleRegistry{
		rules: append([]model.BusinessRuleStatus(nil), seed...),
		index: make(map[string]int, len(seed)),
		st:    st,
	}
	for i, rule := range r.rules {
		r.index[rule.Rule] = i
	}
	if st == nil {
		return r, nil
	}
	var persisted []model.BusinessRuleStatus
	if _, err := store.GetJSON(st, store.KeyBusinessRules, &persisted); err != nil {
		return nil, fmt.Errorf("load business rules: %w", err)
	}
	for _, p := range persisted {
		if i, ok := r.index[p.Rule]; ok {
			r.rules[i] = p
		}
	}
	return r, nil
}

func (r *RuleRegistry) All() []model.BusinessRuleStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]model.BusinessRuleStatus(nil), r.rules...)
}

func (r *RuleRegistry) Get(rule string) (model.BusinessRuleStatus, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	i, ok := r.index[rule]
	if !ok {
		return model.BusinessRuleStatus{}, false
	}
	return r.rules[i], true
}

// Update changes one rule in place and persists the registry.
func (r *RuleRegistry) Update(rule string, implemented bool, coverage int, notes string) (model.BusinessRuleStatus, error) {
	if coverage < 0 || coverage > 100 {
		return model.BusinessRuleStatus{}, ErrInvalidCoverage
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	i, ok := r.index[rule]
	if !ok {
		return model.BusinessRuleStatus{}, fmt.Errorf("%w: %s", ErrUnknownRule, rule)
	}
	prev := r.rules[i]
	r.rules[i] = model.BusinessRuleStatus{Rule: rule, Implemented: implemented, Coverage: coverage, Notes: notes}
	if r.st != nil {
		if err := store.SetJSON(r.st, store.KeyBusinessRules, r.rules); err != nil {
			r.rules[i] = prev
			return model.BusinessRuleStatus{}, fmt.Errorf("persist business rules: %w", err)
		}
	}
	return r.rules[i], nil
}

// EnabledRatio is the share of implemented rules, 0 when the registry is empty.
func (r *RuleRegistry) EnabledRatio() float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.rules) == 0 {
		return 0
	}
	n := 0
	for _, rule := range r.rules {
		if rule.Implemented {
			n++
		}
	}
	return float64(n) / float64(len(r.rules))
}
