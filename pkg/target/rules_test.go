package target

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"market-cutover/pkg/model"
	"market-cutover/pkg/store"
)

func seedRules() []model.BusinessRuleStatus {
	return []model.BusinessRuleStatus{
		{Rule: "booking-deposit", Implemented: true, Coverage: 100},
		{Rule: "review-moderation", Implemented: false, Coverage: 20},
	}
}

func TestRuleRegistryUpdate(t *testing.T) {
	st := store.NewMemoryStore()
	r, err := NewRuleRegistry(seedRules(), st)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, r.EnabledRatio(), 1e-9)

	got, err := r.Update("review-moderation", true, 80, "automated filter")
	require.NoError(t, err)
	assert.Equal(t, 80, got.Coverage)
	assert.InDelta(t, 1.0, r.EnabledRatio(), 1e-9)

	_, err = r.Update("nope", true, 10, "")
	assert.ErrorIs(t, err, ErrUnknownRule)
	_, err = r.Update("booking-deposit", true, 101, "")
	assert.ErrorIs(t, err, ErrInvalidCoverage)

	rule, ok := r.Get("booking-deposit")
	require.True(t, ok)
	assert.Equal(t, 100, rule.Coverage, "rejected update must not change the rule")

	replayed, err := NewRuleRegistry(seedRules(), st)
	require.NoError(t, err)
	rule, ok = replayed.Get("review-moderation")
	require.True(t, ok)
	assert.True(t, rule.Implemented)
	assert.Equal(t, "automated filter", rule.Notes)
}

func TestRuleRegistryAllReturnsCopy(t *testing.T) {
	r, err := NewRuleRegistry(seedRules(), nil)
	require.NoError(t, err)
	all := r.All()
	all[0].Coverage = 0
	rule, _ := r.Get("booking-deposit")
	assert.Equal(t, 100, rule.Coverage)

	empty, err := NewRuleRegistry(nil, nil)
	require.NoError(t, err)
	assert.Zero(t, empty.EnabledRatio())
}
