package target

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"market-cutover/pkg/model"
	"market-cutover/pkg/store"
)

func catalogWith(categories, concepts int, withSubs bool) model.Catalog {
	c := model.Catalog{EventTypes: []string{"wedding"}}
	for i := 0; i < categories; i++ {
		cat := model.Category{ID: fmt.Sprintf("cat-%d", i), Name: fmt.Sprintf("Category %d", i)}
		if withSubs {
			cat.Subcategories = []model.Subcategory{{ID: fmt.Sprintf("sub-%d", i), Fields: []model.CustomField{{Name: "capacity"}}}}
		}
		c.Categories = append(c.Categories, cat)
	}
	for i := 0; i < concepts; i++ {
		c.Concepts = append(c.Concepts, model.Concept{ID: fmt.Sprintf("concept-%d", i), EventTypes: []string{"wedding"}})
	}
	return c
}

func TestManagerActivatePersists(t *testing.T) {
	st := store.NewMemoryStore()
	m, err := NewManager(catalogWith(5, 30, true), nil, st, nil)
	require.NoError(t, err)
	assert.False(t, m.IsActive())

	require.NoError(t, m.Activate())
	require.NoError(t, m.Activate())
	assert.True(t, m.IsActive())

	restarted, err := NewManager(catalogWith(5, 30, true), nil, st, nil)
	require.NoError(t, err)
	assert.True(t, restarted.IsActive())
}

func TestManagerViewsAreCopies(t *testing.T) {
	m, err := NewManager(catalogWith(1, 1, true), nil, nil, nil)
	require.NoError(t, err)
	cats := m.Categories()
	cats[0].Subcategories[0].Fields[0].Name = "mutated"
	concepts := m.Concepts()
	concepts[0].EventTypes[0] = "mutated"

	assert.Equal(t, "capacity", m.Categories()[0].Subcategories[0].Fields[0].Name)
	assert.Equal(t, "wedding", m.Concepts()[0].EventTypes[0])
}

func TestValidateSystemReadinessDefaultCatalog(t *testing.T) {
	c, err := DefaultCatalog()
	require.NoError(t, err)
	m, err := NewManager(c, nil, nil, nil)
	require.NoError(t, err)

	r := m.ValidateSystemReadiness()
	// 10 + 15 + 20 + 25*4/6 + 20 = 81.67
	assert.Equal(t, 82, r.Score)
	assert.True(t, r.IsReady)
	assert.Empty(t, r.CriticalIssues)
	assert.Contains(t, r.Warnings, "SMS verification disabled")
	assert.Len(t, r.Breakdown, 5)
}

func TestValidateSystemReadinessBuckets(t *testing.T) {
	allOn := model.FeatureFlags{Wishlist: true, Comparison: true, ProviderIDVerification: true, SMSVerification: true}
	tests := []struct {
		name      string
		catalog   model.Catalog
		rules     []model.BusinessRuleStatus
		wantScore int
		wantReady bool
		critical  int
	}{
		{
			name:      "everything in place",
			catalog:   func() model.Catalog { c := catalogWith(5, 30, true); c.Features = allOn; return c }(),
			rules:     []model.BusinessRuleStatus{{Rule: "a", Implemented: true}},
			wantScore: 100,
			wantReady: true,
		},
		{
			name:      "high score but too few categories",
			catalog:   func() model.Catalog { c := catalogWith(4, 30, true); c.Features = allOn; return c }(),
			rules:     []model.BusinessRuleStatus{{Rule: "a", Implemented: true}},
			wantScore: 98,
			wantReady: false,
			critical:  1,
		},
		{
			name:      "sparse catalog",
			catalog:   catalogWith(3, 16, false),
			wantScore: 16, // 6 + 0 + 10 + 0 + 0
			critical:  1,
		},
		{
			name:      "concept tiers at 20",
			catalog:   func() model.Catalog { c := catalogWith(5, 20, true); c.Features = allOn; return c }(),
			rules:     []model.BusinessRuleStatus{{Rule: "a", Implemented: false}},
			wantScore: 70, // 10 + 15 + 15 + 0 + 30
			wantReady: true,
		},
		{
			name:      "below concept minimum",
			catalog:   func() model.Catalog { c := catalogWith(5, 14, true); c.Features = allOn; return c }(),
			rules:     []model.BusinessRuleStatus{{Rule: "a", Implemented: true}},
			wantScore: 80,
			critical:  1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rules, err := NewRuleRegistry(tt.rules, nil)
			require.NoError(t, err)
			m, err := NewManager(tt.catalog, rules, nil, nil)
			require.NoError(t, err)

			r := m.ValidateSystemReadiness()
			assert.Equal(t, tt.wantScore, r.Score)
			assert.Equal(t, tt.wantReady, r.IsReady)
			assert.Len(t, r.CriticalIssues, tt.critical)
		})
	}
}
