package validation

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"market-cutover/pkg/model"
)

type fakeTarget struct {
	categories   []model.Category
	concepts     []model.Concept
	eventTypes   []string
	features     model.FeatureFlags
	integrations []model.Integration
}

func (f *fakeTarget) Categories() []model.Category { return f.categories }
func (f *fakeTarget) Concepts() []model.Concept { return f.concepts }
func (f *fakeTarget) EventTypes() []string { return f.eventTypes }
func (f *fakeTarget) Features() model.FeatureFlags { return f.features }
func (f *fakeTarget) Integrations() []model.Integration { return f.integrations }

func completeTarget() *fakeTarget {
	t := &fakeTarget{
		eventTypes: []string{"wedding", "birthday"},
		features:   model.FeatureFlags{Wishlist: true, Comparison: true, ProviderIDVerification: true},
		integrations: []model.Integration{
			{Name: "HubSpot", Kind: "crm", Implemented: true},
			{Name: "Stripe", Kind: "payment", Implemented: true},
			{Name: "Twilio", Kind: "sms", Implemented: true},
		},
	}
	for i := 0; i < 5; i++ {
		t.categories = append(t.categories, model.Category{
			ID:   fmt.Sprintf("cat-%d", i),
			Name: fmt.Sprintf("Category %d", i),
			Subcategories: []model.Subcategory{{
				ID:     fmt.Sprintf("sub-%d", i),
				Name:   fmt.Sprintf("Sub %d", i),
				Fields: []model.CustomField{{Name: "capacity", Type: "number"}},
			}},
		})
	}
	for i := 0; i < 30; i++ {
		t.concepts = append(t.concepts, model.Concept{ID: fmt.Sprintf("c-%d", i), EventTypes: []string{"wedding", "birthday"}})
	}
	return t
}

func statuses(results []model.ValidationResult) map[string]model.ValidationStatus {
	out := map[string]model.ValidationStatus{}
	for _, r := range results {
		out[r.Component] = r.Status
	}
	return out
}

func TestValidateStructureComplete(t *testing.T) {
	f := New(completeTarget(), nil).ValidateStructure()
	// 1 super-category + 5 subcategory + 1 concept + 5 custom-field results
	require.Len(t, f.Results, 12)
	assert.Empty(t, f.Missing)
	for _, r := range f.Results {
		assert.Equal(t, model.ValidationPass, r.Status, r.Component)
	}
}

func TestValidateStructureTooFewCategories(t *testing.T) {
	target := completeTarget()
	target.categories = target.categories[:3]
	f := New(target, nil).ValidateStructure()

	st := statuses(f.Results)
	assert.Equal(t, model.ValidationFail, st["super-categories"])
	require.Len(t, f.Missing, 1)
	assert.Equal(t, model.PriorityCritical, f.Missing[0].Priority)
	assert.Equal(t, 4, f.Missing[0].EstimatedDays)
}

func TestValidateStructureGaps(t *testing.T) {
	target := completeTarget()
	target.categories[1].Subcategories = nil
	target.categories[2].Subcategories[0].Fields = nil
	target.concepts = target.concepts[:12]
	f := New(target, nil).ValidateStructure()

	st := statuses(f.Results)
	assert.Equal(t, model.ValidationFail, st["subcategories:cat-1"])
	assert.Equal(t, model.ValidationFail, st["custom-fields:sub-2"])
	assert.Equal(t, model.ValidationFail, st["concepts"])
	assert.Equal(t, model.ValidationPass, st["super-categories"])

	byName := map[string]model.MissingComponent{}
	for _, m := range f.Missing {
		byName[m.Name] = m
	}
	require.Len(t, byName, 3)
	assert.Equal(t, model.PriorityHigh, byName["subcategories for Category 1"].Priority)
	assert.Equal(t, model.PriorityMedium, byName["custom fields for Sub 2"].Priority)
	assert.Equal(t, 4, byName["event concepts"].EstimatedDays)
}

func TestValidateStructureUncoveredEventType(t *testing.T) {
	target := completeTarget()
	target.eventTypes = append(target.eventTypes, "corporate")
	f := New(target, nil).ValidateStructure()

	assert.Equal(t, model.ValidationWarning, statuses(f.Results)["concepts"])
	require.Len(t, f.Missing, 1)
	assert.Equal(t, "concepts for corporate", f.Missing[0].Name)
}

func TestRunUIProbes(t *testing.T) {
	ctx := context.Background()

	f, failed := New(completeTarget(), nil).RunUIProbes(ctx)
	require.Len(t, f.Results, 5)
	assert.Empty(t, failed)
	assert.Empty(t, f.Missing)

	empty := &fakeTarget{}
	f, failed = New(empty, nil).RunUIProbes(ctx)
	assert.ElementsMatch(t, []string{"ui:home", "ui:product-page"}, failed)
	st := statuses(f.Results)
	assert.Equal(t, model.ValidationWarning, st["ui:search"])
	assert.Equal(t, model.ValidationWarning, st["ui:provider-registration"])
	assert.Equal(t, model.ValidationWarning, st["ui:cart"])
}

func TestRunUIProbesCustomBattery(t *testing.T) {
	probe := UIProbe{
		Component: "ui:checkout",
		Run: func(context.Context, TargetView) ProbeResult {
			return ProbeResult{Status: model.ValidationFail, Details: "down"}
		},
	}
	f, failed := New(completeTarget(), nil, WithUIProbes(probe)).RunUIProbes(context.Background())
	require.Len(t, f.Results, 1)
	assert.Empty(t, failed, "non-critical failures do not block")
}

func TestRunIntegrationProbes(t *testing.T) {
	target := completeTarget()
	target.integrations = []model.Integration{
		{Name: "Salesforce", Kind: "crm", Notes: "sandbox only"},
		{Name: "Stripe", Kind: "payment", Implemented: true},
	}
	f := New(target, nil).RunIntegrationProbes(context.Background())

	st := statuses(f.Results)
	assert.Equal(t, model.ValidationWarning, st["integration:crm"])
	assert.Equal(t, model.ValidationPass, st["integration:payment"])
	assert.Equal(t, model.ValidationWarning, st["integration:sms"])
	for _, r := range f.Results {
		assert.NotEqual(t, model.ValidationFail, r.Status)
	}

	require.Len(t, f.Missing, 2)
	assert.Equal(t, "Salesforce", f.Missing[0].Name)
	assert.Equal(t, model.PriorityMedium, f.Missing[0].Priority)
	assert.Equal(t, "sms", f.Missing[1].Name)
	assert.Equal(t, model.PriorityHigh, f.Missing[1].Priority)
}
