package validation

import (
	"context"
	"fmt"

	"market-cutover/pkg/model"
)

// ProbeResult is the canned outcome of a UI probe.
type ProbeResult struct {
	Status  model.ValidationStatus
	Details string
}

// UIProbe exercises one storefront page. A failing critical probe blocks the UI step.
type UIProbe struct {
	Component string
	Critical  bool
	Run       func(ctx context.Context, t TargetView) ProbeResult
}

// DefaultUIProbes is the storefront battery: home, search, product page,
// provider registration and cart. Home and product page are critical.
func DefaultUIProbes() []UIProbe {
	return []UIProbe{
		{Component: "ui:home", Critical: true, Run: probeHome},
		{Component: "ui:search", Run: probeSearch},
		{Component: "ui:product-page", Critical: true, Run: probeProductPage},
		{Component: "ui:provider-registration", Run: probeProviderRegistration},
		{Component: "ui:cart", Run: probeCart},
	}
}

func probeHome(_ context.Context, t TargetView) ProbeResult {
	n := len(t.Categories())
	if n == 0 {
		return ProbeResult{model.ValidationFail, "home page has no categories to render"}
	}
	return ProbeResult{model.ValidationPass, fmt.Sprintf("home page renders %d categories", n)}
}

func probeSearch(_ context.Context, t TargetView) ProbeResult {
	n := len(t.Concepts())
	if n == 0 {
		return ProbeResult{model.ValidationWarning, "search index is empty"}
	}
	return ProbeResult{model.ValidationPass, fmt.Sprintf("search indexes %d concepts", n)}
}

func probeProductPage(_ context.Context, t TargetView) ProbeResult {
	subs, withFields := 0, 0
	for _, c := range t.Categories() {
		for _, s := range c.Subcategories {
			subs++
			if len(s.Fields) > 0 {
				withFields++
			}
		}
	}
	switch {
	case subs == 0:
		return ProbeResult{model.ValidationFail, "no subcategory product pages exist"}
	case withFields < subs:
		return ProbeResult{model.ValidationWarning, fmt.Sprintf("%d of %d product pages render without custom fields", subs-withFields, subs)}
	default:
		return ProbeResult{model.ValidationPass, fmt.Sprintf("%d product pages render custom fields", subs)}
	}
}

func probeProviderRegistration(_ context.Context, t TargetView) ProbeResult {
	if !t.Features().ProviderIDVerification {
		return ProbeResult{model.ValidationWarning, "registration accepts providers without ID verification"}
	}
	return ProbeResult{model.ValidationPass, "registration requires ID verification"}
}

func probeCart(_ context.Context, t TargetView) ProbeResult {
	for _, i := range t.Integrations() {
		if i.Kind == "payment" && i.Implemented {
			return ProbeResult{model.ValidationPass, "checkout through " + i.Name}
		}
	}
	return ProbeResult{model.ValidationWarning, "checkout falls back to manual payment"}
}

// IntegrationProbe expects one integration of Kind to be implemented.
type IntegrationProbe struct {
	Kind          string
	Priority      model.Priority
	EstimatedDays int
}

func DefaultIntegrationProbes() []IntegrationProbe {
	return []IntegrationProbe{
		{Kind: "crm", Priority: model.PriorityMedium, EstimatedDays: 10},
		{Kind: "payment", Priority: model.PriorityCritical, EstimatedDays: 15},
		{Kind: "sms", Priority: model.PriorityHigh, EstimatedDays: 5},
	}
}

func (p IntegrationProbe) check(integrations []model.Integration) (model.ValidationResult, *model.MissingComponent) {
	res := model.ValidationResult{
		Component:    "integration:" + p.Kind,
		Requirements: []string{p.Kind + " integration implemented"},
	}
	for _, i := range integrations {
		if i.Kind != p.Kind {
			continue
		}
		if i.Implemented {
			res.Status = model.ValidationPass
			res.Details = i.Name + " connected"
			res.ActualState = "implemented"
			return res, nil
		}
		res.Status = model.ValidationWarning
		res.Details = i.Name + " not implemented"
		if i.Notes != "" {
			res.Details += ": " + i.Notes
		}
		res.ActualState = "configured, not implemented"
		return res, &model.MissingComponent{
			Category:      "integration",
			Name:          i.Name,
			Priority:      p.Priority,
			Description:   fmt.Sprintf("%s integration %q is not implemented", p.Kind, i.Name),
			EstimatedDays: p.EstimatedDays,
		}
	}
	res.Status = model.ValidationWarning
	res.Details = "no " + p.Kind + " integration configured"
	res.ActualState = "absent"
	return res, &model.MissingComponent{
		Category:      "integration",
		Name:          p.Kind,
		Priority:      p.Priority,
		Description:   fmt.Sprintf("no %s integration is configured", p.Kind),
		EstimatedDays: p.EstimatedDays,
	}
}
