package validation

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"market-cutover/pkg/model"
)

const (
	minSuperCategories = 5
	minConcepts        = 30
)

// TargetView is the read-only slice of the replacement system the checks inspect.
type TargetView interface {
	Categories() []model.Category
	Concepts() []model.Concept
	EventTypes() []string
	Features() model.FeatureFlags
	Integrations() []model.Integration
}

// Findings is what one check (or battery) produced. Callers append it to their
// accumulated lists; nothing here ever removes an earlier record.
type Findings struct {
	Results []model.ValidationResult
	Missing []model.MissingComponent
}

func (f *Findings) merge(o Findings) {
	f.Results = append(f.Results, o.Results...)
	f.Missing = append(f.Missing, o.Missing...)
}

// Engine runs structural checks and probe batteries against a TargetView.
type Engine struct {
	target            TargetView
	uiProbes          []UIProbe
	integrationProbes []IntegrationProbe
	logger            *zap.Logger
}

type Option func(*Engine)

// WithUIProbes replaces the default UI probe battery.
func WithUIProbes(probes ...UIProbe) Option {
	return func(e *Engine) { e.uiProbes = probes }
}

// WithIntegrationProbes replaces the default integration probe battery.
func WithIntegrationProbes(probes ...IntegrationProbe) Option {
	return func(e *Engine) { e.integrationProbes = probes }
}

func New(target TargetView, logger *zap.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Engine{
		target:            target,
		uiProbes:          DefaultUIProbes(),
		integrationProbes: DefaultIntegrationProbes(),
		logger:            logger,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ValidateStructure runs the four structural checks in order.
func (e *Engine) ValidateStructure() Findings {
	categories := e.target.Categories()
	var f Findings
	f.merge(checkSuperCategories(categories))
	f.merge(checkSubcategories(categories))
	f.merge(checkConcepts(e.target.Concepts(), e.target.EventTypes()))
	f.merge(checkCustomFields(categories))
	e.logger.Debug("structural validation finished",
		zap.Int("results", len(f.Results)), zap.Int("missing", len(f.Missing)))
	return f
}

func checkSuperCategories(categories []model.Category) Findings {
	n := len(categories)
	res := model.ValidationResult{
		Component:    "super-categories",
		Requirements: []string{fmt.Sprintf("at least %d super-categories", minSuperCategories)},
		ActualState:  fmt.Sprintf("%d configured", n),
	}
	if n >= minSuperCategories {
		res.Status = model.ValidationPass
		res.Details = fmt.Sprintf("%d super-categories configured", n)
		return Findings{Results: []model.ValidationResult{res}}
	}
	res.Status = model.ValidationFail
	res.Details = fmt.Sprintf("only %d of %d required super-categories", n, minSuperCategories)
	return Findings{
		Results: []model.ValidationResult{res},
		Missing: []model.MissingComponent{{
			Category:      "catalog",
			Name:          "super-categories",
			Priority:      model.PriorityCritical,
			Description:   fmt.Sprintf("%d more super-categories must be authored", minSuperCategories-n),
			EstimatedDays: 2 * (minSuperCategories - n),
		}},
	}
}

func checkSubcategories(categories []model.Category) Findings {
	var f Findings
	for _, c := range categories {
		res := model.ValidationResult{
			Component:    "subcategories:" + c.ID,
			Requirements: []string{"at least one subcategory"},
			ActualState:  fmt.Sprintf("%d subcategories", len(c.Subcategories)),
		}
		if len(c.Subcategories) > 0 {
			res.Status = model.ValidationPass
			res.Details = fmt.Sprintf("%s has %d subcategories", c.Name, len(c.Subcategories))
		} else {
			res.Status = model.ValidationFail
			res.Details = fmt.Sprintf("%s has no subcategories", c.Name)
			f.Missing = append(f.Missing, model.MissingComponent{
				Category:      "catalog",
				Name:          "subcategories for " + c.Name,
				Priority:      model.PriorityHigh,
				Description:   fmt.Sprintf("category %q cannot list services without subcategories", c.ID),
				EstimatedDays: 3,
			})
		}
		f.Results = append(f.Results, res)
	}
	return f
}

func checkConcepts(concepts []model.Concept, eventTypes []string) Findings {
	covered := map[string]bool{}
	for _, c := range concepts {
		for _, et := range c.EventTypes {
			covered[et] = true
		}
	}
	var uncovered []string
	for _, et := range eventTypes {
		if !covered[et] {
			uncovered = append(uncovered, et)
		}
	}
	res := model.ValidationResult{
		Component: "concepts",
		Requirements: []string{
			fmt.Sprintf("at least %d concepts", minConcepts),
			"every event type covered by a concept",
		},
		ActualState: fmt.Sprintf("%d concepts, %d/%d event types covered", len(concepts), len(eventTypes)-len(uncovered), len(eventTypes)),
	}
	switch {
	case len(concepts) < minConcepts:
		res.Status = model.ValidationFail
		res.Details = fmt.Sprintf("only %d of %d required concepts", len(concepts), minConcepts)
		return Findings{
			Results: []model.ValidationResult{res},
			Missing: []model.MissingComponent{{
				Category:      "content",
				Name:          "event concepts",
				Priority:      model.PriorityHigh,
				Description:   fmt.Sprintf("%d more concepts needed", minConcepts-len(concepts)),
				EstimatedDays: (minConcepts - len(concepts) + 4) / 5,
			}},
		}
	case len(uncovered) > 0:
		res.Status = model.ValidationWarning
		res.Details = "no concept for event types: " + strings.Join(uncovered, ", ")
		return Findings{
			Results: []model.ValidationResult{res},
			Missing: []model.MissingComponent{{
				Category:      "content",
				Name:          "concepts for " + strings.Join(uncovered, ", "),
				Priority:      model.PriorityMedium,
				Description:   "buyers filtering by these event types see an empty page",
				EstimatedDays: len(uncovered),
			}},
		}
	default:
		res.Status = model.ValidationPass
		res.Details = fmt.Sprintf("%d concepts cover all %d event types", len(concepts), len(eventTypes))
		return Findings{Results: []model.ValidationResult{res}}
	}
}

func checkCustomFields(categories []model.Category) Findings {
	var f Findings
	for _, c := range categories {
		for _, s := range c.Subcategories {
			res := model.ValidationResult{
				Component:    "custom-fields:" + s.ID,
				Requirements: []string{"at least one custom field"},
				ActualState:  fmt.Sprintf("%d fields", len(s.Fields)),
			}
			if len(s.Fields) > 0 {
				res.Status = model.ValidationPass
				res.Details = fmt.Sprintf("%s defines %d custom fields", s.Name, len(s.Fields))
			} else {
				res.Status = model.ValidationFail
				res.Details = fmt.Sprintf("%s defines no custom fields", s.Name)
				f.Missing = append(f.Missing, model.MissingComponent{
					Category:      "product-page",
					Name:          "custom fields for " + s.Name,
					Priority:      model.PriorityMedium,
					Description:   fmt.Sprintf("subcategory %q listings render without structured attributes", s.ID),
					EstimatedDays: 1,
				})
			}
			f.Results = append(f.Results, res)
		}
	}
	return f
}

// RunUIProbes runs the UI battery. failedCritical lists critical probes that reported fail.
func (e *Engine) RunUIProbes(ctx context.Context) (f Findings, failedCritical []string) {
	for _, p := range e.uiProbes {
		out := p.Run(ctx, e.target)
		f.Results = append(f.Results, model.ValidationResult{
			Component: p.Component,
			Status:    out.Status,
			Details:   out.Details,
		})
		if p.Critical && out.Status == model.ValidationFail {
			failedCritical = append(failedCritical, p.Component)
		}
	}
	e.logger.Debug("ui probes finished", zap.Int("probes", len(e.uiProbes)), zap.Strings("failedCritical", failedCritical))
	return f, failedCritical
}

// RunIntegrationProbes checks each expected integration; gaps are warnings, never failures.
func (e *Engine) RunIntegrationProbes(ctx context.Context) Findings {
	integrations := e.target.Integrations()
	var f Findings
	for _, p := range e.integrationProbes {
		res, missing := p.check(integrations)
		f.Results = append(f.Results, res)
		if missing != nil {
			f.Missing = append(f.Missing, *missing)
		}
	}
	return f
}
