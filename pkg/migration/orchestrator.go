package migration

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"market-cutover/pkg/legacy"
	"market-cutover/pkg/model"
	"market-cutover/pkg/store"
	"market-cutover/pkg/target"
	"market-cutover/pkg/validation"
)

var (
	// ErrStepGated is returned when the previous step has not completed. No state changes.
	ErrStepGated = errors.New("previous step not completed")
	// ErrStepFailed wraps the message of a step that ended in failed.
	ErrStepFailed = errors.New("step failed")
)

const (
	DefaultActivationThreshold = 70
	systemActor                = "migration-system"
)

// Freezer is the snapshot store the orchestrator drives.
type Freezer interface {
	Freeze(data model.LegacyDataset, frozenBy, reason string) (string, error)
	PermanentlyDelete(masterKey string) bool
}

// TargetSystem is the replacement system being validated and activated.
type TargetSystem interface {
	validation.TargetView
	Rules() *target.RuleRegistry
	IsActive() bool
	Activate() error
}

// Notifier receives every step transition.
type Notifier interface {
	Notify(model.StepEvent)
}

type Deps struct {
	Store     store.Store
	Provider  legacy.Provider
	Freezer   Freezer
	Target    TargetSystem
	Engine    *validation.Engine // built from Target when nil
	MasterKey string

	// ActivationThreshold is the minimum score for step 5; zero means DefaultActivationThreshold.
	ActivationThreshold int

	// StepDelay pauses between in_progress and the outcome. It is not cancellable.
	StepDelay time.Duration

	Logger   *zap.Logger
	Notifier Notifier
	Clock    func() time.Time
}

// Orchestrator runs the six gated cut-over steps. Every operation holds one mutex
// for its whole duration.
type Orchestrator struct {
	mu       sync.Mutex
	steps    []model.MigrationStep
	results  []model.ValidationResult
	missing  []model.MissingComponent
	deps     Deps
	engine   *validation.Engine
	logger   *zap.Logger
	clock    func() time.Time
	notifier Notifier
}

// New builds the orchestrator and replays steps, results and missing components from the store.
func New(d Deps) (*Orchestrator, error) {
	if d.Store == nil || d.Provider == nil || d.Freezer == nil || d.Target == nil {
		return nil, errors.New("migration: store, provider, freezer and target are required")
	}
	if d.ActivationThreshold == 0 {
		d.ActivationThreshold = DefaultActivationThreshold
	}
	if d.ActivationThreshold < 0 || d.ActivationThreshold > 100 {
		return nil, fmt.Errorf("migration: activation threshold %d outside 1..100", d.ActivationThreshold)
	}
	o := &Orchestrator{deps: d, engine: d.Engine, logger: d.Logger, clock: d.Clock, notifier: d.Notifier}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	if o.clock == nil {
		o.clock = time.Now
	}
	if o.engine == nil {
		o.engine = validation.New(d.Target, o.logger)
	}
	if err := o.replay(); err != nil {
		return nil, err
	}
	return o, nil
}

func (o *Orchestrator) replay() error {
	var steps []model.MigrationStep
	found, err := store.GetJSON(o.deps.Store, store.KeySteps, &steps)
	if err != nil {
		return fmt.Errorf("load steps: %w", err)
	}
	if found && validStoredSteps(steps) {
		o.steps = steps
	} else {
		if found {
			o.logger.Warn("stored steps do not match the step layout, starting fresh")
		}
		o.steps = initialSteps()
	}
	for i := range o.steps {
		if o.steps[i].Status == model.StepInProgress {
			o.steps[i].Status = model.StepFailed
			o.steps[i].ErrorMessage = "interrupted by controller restart"
		}
	}
	if _, err := store.GetJSON(o.deps.Store, store.KeyValidationResults, &o.results); err != nil {
		return fmt.Errorf("load validation results: %w", err)
	}
	if _, err := store.GetJSON(o.deps.Store, store.KeyMissingComponents, &o.missing); err != nil {
		return fmt.Errorf("load missing components: %w", err)
	}
	if found {
		o.logger.Info("migration state replayed",
			zap.Int("results", len(o.results)),
			zap.Int("missing", len(o.missing)))
	}
	return nil
}

// Steps returns a copy of the six steps in order.
func (o *Orchestrator) Steps() []model.MigrationStep {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.copySteps()
}

func (o *Orchestrator) copySteps() []model.MigrationStep {
	out := make([]model.MigrationStep, len(o.steps))
	for i, s := range o.steps {
		out[i] = cloneStep(s)
	}
	return out
}

// FreezeLegacySystem snapshots the legacy dataset. It has no gate.
func (o *Orchestrator) FreezeLegacySystem(ctx context.Context) (model.MigrationStep, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	const i = 0
	o.start(i)
	data, err := o.deps.Provider.LegacyDataset(ctx)
	if err != nil {
		return o.fail(i, fmt.Sprintf("fetch legacy dataset: %v", err))
	}
	id, err := o.deps.Freezer.Freeze(data, systemActor, "cut-over to the replacement system")
	if err != nil {
		return o.fail(i, err.Error())
	}
	return o.complete(i, "snapshot "+id)
}

// ValidateNewSystem runs the structural checks. It fails iff a critical component is missing.
func (o *Orchestrator) ValidateNewSystem(ctx context.Context) (model.MigrationStep, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	const i = 1
	if err := o.gate(i); err != nil {
		return cloneStep(o.steps[i]), err
	}
	o.start(i)
	f := o.engine.ValidateStructure()
	o.record(f)
	var critical []string
	for _, m := range f.Missing {
		if m.Priority == model.PriorityCritical {
			critical = append(critical, m.Name)
		}
	}
	if len(critical) > 0 {
		return o.fail(i, "critical components missing: "+strings.Join(critical, ", "))
	}
	return o.complete(i, summarize(f.Results, "structural checks"))
}

// TestUserInterface runs the UI battery. Only critical probe failures fail the step.
func (o *Orchestrator) TestUserInterface(ctx context.Context) (model.MigrationStep, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	const i = 2
	if err := o.gate(i); err != nil {
		return cloneStep(o.steps[i]), err
	}
	o.start(i)
	f, failed := o.engine.RunUIProbes(ctx)
	o.record(f)
	if len(failed) > 0 {
		return o.fail(i, "critical UI checks failed: "+strings.Join(failed, ", "))
	}
	return o.complete(i, summarize(f.Results, "UI checks"))
}

// TestIntegrations probes CRM, payment and SMS. Gaps are recorded and the step always completes.
func (o *Orchestrator) TestIntegrations(ctx context.Context) (model.MigrationStep, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	const i = 3
	if err := o.gate(i); err != nil {
		return cloneStep(o.steps[i]), err
	}
	o.start(i)
	f := o.engine.RunIntegrationProbes(ctx)
	o.record(f)
	return o.complete(i, fmt.Sprintf("%d integrations checked, %d pending", len(f.Results), len(f.Missing)))
}

// ActivateNewSystem activates the replacement system when the score over every
// accumulated result reaches the threshold.
func (o *Orchestrator) ActivateNewSystem(ctx context.Context) (model.MigrationStep, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	const i = 4
	if err := o.gate(i); err != nil {
		return cloneStep(o.steps[i]), err
	}
	o.start(i)
	score := validation.Score(o.results)
	if score < o.deps.ActivationThreshold {
		return o.fail(i, fmt.Sprintf("readiness score %d is below the activation threshold %d", score, o.deps.ActivationThreshold))
	}
	if err := o.deps.Target.Activate(); err != nil {
		return o.fail(i, fmt.Sprintf("activate new system: %v", err))
	}
	return o.complete(i, fmt.Sprintf("new system active, readiness score %d", score))
}

// DeleteLegacySystem irreversibly drops the legacy snapshots. Checks run in order:
// approval, gate, replacement system active.
func (o *Orchestrator) DeleteLegacySystem(ctx context.Context, adminApproval bool) (model.MigrationStep, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	const i = 5
	if o.steps[i].Status == model.StepCompleted {
		return cloneStep(o.steps[i]), nil
	}
	if !adminApproval {
		return o.fail(i, "admin approval is required to delete the legacy system")
	}
	if err := o.gate(i); err != nil {
		return cloneStep(o.steps[i]), err
	}
	if !o.deps.Target.IsActive() {
		return o.fail(i, "new system must be active before the legacy system is deleted")
	}
	o.start(i)
	if !o.deps.Freezer.PermanentlyDelete(o.deps.MasterKey) {
		return o.fail(i, "legacy deletion failed")
	}
	return o.complete(i, "legacy system permanently deleted")
}

func (o *Orchestrator) gate(i int) error {
	prev := o.steps[i-1]
	if prev.Status == model.StepCompleted {
		return nil
	}
	o.logger.Debug("step gated", zap.String("step", o.steps[i].ID), zap.String("requires", prev.ID))
	return fmt.Errorf("%w: %s requires %s (currently %s)", ErrStepGated, o.steps[i].ID, prev.ID, prev.Status)
}

func (o *Orchestrator) start(i int) {
	s := &o.steps[i]
	s.Status = model.StepInProgress
	s.ErrorMessage = ""
	s.Details = ""
	s.CompletedAt = nil
	o.transition(i, "")
	if o.deps.StepDelay > 0 {
		time.Sleep(o.deps.StepDelay)
	}
}

func (o *Orchestrator) complete(i int, details string) (model.MigrationStep, error) {
	now := o.clock().UTC()
	s := &o.steps[i]
	s.Status = model.StepCompleted
	s.Details = details
	s.ErrorMessage = ""
	s.CompletedAt = &now
	o.transition(i, details)
	return cloneStep(*s), nil
}

func (o *Orchestrator) fail(i int, msg string) (model.MigrationStep, error) {
	s := &o.steps[i]
	s.Status = model.StepFailed
	s.ErrorMessage = msg
	s.CompletedAt = nil
	o.transition(i, msg)
	return cloneStep(*s), fmt.Errorf("%w: %s: %s", ErrStepFailed, s.ID, msg)
}

// transition persists the steps, notifies and audits. Persistence errors are
// logged; the in-memory state stays authoritative for the running process.
func (o *Orchestrator) transition(i int, detail string) {
	s := o.steps[i]
	if err := store.SetJSON(o.deps.Store, store.KeySteps, o.steps); err != nil {
		o.logger.Error("persist steps", zap.String("step", s.ID), zap.Error(err))
	}
	now := o.clock().UTC()
	if o.notifier != nil {
		o.notifier.Notify(model.StepEvent{Step: cloneStep(s), Timestamp: now})
	}
	if s.Status == model.StepInProgress {
		o.logger.Info("step started", zap.String("step", s.ID))
		return
	}
	if err := o.deps.Store.AppendAudit(model.AuditEntry{
		Actor:     systemActor,
		Action:    "step." + string(s.Status),
		Target:    s.ID,
		Detail:    detail,
		Timestamp: now,
	}); err != nil {
		o.logger.Error("append audit", zap.String("step", s.ID), zap.Error(err))
	}
	if s.Status == model.StepFailed {
		o.logger.Warn("step failed", zap.String("step", s.ID), zap.String("error", detail))
	} else {
		o.logger.Info("step completed", zap.String("step", s.ID), zap.String("details", detail))
	}
}

// record appends findings to the accumulated lists. Earlier records are never removed.
func (o *Orchestrator) record(f validation.Findings) {
	o.results = append(o.results, f.Results...)
	o.missing = append(o.missing, f.Missing...)
	if err := store.SetJSON(o.deps.Store, store.KeyValidationResults, o.results); err != nil {
		o.logger.Error("persist validation results", zap.Error(err))
	}
	if err := store.SetJSON(o.deps.Store, store.KeyMissingComponents, o.missing); err != nil {
		o.logger.Error("persist missing components", zap.Error(err))
	}
}

func summarize(results []model.ValidationResult, what string) string {
	c := validation.CountByStatus(results)
	return fmt.Sprintf("%d %s: %d pass, %d warning, %d fail", len(results), what,
		c[model.ValidationPass], c[model.ValidationWarning], c[model.ValidationFail])
}
