package reconciler

import (
	"context"
	"errors"
	"fmt"
)

// ErrStepFailed wraps the error of the remediation step that aborted a run.
var ErrStepFailed = errors.New("remediation step failed")

// StepOutcome records what happened to one step during remediation.
type StepOutcome struct {
	Name string
	// Skipped is true when none of the step's gating tags were deficient.
	Skipped bool
	// Err is the failure that aborted the run, nil otherwise.
	Err error
}

// Remediator executes remediation steps in resolved order, touching only
// what the deficiency set marks as deficient.
type Remediator struct {
	order    []Step
	observer func(StepOutcome)
}

// NewRemediator resolves the step graph into a total order and returns a
// remediator over it. The observer, if non-nil, is invoked after each step
// outcome (skip, success, or failure) for progress reporting.
func NewRemediator(steps []Step, observer func(StepOutcome)) (*Remediator, error) {
	order, err := ResolveOrder(steps)
	if err != nil {
		return nil, err
	}

	return &Remediator{order: order, observer: observer}, nil
}

// Order returns the step names in execution order.
func (r *Remediator) Order() []string {
	names := make([]string, 0, len(r.order))
	for _, step := range r.order {
		names = append(names, step.Name)
	}

	return names
}

// Run walks the resolved order once. A step executes only when at least one
// of its gating tags is in the set; executed steps are idempotent so a
// partially converged target is safe. The first failing step aborts the run
// with an error naming the step; already completed steps are not rolled
// back, since the next invocation's probes will pick up from the partial
// state.
func (r *Remediator) Run(ctx context.Context, set *DeficiencySet) ([]StepOutcome, error) {
	outcomes := make([]StepOutcome, 0, len(r.order))

	for _, step := range r.order {
		if !set.HasAny(step.Tags...) {
			outcome := StepOutcome{Name: step.Name, Skipped: true}
			r.observe(outcome)
			outcomes = append(outcomes, outcome)

			continue
		}

		err := step.Action(ctx)
		if err != nil {
			wrapped := fmt.Errorf("%w: %s: %w", ErrStepFailed, step.Name, err)
			outcome := StepOutcome{Name: step.Name, Err: wrapped}
			r.observe(outcome)
			outcomes = append(outcomes, outcome)

			return outcomes, wrapped
		}

		outcome := StepOutcome{Name: step.Name}
		r.observe(outcome)
		outcomes = append(outcomes, outcome)
	}

	return outcomes, nil
}

func (r *Remediator) observe(outcome StepOutcome) {
	if r.observer != nil {
		r.observer(outcome)
	}
}
