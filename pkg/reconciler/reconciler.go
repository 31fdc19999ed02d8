package reconciler

import (
	"context"
	"errors"
)

// ErrNoProbes is returned when a reconciler is constructed without probes.
var ErrNoProbes = errors.New("reconciler requires at least one probe")

// Result summarizes one reconciliation pass.
type Result struct {
	// Deficiencies is the set observed by the initial probe pass.
	Deficiencies *DeficiencySet
	// ProbeResults are the individual probe outcomes, in probe order.
	ProbeResults []ProbeResult
	// Outcomes are the per-step remediation outcomes; empty when the
	// environment was already converged.
	Outcomes []StepOutcome
}

// Executed returns the number of steps that actually ran.
func (r Result) Executed() int {
	executed := 0

	for _, outcome := range r.Outcomes {
		if !outcome.Skipped && outcome.Err == nil {
			executed++
		}
	}

	return executed
}

// Reconciler runs the single-pass probe -> remediate -> report procedure.
// It is stateless across runs: every invocation builds a fresh deficiency
// set, and convergence is a property of the idempotent steps rather than of
// any persisted bookkeeping.
type Reconciler struct {
	prober     *Prober
	remediator *Remediator
	reporter   *Reporter
	info       func(ctx context.Context) ConnectionInfo
}

// New constructs a reconciler. The info callback assembles the final
// connection summary and is invoked only when reporting; it may return the
// zero value when connection details are not resolvable.
func New(
	probes []Probe,
	steps []Step,
	reporter *Reporter,
	info func(ctx context.Context) ConnectionInfo,
) (*Reconciler, error) {
	if len(probes) == 0 {
		return nil, ErrNoProbes
	}

	rec := &Reconciler{
		prober:   NewProber(probes),
		reporter: reporter,
	}

	remediator, err := NewRemediator(steps, func(outcome StepOutcome) {
		rec.reporter.Step(outcome)
	})
	if err != nil {
		return nil, err
	}

	rec.remediator = remediator
	rec.info = info

	return rec, nil
}

// Probe runs the probe pass only, without remediating. Used by `status`.
func (r *Reconciler) Probe(ctx context.Context) Result {
	set, results := r.prober.Run(ctx)

	return Result{Deficiencies: set, ProbeResults: results}
}

// Reporter returns the reporter wired at construction, so callers that probe
// without remediating report through the same output path.
func (r *Reconciler) Reporter() *Reporter {
	return r.reporter
}

// Reconcile runs one full pass: probe everything, return early when the
// environment is already converged, otherwise remediate in resolved order
// and re-emit connection info. A failed step aborts with a wrapped error
// naming the step; partial remediation is an acceptable resting state for
// the next invocation to pick up.
func (r *Reconciler) Reconcile(ctx context.Context) (Result, error) {
	set, probeResults := r.prober.Run(ctx)
	result := Result{Deficiencies: set, ProbeResults: probeResults}

	if set.Empty() {
		r.reporter.Converged(r.connectionInfo(ctx))

		return result, nil
	}

	r.reporter.Deficiencies(set, probeResults)

	outcomes, err := r.remediator.Run(ctx, set)
	result.Outcomes = outcomes

	if err != nil {
		return result, err
	}

	r.reporter.Remediated(result.Executed(), r.connectionInfo(ctx))

	return result, nil
}

func (r *Reconciler) connectionInfo(ctx context.Context) ConnectionInfo {
	if r.info == nil {
		return ConnectionInfo{}
	}

	return r.info(ctx)
}
