package reconciler

import "context"

// ProbeStatus classifies the outcome of a single read-only probe.
type ProbeStatus int

const (
	// StatusSatisfied means the desired-state condition is met.
	StatusSatisfied ProbeStatus = iota
	// StatusDeficient means the condition is not met and remediation is expected.
	StatusDeficient
	// StatusBroken means the probe itself failed unexpectedly (command error,
	// timeout, unparsable output). Broken probes are treated as deficient so
	// that probing fails closed, but the failure detail is surfaced separately
	// so "not yet converged" and "unexpectedly broken" are never conflated.
	StatusBroken
)

// ProbeResult is the outcome of one probe: the tag it guards and whether the
// guarded condition is satisfied.
type ProbeResult struct {
	Tag    Tag
	Status ProbeStatus
	// Detail carries supplementary context for reporting: the missing paths
	// for a deficient probe, or the underlying error for a broken one.
	Detail string
}

// CheckFunc performs one read-only status query against an external
// dependency. Implementations must have no side effects and must not panic;
// any error is mapped to StatusBroken by the prober rather than propagated.
type CheckFunc func(ctx context.Context) (ProbeResult, error)

// Probe binds a deficiency tag to the check that observes it.
type Probe struct {
	// Name identifies the probe in reports.
	Name string
	// Tag is recorded in the deficiency set when the check is not satisfied.
	Tag Tag
	// Check performs the read-only status query.
	Check CheckFunc
}

// Prober runs all registered probes and accumulates their deficiencies.
type Prober struct {
	probes []Probe
}

// NewProber creates a prober over the given probes. Probes run in the order
// given, but since all are read-only the order carries no semantics.
func NewProber(probes []Probe) *Prober {
	return &Prober{probes: probes}
}

// Run executes every probe unconditionally and returns the accumulated
// deficiency set together with the individual results. No probe
// short-circuits another: the full deficiency picture is known before any
// remediation begins. A probe that returns an error or panics is recorded as
// broken, which fails closed into the deficiency set.
func (p *Prober) Run(ctx context.Context) (*DeficiencySet, []ProbeResult) {
	set := NewDeficiencySet()
	results := make([]ProbeResult, 0, len(p.probes))

	for _, probe := range p.probes {
		result := runCheck(ctx, probe)

		if result.Status != StatusSatisfied {
			set.Add(result.Tag)
		}

		results = append(results, result)
	}

	return set, results
}

// runCheck invokes a single check, converting errors and panics into a
// broken result carrying the probe's tag.
func runCheck(ctx context.Context, probe Probe) (result ProbeResult) {
	defer func() {
		if r := recover(); r != nil {
			result = ProbeResult{
				Tag:    probe.Tag,
				Status: StatusBroken,
				Detail: "probe panicked",
			}
		}
	}()

	result, err := probe.Check(ctx)
	if err != nil {
		return ProbeResult{Tag: probe.Tag, Status: StatusBroken, Detail: err.Error()}
	}

	if result.Tag == "" {
		result.Tag = probe.Tag
	}

	return result
}
