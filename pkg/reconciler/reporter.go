package reconciler

import (
	"io"

	"github.com/vaultlab/vaultlab/pkg/utils/notify"
)

// ConnectionInfo carries the operator-facing values printed after a run.
type ConnectionInfo struct {
	StoreAddress    string
	StoreToken      string
	ControllerHost  string
	ControllerLogin string
	// Hints are free-form next-step lines, printed verbatim.
	Hints []string
}

// Reporter emits a human-readable account of a reconciliation pass. It is a
// pure terminal side effect; nothing consumes its output programmatically.
type Reporter struct {
	writer io.Writer
}

// NewReporter creates a reporter writing to the given writer.
func NewReporter(writer io.Writer) *Reporter {
	return &Reporter{writer: writer}
}

// Converged reports that probing found no deficiencies and nothing was done.
func (r *Reporter) Converged(info ConnectionInfo) {
	notify.Successf(r.writer, "environment already converged, nothing to do")
	r.connection(info)
}

// Deficiencies lists the deficiency picture before remediation starts.
// Broken probes are surfaced as warnings so unexpected breakage is never
// silently folded into ordinary drift.
func (r *Reporter) Deficiencies(set *DeficiencySet, results []ProbeResult) {
	for _, result := range results {
		if result.Status == StatusBroken {
			notify.Warningf(r.writer, "probe for %s failed: %s", result.Tag, result.Detail)
		}
	}

	notify.Infof(r.writer, "found %d deficiencies", set.Len())

	for _, tag := range set.Tags() {
		notify.Activityf(r.writer, "deficient: %s", tag)
	}
}

// Step reports a single remediation step outcome as it happens.
func (r *Reporter) Step(outcome StepOutcome) {
	switch {
	case outcome.Err != nil:
		notify.Errorf(r.writer, "step %s failed: %v", outcome.Name, outcome.Err)
	case outcome.Skipped:
		notify.Activityf(r.writer, "skipping %s (already satisfied)", outcome.Name)
	default:
		notify.Successf(r.writer, "completed %s", outcome.Name)
	}
}

// Remediated reports a successful remediation pass and prints connection info.
func (r *Reporter) Remediated(executed int, info ConnectionInfo) {
	notify.Successf(r.writer, "environment converged after %d remediation steps", executed)
	r.connection(info)
}

func (r *Reporter) connection(info ConnectionInfo) {
	if info.StoreAddress != "" {
		notify.Infof(r.writer, "secrets store: %s", info.StoreAddress)
	}

	if info.StoreToken != "" {
		notify.Infof(r.writer, "store token: %s", info.StoreToken)
	}

	if info.ControllerHost != "" {
		notify.Infof(r.writer, "gitops controller: %s", info.ControllerHost)
	}

	if info.ControllerLogin != "" {
		notify.Infof(r.writer, "controller login: %s", info.ControllerLogin)
	}

	for _, hint := range info.Hints {
		notify.Activityf(r.writer, "%s", hint)
	}
}
