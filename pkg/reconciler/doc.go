// Package reconciler implements the probe-then-remediate procedure that
// drives the VaultLab environment toward its desired state.
//
// A single reconciliation pass runs every registered probe to build a
// DeficiencySet, then walks a topologically ordered list of remediation
// steps, executing only the steps whose gating tags are present in the set.
// Probes are read-only and fail closed; steps are idempotent so the whole
// pass can be re-run until the environment converges.
package reconciler
