package reconciler

import "sort"

// Tag names a single desired-state condition that is not yet met.
type Tag string

// Deficiency tags recorded by the probes and tested by the remediation steps.
const (
	// TagRuntimeUnavailable indicates the local container engine is not reachable.
	TagRuntimeUnavailable Tag = "runtime-unavailable"
	// TagToolsMissing indicates one or more required CLI tools are absent from PATH.
	TagToolsMissing Tag = "tools-missing"
	// TagRepoRemoteMissing indicates the artifact repository is not initialized
	// or has no configured remote.
	TagRepoRemoteMissing Tag = "repo-remote-missing"
	// TagSecretsStoreUnreachable indicates the secrets store does not answer
	// health checks at its configured address.
	TagSecretsStoreUnreachable Tag = "secrets-store-unreachable"
	// TagSampleSecretsMissing indicates one or more sample secrets are absent
	// from their required paths.
	TagSampleSecretsMissing Tag = "sample-secrets-missing"
	// TagAuthMethodDisabled indicates the kubernetes auth method is not enabled
	// on the secrets store.
	TagAuthMethodDisabled Tag = "auth-method-disabled"
	// TagClusterUnavailable indicates the local cluster control plane is not
	// running or not reachable.
	TagClusterUnavailable Tag = "cluster-unavailable"
	// TagControllerNotInstalled indicates the GitOps controller namespace or
	// deployments are absent.
	TagControllerNotInstalled Tag = "controller-not-installed"
	// TagControllerNotReady indicates the GitOps controller is installed but
	// its deployments are not yet available.
	TagControllerNotReady Tag = "controller-not-ready"
	// TagPluginConfigMissing indicates the controller's secrets-plugin
	// configuration object is absent.
	TagPluginConfigMissing Tag = "plugin-config-missing"
	// TagNetworkUnreachable indicates cluster nodes have no network path to
	// the secrets store.
	TagNetworkUnreachable Tag = "network-unreachable"
	// TagAppManifestsMissing indicates the generated application manifests are
	// absent or lack the expected placeholder syntax.
	TagAppManifestsMissing Tag = "app-manifests-missing"
)

// DeficiencySet accumulates the deficiency tags observed during one
// reconciliation pass. It is created fresh per invocation and never persisted.
type DeficiencySet struct {
	tags map[Tag]struct{}
}

// NewDeficiencySet creates an empty deficiency set.
func NewDeficiencySet(tags ...Tag) *DeficiencySet {
	set := &DeficiencySet{tags: make(map[Tag]struct{}, len(tags))}
	for _, tag := range tags {
		set.Add(tag)
	}

	return set
}

// Add records a deficiency tag. Adding an already present tag is a no-op.
func (s *DeficiencySet) Add(tag Tag) {
	s.tags[tag] = struct{}{}
}

// Has reports whether the given tag has been recorded.
func (s *DeficiencySet) Has(tag Tag) bool {
	_, ok := s.tags[tag]

	return ok
}

// HasAny reports whether any of the given tags has been recorded.
func (s *DeficiencySet) HasAny(tags ...Tag) bool {
	for _, tag := range tags {
		if s.Has(tag) {
			return true
		}
	}

	return false
}

// Empty reports whether no deficiency has been recorded.
func (s *DeficiencySet) Empty() bool {
	return len(s.tags) == 0
}

// Len returns the number of recorded tags.
func (s *DeficiencySet) Len() int {
	return len(s.tags)
}

// Tags returns the recorded tags in lexical order for stable reporting.
func (s *DeficiencySet) Tags() []Tag {
	tags := make([]Tag, 0, len(s.tags))
	for tag := range s.tags {
		tags = append(tags, tag)
	}

	sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })

	return tags
}
