// Package argocd provides generators for the GitOps controller's resources.
package argocd

import (
	"fmt"

	"github.com/vaultlab/vaultlab/pkg/io/generator"
)

// Application represents the deployment descriptor committed to the
// artifact repository.
type Application struct {
	APIVersion string              `json:"apiVersion" yaml:"apiVersion"`
	Kind       string              `json:"kind"       yaml:"kind"`
	Metadata   ApplicationMetadata `json:"metadata"   yaml:"metadata"`
	Spec       ApplicationSpec     `json:"spec"       yaml:"spec"`
}

// ApplicationMetadata contains the descriptor metadata.
type ApplicationMetadata struct {
	Name      string            `json:"name"             yaml:"name"`
	Namespace string            `json:"namespace"        yaml:"namespace"`
	Labels    map[string]string `json:"labels,omitempty" yaml:"labels,omitempty"`
}

// ApplicationSpec contains the source and destination configuration.
type ApplicationSpec struct {
	Project     string                 `json:"project"              yaml:"project"`
	Source      ApplicationSource      `json:"source"               yaml:"source"`
	Destination ApplicationDestination `json:"destination"          yaml:"destination"`
	SyncPolicy  *SyncPolicy            `json:"syncPolicy,omitempty" yaml:"syncPolicy,omitempty"`
}

// ApplicationSource defines where the controller fetches manifests from and
// which plugin renders them.
type ApplicationSource struct {
	RepoURL        string      `json:"repoURL"          yaml:"repoURL"`
	TargetRevision string      `json:"targetRevision"   yaml:"targetRevision"`
	Path           string      `json:"path,omitempty"   yaml:"path,omitempty"`
	Plugin         *PluginSpec `json:"plugin,omitempty" yaml:"plugin,omitempty"`
}

// PluginSpec selects the secrets-resolution plugin and its environment.
type PluginSpec struct {
	Name string      `json:"name,omitempty" yaml:"name,omitempty"`
	Env  []PluginEnv `json:"env,omitempty"  yaml:"env,omitempty"`
}

// PluginEnv is one environment variable passed to the plugin at sync time.
type PluginEnv struct {
	Name  string `json:"name"  yaml:"name"`
	Value string `json:"value" yaml:"value"`
}

// ApplicationDestination defines where resources are deployed.
type ApplicationDestination struct {
	Server    string `json:"server"    yaml:"server"`
	Namespace string `json:"namespace" yaml:"namespace"`
}

// SyncPolicy defines automated sync behavior.
type SyncPolicy struct {
	Automated   *AutomatedSync `json:"automated,omitempty"   yaml:"automated,omitempty"`
	SyncOptions []string       `json:"syncOptions,omitempty" yaml:"syncOptions,omitempty"`
}

// AutomatedSync enables automatic syncing.
type AutomatedSync struct {
	Prune    bool `json:"prune"    yaml:"prune"`
	SelfHeal bool `json:"selfHeal" yaml:"selfHeal"`
}

// ApplicationOptions parameterizes descriptor generation.
type ApplicationOptions struct {
	// Name is the application name.
	Name string
	// Namespace is the controller namespace the descriptor lives in.
	Namespace string
	// Project is the controller project.
	Project string
	// RepositoryURL is the resolved artifact repository URL.
	RepositoryURL string
	// TargetRevision is the tracked revision.
	TargetRevision string
	// Path is the manifest directory inside the repository.
	Path string
	// PluginName selects the secrets-resolution plugin.
	PluginName string
	// PluginEnv is the plugin environment, already ordered.
	PluginEnv []PluginEnv
	// DestinationNamespace is where the workload lands.
	DestinationNamespace string
}

// GenerateApplication renders the deployment descriptor.
func GenerateApplication(opts ApplicationOptions) (string, error) {
	app := Application{
		APIVersion: "argoproj.io/v1alpha1",
		Kind:       "Application",
		Metadata: ApplicationMetadata{
			Name:      opts.Name,
			Namespace: opts.Namespace,
			Labels: map[string]string{
				"app.kubernetes.io/managed-by": "vaultlab",
			},
		},
		Spec: ApplicationSpec{
			Project: opts.Project,
			Source: ApplicationSource{
				RepoURL:        opts.RepositoryURL,
				TargetRevision: opts.TargetRevision,
				Path:           opts.Path,
				Plugin: &PluginSpec{
					Name: opts.PluginName,
					Env:  opts.PluginEnv,
				},
			},
			Destination: ApplicationDestination{
				Server:    "https://kubernetes.default.svc",
				Namespace: opts.DestinationNamespace,
			},
			SyncPolicy: &SyncPolicy{
				Automated: &AutomatedSync{
					Prune:    true,
					SelfHeal: true,
				},
				SyncOptions: []string{"CreateNamespace=true"},
			},
		},
	}

	output, err := generator.MarshalYAML(app)
	if err != nil {
		return "", fmt.Errorf("generating application descriptor: %w", err)
	}

	return output, nil
}
