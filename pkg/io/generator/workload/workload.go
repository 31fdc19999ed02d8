// Package workload generates the sample application manifests committed to
// the artifact repository. The manifests carry <path:...#...> placeholder
// tokens that the controller's secrets plugin resolves at sync time; this
// package only emits the placeholders, never their values.
package workload

import (
	"fmt"

	"github.com/vaultlab/vaultlab/pkg/io/generator"
)

// PlaceholderPrefix is the token syntax marker the probes look for when
// verifying generated manifests.
const PlaceholderPrefix = "<path:"

// Options parameterizes sample workload generation.
type Options struct {
	// Name is the workload name.
	Name string
	// Namespace is the destination namespace.
	Namespace string
	// Image is the container image for the sample deployment.
	Image string
	// SecretMount is the KV-v2 mount of the referenced secret.
	SecretMount string
	// SecretPath is the path of the referenced secret below the mount.
	SecretPath string
	// SecretKeys are the fields referenced via placeholders.
	SecretKeys []string
}

// Placeholder renders the plugin token for one secret field.
func Placeholder(mount, path, field string) string {
	return fmt.Sprintf("%s%s/data/%s#%s>", PlaceholderPrefix, mount, path, field)
}

type objectMeta struct {
	Name      string            `json:"name"             yaml:"name"`
	Namespace string            `json:"namespace"        yaml:"namespace"`
	Labels    map[string]string `json:"labels,omitempty" yaml:"labels,omitempty"`
}

type secretManifest struct {
	APIVersion string            `json:"apiVersion" yaml:"apiVersion"`
	Kind       string            `json:"kind"       yaml:"kind"`
	Metadata   objectMeta        `json:"metadata"   yaml:"metadata"`
	Type       string            `json:"type"       yaml:"type"`
	StringData map[string]string `json:"stringData" yaml:"stringData"`
}

type deploymentManifest struct {
	APIVersion string         `json:"apiVersion" yaml:"apiVersion"`
	Kind       string         `json:"kind"       yaml:"kind"`
	Metadata   objectMeta     `json:"metadata"   yaml:"metadata"`
	Spec       deploymentSpec `json:"spec"       yaml:"spec"`
}

type deploymentSpec struct {
	Replicas int32       `json:"replicas" yaml:"replicas"`
	Selector labelSelect `json:"selector" yaml:"selector"`
	Template podTemplate `json:"template" yaml:"template"`
}

type labelSelect struct {
	MatchLabels map[string]string `json:"matchLabels" yaml:"matchLabels"`
}

type podTemplate struct {
	Metadata templateMeta `json:"metadata" yaml:"metadata"`
	Spec     podSpec      `json:"spec"     yaml:"spec"`
}

type templateMeta struct {
	Labels map[string]string `json:"labels" yaml:"labels"`
}

type podSpec struct {
	Containers []containerSpec `json:"containers" yaml:"containers"`
}

type containerSpec struct {
	Name    string        `json:"name"              yaml:"name"`
	Image   string        `json:"image"             yaml:"image"`
	EnvFrom []envFromSpec `json:"envFrom,omitempty" yaml:"envFrom,omitempty"`
}

type envFromSpec struct {
	SecretRef secretRefSpec `json:"secretRef" yaml:"secretRef"`
}

type secretRefSpec struct {
	Name string `json:"name" yaml:"name"`
}

// GenerateSecret renders the placeholder-bearing Secret manifest.
func GenerateSecret(opts Options) (string, error) {
	stringData := make(map[string]string, len(opts.SecretKeys))
	for _, key := range opts.SecretKeys {
		stringData[key] = Placeholder(opts.SecretMount, opts.SecretPath, key)
	}

	manifest := secretManifest{
		APIVersion: "v1",
		Kind:       "Secret",
		Metadata: objectMeta{
			Name:      opts.Name + "-credentials",
			Namespace: opts.Namespace,
			Labels:    map[string]string{"app": opts.Name},
		},
		Type:       "Opaque",
		StringData: stringData,
	}

	output, err := generator.MarshalYAML(manifest)
	if err != nil {
		return "", fmt.Errorf("generating secret manifest: %w", err)
	}

	return output, nil
}

// GenerateDeployment renders the sample Deployment manifest.
func GenerateDeployment(opts Options) (string, error) {
	labels := map[string]string{"app": opts.Name}

	manifest := deploymentManifest{
		APIVersion: "apps/v1",
		Kind:       "Deployment",
		Metadata: objectMeta{
			Name:      opts.Name,
			Namespace: opts.Namespace,
			Labels:    labels,
		},
		Spec: deploymentSpec{
			Replicas: 1,
			Selector: labelSelect{MatchLabels: labels},
			Template: podTemplate{
				Metadata: templateMeta{Labels: labels},
				Spec: podSpec{
					Containers: []containerSpec{
						{
							Name:  opts.Name,
							Image: opts.Image,
							EnvFrom: []envFromSpec{
								{SecretRef: secretRefSpec{Name: opts.Name + "-credentials"}},
							},
						},
					},
				},
			},
		},
	}

	output, err := generator.MarshalYAML(manifest)
	if err != nil {
		return "", fmt.Errorf("generating deployment manifest: %w", err)
	}

	return output, nil
}
