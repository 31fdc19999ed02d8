// Package generator renders the YAML artifacts the reconciler publishes to
// the version-controlled repository.
package generator

import (
	"fmt"

	"sigs.k8s.io/yaml"
)

// MarshalYAML renders a model to YAML. All concrete generators funnel
// through this so output formatting stays uniform.
func MarshalYAML(model any) (string, error) {
	data, err := yaml.Marshal(model)
	if err != nil {
		return "", fmt.Errorf("marshal yaml: %w", err)
	}

	return string(data), nil
}
