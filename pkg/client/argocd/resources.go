package argocd

import (
	"fmt"
	"sort"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"
)

// PluginConfigOptions configures the secrets-plugin configuration object.
type PluginConfigOptions struct {
	// Name is the ConfigMap name.
	Name string
	// PluginName is the config-management-plugin name the sidecar announces.
	PluginName string
}

// ApplicationOptions configures the Application descriptor.
type ApplicationOptions struct {
	// Name is the Application name.
	Name string
	// Project is the controller project.
	Project string
	// RepositoryURL is the source repository the controller syncs from.
	RepositoryURL string
	// TargetRevision is the tracked revision.
	TargetRevision string
	// Path is the manifest path inside the repository.
	Path string
	// PluginName selects the secrets-resolution plugin.
	PluginName string
	// PluginEnv is passed to the plugin at sync time.
	PluginEnv map[string]string
	// DestinationNamespace is the namespace resources land in.
	DestinationNamespace string
}

func applicationGVR() schema.GroupVersionResource {
	return schema.GroupVersionResource{
		Group:    "argoproj.io",
		Version:  "v1alpha1",
		Resource: "applications",
	}
}

// buildPluginConfigMap renders the sidecar plugin definition. The plugin's
// generate command resolves <path:...#...> placeholders against the secrets
// store at sync time; this repository only emits the placeholders.
func buildPluginConfigMap(namespace string, opts PluginConfigOptions) *corev1.ConfigMap {
	pluginSpec := fmt.Sprintf(`apiVersion: argoproj.io/v1alpha1
kind: ConfigManagementPlugin
metadata:
  name: %s
spec:
  allowConcurrency: true
  discover:
    find:
      command:
        - sh
        - "-c"
        - "find . -name '*.yaml' | xargs -I {} grep \"<path\" {} | grep -v grep"
  generate:
    command:
      - argocd-vault-plugin
      - generate
      - "."
  lockRepo: false
`, opts.PluginName)

	return &corev1.ConfigMap{
		ObjectMeta: metav1.ObjectMeta{
			Name:      opts.Name,
			Namespace: namespace,
			Labels: map[string]string{
				"app.kubernetes.io/part-of": "vaultlab",
			},
		},
		Data: map[string]string{
			"avp.yaml": pluginSpec,
		},
	}
}

func buildApplication(namespace string, opts ApplicationOptions) *unstructured.Unstructured {
	pluginEnv := make([]any, 0, len(opts.PluginEnv))
	for _, name := range sortedKeys(opts.PluginEnv) {
		pluginEnv = append(pluginEnv, map[string]any{
			"name":  name,
			"value": opts.PluginEnv[name],
		})
	}

	source := map[string]any{
		"repoURL":        opts.RepositoryURL,
		"targetRevision": opts.TargetRevision,
		"path":           opts.Path,
		"plugin": map[string]any{
			"name": opts.PluginName,
			"env":  pluginEnv,
		},
	}

	obj := map[string]any{
		"apiVersion": "argoproj.io/v1alpha1",
		"kind":       "Application",
		"metadata": map[string]any{
			"name":      opts.Name,
			"namespace": namespace,
		},
		"spec": map[string]any{
			"project": opts.Project,
			"source":  source,
			"destination": map[string]any{
				"server":    "https://kubernetes.default.svc",
				"namespace": opts.DestinationNamespace,
			},
			"syncPolicy": map[string]any{
				"automated":   map[string]any{"prune": true, "selfHeal": true},
				"syncOptions": []any{"CreateNamespace=true"},
			},
		},
	}

	return &unstructured.Unstructured{Object: obj}
}

func sortedKeys(values map[string]string) []string {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	return keys
}
