package argocd

import (
	"fmt"

	"github.com/vaultlab/vaultlab/pkg/io/generator"
)

// ValuesOptions parameterizes the controller chart values document.
type ValuesOptions struct {
	// PluginConfigMap is the name of the plugin definition ConfigMap mounted
	// into the repo-server sidecar.
	PluginConfigMap string
	// PluginImage is the sidecar image carrying the plugin binary.
	PluginImage string
	// StoreAddress is the secrets-store address reachable from cluster pods.
	StoreAddress string
	// StoreToken is the credential the plugin authenticates with.
	StoreToken string
}

// values mirrors the subset of the controller chart's values schema that
// VaultLab configures: a repo-server sidecar running the secrets plugin.
type values struct {
	Configs    configsValues    `json:"configs"    yaml:"configs"`
	RepoServer repoServerValues `json:"repoServer" yaml:"repoServer"`
}

type configsValues struct {
	CM map[string]string `json:"cm" yaml:"cm"`
}

type repoServerValues struct {
	ExtraContainers []sidecarValues `json:"extraContainers" yaml:"extraContainers"`
	Volumes         []volumeValues  `json:"volumes"         yaml:"volumes"`
}

type sidecarValues struct {
	Name         string              `json:"name"         yaml:"name"`
	Image        string              `json:"image"        yaml:"image"`
	Command      []string            `json:"command"      yaml:"command"`
	Env          []envValues         `json:"env"          yaml:"env"`
	VolumeMounts []volumeMountValues `json:"volumeMounts" yaml:"volumeMounts"`
}

type envValues struct {
	Name  string `json:"name"  yaml:"name"`
	Value string `json:"value" yaml:"value"`
}

type volumeMountValues struct {
	Name      string `json:"name"              yaml:"name"`
	MountPath string `json:"mountPath"         yaml:"mountPath"`
	SubPath   string `json:"subPath,omitempty" yaml:"subPath,omitempty"`
}

type volumeValues struct {
	Name      string           `json:"name"                yaml:"name"`
	ConfigMap *configMapVolume `json:"configMap,omitempty" yaml:"configMap,omitempty"`
	EmptyDir  *struct{}        `json:"emptyDir,omitempty"  yaml:"emptyDir,omitempty"`
}

type configMapVolume struct {
	Name string `json:"name" yaml:"name"`
}

// GenerateValues renders the controller chart values enabling the plugin
// sidecar. The store token flows to the sidecar environment so the plugin
// can resolve placeholders at sync time.
func GenerateValues(opts ValuesOptions) (string, error) {
	model := values{
		Configs: configsValues{
			CM: map[string]string{
				"timeout.reconciliation": "60s",
			},
		},
		RepoServer: repoServerValues{
			ExtraContainers: []sidecarValues{
				{
					Name:    "avp",
					Image:   opts.PluginImage,
					Command: []string{"/var/run/argocd/argocd-cmp-server"},
					Env: []envValues{
						{Name: "VAULT_ADDR", Value: opts.StoreAddress},
						{Name: "VAULT_TOKEN", Value: opts.StoreToken},
						{Name: "AVP_TYPE", Value: "vault"},
						{Name: "AVP_AUTH_TYPE", Value: "token"},
					},
					VolumeMounts: []volumeMountValues{
						{Name: "var-files", MountPath: "/var/run/argocd"},
						{Name: "plugins", MountPath: "/home/argocd/cmp-server/plugins"},
						{
							Name:      "cmp-plugin",
							MountPath: "/home/argocd/cmp-server/config/plugin.yaml",
							SubPath:   "avp.yaml",
						},
						{Name: "cmp-tmp", MountPath: "/tmp"},
					},
				},
			},
			Volumes: []volumeValues{
				{Name: "cmp-plugin", ConfigMap: &configMapVolume{Name: opts.PluginConfigMap}},
				{Name: "cmp-tmp", EmptyDir: &struct{}{}},
			},
		},
	}

	output, err := generator.MarshalYAML(model)
	if err != nil {
		return "", fmt.Errorf("generating controller values: %w", err)
	}

	return output, nil
}
