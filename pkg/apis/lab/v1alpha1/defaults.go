package v1alpha1

import (
	"time"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// Default values for a freshly constructed environment.
const (
	// DefaultClusterName is the default kind cluster name.
	DefaultClusterName = "vaultlab"
	// DefaultClusterNetwork is the Docker network kind nodes attach to.
	DefaultClusterNetwork = "kind"
	// DefaultStoreContainerName is the default Vault container name.
	DefaultStoreContainerName = "vaultlab-vault"
	// DefaultStoreImage is the default Vault image.
	DefaultStoreImage = "hashicorp/vault:1.17"
	// DefaultStoreAddress is the Vault address as seen from the host.
	DefaultStoreAddress = "http://127.0.0.1:8200"
	// DefaultStoreToken is the dev-mode root token.
	DefaultStoreToken = "root"
	// DefaultStoreHostPort is the published Vault port.
	DefaultStoreHostPort = 8200
	// DefaultAuthMethodPath is the kubernetes auth method mount path.
	DefaultAuthMethodPath = "kubernetes"
	// DefaultControllerNamespace is the Argo CD namespace.
	DefaultControllerNamespace = "argocd"
	// DefaultControllerChart is the Argo CD Helm OCI chart.
	DefaultControllerChart = "oci://ghcr.io/argoproj/argo-helm/argo-cd"
	// DefaultControllerTimeout bounds the Helm install wait.
	DefaultControllerTimeout = 10 * time.Minute
	// DefaultPluginConfigMap is the secrets-plugin configuration object name.
	DefaultPluginConfigMap = "cmp-plugin"
	// DefaultPluginName is the plugin selected by the application descriptor.
	DefaultPluginName = "argocd-vault-plugin"
)

// NewEnvironment creates an Environment with all defaults applied.
func NewEnvironment() *Environment {
	return &Environment{
		TypeMeta: metav1.TypeMeta{
			APIVersion: APIVersion,
			Kind:       Kind,
		},
		Spec: Spec{
			Cluster: ClusterSpec{
				Name:    DefaultClusterName,
				Network: DefaultClusterNetwork,
			},
			SecretsStore: SecretsStoreSpec{
				ContainerName:  DefaultStoreContainerName,
				Image:          DefaultStoreImage,
				Address:        DefaultStoreAddress,
				Token:          DefaultStoreToken,
				HostPort:       DefaultStoreHostPort,
				AuthMethodPath: DefaultAuthMethodPath,
				PolicyName:     "vaultlab-read",
				RoleName:       "argocd",
				SampleSecrets: []SampleSecret{
					{
						Mount: "secret",
						Path:  "vaultlab/sample-app",
						Data: map[string]string{
							"username": "demo",
							"password": "demo-password",
						},
					},
				},
			},
			Tools: ToolsSpec{
				Required:       []string{"git"},
				InstallCommand: []string{"brew", "install"},
			},
			Repository: RepositorySpec{
				Path:       ".",
				RemoteName: "origin",
				RemoteURL:  "https://github.com/vaultlab/vaultlab-demo.git",
				Branch:     "main",
			},
			Controller: ControllerSpec{
				Namespace:            DefaultControllerNamespace,
				ReleaseName:          "argocd",
				Chart:                DefaultControllerChart,
				Timeout:              DefaultControllerTimeout,
				PluginConfigMap:      DefaultPluginConfigMap,
				PluginName:           DefaultPluginName,
				RepoServerDeployment: "argocd-repo-server",
				Deployments: []string{
					"argocd-server",
					"argocd-repo-server",
				},
				ServiceAccount: "argocd-repo-server",
			},
			Workload: WorkloadSpec{
				Name:           "sample-app",
				Namespace:      "default",
				Dir:            "apps/sample-app",
				Project:        "default",
				TargetRevision: "HEAD",
			},
		},
	}
}
