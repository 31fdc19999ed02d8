package v1alpha1

import (
	"time"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

const (
	// Group is the API group for VaultLab.
	Group = "vaultlab.dev"
	// Version is the API version for VaultLab.
	Version = "v1alpha1"
	// Kind is the kind for VaultLab environments.
	Kind = "Environment"
	// APIVersion is the full API version for VaultLab.
	APIVersion = Group + "/" + Version
)

// Environment is the desired state of a VaultLab demonstration environment.
// It is constructed once at process start and passed by reference into every
// prober and remediator call; no component reads ambient global state.
type Environment struct {
	metav1.TypeMeta `json:",inline" mapstructure:",squash"`

	Spec Spec `json:"spec,omitzero" mapstructure:"spec,omitempty"`
}

// Spec defines the desired state of the environment.
type Spec struct {
	Cluster      ClusterSpec      `json:"cluster,omitzero"      mapstructure:"cluster"`
	SecretsStore SecretsStoreSpec `json:"secretsStore,omitzero" mapstructure:"secretsStore"`
	Tools        ToolsSpec        `json:"tools,omitzero"        mapstructure:"tools"`
	Repository   RepositorySpec   `json:"repository,omitzero"   mapstructure:"repository"`
	Controller   ControllerSpec   `json:"controller,omitzero"   mapstructure:"controller"`
	Workload     WorkloadSpec     `json:"workload,omitzero"     mapstructure:"workload"`
}

// ClusterSpec configures the local kind cluster.
type ClusterSpec struct {
	// Name is the kind cluster name.
	Name string `json:"name,omitzero" mapstructure:"name"`
	// Kubeconfig is the path to the kubeconfig file; empty means the
	// standard client-go loading rules.
	Kubeconfig string `json:"kubeconfig,omitzero" mapstructure:"kubeconfig"`
	// Network is the Docker network kind attaches its nodes to.
	Network string `json:"network,omitzero" mapstructure:"network"`
}

// Context returns the kubeconfig context name kind generates for the cluster.
func (c ClusterSpec) Context() string {
	return "kind-" + c.Name
}

// SecretsStoreSpec configures the Vault dev container and its access.
type SecretsStoreSpec struct {
	// ContainerName is the Docker container name for the store.
	ContainerName string `json:"containerName,omitzero" mapstructure:"containerName"`
	// Image is the container image to run.
	Image string `json:"image,omitzero" mapstructure:"image"`
	// Address is the store address as seen from the host.
	Address string `json:"address,omitzero" mapstructure:"address"`
	// Token is the static root credential used by probes and remediation.
	Token string `json:"token,omitzero" mapstructure:"token"`
	// HostPort is the published port on the host.
	HostPort int `json:"hostPort,omitzero" mapstructure:"hostPort"`
	// LicenseFile, when set, must exist before any probing begins.
	LicenseFile string `json:"licenseFile,omitzero" mapstructure:"licenseFile"`
	// AuthMethodPath is the mount path of the kubernetes auth method.
	AuthMethodPath string `json:"authMethodPath,omitzero" mapstructure:"authMethodPath"`
	// PolicyName is the read policy bound to the controller identity.
	PolicyName string `json:"policyName,omitzero" mapstructure:"policyName"`
	// RoleName is the kubernetes auth role bound to the controller identity.
	RoleName string `json:"roleName,omitzero" mapstructure:"roleName"`
	// SampleSecrets are the secrets the environment must contain.
	SampleSecrets []SampleSecret `json:"sampleSecrets,omitzero" mapstructure:"sampleSecrets"`
}

// SampleSecret is one KV-v2 secret required by the sample workload.
type SampleSecret struct {
	// Mount is the KV-v2 mount (e.g. "secret").
	Mount string `json:"mount,omitzero" mapstructure:"mount"`
	// Path is the secret path below the mount.
	Path string `json:"path,omitzero" mapstructure:"path"`
	// Data is the key/value payload to write.
	Data map[string]string `json:"data,omitzero" mapstructure:"data"`
}

// ToolsSpec configures the required CLI tools and how to install them.
type ToolsSpec struct {
	// Required lists executables that must be present on PATH.
	Required []string `json:"required,omitzero" mapstructure:"required"`
	// InstallCommand is the package-manager invocation prefix; the missing
	// tool name is appended (e.g. ["brew", "install"]).
	InstallCommand []string `json:"installCommand,omitzero" mapstructure:"installCommand"`
}

// RepositorySpec configures the version-controlled artifact repository.
type RepositorySpec struct {
	// Path is the local working tree holding generated artifacts.
	Path string `json:"path,omitzero" mapstructure:"path"`
	// RemoteName is the git remote name.
	RemoteName string `json:"remoteName,omitzero" mapstructure:"remoteName"`
	// RemoteURL is the git remote URL the controller syncs from.
	RemoteURL string `json:"remoteURL,omitzero" mapstructure:"remoteURL"`
	// Branch is the tracked branch.
	Branch string `json:"branch,omitzero" mapstructure:"branch"`
}

// ControllerSpec configures the GitOps controller installation.
type ControllerSpec struct {
	// Namespace is the controller's namespace.
	Namespace string `json:"namespace,omitzero" mapstructure:"namespace"`
	// ReleaseName is the Helm release name.
	ReleaseName string `json:"releaseName,omitzero" mapstructure:"releaseName"`
	// Chart is the Helm chart reference.
	Chart string `json:"chart,omitzero" mapstructure:"chart"`
	// Timeout bounds the Helm install wait.
	Timeout time.Duration `json:"timeout,omitzero" mapstructure:"timeout"`
	// PluginConfigMap is the name of the secrets-plugin configuration object.
	PluginConfigMap string `json:"pluginConfigMap,omitzero" mapstructure:"pluginConfigMap"`
	// PluginName is the plugin the application descriptor selects.
	PluginName string `json:"pluginName,omitzero" mapstructure:"pluginName"`
	// RepoServerDeployment is the deployment hosting the plugin sidecar.
	RepoServerDeployment string `json:"repoServerDeployment,omitzero" mapstructure:"repoServerDeployment"`
	// Deployments are the deployments whose availability defines readiness.
	Deployments []string `json:"deployments,omitzero" mapstructure:"deployments"`
	// ServiceAccount is the identity bound to the secrets-store role.
	ServiceAccount string `json:"serviceAccount,omitzero" mapstructure:"serviceAccount"`
}

// WorkloadSpec configures the generated sample workload and its descriptor.
type WorkloadSpec struct {
	// Name is the sample application name.
	Name string `json:"name,omitzero" mapstructure:"name"`
	// Namespace is the destination namespace.
	Namespace string `json:"namespace,omitzero" mapstructure:"namespace"`
	// Dir is the manifest directory relative to the repository path.
	Dir string `json:"dir,omitzero" mapstructure:"dir"`
	// Project is the controller project for the application descriptor.
	Project string `json:"project,omitzero" mapstructure:"project"`
	// TargetRevision is the revision the controller tracks.
	TargetRevision string `json:"targetRevision,omitzero" mapstructure:"targetRevision"`
}
