package environment

import (
	"context"
	"time"

	"github.com/vaultlab/vaultlab/pkg/client/argocd"
	"github.com/vaultlab/vaultlab/pkg/client/docker"
	"github.com/vaultlab/vaultlab/pkg/client/helm"
)

// ContainerEngine answers whether the container runtime is reachable.
type ContainerEngine interface {
	Ping(ctx context.Context) error
}

// StoreContainers manages the secrets-store container lifecycle and its
// Docker network membership.
type StoreContainers interface {
	EnsureRunning(ctx context.Context, config docker.StoreConfig) error
	Stop(ctx context.Context, name string) error
	IsAttachedToNetwork(ctx context.Context, containerName, networkName string) (bool, error)
	EnsureNetworkAttachment(ctx context.Context, containerName, networkName string) error
	ResolveContainerIPOnNetwork(ctx context.Context, containerName, networkName string) (string, error)
}

// SecretsStore is the secrets-store API surface the reconciler needs.
type SecretsStore interface {
	CheckHealth(ctx context.Context) error
	SecretExists(ctx context.Context, mount, path string) (bool, error)
	WriteSecret(ctx context.Context, mount, path string, data map[string]string) error
	AuthMethodEnabled(ctx context.Context, path string) (bool, error)
	EnableKubernetesAuth(ctx context.Context, path string) error
	ConfigureKubernetesAuth(ctx context.Context, path, host, caCert, reviewerJWT string) error
	WritePolicy(ctx context.Context, name, rules string) error
	WriteKubernetesRole(ctx context.Context, path, role, serviceAccount, namespace, policy string) error
}

// ClusterProvisioner manages the local cluster.
type ClusterProvisioner interface {
	Exists(name string) (bool, error)
	Create(name string) error
	Delete(name, kubeconfigPath string) error
}

// Controller operates on the GitOps controller's in-cluster resources. It can
// only be constructed once the cluster exists, so Clients carries a factory
// rather than an instance.
type Controller interface {
	GetStatus(ctx context.Context, deployments []string) (argocd.Status, error)
	PluginConfigPresent(ctx context.Context, name string) (bool, error)
	EnsureNamespace(ctx context.Context) error
	EnsurePluginConfig(ctx context.Context, opts argocd.PluginConfigOptions) error
	EnsureApplication(ctx context.Context, opts argocd.ApplicationOptions) error
	RestartDeployment(ctx context.Context, name string) error
	WaitForDeployment(ctx context.Context, name string, deadline time.Duration) error
	APIServerReachable(ctx context.Context) error
	IssueServiceAccountToken(ctx context.Context, serviceAccount string) (string, error)
	InitialAdminPassword(ctx context.Context) (string, error)
}

// ChartInstaller installs or upgrades the controller chart.
type ChartInstaller interface {
	InstallOrUpgradeChart(ctx context.Context, spec *helm.ChartSpec) (*helm.ReleaseInfo, error)
	UninstallRelease(ctx context.Context, releaseName, namespace string) error
}

// Repository manages the version-controlled artifact repository.
type Repository interface {
	HasRemote(remoteName string) (bool, error)
	EnsureInitialized(remoteName, remoteURL, branch string) error
	CommitAll(message string) error
	Push(ctx context.Context, remoteName string) error
}

// ToolRunner checks for and installs required CLI tools.
type ToolRunner interface {
	LookPath(tool string) error
	Install(ctx context.Context, tool string) error
}

// Clients bundles every external dependency the probes and steps touch.
// Cluster-scoped clients are factories because kubeconfig entries for the
// cluster only exist after provisioning; each call dials fresh, which also
// keeps tokens and addresses from being cached across steps.
type Clients struct {
	Engine        ContainerEngine
	Store         StoreContainers
	SecretsStore  SecretsStore
	Cluster       ClusterProvisioner
	NewController func() (Controller, error)
	NewInstaller  func() (ChartInstaller, error)
	ClusterCA     func() (string, error)
	Repository    Repository
	Tools         ToolRunner
}
