package environment_test

import (
	"context"
	"errors"
	"time"

	"github.com/vaultlab/vaultlab/pkg/client/argocd"
	"github.com/vaultlab/vaultlab/pkg/client/docker"
	"github.com/vaultlab/vaultlab/pkg/client/helm"
	"github.com/vaultlab/vaultlab/pkg/svc/environment"
)

var (
	errEngineDown    = errors.New("engine down")
	errStoreDown     = errors.New("store down")
	errNoCluster     = errors.New("cluster not provisioned")
	errToolNotFound  = errors.New("executable not found")
	errFakeWriteFail = errors.New("write failed")
)

// fakeEnv simulates every external dependency behind the client interfaces.
// State transitions mirror the real systems: starting the store makes it
// healthy, creating the cluster makes its API reachable, installing the
// chart makes the controller ready. Every mutating call is logged so tests
// can assert that converged environments are never touched.
type fakeEnv struct {
	engineDown bool

	toolsOnPath map[string]bool

	remoteExists bool
	commits      int
	pushes       int

	storeHealthy bool
	attached     bool
	inspectErr   error
	authEnabled  bool
	authConfigs  int
	policies     map[string]string
	roles        int
	secrets      map[string]map[string]string
	secretPutErr error

	clusterExists bool

	status        argocd.Status
	pluginPresent bool
	helmInstalls  int
	restarts      []string
	applications  int
	adminPassword string

	mutations []string
}

func newFakeEnv() *fakeEnv {
	return &fakeEnv{
		toolsOnPath: map[string]bool{},
		policies:    map[string]string{},
		secrets:     map[string]map[string]string{},
	}
}

func (f *fakeEnv) mutate(name string) {
	f.mutations = append(f.mutations, name)
}

func (f *fakeEnv) clients() environment.Clients {
	return environment.Clients{
		Engine:       f,
		Store:        f,
		SecretsStore: f,
		Cluster:      f,
		NewController: func() (environment.Controller, error) {
			if !f.clusterExists {
				return nil, errNoCluster
			}

			return f, nil
		},
		NewInstaller: func() (environment.ChartInstaller, error) { return f, nil },
		ClusterCA:    func() (string, error) { return "fake-ca-bundle", nil },
		Repository:   f,
		Tools:        f,
	}
}

// ContainerEngine

func (f *fakeEnv) Ping(_ context.Context) error {
	if f.engineDown {
		return errEngineDown
	}

	return nil
}

// StoreContainers

func (f *fakeEnv) EnsureRunning(_ context.Context, _ docker.StoreConfig) error {
	f.mutate("store-ensure-running")
	f.storeHealthy = true

	return nil
}

func (f *fakeEnv) Stop(_ context.Context, _ string) error {
	f.mutate("store-stop")
	f.storeHealthy = false

	return nil
}

func (f *fakeEnv) IsAttachedToNetwork(_ context.Context, _, _ string) (bool, error) {
	if f.inspectErr != nil {
		return false, f.inspectErr
	}

	if !f.storeHealthy {
		return false, docker.ErrStoreContainerNotFound
	}

	return f.attached, nil
}

func (f *fakeEnv) EnsureNetworkAttachment(_ context.Context, _, _ string) error {
	if !f.attached {
		f.mutate("store-network-attach")
	}

	f.attached = true

	return nil
}

func (f *fakeEnv) ResolveContainerIPOnNetwork(_ context.Context, _, _ string) (string, error) {
	return "172.18.0.9", nil
}

// SecretsStore

func (f *fakeEnv) CheckHealth(_ context.Context) error {
	if !f.storeHealthy {
		return errStoreDown
	}

	return nil
}

func (f *fakeEnv) SecretExists(_ context.Context, mount, path string) (bool, error) {
	_, ok := f.secrets[mount+"/"+path]

	return ok, nil
}

func (f *fakeEnv) WriteSecret(_ context.Context, mount, path string, data map[string]string) error {
	if f.secretPutErr != nil {
		return f.secretPutErr
	}

	f.mutate("secret-write")
	f.secrets[mount+"/"+path] = data

	return nil
}

func (f *fakeEnv) AuthMethodEnabled(_ context.Context, _ string) (bool, error) {
	return f.authEnabled, nil
}

func (f *fakeEnv) EnableKubernetesAuth(_ context.Context, _ string) error {
	if !f.authEnabled {
		f.mutate("auth-enable")
	}

	f.authEnabled = true

	return nil
}

func (f *fakeEnv) ConfigureKubernetesAuth(_ context.Context, _, host, caCert, jwt string) error {
	if host == "" || caCert == "" || jwt == "" {
		return errors.New("incomplete auth configuration")
	}

	f.mutate("auth-configure")
	f.authConfigs++

	return nil
}

func (f *fakeEnv) WritePolicy(_ context.Context, name, rules string) error {
	f.mutate("policy-write")
	f.policies[name] = rules

	return nil
}

func (f *fakeEnv) WriteKubernetesRole(_ context.Context, _, _, _, _, _ string) error {
	f.mutate("role-write")
	f.roles++

	return nil
}

// ClusterProvisioner

func (f *fakeEnv) Exists(_ string) (bool, error) {
	return f.clusterExists, nil
}

func (f *fakeEnv) Create(_ string) error {
	if !f.clusterExists {
		f.mutate("cluster-create")
	}

	f.clusterExists = true

	return nil
}

func (f *fakeEnv) Delete(_, _ string) error {
	f.mutate("cluster-delete")
	f.clusterExists = false

	return nil
}

// Controller

func (f *fakeEnv) GetStatus(_ context.Context, _ []string) (argocd.Status, error) {
	return f.status, nil
}

func (f *fakeEnv) PluginConfigPresent(_ context.Context, _ string) (bool, error) {
	return f.pluginPresent, nil
}

func (f *fakeEnv) EnsureNamespace(_ context.Context) error {
	if !f.status.NamespaceExists {
		f.mutate("namespace-create")
	}

	f.status.NamespaceExists = true

	return nil
}

func (f *fakeEnv) EnsurePluginConfig(_ context.Context, _ argocd.PluginConfigOptions) error {
	if !f.pluginPresent {
		f.mutate("plugin-config-ensure")
	}

	f.pluginPresent = true

	return nil
}

func (f *fakeEnv) EnsureApplication(_ context.Context, opts argocd.ApplicationOptions) error {
	if opts.RepositoryURL == "" {
		return errors.New("repository url is required")
	}

	f.mutate("application-ensure")
	f.applications++

	return nil
}

func (f *fakeEnv) RestartDeployment(_ context.Context, name string) error {
	f.mutate("deployment-restart")
	f.restarts = append(f.restarts, name)

	return nil
}

func (f *fakeEnv) WaitForDeployment(_ context.Context, _ string, _ time.Duration) error {
	return nil
}

func (f *fakeEnv) APIServerReachable(_ context.Context) error {
	if !f.clusterExists {
		return errNoCluster
	}

	return nil
}

func (f *fakeEnv) IssueServiceAccountToken(_ context.Context, _ string) (string, error) {
	return "fake-reviewer-jwt", nil
}

func (f *fakeEnv) InitialAdminPassword(_ context.Context) (string, error) {
	return f.adminPassword, nil
}

// ChartInstaller

func (f *fakeEnv) InstallOrUpgradeChart(_ context.Context, spec *helm.ChartSpec) (*helm.ReleaseInfo, error) {
	f.mutate("chart-install")
	f.helmInstalls++
	f.status.Installed = true
	f.status.Ready = true

	return &helm.ReleaseInfo{Name: spec.ReleaseName, Namespace: spec.Namespace, Revision: 1}, nil
}

func (f *fakeEnv) UninstallRelease(_ context.Context, _, _ string) error {
	f.mutate("chart-uninstall")
	f.status = argocd.Status{}

	return nil
}

// Repository

func (f *fakeEnv) HasRemote(_ string) (bool, error) {
	return f.remoteExists, nil
}

func (f *fakeEnv) EnsureInitialized(_, _, _ string) error {
	if !f.remoteExists {
		f.mutate("git-init")
	}

	f.remoteExists = true

	return nil
}

func (f *fakeEnv) CommitAll(_ string) error {
	f.mutate("git-commit")
	f.commits++

	return nil
}

func (f *fakeEnv) Push(_ context.Context, _ string) error {
	f.mutate("git-push")
	f.pushes++

	return nil
}

// ToolRunner

func (f *fakeEnv) LookPath(tool string) error {
	if f.toolsOnPath[tool] {
		return nil
	}

	return errToolNotFound
}

func (f *fakeEnv) Install(_ context.Context, tool string) error {
	f.mutate("tool-install")
	f.toolsOnPath[tool] = true

	return nil
}
