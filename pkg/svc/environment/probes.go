package environment

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/vaultlab/vaultlab/pkg/apis/lab/v1alpha1"
	"github.com/vaultlab/vaultlab/pkg/client/argocd"
	"github.com/vaultlab/vaultlab/pkg/client/docker"
	"github.com/vaultlab/vaultlab/pkg/io"
	"github.com/vaultlab/vaultlab/pkg/io/generator/workload"
	"github.com/vaultlab/vaultlab/pkg/reconciler"
)

// Manifest file names inside the workload directory. The probe and the
// generating step must agree on these.
const (
	secretFileName     = "secret.yaml"
	deploymentFileName = "deployment.yaml"
)

func satisfied(tag reconciler.Tag) (reconciler.ProbeResult, error) {
	return reconciler.ProbeResult{Tag: tag, Status: reconciler.StatusSatisfied}, nil
}

func deficient(tag reconciler.Tag, detail string) (reconciler.ProbeResult, error) {
	return reconciler.ProbeResult{Tag: tag, Status: reconciler.StatusDeficient, Detail: detail}, nil
}

func broken(tag reconciler.Tag, err error) (reconciler.ProbeResult, error) {
	return reconciler.ProbeResult{Tag: tag}, err
}

// Probes builds the full read-only probe set over the configured environment.
// Every probe runs on every pass; none mutates anything.
func Probes(cfg *v1alpha1.Environment, clients Clients) []reconciler.Probe {
	return []reconciler.Probe{
		{
			Name:  "container-runtime",
			Tag:   reconciler.TagRuntimeUnavailable,
			Check: runtimeCheck(clients),
		},
		{
			Name:  "required-tools",
			Tag:   reconciler.TagToolsMissing,
			Check: toolsCheck(cfg, clients),
		},
		{
			Name:  "repository-remote",
			Tag:   reconciler.TagRepoRemoteMissing,
			Check: repositoryCheck(cfg, clients),
		},
		{
			Name:  "secrets-store",
			Tag:   reconciler.TagSecretsStoreUnreachable,
			Check: storeCheck(clients),
		},
		{
			Name:  "sample-secrets",
			Tag:   reconciler.TagSampleSecretsMissing,
			Check: sampleSecretsCheck(cfg, clients),
		},
		{
			Name:  "auth-method",
			Tag:   reconciler.TagAuthMethodDisabled,
			Check: authMethodCheck(cfg, clients),
		},
		{
			Name:  "cluster",
			Tag:   reconciler.TagClusterUnavailable,
			Check: clusterCheck(cfg, clients),
		},
		{
			Name:  "controller-installed",
			Tag:   reconciler.TagControllerNotInstalled,
			Check: controllerInstalledCheck(cfg, clients),
		},
		{
			Name:  "controller-ready",
			Tag:   reconciler.TagControllerNotReady,
			Check: controllerReadyCheck(cfg, clients),
		},
		{
			Name:  "plugin-config",
			Tag:   reconciler.TagPluginConfigMissing,
			Check: pluginConfigCheck(cfg, clients),
		},
		{
			Name:  "store-network",
			Tag:   reconciler.TagNetworkUnreachable,
			Check: storeNetworkCheck(cfg, clients),
		},
		{
			Name:  "workload-manifests",
			Tag:   reconciler.TagAppManifestsMissing,
			Check: manifestsCheck(cfg),
		},
	}
}

func runtimeCheck(clients Clients) reconciler.CheckFunc {
	return func(ctx context.Context) (reconciler.ProbeResult, error) {
		if err := clients.Engine.Ping(ctx); err != nil {
			return deficient(reconciler.TagRuntimeUnavailable, err.Error())
		}

		return satisfied(reconciler.TagRuntimeUnavailable)
	}
}

func toolsCheck(cfg *v1alpha1.Environment, clients Clients) reconciler.CheckFunc {
	return func(_ context.Context) (reconciler.ProbeResult, error) {
		var missing []string

		for _, tool := range cfg.Spec.Tools.Required {
			if err := clients.Tools.LookPath(tool); err != nil {
				missing = append(missing, tool)
			}
		}

		if len(missing) > 0 {
			return deficient(reconciler.TagToolsMissing, strings.Join(missing, ", "))
		}

		return satisfied(reconciler.TagToolsMissing)
	}
}

func repositoryCheck(cfg *v1alpha1.Environment, clients Clients) reconciler.CheckFunc {
	return func(_ context.Context) (reconciler.ProbeResult, error) {
		found, err := clients.Repository.HasRemote(cfg.Spec.Repository.RemoteName)
		if err != nil {
			return broken(reconciler.TagRepoRemoteMissing, err)
		}

		if !found {
			return deficient(reconciler.TagRepoRemoteMissing,
				fmt.Sprintf("remote %q not configured", cfg.Spec.Repository.RemoteName))
		}

		return satisfied(reconciler.TagRepoRemoteMissing)
	}
}

func storeCheck(clients Clients) reconciler.CheckFunc {
	return func(ctx context.Context) (reconciler.ProbeResult, error) {
		if err := clients.SecretsStore.CheckHealth(ctx); err != nil {
			return deficient(reconciler.TagSecretsStoreUnreachable, err.Error())
		}

		return satisfied(reconciler.TagSecretsStoreUnreachable)
	}
}

func sampleSecretsCheck(cfg *v1alpha1.Environment, clients Clients) reconciler.CheckFunc {
	return func(ctx context.Context) (reconciler.ProbeResult, error) {
		// An unreachable store already raises its own tag; without it the
		// secret lookups cannot mean anything, so report the dependent
		// condition as deficient rather than broken.
		if err := clients.SecretsStore.CheckHealth(ctx); err != nil {
			return deficient(reconciler.TagSampleSecretsMissing, "store unreachable")
		}

		var missing []string

		for _, secret := range cfg.Spec.SecretsStore.SampleSecrets {
			exists, err := clients.SecretsStore.SecretExists(ctx, secret.Mount, secret.Path)
			if err != nil {
				return broken(reconciler.TagSampleSecretsMissing, err)
			}

			if !exists {
				missing = append(missing, secret.Mount+"/"+secret.Path)
			}
		}

		if len(missing) > 0 {
			return deficient(reconciler.TagSampleSecretsMissing, strings.Join(missing, ", "))
		}

		return satisfied(reconciler.TagSampleSecretsMissing)
	}
}

func authMethodCheck(cfg *v1alpha1.Environment, clients Clients) reconciler.CheckFunc {
	return func(ctx context.Context) (reconciler.ProbeResult, error) {
		if err := clients.SecretsStore.CheckHealth(ctx); err != nil {
			return deficient(reconciler.TagAuthMethodDisabled, "store unreachable")
		}

		enabled, err := clients.SecretsStore.AuthMethodEnabled(ctx, cfg.Spec.SecretsStore.AuthMethodPath)
		if err != nil {
			return broken(reconciler.TagAuthMethodDisabled, err)
		}

		if !enabled {
			return deficient(reconciler.TagAuthMethodDisabled,
				fmt.Sprintf("auth method %q not enabled", cfg.Spec.SecretsStore.AuthMethodPath))
		}

		return satisfied(reconciler.TagAuthMethodDisabled)
	}
}

func clusterCheck(cfg *v1alpha1.Environment, clients Clients) reconciler.CheckFunc {
	return func(ctx context.Context) (reconciler.ProbeResult, error) {
		exists, err := clients.Cluster.Exists(cfg.Spec.Cluster.Name)
		if err != nil {
			return broken(reconciler.TagClusterUnavailable, err)
		}

		if !exists {
			return deficient(reconciler.TagClusterUnavailable,
				fmt.Sprintf("cluster %q not found", cfg.Spec.Cluster.Name))
		}

		controller, err := clients.NewController()
		if err != nil {
			return deficient(reconciler.TagClusterUnavailable, err.Error())
		}

		if err := controller.APIServerReachable(ctx); err != nil {
			return deficient(reconciler.TagClusterUnavailable, err.Error())
		}

		return satisfied(reconciler.TagClusterUnavailable)
	}
}

func controllerInstalledCheck(cfg *v1alpha1.Environment, clients Clients) reconciler.CheckFunc {
	return func(ctx context.Context) (reconciler.ProbeResult, error) {
		status, ok, err := controllerStatus(ctx, cfg, clients)
		if err != nil {
			return broken(reconciler.TagControllerNotInstalled, err)
		}

		if !ok {
			return deficient(reconciler.TagControllerNotInstalled, "cluster unreachable")
		}

		if !status.NamespaceExists || !status.Installed {
			return deficient(reconciler.TagControllerNotInstalled,
				fmt.Sprintf("controller not installed in namespace %q", cfg.Spec.Controller.Namespace))
		}

		return satisfied(reconciler.TagControllerNotInstalled)
	}
}

func controllerReadyCheck(cfg *v1alpha1.Environment, clients Clients) reconciler.CheckFunc {
	return func(ctx context.Context) (reconciler.ProbeResult, error) {
		status, ok, err := controllerStatus(ctx, cfg, clients)
		if err != nil {
			return broken(reconciler.TagControllerNotReady, err)
		}

		if !ok {
			return deficient(reconciler.TagControllerNotReady, "cluster unreachable")
		}

		if !status.Ready {
			return deficient(reconciler.TagControllerNotReady, "controller deployments not available")
		}

		return satisfied(reconciler.TagControllerNotReady)
	}
}

// controllerStatus resolves controller state, reporting ok=false when the
// cluster itself is unreachable. That condition carries its own tag, so the
// dependent probes record plain deficiencies instead of breaking.
func controllerStatus(
	ctx context.Context,
	cfg *v1alpha1.Environment,
	clients Clients,
) (argocd.Status, bool, error) {
	controller, err := clients.NewController()
	if err != nil {
		return argocd.Status{}, false, nil
	}

	if err := controller.APIServerReachable(ctx); err != nil {
		return argocd.Status{}, false, nil
	}

	status, err := controller.GetStatus(ctx, cfg.Spec.Controller.Deployments)
	if err != nil {
		return argocd.Status{}, true, err
	}

	return status, true, nil
}

func pluginConfigCheck(cfg *v1alpha1.Environment, clients Clients) reconciler.CheckFunc {
	return func(ctx context.Context) (reconciler.ProbeResult, error) {
		controller, err := clients.NewController()
		if err != nil {
			return deficient(reconciler.TagPluginConfigMissing, "cluster unreachable")
		}

		if err := controller.APIServerReachable(ctx); err != nil {
			return deficient(reconciler.TagPluginConfigMissing, "cluster unreachable")
		}

		present, err := controller.PluginConfigPresent(ctx, cfg.Spec.Controller.PluginConfigMap)
		if err != nil {
			return broken(reconciler.TagPluginConfigMissing, err)
		}

		if !present {
			return deficient(reconciler.TagPluginConfigMissing,
				fmt.Sprintf("configmap %q not found", cfg.Spec.Controller.PluginConfigMap))
		}

		return satisfied(reconciler.TagPluginConfigMissing)
	}
}

func storeNetworkCheck(cfg *v1alpha1.Environment, clients Clients) reconciler.CheckFunc {
	return func(ctx context.Context) (reconciler.ProbeResult, error) {
		attached, err := clients.Store.IsAttachedToNetwork(
			ctx, cfg.Spec.SecretsStore.ContainerName, cfg.Spec.Cluster.Network)
		if err != nil {
			// The container not existing yet is ordinary drift that the store
			// probe already tags. Anything else is an engine API failure.
			if errors.Is(err, docker.ErrStoreContainerNotFound) {
				return deficient(reconciler.TagNetworkUnreachable, err.Error())
			}

			return broken(reconciler.TagNetworkUnreachable, err)
		}

		if !attached {
			return deficient(reconciler.TagNetworkUnreachable,
				fmt.Sprintf("container %q not attached to network %q",
					cfg.Spec.SecretsStore.ContainerName, cfg.Spec.Cluster.Network))
		}

		return satisfied(reconciler.TagNetworkUnreachable)
	}
}

func manifestsCheck(cfg *v1alpha1.Environment) reconciler.CheckFunc {
	return func(_ context.Context) (reconciler.ProbeResult, error) {
		dir := filepath.Join(cfg.Spec.Repository.Path, cfg.Spec.Workload.Dir)
		secretPath := filepath.Join(dir, secretFileName)

		hasPlaceholder, err := io.FileContains(secretPath, workload.PlaceholderPrefix)
		if err != nil {
			return broken(reconciler.TagAppManifestsMissing, err)
		}

		if !hasPlaceholder {
			return deficient(reconciler.TagAppManifestsMissing,
				fmt.Sprintf("%s missing or lacks placeholder tokens", secretPath))
		}

		deploymentOK, err := io.FileContains(filepath.Join(dir, deploymentFileName), "kind: Deployment")
		if err != nil {
			return broken(reconciler.TagAppManifestsMissing, err)
		}

		if !deploymentOK {
			return deficient(reconciler.TagAppManifestsMissing,
				fmt.Sprintf("%s missing", filepath.Join(dir, deploymentFileName)))
		}

		return satisfied(reconciler.TagAppManifestsMissing)
	}
}
