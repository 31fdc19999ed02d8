package environment

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/vaultlab/vaultlab/pkg/apis/lab/v1alpha1"
	"github.com/vaultlab/vaultlab/pkg/client/argocd"
	"github.com/vaultlab/vaultlab/pkg/client/docker"
	"github.com/vaultlab/vaultlab/pkg/client/helm"
	"github.com/vaultlab/vaultlab/pkg/io"
	argocdgen "github.com/vaultlab/vaultlab/pkg/io/generator/argocd"
	"github.com/vaultlab/vaultlab/pkg/io/generator/workload"
	"github.com/vaultlab/vaultlab/pkg/k8s"
	"github.com/vaultlab/vaultlab/pkg/reconciler"
)

const (
	// storeStartTimeout bounds the health poll after starting the store
	// container.
	storeStartTimeout = 1 * time.Minute
	// apiServerTimeout bounds the wait for a freshly created cluster's API
	// server.
	apiServerTimeout = 2 * time.Minute
	// apiServerPort is the port the cluster API server listens on inside the
	// Docker network.
	apiServerPort = 6443
	// storePort is the store's listen port inside the Docker network.
	storePort = 8200
	// workloadImage is the image the generated sample deployment runs.
	workloadImage = "nginx:1.29-alpine"
	// pluginImage is the sidecar image carrying the secrets plugin binary.
	pluginImage = "registry.access.redhat.com/ubi8:latest"

	// applicationFileName is the deployment descriptor persisted at the
	// repository root.
	applicationFileName = "application.yaml"
	// valuesFileName is the controller values document persisted at the
	// repository root.
	valuesFileName = "values.yaml"

	commitMessage = "Add generated environment artifacts"
)

// Steps builds the remediation step graph over the configured environment.
// Prerequisites express real data dependencies; the reconciler resolves them
// into a total order at startup.
func Steps(cfg *v1alpha1.Environment, clients Clients) []reconciler.Step {
	return []reconciler.Step{
		{
			Name:   "git-init",
			Tags:   []reconciler.Tag{reconciler.TagRepoRemoteMissing},
			Action: gitInitAction(cfg, clients),
		},
		{
			Name:   "tools-install",
			Tags:   []reconciler.Tag{reconciler.TagToolsMissing},
			Action: toolsInstallAction(cfg, clients),
		},
		{
			Name:     "vault-up",
			Tags:     []reconciler.Tag{reconciler.TagSecretsStoreUnreachable},
			Requires: []string{"tools-install"},
			Action:   storeUpAction(cfg, clients),
		},
		{
			Name: "cluster-up",
			Tags: []reconciler.Tag{
				reconciler.TagClusterUnavailable,
				reconciler.TagRuntimeUnavailable,
			},
			Requires: []string{"tools-install"},
			Action:   clusterUpAction(cfg, clients),
		},
		{
			Name: "auth-enable",
			Tags: []reconciler.Tag{
				reconciler.TagSecretsStoreUnreachable,
				reconciler.TagAuthMethodDisabled,
			},
			Requires: []string{"vault-up", "cluster-up"},
			Action:   authEnableAction(cfg, clients),
		},
		{
			Name:     "secrets-populate",
			Tags:     []reconciler.Tag{reconciler.TagSampleSecretsMissing},
			Requires: []string{"vault-up", "auth-enable"},
			Action:   secretsPopulateAction(cfg, clients),
		},
		{
			Name: "controller-install",
			Tags: []reconciler.Tag{
				reconciler.TagControllerNotInstalled,
				reconciler.TagControllerNotReady,
				reconciler.TagPluginConfigMissing,
			},
			Requires: []string{"cluster-up"},
			Action:   controllerInstallAction(cfg, clients),
		},
		{
			Name: "auth-binding",
			Tags: []reconciler.Tag{
				reconciler.TagAuthMethodDisabled,
				reconciler.TagControllerNotInstalled,
			},
			Requires: []string{"controller-install", "auth-enable"},
			Action:   authBindingAction(cfg, clients),
		},
		{
			Name:     "manifests-generate",
			Tags:     []reconciler.Tag{reconciler.TagAppManifestsMissing},
			Requires: []string{"git-init"},
			Action:   manifestsGenerateAction(cfg),
		},
		{
			Name: "artifacts-publish",
			Tags: []reconciler.Tag{
				reconciler.TagAppManifestsMissing,
				reconciler.TagNetworkUnreachable,
			},
			Requires: []string{"manifests-generate", "controller-install"},
			Action:   artifactsPublishAction(cfg, clients),
		},
	}
}

func gitInitAction(cfg *v1alpha1.Environment, clients Clients) reconciler.ActionFunc {
	return func(_ context.Context) error {
		repo := cfg.Spec.Repository

		return clients.Repository.EnsureInitialized(repo.RemoteName, repo.RemoteURL, repo.Branch)
	}
}

func toolsInstallAction(cfg *v1alpha1.Environment, clients Clients) reconciler.ActionFunc {
	return func(ctx context.Context) error {
		for _, tool := range cfg.Spec.Tools.Required {
			if err := clients.Tools.LookPath(tool); err == nil {
				continue
			}

			if err := clients.Tools.Install(ctx, tool); err != nil {
				return err
			}
		}

		return nil
	}
}

func storeUpAction(cfg *v1alpha1.Environment, clients Clients) reconciler.ActionFunc {
	return func(ctx context.Context) error {
		store := cfg.Spec.SecretsStore

		err := clients.Store.EnsureRunning(ctx, docker.StoreConfig{
			Name:      store.ContainerName,
			Image:     store.Image,
			HostPort:  store.HostPort,
			RootToken: store.Token,
		})
		if err != nil {
			return err
		}

		return k8s.PollForReadiness(ctx, storeStartTimeout, func(ctx context.Context) (bool, error) {
			if err := clients.SecretsStore.CheckHealth(ctx); err != nil {
				//nolint:nilerr // not yet healthy, keep polling
				return false, nil
			}

			return true, nil
		})
	}
}

func clusterUpAction(cfg *v1alpha1.Environment, clients Clients) reconciler.ActionFunc {
	return func(ctx context.Context) error {
		if err := clients.Cluster.Create(cfg.Spec.Cluster.Name); err != nil {
			return err
		}

		return k8s.PollForReadiness(ctx, apiServerTimeout, func(ctx context.Context) (bool, error) {
			controller, err := clients.NewController()
			if err != nil {
				//nolint:nilerr // kubeconfig may not be written yet
				return false, nil
			}

			if err := controller.APIServerReachable(ctx); err != nil {
				//nolint:nilerr // API server still coming up
				return false, nil
			}

			return true, nil
		})
	}
}

func authEnableAction(cfg *v1alpha1.Environment, clients Clients) reconciler.ActionFunc {
	return func(ctx context.Context) error {
		return clients.SecretsStore.EnableKubernetesAuth(ctx, cfg.Spec.SecretsStore.AuthMethodPath)
	}
}

func secretsPopulateAction(cfg *v1alpha1.Environment, clients Clients) reconciler.ActionFunc {
	return func(ctx context.Context) error {
		for _, secret := range cfg.Spec.SecretsStore.SampleSecrets {
			if err := clients.SecretsStore.WriteSecret(ctx, secret.Mount, secret.Path, secret.Data); err != nil {
				return err
			}
		}

		return nil
	}
}

func controllerInstallAction(cfg *v1alpha1.Environment, clients Clients) reconciler.ActionFunc {
	return func(ctx context.Context) error {
		ctrl := cfg.Spec.Controller

		controller, err := clients.NewController()
		if err != nil {
			return err
		}

		status, err := controller.GetStatus(ctx, ctrl.Deployments)
		if err != nil {
			return err
		}

		pluginPresent, err := controller.PluginConfigPresent(ctx, ctrl.PluginConfigMap)
		if err != nil {
			return err
		}

		if err := controller.EnsureNamespace(ctx); err != nil {
			return err
		}

		err = controller.EnsurePluginConfig(ctx, argocd.PluginConfigOptions{
			Name:       ctrl.PluginConfigMap,
			PluginName: ctrl.PluginName,
		})
		if err != nil {
			return err
		}

		switch {
		case !status.Installed:
			if err := installChart(ctx, cfg, clients); err != nil {
				return err
			}
		case !pluginPresent:
			// The release is in place and only the plugin definition had
			// drifted; the sidecar picks the recreated ConfigMap up on a
			// rollout restart, no chart operation needed.
			if err := controller.RestartDeployment(ctx, ctrl.RepoServerDeployment); err != nil {
				return err
			}
		}

		return controller.WaitForDeployment(ctx, ctrl.RepoServerDeployment, ctrl.Timeout)
	}
}

func installChart(ctx context.Context, cfg *v1alpha1.Environment, clients Clients) error {
	storeAddress, err := clusterStoreAddress(ctx, cfg, clients)
	if err != nil {
		return err
	}

	values, err := controllerValues(cfg, storeAddress)
	if err != nil {
		return err
	}

	installer, err := clients.NewInstaller()
	if err != nil {
		return err
	}

	_, err = installer.InstallOrUpgradeChart(ctx, &helm.ChartSpec{
		ReleaseName:     cfg.Spec.Controller.ReleaseName,
		ChartName:       cfg.Spec.Controller.Chart,
		Namespace:       cfg.Spec.Controller.Namespace,
		CreateNamespace: true,
		Wait:            true,
		Timeout:         cfg.Spec.Controller.Timeout,
		ValuesYaml:      values,
	})

	return err
}

// controllerValues renders the controller chart values document enabling the
// plugin sidecar against the given in-cluster store address.
func controllerValues(cfg *v1alpha1.Environment, storeAddress string) (string, error) {
	return argocdgen.GenerateValues(argocdgen.ValuesOptions{
		PluginConfigMap: cfg.Spec.Controller.PluginConfigMap,
		PluginImage:     pluginImage,
		StoreAddress:    storeAddress,
		StoreToken:      cfg.Spec.SecretsStore.Token,
	})
}

// clusterStoreAddress attaches the store container to the cluster network and
// returns the address cluster pods reach it on. Resolved per call, never
// cached.
func clusterStoreAddress(ctx context.Context, cfg *v1alpha1.Environment, clients Clients) (string, error) {
	containerName := cfg.Spec.SecretsStore.ContainerName
	networkName := cfg.Spec.Cluster.Network

	if err := clients.Store.EnsureNetworkAttachment(ctx, containerName, networkName); err != nil {
		return "", err
	}

	ip, err := clients.Store.ResolveContainerIPOnNetwork(ctx, containerName, networkName)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("http://%s:%d", ip, storePort), nil
}

func authBindingAction(cfg *v1alpha1.Environment, clients Clients) reconciler.ActionFunc {
	return func(ctx context.Context) error {
		store := cfg.Spec.SecretsStore
		ctrl := cfg.Spec.Controller

		// The API server address, CA bundle and reviewer token are fetched
		// immediately before the write; cluster recreation invalidates all
		// three, so none may be carried over from an earlier pass.
		ip, err := clients.Store.ResolveContainerIPOnNetwork(
			ctx, cfg.Spec.Cluster.Name+"-control-plane", cfg.Spec.Cluster.Network)
		if err != nil {
			return err
		}

		caCert, err := clients.ClusterCA()
		if err != nil {
			return err
		}

		controller, err := clients.NewController()
		if err != nil {
			return err
		}

		reviewerJWT, err := controller.IssueServiceAccountToken(ctx, ctrl.ServiceAccount)
		if err != nil {
			return err
		}

		host := fmt.Sprintf("https://%s:%d", ip, apiServerPort)

		err = clients.SecretsStore.ConfigureKubernetesAuth(
			ctx, store.AuthMethodPath, host, caCert, reviewerJWT)
		if err != nil {
			return err
		}

		if err := clients.SecretsStore.WritePolicy(ctx, store.PolicyName, policyRules(store.SampleSecrets)); err != nil {
			return err
		}

		return clients.SecretsStore.WriteKubernetesRole(
			ctx, store.AuthMethodPath, store.RoleName,
			ctrl.ServiceAccount, ctrl.Namespace, store.PolicyName)
	}
}

// policyRules renders a read-only policy over every sample secret path.
func policyRules(secrets []v1alpha1.SampleSecret) string {
	var builder strings.Builder

	for _, secret := range secrets {
		fmt.Fprintf(&builder, "path %q {\n  capabilities = [\"read\"]\n}\n",
			secret.Mount+"/data/"+secret.Path)
	}

	return builder.String()
}

func manifestsGenerateAction(cfg *v1alpha1.Environment) reconciler.ActionFunc {
	return func(_ context.Context) error {
		if len(cfg.Spec.SecretsStore.SampleSecrets) == 0 {
			return nil
		}

		secret := cfg.Spec.SecretsStore.SampleSecrets[0]
		opts := workload.Options{
			Name:        cfg.Spec.Workload.Name,
			Namespace:   cfg.Spec.Workload.Namespace,
			Image:       workloadImage,
			SecretMount: secret.Mount,
			SecretPath:  secret.Path,
			SecretKeys:  sortedDataKeys(secret.Data),
		}

		dir := filepath.Join(cfg.Spec.Repository.Path, cfg.Spec.Workload.Dir)

		secretYAML, err := workload.GenerateSecret(opts)
		if err != nil {
			return err
		}

		if err := io.WriteFile(secretYAML, filepath.Join(dir, secretFileName)); err != nil {
			return err
		}

		deploymentYAML, err := workload.GenerateDeployment(opts)
		if err != nil {
			return err
		}

		return io.WriteFile(deploymentYAML, filepath.Join(dir, deploymentFileName))
	}
}

func sortedDataKeys(data map[string]string) []string {
	keys := make([]string, 0, len(data))
	for key := range data {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	return keys
}

func artifactsPublishAction(cfg *v1alpha1.Environment, clients Clients) reconciler.ActionFunc {
	return func(ctx context.Context) error {
		storeAddress, err := clusterStoreAddress(ctx, cfg, clients)
		if err != nil {
			return err
		}

		descriptor, err := argocdgen.GenerateApplication(argocdgen.ApplicationOptions{
			Name:           cfg.Spec.Workload.Name,
			Namespace:      cfg.Spec.Controller.Namespace,
			Project:        cfg.Spec.Workload.Project,
			RepositoryURL:  cfg.Spec.Repository.RemoteURL,
			TargetRevision: cfg.Spec.Workload.TargetRevision,
			Path:           cfg.Spec.Workload.Dir,
			PluginName:     cfg.Spec.Controller.PluginName,
			PluginEnv: []argocdgen.PluginEnv{
				{Name: "VAULT_ADDR", Value: storeAddress},
			},
			DestinationNamespace: cfg.Spec.Workload.Namespace,
		})
		if err != nil {
			return err
		}

		repoPath := cfg.Spec.Repository.Path

		if err := io.WriteFile(descriptor, filepath.Join(repoPath, applicationFileName)); err != nil {
			return err
		}

		values, err := controllerValues(cfg, storeAddress)
		if err != nil {
			return err
		}

		if err := io.WriteFile(values, filepath.Join(repoPath, valuesFileName)); err != nil {
			return err
		}

		if err := clients.Repository.CommitAll(commitMessage); err != nil {
			return err
		}

		if err := clients.Repository.Push(ctx, cfg.Spec.Repository.RemoteName); err != nil {
			return err
		}

		controller, err := clients.NewController()
		if err != nil {
			return err
		}

		return controller.EnsureApplication(ctx, argocd.ApplicationOptions{
			Name:           cfg.Spec.Workload.Name,
			Project:        cfg.Spec.Workload.Project,
			RepositoryURL:  cfg.Spec.Repository.RemoteURL,
			TargetRevision: cfg.Spec.Workload.TargetRevision,
			Path:           cfg.Spec.Workload.Dir,
			PluginName:     cfg.Spec.Controller.PluginName,
			PluginEnv: map[string]string{
				"VAULT_ADDR": storeAddress,
			},
			DestinationNamespace: cfg.Spec.Workload.Namespace,
		})
	}
}
