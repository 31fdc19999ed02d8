package environment

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"slices"

	dockerclient "github.com/docker/docker/client"

	"github.com/vaultlab/vaultlab/pkg/apis/lab/v1alpha1"
	"github.com/vaultlab/vaultlab/pkg/client/argocd"
	"github.com/vaultlab/vaultlab/pkg/client/docker"
	"github.com/vaultlab/vaultlab/pkg/client/git"
	"github.com/vaultlab/vaultlab/pkg/client/helm"
	"github.com/vaultlab/vaultlab/pkg/client/vault"
	"github.com/vaultlab/vaultlab/pkg/k8s"
	kindprovisioner "github.com/vaultlab/vaultlab/pkg/svc/provisioner/cluster/kind"
)

// ErrNoInstallCommand is returned when a tool must be installed but no
// package-manager command is configured.
var ErrNoInstallCommand = errors.New("no tool install command configured")

// NewDefaultClients builds the production client set from the configuration.
// Cluster-scoped clients are deferred behind factories because the cluster,
// and with it the kubeconfig context, may not exist yet.
func NewDefaultClients(cfg *v1alpha1.Environment, out io.Writer) (Clients, error) {
	apiClient, err := docker.GetDockerClient()
	if err != nil {
		return Clients{}, err
	}

	secrets, err := vault.NewClient(cfg.Spec.SecretsStore.Address, cfg.Spec.SecretsStore.Token)
	if err != nil {
		return Clients{}, err
	}

	kubeconfig := cfg.Spec.Cluster.Kubeconfig
	kubeContext := cfg.Spec.Cluster.Context()
	namespace := cfg.Spec.Controller.Namespace

	return Clients{
		Engine:       engineAdapter{api: apiClient},
		Store:        docker.NewStoreManager(apiClient),
		SecretsStore: secrets,
		Cluster:      kindprovisioner.NewProvisioner(out),
		NewController: func() (Controller, error) {
			return argocd.NewManagerFromKubeconfig(kubeconfig, kubeContext, namespace)
		},
		NewInstaller: func() (ChartInstaller, error) {
			return helm.NewClient(kubeconfig, kubeContext)
		},
		ClusterCA: func() (string, error) {
			restConfig, err := k8s.BuildRESTConfig(kubeconfig, kubeContext)
			if err != nil {
				return "", err
			}

			return k8s.ClusterCACertificate(restConfig)
		},
		Repository: git.NewClient(cfg.Spec.Repository.Path),
		Tools: execToolRunner{
			installCommand: cfg.Spec.Tools.InstallCommand,
			out:            out,
		},
	}, nil
}

type engineAdapter struct {
	api dockerclient.APIClient
}

func (e engineAdapter) Ping(ctx context.Context) error {
	return docker.PingEngine(ctx, e.api)
}

// execToolRunner checks PATH and shells out to the configured package
// manager. Installs stream their output to the operator's terminal.
type execToolRunner struct {
	installCommand []string
	out            io.Writer
}

var _ ToolRunner = execToolRunner{}

func (r execToolRunner) LookPath(tool string) error {
	_, err := exec.LookPath(tool)

	return err
}

func (r execToolRunner) Install(ctx context.Context, tool string) error {
	if len(r.installCommand) == 0 {
		return fmt.Errorf("%w: cannot install %s", ErrNoInstallCommand, tool)
	}

	args := append(slices.Clone(r.installCommand), tool)

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Stdout = r.out
	cmd.Stderr = r.out

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("install %s: %w", tool, err)
	}

	return nil
}
