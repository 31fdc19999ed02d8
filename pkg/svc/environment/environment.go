// Package environment binds the configured desired state and the external
// clients into the concrete probe set and remediation graph the reconciler
// executes.
package environment

import (
	"context"
	"fmt"
	"io"

	"github.com/vaultlab/vaultlab/pkg/apis/lab/v1alpha1"
	"github.com/vaultlab/vaultlab/pkg/reconciler"
)

// New assembles a reconciler over the configured environment. Step ordering
// is resolved here, so invalid prerequisite graphs fail before any probe or
// mutation runs.
func New(cfg *v1alpha1.Environment, clients Clients, out io.Writer) (*reconciler.Reconciler, error) {
	return reconciler.New(
		Probes(cfg, clients),
		Steps(cfg, clients),
		reconciler.NewReporter(out),
		connectionInfo(cfg, clients),
	)
}

// connectionInfo assembles the operator-facing summary printed after a run.
// The admin credential read is best effort; a blank login is reported when
// the controller is not reachable.
func connectionInfo(cfg *v1alpha1.Environment, clients Clients) func(ctx context.Context) reconciler.ConnectionInfo {
	return func(ctx context.Context) reconciler.ConnectionInfo {
		ctrl := cfg.Spec.Controller

		info := reconciler.ConnectionInfo{
			StoreAddress:   cfg.Spec.SecretsStore.Address,
			StoreToken:     cfg.Spec.SecretsStore.Token,
			ControllerHost: "https://localhost:8080 (after port-forward)",
			Hints: []string{
				fmt.Sprintf("kubectl -n %s port-forward svc/%s-server 8080:443",
					ctrl.Namespace, ctrl.ReleaseName),
				fmt.Sprintf("VAULT_ADDR=%s VAULT_TOKEN=%s vault kv list secret/",
					cfg.Spec.SecretsStore.Address, cfg.Spec.SecretsStore.Token),
			},
		}

		controller, err := clients.NewController()
		if err != nil {
			return info
		}

		password, err := controller.InitialAdminPassword(ctx)
		if err != nil || password == "" {
			return info
		}

		info.ControllerLogin = "admin / " + password

		return info
	}
}

// Down tears the environment back to nothing: the controller release, the
// cluster and the store container. Missing pieces are tolerated so a partial
// environment tears down cleanly.
func Down(ctx context.Context, cfg *v1alpha1.Environment, clients Clients) error {
	exists, err := clients.Cluster.Exists(cfg.Spec.Cluster.Name)
	if err != nil {
		return err
	}

	if exists {
		if installer, err := clients.NewInstaller(); err == nil {
			// Release removal is cosmetic when the whole cluster goes away
			// next; errors here only matter if cluster deletion is skipped.
			_ = installer.UninstallRelease(ctx,
				cfg.Spec.Controller.ReleaseName, cfg.Spec.Controller.Namespace)
		}

		if err := clients.Cluster.Delete(cfg.Spec.Cluster.Name, cfg.Spec.Cluster.Kubeconfig); err != nil {
			return err
		}
	}

	return clients.Store.Stop(ctx, cfg.Spec.SecretsStore.ContainerName)
}
