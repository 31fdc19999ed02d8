package cmd

import (
	"github.com/spf13/cobra"

	"github.com/vaultlab/vaultlab/pkg/apis/lab/v1alpha1"
	"github.com/vaultlab/vaultlab/pkg/io/configmanager"
	"github.com/vaultlab/vaultlab/pkg/svc/environment"
)

// NewUpCmd creates the up command: probe, remediate, report.
func NewUpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Probe the environment and remediate every deficiency",
		Long: "Probes the demo environment, builds the deficiency picture, runs the " +
			"ordered remediation steps for whatever is missing, and prints how to " +
			"connect. Safe to rerun; a converged environment is left untouched.",
		RunE:         handleUpRunE,
		SilenceUsage: true,
	}
}

func handleUpRunE(cmd *cobra.Command, _ []string) error {
	cfg, clients, err := loadEnvironment(cmd)
	if err != nil {
		return err
	}

	rec, err := environment.New(cfg, clients, cmd.OutOrStdout())
	if err != nil {
		return err
	}

	_, err = rec.Reconcile(cmd.Context())

	return err
}

// loadEnvironment loads and validates configuration and builds the
// production client set. Preconditions are checked before any probing so a
// misconfigured environment fails before anything is touched.
func loadEnvironment(cmd *cobra.Command) (*v1alpha1.Environment, environment.Clients, error) {
	cfg, err := configmanager.NewConfigManager().LoadConfig()
	if err != nil {
		return nil, environment.Clients{}, err
	}

	if err := cfg.CheckPreconditions(); err != nil {
		return nil, environment.Clients{}, err
	}

	clients, err := environment.NewDefaultClients(cfg, cmd.OutOrStdout())
	if err != nil {
		return nil, environment.Clients{}, err
	}

	return cfg, clients, nil
}
