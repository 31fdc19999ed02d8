package cmd

import (
	"github.com/spf13/cobra"

	"github.com/vaultlab/vaultlab/pkg/svc/environment"
	"github.com/vaultlab/vaultlab/pkg/utils/notify"
)

// NewStatusCmd creates the status command: probe and report, mutate nothing.
func NewStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:          "status",
		Short:        "Probe the environment and report deficiencies without remediating",
		RunE:         handleStatusRunE,
		SilenceUsage: true,
	}
}

func handleStatusRunE(cmd *cobra.Command, _ []string) error {
	cfg, clients, err := loadEnvironment(cmd)
	if err != nil {
		return err
	}

	rec, err := environment.New(cfg, clients, cmd.OutOrStdout())
	if err != nil {
		return err
	}

	result := rec.Probe(cmd.Context())
	out := cmd.OutOrStdout()

	if result.Deficiencies.Empty() {
		notify.Successf(out, "environment converged")

		return nil
	}

	rec.Reporter().Deficiencies(result.Deficiencies, result.ProbeResults)
	notify.Infof(out, "run `vaultlab up` to remediate")

	return nil
}
