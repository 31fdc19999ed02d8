package cmd

import (
	"github.com/spf13/cobra"

	"github.com/vaultlab/vaultlab/pkg/svc/environment"
	"github.com/vaultlab/vaultlab/pkg/utils/notify"
)

// NewDownCmd creates the down command: tear the environment down entirely.
func NewDownCmd() *cobra.Command {
	return &cobra.Command{
		Use:          "down",
		Short:        "Tear down the demo environment (cluster and store container)",
		RunE:         handleDownRunE,
		SilenceUsage: true,
	}
}

func handleDownRunE(cmd *cobra.Command, _ []string) error {
	cfg, clients, err := loadEnvironment(cmd)
	if err != nil {
		return err
	}

	if err := environment.Down(cmd.Context(), cfg, clients); err != nil {
		return err
	}

	notify.Successf(cmd.OutOrStdout(), "environment torn down")

	return nil
}
