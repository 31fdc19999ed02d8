// Package cmd assembles the VaultLab command tree.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewRootCmd creates and returns the root command with version info and
// subcommands.
func NewRootCmd(version, commit, date string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vaultlab",
		Short: "VaultLab provisions a local secrets-management demo environment",
		Long: "VaultLab converges a local demo environment: a Vault dev container, " +
			"a kind cluster, Argo CD with a secrets plugin, and a sample workload " +
			"whose secrets resolve at sync time.",
		RunE:         handleRootRunE,
		SilenceUsage: true,
	}

	cmd.Version = fmt.Sprintf("%s (Built on %s from Git SHA %s)", version, date, commit)

	cmd.AddCommand(NewUpCmd())
	cmd.AddCommand(NewStatusCmd())
	cmd.AddCommand(NewDownCmd())

	return cmd
}

// Execute runs the provided root command.
func Execute(cmd *cobra.Command) error {
	err := cmd.Execute()
	if err != nil {
		return fmt.Errorf("command execution failed: %w", err)
	}

	return nil
}

// handleRootRunE handles the root command.
func handleRootRunE(cmd *cobra.Command, _ []string) error {
	// The err can safely be ignored, as it can never fail at runtime.
	_ = cmd.Help()

	return nil
}
