package cmd_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vaultlab/vaultlab/pkg/cli/cmd"
)

func TestNewRootCmd_HasSubcommands(t *testing.T) {
	t.Parallel()

	root := cmd.NewRootCmd("v1.0.0", "abc123", "2026-01-01")

	names := make([]string, 0, len(root.Commands()))
	for _, sub := range root.Commands() {
		names = append(names, sub.Name())
	}

	require.Contains(t, names, "up")
	require.Contains(t, names, "status")
	require.Contains(t, names, "down")
}

func TestNewRootCmd_VersionString(t *testing.T) {
	t.Parallel()

	root := cmd.NewRootCmd("v1.2.3", "abc123", "2026-01-01")

	require.Contains(t, root.Version, "v1.2.3")
	require.Contains(t, root.Version, "abc123")
}

func TestRootCmd_PrintsHelp(t *testing.T) {
	t.Parallel()

	root := cmd.NewRootCmd("dev", "none", "unknown")

	var out bytes.Buffer

	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{})

	require.NoError(t, root.Execute())
	require.Contains(t, out.String(), "vaultlab")
	require.Contains(t, out.String(), "Available Commands")
}
