package configmanager_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vaultlab/vaultlab/pkg/io/configmanager"
)

func TestLoadConfig_DefaultsWithoutFile(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := configmanager.NewConfigManager().LoadConfig()
	require.NoError(t, err)

	require.Equal(t, "vaultlab", cfg.Spec.Cluster.Name)
	require.Equal(t, "http://127.0.0.1:8200", cfg.Spec.SecretsStore.Address)
	require.Equal(t, "argocd", cfg.Spec.Controller.Namespace)
}

func TestLoadConfig_FileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	content := "spec:\n  cluster:\n    name: custom-lab\n  secretsStore:\n    hostPort: 8300\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "vaultlab.yaml"), []byte(content), 0o644))

	t.Chdir(dir)

	cfg, err := configmanager.NewConfigManager().LoadConfig()
	require.NoError(t, err)

	require.Equal(t, "custom-lab", cfg.Spec.Cluster.Name)
	require.Equal(t, 8300, cfg.Spec.SecretsStore.HostPort)
	// Untouched values keep their defaults.
	require.Equal(t, "argocd", cfg.Spec.Controller.Namespace)
}

func TestLoadConfig_EnvironmentOverridesFile(t *testing.T) {
	dir := t.TempDir()
	content := "spec:\n  cluster:\n    name: from-file\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "vaultlab.yaml"), []byte(content), 0o644))

	t.Chdir(dir)
	t.Setenv("VAULTLAB_SPEC_CLUSTER_NAME", "from-env")

	cfg, err := configmanager.NewConfigManager().LoadConfig()
	require.NoError(t, err)

	require.Equal(t, "from-env", cfg.Spec.Cluster.Name)
}

func TestLoadConfig_EnvironmentOverridesDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("VAULTLAB_SPEC_CLUSTER_NAME", "from-env")

	cfg, err := configmanager.NewConfigManager().LoadConfig()
	require.NoError(t, err)

	require.Equal(t, "from-env", cfg.Spec.Cluster.Name)
}

func TestLoadConfig_EnvironmentOverridesTypedDefault(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("VAULTLAB_SPEC_SECRETSSTORE_HOSTPORT", "8300")

	cfg, err := configmanager.NewConfigManager().LoadConfig()
	require.NoError(t, err)

	require.Equal(t, 8300, cfg.Spec.SecretsStore.HostPort)
}

func TestLoadConfig_ExpandsEnvPlaceholders(t *testing.T) {
	dir := t.TempDir()
	content := "spec:\n  secretsStore:\n    token: ${VAULTLAB_TEST_STORE_TOKEN}\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "vaultlab.yaml"), []byte(content), 0o644))

	t.Chdir(dir)
	t.Setenv("VAULTLAB_TEST_STORE_TOKEN", "s.expanded")

	cfg, err := configmanager.NewConfigManager().LoadConfig()
	require.NoError(t, err)

	require.Equal(t, "s.expanded", cfg.Spec.SecretsStore.Token)
}

func TestLoadConfig_InvalidConfigFails(t *testing.T) {
	dir := t.TempDir()
	content := "spec:\n  cluster:\n    name: \"\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "vaultlab.yaml"), []byte(content), 0o644))

	t.Chdir(dir)

	_, err := configmanager.NewConfigManager().LoadConfig()
	require.Error(t, err)
}

func TestLoadConfig_CachesResult(t *testing.T) {
	t.Chdir(t.TempDir())

	manager := configmanager.NewConfigManager()

	first, err := manager.LoadConfig()
	require.NoError(t, err)

	second, err := manager.LoadConfig()
	require.NoError(t, err)
	require.Same(t, first, second)
}
