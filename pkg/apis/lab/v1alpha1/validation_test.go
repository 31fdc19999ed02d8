package v1alpha1_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vaultlab/vaultlab/pkg/apis/lab/v1alpha1"
)

func TestValidate_DefaultsAreValid(t *testing.T) {
	t.Parallel()

	require.NoError(t, v1alpha1.NewEnvironment().Validate())
}

func TestValidate_RequiredFields(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(env *v1alpha1.Environment)
		wantErr error
	}{
		{
			name:    "missing cluster name",
			mutate:  func(env *v1alpha1.Environment) { env.Spec.Cluster.Name = "" },
			wantErr: v1alpha1.ErrClusterNameRequired,
		},
		{
			name:    "missing store address",
			mutate:  func(env *v1alpha1.Environment) { env.Spec.SecretsStore.Address = "" },
			wantErr: v1alpha1.ErrStoreAddressRequired,
		},
		{
			name:    "missing store token",
			mutate:  func(env *v1alpha1.Environment) { env.Spec.SecretsStore.Token = "" },
			wantErr: v1alpha1.ErrStoreTokenRequired,
		},
		{
			name:    "missing controller namespace",
			mutate:  func(env *v1alpha1.Environment) { env.Spec.Controller.Namespace = "" },
			wantErr: v1alpha1.ErrControllerNamespaceRequired,
		},
		{
			name:    "missing repository path",
			mutate:  func(env *v1alpha1.Environment) { env.Spec.Repository.Path = "" },
			wantErr: v1alpha1.ErrRepositoryPathRequired,
		},
		{
			name:    "tools without install command",
			mutate:  func(env *v1alpha1.Environment) { env.Spec.Tools.InstallCommand = nil },
			wantErr: v1alpha1.ErrInstallCommandEmpty,
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			env := v1alpha1.NewEnvironment()
			testCase.mutate(env)

			require.ErrorIs(t, env.Validate(), testCase.wantErr)
		})
	}
}

func TestCheckPreconditions_NoLicenseConfigured(t *testing.T) {
	t.Parallel()

	require.NoError(t, v1alpha1.NewEnvironment().CheckPreconditions())
}

func TestCheckPreconditions_LicenseFileMissing(t *testing.T) {
	t.Parallel()

	env := v1alpha1.NewEnvironment()
	env.Spec.SecretsStore.LicenseFile = filepath.Join(t.TempDir(), "vault.hclic")

	err := env.CheckPreconditions()
	require.ErrorIs(t, err, v1alpha1.ErrLicenseFileMissing)
}

func TestCheckPreconditions_LicenseFilePresent(t *testing.T) {
	t.Parallel()

	license := filepath.Join(t.TempDir(), "vault.hclic")
	require.NoError(t, os.WriteFile(license, []byte("license"), 0o600))

	env := v1alpha1.NewEnvironment()
	env.Spec.SecretsStore.LicenseFile = license

	require.NoError(t, env.CheckPreconditions())
}

func TestClusterSpec_Context(t *testing.T) {
	t.Parallel()

	spec := v1alpha1.ClusterSpec{Name: "vaultlab"}

	require.Equal(t, "kind-vaultlab", spec.Context())
}
