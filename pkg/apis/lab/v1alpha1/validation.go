package v1alpha1

import (
	"fmt"
	"os"
)

// Validate checks the environment for configuration mistakes that should
// surface before any external system is touched.
func (e *Environment) Validate() error {
	if e.Spec.Cluster.Name == "" {
		return ErrClusterNameRequired
	}

	if e.Spec.SecretsStore.Address == "" {
		return ErrStoreAddressRequired
	}

	if e.Spec.SecretsStore.Token == "" {
		return ErrStoreTokenRequired
	}

	if e.Spec.Controller.Namespace == "" {
		return ErrControllerNamespaceRequired
	}

	if e.Spec.Repository.Path == "" {
		return ErrRepositoryPathRequired
	}

	if len(e.Spec.Tools.Required) > 0 && len(e.Spec.Tools.InstallCommand) == 0 {
		return ErrInstallCommandEmpty
	}

	return nil
}

// CheckPreconditions verifies hard static preconditions. Unlike probe
// deficiencies these are fatal before probing begins: a missing licensing
// artifact cannot be remediated by the reconciler.
func (e *Environment) CheckPreconditions() error {
	license := e.Spec.SecretsStore.LicenseFile
	if license == "" {
		return nil
	}

	_, err := os.Stat(license)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrLicenseFileMissing, license, err)
	}

	return nil
}
