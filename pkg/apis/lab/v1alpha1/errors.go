package v1alpha1

import "errors"

// ErrClusterNameRequired is returned when the cluster name is empty.
var ErrClusterNameRequired = errors.New("cluster name is required")

// ErrStoreAddressRequired is returned when the secrets-store address is empty.
var ErrStoreAddressRequired = errors.New("secrets store address is required")

// ErrStoreTokenRequired is returned when the secrets-store token is empty.
var ErrStoreTokenRequired = errors.New("secrets store token is required")

// ErrControllerNamespaceRequired is returned when the controller namespace is empty.
var ErrControllerNamespaceRequired = errors.New("controller namespace is required")

// ErrRepositoryPathRequired is returned when the repository path is empty.
var ErrRepositoryPathRequired = errors.New("repository path is required")

// ErrInstallCommandEmpty is returned when tools are required but no install
// command is configured.
var ErrInstallCommandEmpty = errors.New("tools install command is empty")

// ErrLicenseFileMissing is returned when a configured license file does not
// exist. This is a hard precondition: the process exits before any probing.
var ErrLicenseFileMissing = errors.New("license file missing")
