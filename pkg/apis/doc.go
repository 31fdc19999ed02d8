// Package apis holds the versioned configuration types for VaultLab.
//
// The types follow Kubernetes API conventions so a vaultlab.yaml reads like
// any other declarative resource:
//
//   - lab/v1alpha1: the Environment resource describing the desired demo
//     environment, its defaults, and its validation rules
package apis
