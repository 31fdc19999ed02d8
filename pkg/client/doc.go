// Package client provides embedded clients for the external systems the
// environment touches.
//
// Each subpackage wraps one system behind a small Go API so the rest of the
// codebase never shells out to external binaries:
//
//   - argocd: Argo CD installation status, plugin configuration, and
//     Application management
//   - docker: container engine health and the secrets store container
//   - git: the local artifact repository and its remote
//   - helm: chart installation for the GitOps controller
//   - netretry: transient network error classification and backoff
//   - vault: secrets store health, secrets, policies, and Kubernetes auth
package client
