// Package argocd manages the GitOps controller's in-cluster resources: the
// secrets-plugin configuration object, the Application descriptor, and the
// readiness and credential queries the reconciler needs.
package argocd

import (
	"context"
	"errors"
	"fmt"
	"time"

	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/kubernetes"

	"github.com/vaultlab/vaultlab/pkg/k8s"
)

var errRepositoryURLRequired = errors.New("repository url is required")

// initialAdminSecretName holds the generated admin password after install.
const initialAdminSecretName = "argocd-initial-admin-secret"

// Status is the controller-state picture the probes consume.
type Status struct {
	// NamespaceExists reports whether the controller namespace is present.
	NamespaceExists bool
	// Installed reports whether every expected deployment exists.
	Installed bool
	// Ready reports whether every expected deployment is available.
	Ready bool
}

// Manager operates on the controller's Kubernetes resources.
type Manager struct {
	clientset kubernetes.Interface
	dynamic   dynamic.Interface
	namespace string
}

// NewManager creates a manager using provided Kubernetes clients.
//
// This is the primary constructor for unit tests.
func NewManager(clientset kubernetes.Interface, dyn dynamic.Interface, namespace string) *Manager {
	return &Manager{clientset: clientset, dynamic: dyn, namespace: namespace}
}

// NewManagerFromKubeconfig creates a manager by building Kubernetes clients
// from kubeconfig.
func NewManagerFromKubeconfig(kubeconfig, context, namespace string) (*Manager, error) {
	clientset, err := k8s.NewClientset(kubeconfig, context)
	if err != nil {
		return nil, err
	}

	dyn, err := k8s.NewDynamicClient(kubeconfig, context)
	if err != nil {
		return nil, err
	}

	return NewManager(clientset, dyn, namespace), nil
}

// GetStatus checks the controller namespace and the given deployments and
// reports whether the controller is installed and ready.
func (m *Manager) GetStatus(ctx context.Context, deployments []string) (Status, error) {
	_, err := m.clientset.CoreV1().Namespaces().Get(ctx, m.namespace, metav1.GetOptions{})
	if err != nil {
		if apierrors.IsNotFound(err) {
			return Status{}, nil
		}

		return Status{}, fmt.Errorf("get namespace %s: %w", m.namespace, err)
	}

	status := Status{NamespaceExists: true, Installed: true, Ready: true}

	for _, name := range deployments {
		exists, available, err := k8s.DeploymentAvailable(ctx, m.clientset, m.namespace, name)
		if err != nil {
			return Status{}, err
		}

		if !exists {
			status.Installed = false
			status.Ready = false

			continue
		}

		if !available {
			status.Ready = false
		}
	}

	return status, nil
}

// PluginConfigPresent reports whether the secrets-plugin configuration
// object exists.
func (m *Manager) PluginConfigPresent(ctx context.Context, name string) (bool, error) {
	_, err := m.clientset.CoreV1().ConfigMaps(m.namespace).Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		if apierrors.IsNotFound(err) {
			return false, nil
		}

		return false, fmt.Errorf("get plugin configmap %s: %w", name, err)
	}

	return true, nil
}

// EnsureNamespace creates the controller namespace if it does not exist.
func (m *Manager) EnsureNamespace(ctx context.Context) error {
	_, err := m.clientset.CoreV1().Namespaces().Get(ctx, m.namespace, metav1.GetOptions{})
	if err == nil {
		return nil
	}

	if !apierrors.IsNotFound(err) {
		return fmt.Errorf("get namespace %s: %w", m.namespace, err)
	}

	_, err = m.clientset.CoreV1().
		Namespaces().
		Create(ctx, &corev1.Namespace{
			ObjectMeta: metav1.ObjectMeta{Name: m.namespace},
		}, metav1.CreateOptions{})
	if err != nil && !apierrors.IsAlreadyExists(err) {
		return fmt.Errorf("create namespace %s: %w", m.namespace, err)
	}

	return nil
}

// EnsurePluginConfig creates or updates the secrets-plugin configuration
// object.
func (m *Manager) EnsurePluginConfig(ctx context.Context, opts PluginConfigOptions) error {
	desired := buildPluginConfigMap(m.namespace, opts)
	configMaps := m.clientset.CoreV1().ConfigMaps(m.namespace)

	existing, err := configMaps.Get(ctx, desired.Name, metav1.GetOptions{})
	if err != nil {
		if apierrors.IsNotFound(err) {
			_, err = configMaps.Create(ctx, desired, metav1.CreateOptions{})
			if err != nil {
				return fmt.Errorf("create plugin configmap: %w", err)
			}

			return nil
		}

		return fmt.Errorf("get plugin configmap: %w", err)
	}

	desired.ResourceVersion = existing.ResourceVersion

	_, err = configMaps.Update(ctx, desired, metav1.UpdateOptions{})
	if err != nil {
		return fmt.Errorf("update plugin configmap: %w", err)
	}

	return nil
}

// EnsureApplication creates or updates the Application descriptor.
func (m *Manager) EnsureApplication(ctx context.Context, opts ApplicationOptions) error {
	if opts.RepositoryURL == "" {
		return errRepositoryURLRequired
	}

	desired := buildApplication(m.namespace, opts)
	apps := m.dynamic.Resource(applicationGVR()).Namespace(m.namespace)

	existing, err := apps.Get(ctx, desired.GetName(), metav1.GetOptions{})
	if err != nil {
		if apierrors.IsNotFound(err) {
			_, err = apps.Create(ctx, desired, metav1.CreateOptions{})
			if err != nil {
				return fmt.Errorf("create Application: %w", err)
			}

			return nil
		}

		return fmt.Errorf("get Application: %w", err)
	}

	desired.SetResourceVersion(existing.GetResourceVersion())

	_, err = apps.Update(ctx, desired, metav1.UpdateOptions{})
	if err != nil {
		return fmt.Errorf("update Application: %w", err)
	}

	return nil
}

// RestartDeployment triggers a rollout restart by patching the pod template
// restart annotation, the same mechanism kubectl rollout restart uses. The
// repo-server must be restarted after its plugin configuration changes.
func (m *Manager) RestartDeployment(ctx context.Context, name string) error {
	patch := fmt.Sprintf(
		`{"spec":{"template":{"metadata":{"annotations":{"kubectl.kubernetes.io/restartedAt":%q}}}}}`,
		time.Now().UTC().Format(time.RFC3339),
	)

	_, err := m.clientset.AppsV1().Deployments(m.namespace).Patch(
		ctx,
		name,
		types.StrategicMergePatchType,
		[]byte(patch),
		metav1.PatchOptions{},
	)
	if err != nil {
		return fmt.Errorf("restart deployment %s/%s: %w", m.namespace, name, err)
	}

	return nil
}

// WaitForDeployment polls until the named controller deployment is available.
func (m *Manager) WaitForDeployment(
	ctx context.Context,
	name string,
	deadline time.Duration,
) error {
	return k8s.WaitForDeploymentReady(ctx, m.clientset, m.namespace, name, deadline)
}

// APIServerReachable checks that the cluster API server answers requests.
func (m *Manager) APIServerReachable(_ context.Context) error {
	_, err := m.clientset.Discovery().ServerVersion()
	if err != nil {
		return fmt.Errorf("api server not reachable: %w", err)
	}

	return nil
}

// IssueServiceAccountToken mints a fresh token for the controller identity.
func (m *Manager) IssueServiceAccountToken(
	ctx context.Context,
	serviceAccount string,
) (string, error) {
	return k8s.IssueServiceAccountToken(ctx, m.clientset, m.namespace, serviceAccount)
}

// InitialAdminPassword reads the generated admin credential. An empty string
// is returned when the secret does not exist (e.g. already rotated away).
func (m *Manager) InitialAdminPassword(ctx context.Context) (string, error) {
	secret, err := m.clientset.CoreV1().
		Secrets(m.namespace).
		Get(ctx, initialAdminSecretName, metav1.GetOptions{})
	if err != nil {
		if apierrors.IsNotFound(err) {
			return "", nil
		}

		return "", fmt.Errorf("get initial admin secret: %w", err)
	}

	return string(secret.Data["password"]), nil
}
