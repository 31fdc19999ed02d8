package k8s

import (
	"context"
	"errors"
	"fmt"
	"time"

	appsv1 "k8s.io/api/apps/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
)

// ErrTimeoutExceeded is returned when a readiness deadline passes.
var ErrTimeoutExceeded = errors.New("timeout exceeded")

// pollInterval is the fixed interval between readiness checks.
const pollInterval = 2 * time.Second

// CheckFunc reports whether the polled condition holds. Returning an error
// aborts polling; returning (false, nil) continues until the deadline.
type CheckFunc func(ctx context.Context) (bool, error)

// PollForReadiness polls the check at a fixed interval until it reports
// ready, the deadline passes, or the context is cancelled.
func PollForReadiness(ctx context.Context, deadline time.Duration, check CheckFunc) error {
	pollCtx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		ready, err := check(pollCtx)
		if err != nil {
			return err
		}

		if ready {
			return nil
		}

		select {
		case <-pollCtx.Done():
			return fmt.Errorf("%w after %s", ErrTimeoutExceeded, deadline)
		case <-ticker.C:
		}
	}
}

// WaitForAPIServerReady polls the API server with ServerVersion requests
// until it responds. Useful right after cluster bootstrap when the control
// plane is still settling.
func WaitForAPIServerReady(
	ctx context.Context,
	clientset kubernetes.Interface,
	deadline time.Duration,
) error {
	return PollForReadiness(ctx, deadline, func(_ context.Context) (bool, error) {
		_, err := clientset.Discovery().ServerVersion()
		if err != nil {
			// Continue polling on any error - the API server is not ready yet
			return false, nil //nolint:nilerr // returning nil to continue polling
		}

		return true, nil
	})
}

// DeploymentAvailable reports whether a deployment exists and has its
// desired replicas available. The bool pair distinguishes "absent" from
// "present but not ready" so callers can record different deficiencies.
func DeploymentAvailable(
	ctx context.Context,
	clientset kubernetes.Interface,
	namespace, name string,
) (exists bool, available bool, err error) {
	deployment, err := clientset.AppsV1().Deployments(namespace).Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		if apierrors.IsNotFound(err) {
			return false, false, nil
		}

		return false, false, fmt.Errorf("get deployment %s/%s: %w", namespace, name, err)
	}

	return true, isDeploymentAvailable(deployment), nil
}

// WaitForDeploymentReady polls until the deployment reports its desired
// replicas available.
func WaitForDeploymentReady(
	ctx context.Context,
	clientset kubernetes.Interface,
	namespace, name string,
	deadline time.Duration,
) error {
	return PollForReadiness(ctx, deadline, func(ctx context.Context) (bool, error) {
		deployment, err := clientset.AppsV1().
			Deployments(namespace).
			Get(ctx, name, metav1.GetOptions{})
		if err != nil {
			// Continue polling on transient errors
			return false, nil //nolint:nilerr // returning nil to continue polling
		}

		return isDeploymentAvailable(deployment), nil
	})
}

func isDeploymentAvailable(deployment *appsv1.Deployment) bool {
	desired := int32(1)
	if deployment.Spec.Replicas != nil {
		desired = *deployment.Spec.Replicas
	}

	if desired == 0 {
		return true
	}

	return deployment.Status.AvailableReplicas >= desired
}
