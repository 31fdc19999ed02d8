package k8s

import (
	"context"
	"fmt"
	"os"

	authenticationv1 "k8s.io/api/authentication/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
)

// tokenTTLSeconds bounds the lifetime of issued service-account tokens.
// Tokens are minted immediately before use and never cached, so a short
// lifetime is sufficient.
const tokenTTLSeconds int64 = 600

// IssueServiceAccountToken mints a fresh token for the given service account
// via the TokenRequest API.
func IssueServiceAccountToken(
	ctx context.Context,
	clientset kubernetes.Interface,
	namespace, serviceAccount string,
) (string, error) {
	ttl := tokenTTLSeconds

	request := &authenticationv1.TokenRequest{
		Spec: authenticationv1.TokenRequestSpec{
			ExpirationSeconds: &ttl,
		},
	}

	response, err := clientset.CoreV1().
		ServiceAccounts(namespace).
		CreateToken(ctx, serviceAccount, request, metav1.CreateOptions{})
	if err != nil {
		return "", fmt.Errorf(
			"issue token for %s/%s: %w", namespace, serviceAccount, err,
		)
	}

	return response.Status.Token, nil
}

// ClusterCACertificate returns the cluster CA bundle from the REST config,
// reading the CA file when the config references one by path.
func ClusterCACertificate(restConfig *rest.Config) (string, error) {
	if len(restConfig.CAData) > 0 {
		return string(restConfig.CAData), nil
	}

	if restConfig.CAFile == "" {
		return "", nil
	}

	data, err := os.ReadFile(restConfig.CAFile)
	if err != nil {
		return "", fmt.Errorf("read cluster CA file: %w", err)
	}

	return string(data), nil
}
