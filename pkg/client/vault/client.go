// Package vault wraps the HashiCorp Vault API client with the operations the
// reconciler needs: health probing, sample-secret management, and wiring the
// kubernetes auth method to the GitOps controller identity.
package vault

import (
	"context"
	"errors"
	"fmt"
	"strings"

	vaultapi "github.com/hashicorp/vault/api"
)

// ErrNotHealthy is returned when the store responds but is sealed or
// uninitialized.
var ErrNotHealthy = errors.New("secrets store is not healthy")

// Client wraps a Vault API client bound to one address and token.
type Client struct {
	api *vaultapi.Client
}

// NewClient creates a Vault client for the given address and token.
func NewClient(address, token string) (*Client, error) {
	config := vaultapi.DefaultConfig()
	config.Address = address

	apiClient, err := vaultapi.NewClient(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault client: %w", err)
	}

	apiClient.SetToken(token)

	return &Client{api: apiClient}, nil
}

// CheckHealth queries the store's health endpoint and verifies the token by
// a self lookup. Any failure means the store is unreachable or the
// credential is unusable; the caller records this as a single deficiency.
func (c *Client) CheckHealth(ctx context.Context) error {
	health, err := c.api.Sys().HealthWithContext(ctx)
	if err != nil {
		return fmt.Errorf("health query failed: %w", err)
	}

	if !health.Initialized || health.Sealed {
		return fmt.Errorf(
			"%w: initialized=%t sealed=%t", ErrNotHealthy, health.Initialized, health.Sealed,
		)
	}

	_, err = c.api.Auth().Token().LookupSelfWithContext(ctx)
	if err != nil {
		return fmt.Errorf("token lookup failed: %w", err)
	}

	return nil
}

// SecretExists reports whether a KV-v2 secret exists at mount/path.
func (c *Client) SecretExists(ctx context.Context, mount, path string) (bool, error) {
	_, err := c.api.KVv2(mount).Get(ctx, path)
	if err != nil {
		if errors.Is(err, vaultapi.ErrSecretNotFound) {
			return false, nil
		}

		return false, fmt.Errorf("read secret %s/%s: %w", mount, path, err)
	}

	return true, nil
}

// WriteSecret writes a KV-v2 secret, overwriting any existing version.
func (c *Client) WriteSecret(
	ctx context.Context,
	mount, path string,
	data map[string]string,
) error {
	payload := make(map[string]any, len(data))
	for key, value := range data {
		payload[key] = value
	}

	_, err := c.api.KVv2(mount).Put(ctx, path, payload)
	if err != nil {
		return fmt.Errorf("write secret %s/%s: %w", mount, path, err)
	}

	return nil
}

// AuthMethodEnabled reports whether an auth method is mounted at the path.
func (c *Client) AuthMethodEnabled(ctx context.Context, path string) (bool, error) {
	mounts, err := c.api.Sys().ListAuthWithContext(ctx)
	if err != nil {
		return false, fmt.Errorf("list auth methods: %w", err)
	}

	_, ok := mounts[strings.TrimSuffix(path, "/")+"/"]

	return ok, nil
}

// EnableKubernetesAuth mounts the kubernetes auth method at the path.
// An already mounted path is tolerated, keeping the operation idempotent.
func (c *Client) EnableKubernetesAuth(ctx context.Context, path string) error {
	err := c.api.Sys().EnableAuthWithOptionsWithContext(ctx, path, &vaultapi.EnableAuthOptions{
		Type: "kubernetes",
	})
	if err != nil {
		if strings.Contains(err.Error(), "path is already in use") {
			return nil
		}

		return fmt.Errorf("enable kubernetes auth at %s: %w", path, err)
	}

	return nil
}

// ConfigureKubernetesAuth points the auth method at the cluster API server.
// The host and CA are fetched by the caller immediately before this call;
// they are never cached because the cluster may have been recreated.
func (c *Client) ConfigureKubernetesAuth(
	ctx context.Context,
	path, host, caCert, reviewerToken string,
) error {
	data := map[string]any{
		"kubernetes_host": host,
	}

	if caCert != "" {
		data["kubernetes_ca_cert"] = caCert
	}

	if reviewerToken != "" {
		data["token_reviewer_jwt"] = reviewerToken
	}

	_, err := c.api.Logical().WriteWithContext(ctx, "auth/"+path+"/config", data)
	if err != nil {
		return fmt.Errorf("configure kubernetes auth at %s: %w", path, err)
	}

	return nil
}

// WritePolicy creates or overwrites a policy.
func (c *Client) WritePolicy(ctx context.Context, name, rules string) error {
	err := c.api.Sys().PutPolicyWithContext(ctx, name, rules)
	if err != nil {
		return fmt.Errorf("write policy %s: %w", name, err)
	}

	return nil
}

// WriteKubernetesRole binds a service account to a policy under the auth
// method at the given path.
func (c *Client) WriteKubernetesRole(
	ctx context.Context,
	path, role, serviceAccount, namespace, policy string,
) error {
	data := map[string]any{
		"bound_service_account_names":      serviceAccount,
		"bound_service_account_namespaces": namespace,
		"policies":                         policy,
		"ttl":                              "24h",
	}

	_, err := c.api.Logical().WriteWithContext(ctx, "auth/"+path+"/role/"+role, data)
	if err != nil {
		return fmt.Errorf("write kubernetes role %s: %w", role, err)
	}

	return nil
}
