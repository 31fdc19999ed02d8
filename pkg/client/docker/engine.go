// Package docker wraps the Docker Engine API for the probes and remediation
// steps that manage the secrets-store container.
package docker

import (
	"context"
	"fmt"

	"github.com/docker/docker/client"
)

// GetDockerClient creates a Docker client using environment configuration.
func GetDockerClient() (client.APIClient, error) {
	dockerClient, err := client.NewClientWithOpts(
		client.FromEnv,
		client.WithAPIVersionNegotiation(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create Docker client: %w", err)
	}

	return dockerClient, nil
}

// PingEngine checks that the local container engine answers API requests.
func PingEngine(ctx context.Context, apiClient client.APIClient) error {
	_, err := apiClient.Ping(ctx)
	if err != nil {
		return fmt.Errorf("docker engine not reachable: %w", err)
	}

	return nil
}
