package docker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	cerrdefs "github.com/containerd/errdefs"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/client"
	"github.com/docker/go-connections/nat"
)

const storeContainerPort nat.Port = "8200/tcp"

// ErrStoreContainerNotFound is returned when the store container does not exist.
var ErrStoreContainerNotFound = errors.New("secrets store container not found")

// StoreConfig describes the secrets-store dev container.
type StoreConfig struct {
	// Name is the container name.
	Name string
	// Image is the container image to run.
	Image string
	// HostPort is the port published on the host.
	HostPort int
	// RootToken is the dev-mode root token injected via environment.
	RootToken string
	// Network is an optional Docker network to attach the container to.
	Network string
}

// StoreManager manages the lifecycle of the secrets-store container.
type StoreManager struct {
	client client.APIClient
}

// NewStoreManager creates a store manager over the given Docker client.
func NewStoreManager(apiClient client.APIClient) *StoreManager {
	return &StoreManager{client: apiClient}
}

// EnsureRunning creates and starts the store container if it does not exist,
// or starts it if it exists but is stopped. An already running container is
// left untouched, so the operation is safe to repeat.
func (m *StoreManager) EnsureRunning(ctx context.Context, config StoreConfig) error {
	summary, err := m.findContainer(ctx, config.Name)
	if err == nil {
		if summary.State == container.StateRunning {
			return nil
		}

		startErr := m.client.ContainerStart(ctx, summary.ID, container.StartOptions{})
		if startErr != nil {
			return fmt.Errorf("failed to start store container %s: %w", config.Name, startErr)
		}

		return nil
	}

	if !errors.Is(err, ErrStoreContainerNotFound) {
		return err
	}

	err = m.ensureImage(ctx, config.Image)
	if err != nil {
		return err
	}

	return m.createAndStart(ctx, config)
}

// Stop stops and removes the named store container. A missing container is
// not an error, so teardown is idempotent as well.
func (m *StoreManager) Stop(ctx context.Context, name string) error {
	summary, err := m.findContainer(ctx, name)
	if err != nil {
		if errors.Is(err, ErrStoreContainerNotFound) {
			return nil
		}

		return err
	}

	err = m.client.ContainerStop(ctx, summary.ID, container.StopOptions{})
	if err != nil {
		return fmt.Errorf("failed to stop store container: %w", err)
	}

	err = m.client.ContainerRemove(ctx, summary.ID, container.RemoveOptions{})
	if err != nil {
		return fmt.Errorf("failed to remove store container: %w", err)
	}

	return nil
}

// IsAttachedToNetwork reports whether the named container is attached to the
// given Docker network. This is the read-only probe behind the
// cluster-to-store network path check.
func (m *StoreManager) IsAttachedToNetwork(
	ctx context.Context,
	containerName, networkName string,
) (bool, error) {
	inspect, err := m.client.ContainerInspect(ctx, containerName)
	if err != nil {
		if cerrdefs.IsNotFound(err) {
			return false, fmt.Errorf("%w: %s", ErrStoreContainerNotFound, containerName)
		}

		return false, fmt.Errorf("inspect container %s: %w", containerName, err)
	}

	if inspect.NetworkSettings == nil || inspect.NetworkSettings.Networks == nil {
		return false, nil
	}

	_, ok := inspect.NetworkSettings.Networks[networkName]

	return ok, nil
}

// EnsureNetworkAttachment connects the container to the given network if it
// is not already attached.
func (m *StoreManager) EnsureNetworkAttachment(
	ctx context.Context,
	containerName, networkName string,
) error {
	attached, err := m.IsAttachedToNetwork(ctx, containerName, networkName)
	if err != nil {
		return err
	}

	if attached {
		return nil
	}

	err = m.client.NetworkConnect(ctx, networkName, containerName, &network.EndpointSettings{})
	if err != nil {
		return fmt.Errorf("connect container %s to network %s: %w", containerName, networkName, err)
	}

	return nil
}

// ResolveContainerIPOnNetwork inspects the container and returns its IP on
// the given network. Cluster pods reach the store by this address since
// Docker DNS names are not resolvable from inside Kubernetes.
func (m *StoreManager) ResolveContainerIPOnNetwork(
	ctx context.Context,
	containerName, networkName string,
) (string, error) {
	inspect, err := m.client.ContainerInspect(ctx, containerName)
	if err != nil {
		return "", fmt.Errorf("inspect container %s: %w", containerName, err)
	}

	if inspect.NetworkSettings == nil || inspect.NetworkSettings.Networks == nil {
		return "", fmt.Errorf("%w: %s has no network settings", ErrStoreContainerNotFound, containerName)
	}

	endpoint, ok := inspect.NetworkSettings.Networks[networkName]
	if !ok || endpoint.IPAddress == "" {
		return "", fmt.Errorf(
			"container %s has no address on network %s", containerName, networkName,
		)
	}

	return endpoint.IPAddress, nil
}

func (m *StoreManager) findContainer(
	ctx context.Context,
	name string,
) (container.Summary, error) {
	listFilters := filters.NewArgs()
	listFilters.Add("name", "^/"+name+"$")

	containers, err := m.client.ContainerList(ctx, container.ListOptions{
		All:     true,
		Filters: listFilters,
	})
	if err != nil {
		return container.Summary{}, fmt.Errorf("failed to list containers: %w", err)
	}

	if len(containers) == 0 {
		return container.Summary{}, fmt.Errorf("%w: %s", ErrStoreContainerNotFound, name)
	}

	return containers[0], nil
}

func (m *StoreManager) ensureImage(ctx context.Context, imageName string) error {
	_, err := m.client.ImageInspect(ctx, imageName)
	if err == nil {
		return nil
	}

	reader, err := m.client.ImagePull(ctx, imageName, image.PullOptions{})
	if err != nil {
		return fmt.Errorf("failed to pull store image %s: %w", imageName, err)
	}

	_, err = io.Copy(io.Discard, reader)
	closeErr := reader.Close()

	if err != nil {
		return fmt.Errorf("failed to read image pull output: %w", err)
	}

	if closeErr != nil {
		return fmt.Errorf("failed to close image pull reader: %w", closeErr)
	}

	return nil
}

func (m *StoreManager) createAndStart(ctx context.Context, config StoreConfig) error {
	containerConfig := &container.Config{
		Image: config.Image,
		Env: []string{
			"VAULT_DEV_ROOT_TOKEN_ID=" + config.RootToken,
			"VAULT_DEV_LISTEN_ADDRESS=0.0.0.0:8200",
		},
		ExposedPorts: nat.PortSet{
			storeContainerPort: struct{}{},
		},
	}

	hostConfig := &container.HostConfig{
		CapAdd: []string{"IPC_LOCK"},
		PortBindings: nat.PortMap{
			storeContainerPort: []nat.PortBinding{
				{
					HostIP:   "127.0.0.1",
					HostPort: strconv.Itoa(config.HostPort),
				},
			},
		},
		RestartPolicy: container.RestartPolicy{
			Name: container.RestartPolicyUnlessStopped,
		},
	}

	var networkConfig *network.NetworkingConfig
	if config.Network != "" {
		networkConfig = &network.NetworkingConfig{
			EndpointsConfig: map[string]*network.EndpointSettings{
				config.Network: {},
			},
		}
	}

	resp, err := m.client.ContainerCreate(
		ctx,
		containerConfig,
		hostConfig,
		networkConfig,
		nil,
		config.Name,
	)
	if err != nil {
		return fmt.Errorf("failed to create store container: %w", err)
	}

	err = m.client.ContainerStart(ctx, resp.ID, container.StartOptions{})
	if err != nil {
		return fmt.Errorf("failed to start store container: %w", err)
	}

	return nil
}
