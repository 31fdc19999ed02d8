// Package helm wraps the Helm v4 action API for installing the GitOps
// controller chart.
package helm

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	helmv4action "helm.sh/helm/v4/pkg/action"
	helmv4loader "helm.sh/helm/v4/pkg/chart/loader"
	chartv2 "helm.sh/helm/v4/pkg/chart/v2"
	helmv4cli "helm.sh/helm/v4/pkg/cli"
	helmv4kube "helm.sh/helm/v4/pkg/kube"
	helmv4registry "helm.sh/helm/v4/pkg/registry"
	v1 "helm.sh/helm/v4/pkg/release/v1"
	"sigs.k8s.io/yaml"
)

// DefaultTimeout defines the fallback chart installation timeout.
const DefaultTimeout = 5 * time.Minute

var (
	errReleaseNameRequired = errors.New("helm: release name is required")
	errChartSpecRequired   = errors.New("helm: chart spec is required")
)

// ChartSpec describes one chart installation.
type ChartSpec struct {
	ReleaseName string
	ChartName   string
	Namespace   string
	Version     string

	CreateNamespace bool
	Wait            bool
	WaitForJobs     bool
	Timeout         time.Duration

	// ValuesYaml is merged over the chart's default values.
	ValuesYaml string
}

// ReleaseInfo captures metadata about a release after an operation.
type ReleaseInfo struct {
	Name      string
	Namespace string
	Revision  int
	Status    string
}

// Interface defines the subset of Helm functionality VaultLab requires.
type Interface interface {
	InstallOrUpgradeChart(ctx context.Context, spec *ChartSpec) (*ReleaseInfo, error)
	UninstallRelease(ctx context.Context, releaseName, namespace string) error
}

// Client is the default Helm implementation.
type Client struct {
	actionConfig *helmv4action.Configuration
	settings     *helmv4cli.EnvSettings
}

var _ Interface = (*Client)(nil)

// NewClient creates a Helm client using the provided kubeconfig and context.
func NewClient(kubeConfig, kubeContext string) (*Client, error) {
	settings := helmv4cli.New()
	if kubeConfig != "" {
		settings.KubeConfig = kubeConfig
	}

	if kubeContext != "" {
		settings.KubeContext = kubeContext
	}

	actionConfig := new(helmv4action.Configuration)

	err := actionConfig.Init(
		settings.RESTClientGetter(),
		settings.Namespace(),
		os.Getenv("HELM_DRIVER"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize helm action config: %w", err)
	}

	registryClient, err := helmv4registry.NewClient()
	if err != nil {
		return nil, fmt.Errorf("failed to create helm registry client: %w", err)
	}

	actionConfig.RegistryClient = registryClient

	return &Client{actionConfig: actionConfig, settings: settings}, nil
}

// InstallOrUpgradeChart upgrades the release when present and installs it
// otherwise, making repeated reconciliation runs converge on one release.
func (c *Client) InstallOrUpgradeChart(
	ctx context.Context,
	spec *ChartSpec,
) (*ReleaseInfo, error) {
	if spec == nil {
		return nil, errChartSpecRequired
	}

	if spec.ReleaseName == "" {
		return nil, errReleaseNameRequired
	}

	histClient := helmv4action.NewHistory(c.actionConfig)
	histClient.Max = 1

	releases, histErr := histClient.Run(spec.ReleaseName)

	var (
		rel *v1.Release
		err error
	)

	if histErr == nil && len(releases) > 0 {
		rel, err = c.upgradeRelease(ctx, spec)
	} else {
		rel, err = c.performInstall(ctx, spec)
	}

	if err != nil {
		return nil, err
	}

	return &ReleaseInfo{
		Name:      rel.Name,
		Namespace: rel.Namespace,
		Revision:  rel.Version,
		Status:    rel.Info.Status.String(),
	}, nil
}

// UninstallRelease removes a release by name within the provided namespace.
func (c *Client) UninstallRelease(ctx context.Context, releaseName, namespace string) error {
	if releaseName == "" {
		return errReleaseNameRequired
	}

	ctxErr := ctx.Err()
	if ctxErr != nil {
		return fmt.Errorf("uninstall release context cancelled: %w", ctxErr)
	}

	// Uninstall resolves the release through the action configuration's
	// namespace, so re-init against the target namespace first.
	actionConfig := new(helmv4action.Configuration)

	err := actionConfig.Init(
		c.settings.RESTClientGetter(),
		namespace,
		os.Getenv("HELM_DRIVER"),
	)
	if err != nil {
		return fmt.Errorf("failed to initialize helm action config: %w", err)
	}

	client := helmv4action.NewUninstall(actionConfig)
	client.KeepHistory = false

	_, err = client.Run(releaseName)
	if err != nil {
		return fmt.Errorf("uninstall release %q: %w", releaseName, err)
	}

	return nil
}

func (c *Client) performInstall(ctx context.Context, spec *ChartSpec) (*v1.Release, error) {
	client := helmv4action.NewInstall(c.actionConfig)
	client.ReleaseName = spec.ReleaseName
	client.Namespace = spec.Namespace
	client.CreateNamespace = spec.CreateNamespace
	client.Version = spec.Version
	client.Timeout = spec.Timeout

	if spec.Wait {
		client.WaitStrategy = helmv4kube.StatusWatcherStrategy
	}

	client.WaitForJobs = spec.WaitForJobs

	if client.Timeout == 0 {
		client.Timeout = DefaultTimeout
	}

	chart, err := c.loadChart(spec.ChartName, spec.Version, &client.ChartPathOptions)
	if err != nil {
		return nil, err
	}

	vals, err := parseValues(spec.ValuesYaml)
	if err != nil {
		return nil, err
	}

	releaser, err := client.RunWithContext(ctx, chart, vals)
	if err != nil {
		return nil, fmt.Errorf("install chart %s: %w", spec.ChartName, err)
	}

	return assertRelease(releaser)
}

func (c *Client) upgradeRelease(ctx context.Context, spec *ChartSpec) (*v1.Release, error) {
	client := helmv4action.NewUpgrade(c.actionConfig)
	client.Namespace = spec.Namespace
	client.Version = spec.Version
	client.Timeout = spec.Timeout

	if spec.Wait {
		client.WaitStrategy = helmv4kube.StatusWatcherStrategy
	}

	client.WaitForJobs = spec.WaitForJobs

	if client.Timeout == 0 {
		client.Timeout = DefaultTimeout
	}

	chart, err := c.loadChart(spec.ChartName, spec.Version, &client.ChartPathOptions)
	if err != nil {
		return nil, err
	}

	vals, err := parseValues(spec.ValuesYaml)
	if err != nil {
		return nil, err
	}

	releaser, err := client.RunWithContext(ctx, spec.ReleaseName, chart, vals)
	if err != nil {
		return nil, fmt.Errorf("upgrade chart %s: %w", spec.ChartName, err)
	}

	return assertRelease(releaser)
}

func (c *Client) loadChart(
	chartName, version string,
	pathOptions *helmv4action.ChartPathOptions,
) (*chartv2.Chart, error) {
	pathOptions.Version = version

	chartPath, err := pathOptions.LocateChart(chartName, c.settings)
	if err != nil {
		return nil, fmt.Errorf("locate chart %s: %w", chartName, err)
	}

	chartInterface, err := helmv4loader.Load(chartPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load chart: %w", err)
	}

	chart, ok := chartInterface.(*chartv2.Chart)
	if !ok {
		return nil, fmt.Errorf("unexpected chart type: %T", chartInterface)
	}

	return chart, nil
}

func parseValues(valuesYaml string) (map[string]any, error) {
	if valuesYaml == "" {
		return map[string]any{}, nil
	}

	vals := map[string]any{}

	err := yaml.Unmarshal([]byte(valuesYaml), &vals)
	if err != nil {
		return nil, fmt.Errorf("parse chart values: %w", err)
	}

	return vals, nil
}

func assertRelease(releaser any) (*v1.Release, error) {
	rel, ok := releaser.(*v1.Release)
	if !ok {
		return nil, fmt.Errorf("unexpected release type: %T", releaser)
	}

	return rel, nil
}
