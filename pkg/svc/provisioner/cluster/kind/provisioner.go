// Package kindprovisioner provisions the local kind cluster the environment
// runs on.
package kindprovisioner

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"sigs.k8s.io/kind/pkg/cluster"
	"sigs.k8s.io/kind/pkg/log"
)

// createWaitTimeout bounds kind's own wait for the control plane.
const createWaitTimeout = 5 * time.Minute

// Provisioner creates, inspects, and deletes kind clusters.
type Provisioner struct {
	provider *cluster.Provider
}

// NewProvisioner creates a provisioner whose kind output streams to writer.
func NewProvisioner(writer io.Writer) *Provisioner {
	provider := cluster.NewProvider(
		cluster.ProviderWithLogger(&streamLogger{writer: writer}),
		cluster.ProviderWithDocker(),
	)

	return &Provisioner{provider: provider}
}

// Exists reports whether a cluster with the given name is present.
func (p *Provisioner) Exists(name string) (bool, error) {
	clusters, err := p.provider.List()
	if err != nil {
		return false, fmt.Errorf("list kind clusters: %w", err)
	}

	return slices.Contains(clusters, name), nil
}

// Create creates the named cluster. An existing cluster is left untouched.
func (p *Provisioner) Create(name string) error {
	exists, err := p.Exists(name)
	if err != nil {
		return err
	}

	if exists {
		return nil
	}

	err = p.provider.Create(name, cluster.CreateWithWaitForReady(createWaitTimeout))
	if err != nil {
		return fmt.Errorf("create kind cluster %s: %w", name, err)
	}

	return nil
}

// Delete deletes the named cluster and prunes it from the kubeconfig.
// A missing cluster is not an error.
func (p *Provisioner) Delete(name, kubeconfigPath string) error {
	exists, err := p.Exists(name)
	if err != nil {
		return err
	}

	if !exists {
		return nil
	}

	err = p.provider.Delete(name, kubeconfigPath)
	if err != nil {
		return fmt.Errorf("delete kind cluster %s: %w", name, err)
	}

	return nil
}

// streamLogger forwards kind's console output to a writer in real time.
// Only info-level messages (V(0)) are enabled to avoid verbose debug output.
type streamLogger struct {
	writer io.Writer
}

func (l *streamLogger) Warn(message string) {
	l.write(message)
}

func (l *streamLogger) Warnf(format string, args ...any) {
	l.write(fmt.Sprintf(format, args...))
}

func (l *streamLogger) Error(message string) {
	l.write(message)
}

func (l *streamLogger) Errorf(format string, args ...any) {
	l.write(fmt.Sprintf(format, args...))
}

func (l *streamLogger) Info(message string) {
	l.write(message)
}

func (l *streamLogger) Infof(format string, args ...any) {
	l.write(fmt.Sprintf(format, args...))
}

func (l *streamLogger) Enabled() bool {
	return true
}

func (l *streamLogger) V(level log.Level) log.InfoLogger {
	if level > 0 {
		return noopInfoLogger{}
	}

	return l
}

func (l *streamLogger) write(message string) {
	if l == nil {
		return
	}

	if message == "" {
		_, _ = io.WriteString(l.writer, "\n")

		return
	}

	if strings.ContainsRune(message, '\r') || strings.HasSuffix(message, "\n") {
		_, _ = io.WriteString(l.writer, message)

		return
	}

	_, _ = io.WriteString(l.writer, message+"\n")
}

// noopInfoLogger discards verbose/debug messages (V(1) and higher).
type noopInfoLogger struct{}

func (noopInfoLogger) Info(string)          {}
func (noopInfoLogger) Infof(string, ...any) {}
func (noopInfoLogger) Enabled() bool        { return false }
