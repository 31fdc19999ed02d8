package vault_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vaultlab/vaultlab/pkg/client/vault"
)

func newTestClient(t *testing.T, handler http.Handler) *vault.Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := vault.NewClient(server.URL, "root")
	require.NoError(t, err)

	return client
}

func TestCheckHealth_Healthy(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/sys/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"initialized":true,"sealed":false,"standby":false}`))
	})
	mux.HandleFunc("/v1/auth/token/lookup-self", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"id":"root"}}`))
	})

	client := newTestClient(t, mux)

	require.NoError(t, client.CheckHealth(context.Background()))
}

func TestCheckHealth_SealedStoreIsNotHealthy(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	// The health endpoint is asked to remap sealed status onto a 2xx code so
	// the body always parses.
	mux.HandleFunc("/v1/sys/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"initialized":true,"sealed":true,"standby":false}`))
	})

	client := newTestClient(t, mux)

	err := client.CheckHealth(context.Background())
	require.ErrorIs(t, err, vault.ErrNotHealthy)
}

func TestSecretExists_AbsentSecretIsNotAnError(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/secret/data/vaultlab/missing", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"errors":[]}`))
	})

	client := newTestClient(t, mux)

	exists, err := client.SecretExists(context.Background(), "secret", "vaultlab/missing")
	require.NoError(t, err)
	require.False(t, exists)
}

func TestSecretExists_PresentSecret(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/secret/data/vaultlab/sample-app", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(
			`{"data":{"data":{"username":"demo"},` +
				`"metadata":{"created_time":"2026-01-01T00:00:00Z","version":1}}}`))
	})

	client := newTestClient(t, mux)

	exists, err := client.SecretExists(context.Background(), "secret", "vaultlab/sample-app")
	require.NoError(t, err)
	require.True(t, exists)
}

func TestSecretExists_ServerErrorSurfaces(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/secret/data/vaultlab/sample-app", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"errors":["internal error"]}`))
	})

	client := newTestClient(t, mux)

	_, err := client.SecretExists(context.Background(), "secret", "vaultlab/sample-app")
	require.Error(t, err)
	require.ErrorContains(t, err, "read secret secret/vaultlab/sample-app")
}

func TestEnableKubernetesAuth_MountsMethod(t *testing.T) {
	t.Parallel()

	var captured string

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/sys/auth/kubernetes", func(w http.ResponseWriter, r *http.Request) {
		captured = r.Method

		w.WriteHeader(http.StatusNoContent)
	})

	client := newTestClient(t, mux)

	require.NoError(t, client.EnableKubernetesAuth(context.Background(), "kubernetes"))
	require.Equal(t, http.MethodPost, captured)
}

func TestEnableKubernetesAuth_ToleratesExistingMount(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/sys/auth/kubernetes", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"errors":["path is already in use at kubernetes/"]}`))
	})

	client := newTestClient(t, mux)

	require.NoError(t, client.EnableKubernetesAuth(context.Background(), "kubernetes"))
}

func TestAuthMethodEnabled(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/sys/auth", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(
			`{"data":{"token/":{"type":"token"},"kubernetes/":{"type":"kubernetes"}}}`))
	})

	client := newTestClient(t, mux)

	enabled, err := client.AuthMethodEnabled(context.Background(), "kubernetes")
	require.NoError(t, err)
	require.True(t, enabled)

	enabled, err = client.AuthMethodEnabled(context.Background(), "approle")
	require.NoError(t, err)
	require.False(t, enabled)
}
