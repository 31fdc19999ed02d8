package netretry_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vaultlab/vaultlab/pkg/client/netretry"
)

var (
	errGeneric      = errors.New("something went wrong")
	errNotFound     = errors.New("received unexpected HTTP status: 404 Not Found")
	errPort5000     = errors.New("dial tcp 127.0.0.1:5000: operation not permitted")
	errCode502      = errors.New("received unexpected HTTP status: 502")
	errBadGateway   = errors.New("Bad Gateway")
	errConnReset    = errors.New("read tcp: connection reset by peer")
	errConnRefused  = errors.New("dial tcp 127.0.0.1:443: connection refused")
	errIOTimeout    = errors.New("read tcp: i/o timeout")
	errTLSTimeout   = errors.New("net/http: TLS handshake timeout")
	errEOF          = errors.New("unexpected EOF")
	errNoSuchHost   = errors.New("dial tcp: lookup git.example.com: no such host")
	errWrapped500   = fmt.Errorf("push to origin: %w", errors.New("unexpected status 500"))
	errUnavailable  = errors.New("Service Unavailable")
	errGatewayTime  = errors.New("Gateway Timeout")
	errInternal     = errors.New("Internal Server Error")
	errUnauthorized = errors.New("authentication required: 401 Unauthorized")
)

func TestIsRetryable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		err       error
		retryable bool
	}{
		{name: "nil error", err: nil, retryable: false},
		{name: "generic error", err: errGeneric, retryable: false},
		{name: "404 not found", err: errNotFound, retryable: false},
		{name: "auth error", err: errUnauthorized, retryable: false},
		{name: "port 5000 not matched", err: errPort5000, retryable: false},
		{name: "502 code", err: errCode502, retryable: true},
		{name: "bad gateway text", err: errBadGateway, retryable: true},
		{name: "service unavailable text", err: errUnavailable, retryable: true},
		{name: "gateway timeout text", err: errGatewayTime, retryable: true},
		{name: "internal server error text", err: errInternal, retryable: true},
		{name: "wrapped 500", err: errWrapped500, retryable: true},
		{name: "connection reset", err: errConnReset, retryable: true},
		{name: "connection refused", err: errConnRefused, retryable: true},
		{name: "io timeout", err: errIOTimeout, retryable: true},
		{name: "tls handshake timeout", err: errTLSTimeout, retryable: true},
		{name: "unexpected eof", err: errEOF, retryable: true},
		{name: "no such host", err: errNoSuchHost, retryable: true},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			require.Equal(t, testCase.retryable, netretry.IsRetryable(testCase.err))
		})
	}
}

func TestExponentialDelay(t *testing.T) {
	t.Parallel()

	baseWait := 1 * time.Second
	maxWait := 10 * time.Second

	require.Equal(t, 1*time.Second, netretry.ExponentialDelay(1, baseWait, maxWait))
	require.Equal(t, 2*time.Second, netretry.ExponentialDelay(2, baseWait, maxWait))
	require.Equal(t, 4*time.Second, netretry.ExponentialDelay(3, baseWait, maxWait))
	require.Equal(t, 8*time.Second, netretry.ExponentialDelay(4, baseWait, maxWait))
	require.Equal(t, 10*time.Second, netretry.ExponentialDelay(5, baseWait, maxWait))
	require.Equal(t, 10*time.Second, netretry.ExponentialDelay(12, baseWait, maxWait))
}
