// Package netretry classifies transient network failures and computes
// backoff delays for retrying them. Publishing to a git remote crosses the
// network, so the git client retries pushes whose errors this package
// considers transient.
package netretry

import (
	"regexp"
	"strings"
	"time"
)

// serverErrorCodePattern matches HTTP 5xx status codes at word boundaries
// so port numbers like ":5000" do not match.
var serverErrorCodePattern = regexp.MustCompile(`\b50[0-4]\b`)

// transientMessages are substrings of HTTP 5xx status text and TCP-level
// errors that usually clear on retry.
var transientMessages = []string{
	"Internal Server Error", "Bad Gateway",
	"Service Unavailable", "Gateway Timeout",
	"connection reset by peer", "connection refused",
	"i/o timeout", "TLS handshake timeout",
	"unexpected EOF", "no such host",
}

// IsRetryable reports whether the error looks like a transient network
// failure worth retrying.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	message := err.Error()

	for _, transient := range transientMessages {
		if strings.Contains(message, transient) {
			return true
		}
	}

	return serverErrorCodePattern.MatchString(message)
}

// ExponentialDelay returns min(baseWait * 2^(attempt-1), maxWait) for the
// given 1-based retry attempt.
func ExponentialDelay(attempt int, baseWait, maxWait time.Duration) time.Duration {
	return min(baseWait*time.Duration(1<<(attempt-1)), maxWait)
}
