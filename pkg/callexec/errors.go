package callexec

import (
	"errors"
	"strings"

	"github.com/protoloom/protoloom/pkg/metrics"
)

// ErrUnknownTab is returned by send/finish when tab_id has no open-stream
// entry.
var ErrUnknownTab = errors.New("callexec: unknown tab")

// ErrNotStreamingMethod is returned by open-stream when the resolved
// method is unary.
var ErrNotStreamingMethod = errors.New("callexec: open-stream requires a streaming method")

// category names, exactly as the envelope's error_category field reports
// them.
const (
	CategoryTLS               = "TLS/Certificate Error"
	CategoryConnectionRefused = "Connection Refused"
	CategoryConnectionClosed  = "Connection Closed"
	CategoryConnectionTimeout = "Connection Timeout"
	CategoryConnectionError   = "Connection Error"
	CategoryError             = "Error"
)

var troubleshootingHints = map[string][]string{
	CategoryTLS: {
		"Verify the server's certificate chain is trusted or supply server_ca explicitly",
		"If testing against a self-signed certificate, set insecure_skip_verify (development only)",
		"Confirm client_cert and client_key are both set if the server requires mutual TLS",
	},
	CategoryConnectionRefused: {
		"Confirm the server is running and listening on the expected host and port",
		"Check for a firewall or security group blocking the connection",
	},
	CategoryConnectionClosed: {
		"The server closed the connection or stream unexpectedly; check server-side logs",
		"Retry the call; transient network resets are common under load",
	},
	CategoryConnectionTimeout: {
		"The server did not respond in time; check for network latency or an overloaded server",
		"Confirm the endpoint host and port are reachable from this network",
	},
	CategoryConnectionError: {
		"Verify the endpoint host and port are correct",
		"Check DNS resolution and network connectivity to the endpoint",
	},
	CategoryError: {
		"Check the raw error message for details",
	},
}

// Classify maps a raw transport error string to a fixed category and its
// troubleshooting hints, by exact substring matching in the order §4.G
// specifies. Classify is total: every non-empty string maps to exactly
// one category.
func Classify(errStr string) (category string, hints []string) {
	lower := strings.ToLower(errStr)

	switch {
	case containsAny(lower, "certificate", "tls", "ssl"):
		category = CategoryTLS
	case strings.Contains(lower, "connection refused"):
		category = CategoryConnectionRefused
	case containsAny(lower, "broken pipe", "stream closed", "connection reset"):
		category = CategoryConnectionClosed
	case containsAny(lower, "timeout", "timed out"):
		category = CategoryConnectionTimeout
	case strings.Contains(lower, "connect"):
		category = CategoryConnectionError
	default:
		category = CategoryError
	}

	if metrics.ErrorsTotal != nil {
		if vec, err := metrics.ErrorsTotal.WithLabels(category); err == nil {
			_ = vec.Inc()
		}
	}

	return category, troubleshootingHints[category]
}

func containsAny(s string, substrs ...string) bool {
	for _, sub := range substrs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
