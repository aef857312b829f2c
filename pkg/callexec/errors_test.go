package callexec

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify_SubstringMapping(t *testing.T) {
	cases := []struct {
		name string
		err  string
		want string
	}{
		{"certificate", "x509: certificate signed by unknown authority", CategoryTLS},
		{"tls", "tls: handshake failure", CategoryTLS},
		{"ssl", "SSL routines: wrong version number", CategoryTLS},
		{"connection refused", "dial tcp 127.0.0.1:9999: connect: connection refused", CategoryConnectionRefused},
		{"broken pipe", "write: broken pipe", CategoryConnectionClosed},
		{"stream closed", "http2: stream closed", CategoryConnectionClosed},
		{"connection reset", "read: connection reset by peer", CategoryConnectionClosed},
		{"timeout", "context deadline exceeded (Client.Timeout exceeded)", CategoryConnectionTimeout},
		{"timed out", "dial tcp: i/o timed out", CategoryConnectionTimeout},
		{"generic connect", "dial tcp: lookup host: connect failed", CategoryConnectionError},
		{"fallback", "some unrelated failure", CategoryError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			category, hints := Classify(tc.err)
			assert.Equal(t, tc.want, category)
			assert.NotEmpty(t, hints)
		})
	}
}

func TestClassify_OrderingPrefersEarlierCategory(t *testing.T) {
	// "connection refused" also contains "connect"; TLS/refused must win
	// over the generic connect fallback per the ordered match.
	category, _ := Classify("rpc error: code = Unavailable desc = connection refused")
	assert.Equal(t, CategoryConnectionRefused, category)
}

func TestClassify_IsCaseInsensitive(t *testing.T) {
	category, _ := Classify("CONNECTION REFUSED")
	assert.Equal(t, CategoryConnectionRefused, category)
}

func TestClassify_Totality(t *testing.T) {
	// Every non-empty string maps to exactly one of the six categories.
	inputs := []string{
		"random garbage with no known substrings",
		"EOF",
		"context canceled",
		"",
	}
	known := map[string]bool{
		CategoryTLS: true, CategoryConnectionRefused: true, CategoryConnectionClosed: true,
		CategoryConnectionTimeout: true, CategoryConnectionError: true, CategoryError: true,
	}
	for _, in := range inputs {
		category, _ := Classify(in)
		assert.True(t, known[category], "unexpected category %q for input %q", category, in)
	}
}
