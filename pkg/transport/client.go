package transport

import (
	"context"
	"crypto/tls"
	"net"
	"net/http"
	"strings"

	"golang.org/x/net/http2"

	grpctls "github.com/protoloom/protoloom/pkg/tls"
)

// NewClient builds an HTTP/2-only client (http2_only=true) per the TLS
// policy. When TLS is disabled it speaks plaintext h2c over a raw TCP
// dial; when enabled it negotiates TLS per grpctls.BuildClientConfig,
// including mTLS and insecure-skip-verify for development use.
func NewClient(cfg TlsConfig) (*http.Client, error) {
	policy := grpctls.ClientPolicy{
		Enabled:            cfg.Enabled,
		ServerCA:           cfg.ServerCA,
		ClientCert:         cfg.ClientCert,
		ClientKey:          cfg.ClientKey,
		InsecureSkipVerify: cfg.InsecureSkipVerify,
	}

	if !cfg.Enabled {
		transport := &http2.Transport{
			AllowHTTP: true,
			DialTLSContext: func(ctx context.Context, network, addr string, _ *tls.Config) (net.Conn, error) {
				var d net.Dialer
				return d.DialContext(ctx, network, addr)
			},
		}
		return &http.Client{Transport: transport}, nil
	}

	tlsConfig, err := grpctls.BuildClientConfig(policy)
	if err != nil {
		return nil, err
	}
	return &http.Client{Transport: &http2.Transport{TLSClientConfig: tlsConfig}}, nil
}

// Scheme reports the URI scheme a TlsConfig implies.
func (c TlsConfig) Scheme() string {
	if c.Enabled {
		return "https"
	}
	return "http"
}

// BuildURI constructs "{scheme}://{host}{path}" per §4.F: any http(s)://
// prefix on host is stripped, and scheme is derived from the TLS policy.
func BuildURI(cfg TlsConfig, host, path string) string {
	host = strings.TrimPrefix(host, "https://")
	host = strings.TrimPrefix(host, "http://")
	return cfg.Scheme() + "://" + host + path
}
