package tls

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"os"
)

// ErrClientKeyRequired is returned when ClientCert is set without ClientKey.
var ErrClientKeyRequired = errors.New("tls: client_key is required when client_cert is set")

// ClientPolicy configures how a client-side TLS connection is established.
// It mirrors the transport's TlsConfig data model: Enabled toggles TLS at
// all (false selects plaintext h2c); ServerCA, ClientCert/ClientKey and
// InsecureSkipVerify are all optional and may be combined.
type ClientPolicy struct {
	Enabled            bool
	ServerCA           string
	ClientCert         string
	ClientKey          string
	InsecureSkipVerify bool
}

// Validate checks the invariant that ClientKey must accompany ClientCert.
func (p ClientPolicy) Validate() error {
	if p.ClientCert != "" && p.ClientKey == "" {
		return ErrClientKeyRequired
	}
	return nil
}

// BuildClientConfig constructs a *tls.Config for an outbound gRPC connection
// per the policy. A nil result (with Enabled == false) signals that the
// caller should use plaintext h2c instead of TLS.
func BuildClientConfig(p ClientPolicy) (*tls.Config, error) {
	if !p.Enabled {
		return nil, nil
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	cfg := &tls.Config{
		InsecureSkipVerify: p.InsecureSkipVerify, //nolint:gosec
	}

	if p.ServerCA != "" {
		pem, err := os.ReadFile(p.ServerCA)
		if err != nil {
			return nil, fmt.Errorf("tls: read server_ca: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("tls: server_ca %s contains no usable certificates", p.ServerCA)
		}
		cfg.RootCAs = pool
	}
	// ServerCA unset: leave RootCAs nil, which makes crypto/tls fall back to
	// the platform's trust anchors.

	if p.ClientCert != "" {
		cert, err := LoadTLSCertificate(p.ClientCert, p.ClientKey)
		if err != nil {
			return nil, fmt.Errorf("tls: load client cert/key: %w", err)
		}
		cfg.Certificates = []tls.Certificate{cert}
	}

	return cfg, nil
}
