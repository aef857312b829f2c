package tls

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildClientConfig_Disabled(t *testing.T) {
	cfg, err := BuildClientConfig(ClientPolicy{Enabled: false})
	require.NoError(t, err)
	assert.Nil(t, cfg)
}

func TestBuildClientConfig_InsecureSkipVerify(t *testing.T) {
	cfg, err := BuildClientConfig(ClientPolicy{Enabled: true, InsecureSkipVerify: true})
	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.True(t, cfg.InsecureSkipVerify)
	assert.Nil(t, cfg.RootCAs)
}

func TestBuildClientConfig_EmbeddedTrustAnchors(t *testing.T) {
	cfg, err := BuildClientConfig(ClientPolicy{Enabled: true})
	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.Nil(t, cfg.RootCAs, "no server_ca means fall back to platform trust anchors")
}

func TestBuildClientConfig_ServerCA(t *testing.T) {
	dir := t.TempDir()
	gen, err := GenerateSelfSignedCert(DefaultCertificateConfig())
	require.NoError(t, err)

	caPath := filepath.Join(dir, "ca.pem")
	require.NoError(t, os.WriteFile(caPath, gen.CertPEM, 0o644))

	cfg, err := BuildClientConfig(ClientPolicy{Enabled: true, ServerCA: caPath})
	require.NoError(t, err)
	require.NotNil(t, cfg)
	require.NotNil(t, cfg.RootCAs)
}

func TestBuildClientConfig_MutualTLS(t *testing.T) {
	dir := t.TempDir()
	gen, err := GenerateSelfSignedCert(DefaultCertificateConfig())
	require.NoError(t, err)

	certPath := filepath.Join(dir, "client.pem")
	keyPath := filepath.Join(dir, "client.key")
	require.NoError(t, SaveCertToFiles(gen, certPath, keyPath))

	cfg, err := BuildClientConfig(ClientPolicy{
		Enabled:    true,
		ClientCert: certPath,
		ClientKey:  keyPath,
	})
	require.NoError(t, err)
	require.Len(t, cfg.Certificates, 1)
}

func TestBuildClientConfig_MissingClientKey(t *testing.T) {
	_, err := BuildClientConfig(ClientPolicy{Enabled: true, ClientCert: "cert.pem"})
	assert.ErrorIs(t, err, ErrClientKeyRequired)
}

func TestBuildClientConfig_BadServerCA(t *testing.T) {
	_, err := BuildClientConfig(ClientPolicy{Enabled: true, ServerCA: "/nonexistent/ca.pem"})
	assert.Error(t, err)
}
