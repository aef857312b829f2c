package transport

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildURI_StripsSchemeAndUsesTlsPolicy(t *testing.T) {
	assert.Equal(t, "http://localhost:9090/echo.Echo/Say", BuildURI(TlsConfig{Enabled: false}, "localhost:9090", "/echo.Echo/Say"))
	assert.Equal(t, "https://localhost:9090/echo.Echo/Say", BuildURI(TlsConfig{Enabled: true}, "http://localhost:9090", "/echo.Echo/Say"))
	assert.Equal(t, "https://localhost:9090/echo.Echo/Say", BuildURI(TlsConfig{Enabled: true}, "https://localhost:9090", "/echo.Echo/Say"))
}

func TestNewClient_Plaintext(t *testing.T) {
	client, err := NewClient(TlsConfig{Enabled: false})
	require.NoError(t, err)
	require.NotNil(t, client.Transport)
}

func TestNewClient_TLSInsecureSkipVerify(t *testing.T) {
	client, err := NewClient(TlsConfig{Enabled: true, InsecureSkipVerify: true})
	require.NoError(t, err)
	require.NotNil(t, client.Transport)
}

func TestNewClient_MissingClientKeyErrors(t *testing.T) {
	_, err := NewClient(TlsConfig{Enabled: true, ClientCert: "cert.pem"})
	assert.Error(t, err)
}
