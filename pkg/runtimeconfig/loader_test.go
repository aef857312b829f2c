package runtimeconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "protoloom.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFromFile_ParsesImportRootsAndTLS(t *testing.T) {
	path := writeConfig(t, `
import_roots:
  - id: protos
    path: ./protos
    kind: dir
    enabled: true
default_endpoint: localhost:50051
tls:
  enabled: true
  server_ca: ./ca.pem
protoc_path: /usr/local/bin/protoc
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	require.Len(t, cfg.ImportRoots, 1)
	assert.Equal(t, "protos", cfg.ImportRoots[0].ID)
	assert.Equal(t, "./protos", cfg.ImportRoots[0].Path)
	assert.True(t, cfg.ImportRoots[0].Enabled)
	assert.Equal(t, "localhost:50051", cfg.DefaultEndpoint)
	assert.True(t, cfg.TLS.Enabled)
	assert.Equal(t, "./ca.pem", cfg.TLS.ServerCA)
	assert.Equal(t, "/usr/local/bin/protoc", cfg.ProtocPath)
}

func TestLoadFromFile_MissingFileReturnsErrFileNotFound(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, ErrFileNotFound)
}

func TestLoadFromFile_DirectoryPathRejected(t *testing.T) {
	_, err := LoadFromFile(t.TempDir())
	assert.ErrorIs(t, err, ErrIsDirectory)
}

func TestLoadFromFile_EmptyFileRejected(t *testing.T) {
	path := writeConfig(t, "")
	_, err := LoadFromFile(path)
	assert.ErrorIs(t, err, ErrEmptyFile)
}

func TestLoadFromFile_InvalidYAMLErrors(t *testing.T) {
	path := writeConfig(t, "import_roots: [this is not: valid: yaml")
	_, err := LoadFromFile(path)
	assert.Error(t, err)
}

func TestDefault_IsPlaintextWithNoRoots(t *testing.T) {
	cfg := Default()
	assert.Empty(t, cfg.ImportRoots)
	assert.False(t, cfg.TLS.Enabled)
	assert.Empty(t, cfg.ProtocPath)
}
