package runtimeconfig

import (
	"github.com/protoloom/protoloom/pkg/schema"
	"github.com/protoloom/protoloom/pkg/transport"
)

// RuntimeConfig is the standalone/CLI entry point's one configuration
// object: where to look for .proto files by default, how to secure
// outbound calls by default, and where to find protoc if it isn't on
// PATH.
type RuntimeConfig struct {
	ImportRoots     []schema.ImportRoot `yaml:"import_roots,omitempty"`
	DefaultEndpoint string              `yaml:"default_endpoint,omitempty"`
	TLS             transport.TlsConfig `yaml:"tls,omitempty"`
	ProtocPath      string              `yaml:"protoc_path,omitempty"`
}

// Default returns a RuntimeConfig with no import roots, plaintext h2c,
// and protoc resolved from PATH.
func Default() RuntimeConfig {
	return RuntimeConfig{}
}
