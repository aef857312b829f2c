package engine

import (
	"encoding/json"

	"github.com/protoloom/protoloom/pkg/schema"
	"github.com/protoloom/protoloom/pkg/transport"
)

// parseProtoSurfaceRequest is the payload for "parse-proto-surface": a raw
// .proto source string, parsed via lightweight regex extraction rather than
// a full protoc invocation.
type parseProtoSurfaceRequest struct {
	ProtoContent string `json:"proto_content"`
}

// parseProtoFilesRequest is the payload for "parse-proto-files": a set of
// import roots compiled via protoc.
type parseProtoFilesRequest struct {
	ImportPaths []schema.ImportRoot `json:"import_paths"`
}

// parseProtoFilesResponse is the response for "parse-proto-files".
type parseProtoFilesResponse struct {
	Success  bool                    `json:"success"`
	Services []schema.ServiceSummary `json:"services"`
	Errors   []string                `json:"errors,omitempty"`
	Warnings []string                `json:"warnings,omitempty"`
}

// sampleForRequest is the payload for "sample-for": the message type to
// synthesize a default JSON body for, plus its schema source.
type sampleForRequest struct {
	MessageType  string               `json:"message_type"`
	ProtoContent string               `json:"proto_content,omitempty"`
	ImportPaths  []schema.ImportRoot  `json:"import_paths,omitempty"`
}

// callRequestPayload is the shared payload shape for "unary-call" and
// "open-stream": both carry the same schema-source/endpoint/auth fields,
// differing only in how the engine dispatches the result.
type callRequestPayload struct {
	Service      string              `json:"service"`
	Method       string              `json:"method"`
	RequestData  json.RawMessage     `json:"request_data"`
	Endpoint     string              `json:"endpoint"`
	ProtoContent string              `json:"proto_content,omitempty"`
	ImportPaths  []schema.ImportRoot `json:"import_paths,omitempty"`
	Metadata     map[string]string   `json:"metadata,omitempty"`
	Auth         transport.AuthConfig `json:"auth,omitempty"`
	TLSConfig    transport.TlsConfig  `json:"tls_config,omitempty"`
	TabID        string              `json:"tab_id,omitempty"`
}

// sendRequest is the payload for "send".
type sendRequest struct {
	TabID     string          `json:"tab_id"`
	MessageID json.RawMessage `json:"message_id,omitempty"`
	Body      json.RawMessage `json:"body"`
}

// finishRequest is the payload for "finish".
type finishRequest struct {
	TabID string `json:"tab_id"`
}
