package callexec

import (
	"encoding/json"

	"github.com/protoloom/protoloom/pkg/schema"
	"github.com/protoloom/protoloom/pkg/transport"
)

// CallRequest is the Call Executor's single entry-point argument:
// call(service, method, request_json, endpoint, schema_source, metadata,
// auth, tls, tab_id?). schema_source is represented here as an
// already-compiled *schema.DescriptorPool — callers resolve proto_content
// or import_paths into a pool before invoking the executor.
type CallRequest struct {
	Service     string
	Method      string
	RequestJSON json.RawMessage
	Endpoint    string
	Pool        *schema.DescriptorPool
	Metadata    map[string]string
	Auth        transport.AuthConfig
	TLS         transport.TlsConfig
	TabID       string
}

// Envelope is the unary/streaming-summary response shape returned to the
// host for every call.
type Envelope struct {
	Status                string          `json:"status"`
	GrpcStatus             string          `json:"grpc_status"`
	GrpcMessage            string          `json:"grpc_message"`
	Endpoint               string          `json:"endpoint"`
	Service                string          `json:"service"`
	Method                 string          `json:"method"`
	IsStreaming            bool            `json:"is_streaming"`
	MessageCount           int             `json:"message_count"`
	Request                json.RawMessage `json:"request"`
	Response               json.RawMessage `json:"response"`
	ResponseSize           int             `json:"response_size"`
	Note                   string          `json:"note"`
	Timestamp              string          `json:"timestamp"`
	Error                  string          `json:"error,omitempty"`
	ErrorCategory          string          `json:"error_category,omitempty"`
	TroubleshootingHints   []string        `json:"troubleshooting_hints,omitempty"`
	Details                []string        `json:"details,omitempty"`
}

// StreamEvent is the "stream-message" event payload emitted during
// server-streaming and bidirectional calls.
type StreamEvent struct {
	TabID     string          `json:"tabId"`
	Index     int             `json:"index"`
	Data      json.RawMessage `json:"data"`
	Timestamp string          `json:"timestamp"`
}

// EventSink receives stream-message events. The host subscribes; the
// executor never assumes delivery (a nil sink is valid and simply drops
// events).
type EventSink func(StreamEvent)

func (s EventSink) emit(ev StreamEvent) {
	if s != nil {
		s(ev)
	}
}
