package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"

	"github.com/protoloom/protoloom/pkg/callexec"
	"github.com/protoloom/protoloom/pkg/logging"
	"github.com/protoloom/protoloom/pkg/sample"
	"github.com/protoloom/protoloom/pkg/schema"
	"github.com/protoloom/protoloom/pkg/streamreg"
	"github.com/protoloom/protoloom/pkg/surface"
)

// Operation tags, exactly as spec.md §6's table names them.
const (
	OpParseProtoSurface = "parse-proto-surface"
	OpParseProtoFiles   = "parse-proto-files"
	OpSampleFor         = "sample-for"
	OpUnaryCall         = "unary-call"
	OpOpenStream        = "open-stream"
	OpSend              = "send"
	OpFinish            = "finish"
)

// Engine is the single dispatch boundary an embedding host talks to: every
// operation tag spec.md §6 describes routes through Dispatch.
type Engine struct {
	registry *streamreg.Registry
	executor *callexec.Executor
	compiler *schema.Compiler
	sink     callexec.EventSink
	log      *slog.Logger
}

// NewEngine constructs an Engine. protocPath overrides protoc resolution
// (empty resolves "protoc" from PATH); sink receives stream-message events
// for server-streaming and bidirectional calls (nil drops them).
func NewEngine(protocPath string, sink callexec.EventSink) *Engine {
	return &Engine{
		registry: streamreg.NewRegistry(),
		executor: callexec.NewExecutor(),
		compiler: schema.NewCompiler(protocPath),
		sink:     sink,
		log:      logging.Nop(),
	}
}

// SetLogger installs a structured logger on the engine and the components
// it owns, replacing the no-op default.
func (e *Engine) SetLogger(log *slog.Logger) {
	if log == nil {
		return
	}
	e.log = log
	e.executor.SetLogger(log)
	e.compiler.SetLogger(log)
}

// Dispatch decodes payload per op, invokes the corresponding component, and
// re-encodes the result, giving the host a single call boundary for every
// operation spec.md §6 names.
func (e *Engine) Dispatch(ctx context.Context, op string, payload json.RawMessage) (json.RawMessage, error) {
	correlationID := uuid.New().String()
	log := e.log.With("operation", op, "correlation_id", correlationID)
	log.Debug("dispatching operation")

	switch op {
	case OpParseProtoSurface:
		return e.parseProtoSurface(payload)
	case OpParseProtoFiles:
		return e.parseProtoFiles(ctx, payload)
	case OpSampleFor:
		return e.sampleFor(ctx, payload)
	case OpUnaryCall:
		return e.unaryCall(ctx, payload)
	case OpOpenStream:
		return e.openStream(ctx, payload)
	case OpSend:
		return e.send(payload)
	case OpFinish:
		return e.finish(ctx, payload)
	default:
		log.Warn("unrecognized operation")
		return nil, fmt.Errorf("%w: %s", ErrUnknownOperation, op)
	}
}

func (e *Engine) parseProtoSurface(payload json.RawMessage) (json.RawMessage, error) {
	var req parseProtoSurfaceRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return nil, fmt.Errorf("engine: decode parse-proto-surface payload: %w", err)
	}
	services, err := surface.Parse(req.ProtoContent)
	if err != nil {
		return nil, err
	}
	return json.Marshal(services)
}

func (e *Engine) parseProtoFiles(ctx context.Context, payload json.RawMessage) (json.RawMessage, error) {
	var req parseProtoFilesRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return nil, fmt.Errorf("engine: decode parse-proto-files payload: %w", err)
	}

	resp := parseProtoFilesResponse{}
	pool, warnings, err := e.compiler.Compile(ctx, req.ImportPaths)
	resp.Warnings = warnings
	if err != nil {
		resp.Success = false
		resp.Errors = []string{err.Error()}
		return json.Marshal(resp)
	}
	resp.Success = true
	resp.Services = pool.Services()
	return json.Marshal(resp)
}

func (e *Engine) sampleFor(ctx context.Context, payload json.RawMessage) (json.RawMessage, error) {
	var req sampleForRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return nil, fmt.Errorf("engine: decode sample-for payload: %w", err)
	}

	pool, _, err := e.resolvePool(ctx, req.ProtoContent, req.ImportPaths)
	if err != nil {
		return nil, err
	}
	md, err := pool.FindMessage(req.MessageType)
	if err != nil {
		return nil, err
	}
	out, err := sample.JSON(md)
	if err != nil {
		return nil, err
	}
	return json.Marshal(out)
}

func (e *Engine) unaryCall(ctx context.Context, payload json.RawMessage) (json.RawMessage, error) {
	var req callRequestPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return nil, fmt.Errorf("engine: decode unary-call payload: %w", err)
	}

	pool, _, err := e.resolvePool(ctx, req.ProtoContent, req.ImportPaths)
	if err != nil {
		return nil, err
	}

	env, err := e.executor.Call(ctx, callexec.CallRequest{
		Service:     req.Service,
		Method:      req.Method,
		RequestJSON: req.RequestData,
		Endpoint:    req.Endpoint,
		Pool:        pool,
		Metadata:    req.Metadata,
		Auth:        req.Auth,
		TLS:         req.TLSConfig,
		TabID:       req.TabID,
	}, e.sink)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(env, "", "  ")
}

func (e *Engine) openStream(ctx context.Context, payload json.RawMessage) (json.RawMessage, error) {
	var req callRequestPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return nil, fmt.Errorf("engine: decode open-stream payload: %w", err)
	}
	if req.TabID == "" {
		req.TabID = uuid.New().String()
	}

	pool, _, err := e.resolvePool(ctx, req.ProtoContent, req.ImportPaths)
	if err != nil {
		return nil, err
	}

	err = e.executor.OpenStream(ctx, callexec.CallRequest{
		Service:     req.Service,
		Method:      req.Method,
		RequestJSON: req.RequestData,
		Endpoint:    req.Endpoint,
		Pool:        pool,
		Metadata:    req.Metadata,
		Auth:        req.Auth,
		TLS:         req.TLSConfig,
		TabID:       req.TabID,
	}, e.registry, e.sink)
	if err != nil {
		return nil, err
	}
	return json.Marshal("Stream opened")
}

func (e *Engine) send(payload json.RawMessage) (json.RawMessage, error) {
	var req sendRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return nil, fmt.Errorf("engine: decode send payload: %w", err)
	}
	if err := e.executor.Send(e.registry, req.TabID, req.Body); err != nil {
		return nil, err
	}
	return json.Marshal(fmt.Sprintf("Message %s sent", messageIDString(req.MessageID)))
}

func messageIDString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

func (e *Engine) finish(ctx context.Context, payload json.RawMessage) (json.RawMessage, error) {
	var req finishRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return nil, fmt.Errorf("engine: decode finish payload: %w", err)
	}
	env, err := e.executor.Finish(ctx, e.registry, req.TabID)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(env, "", "  ")
}

// resolvePool compiles a descriptor pool from either an inline proto_content
// string (written to a temp file and compiled as a single-file import root)
// or a caller-supplied set of import roots. Exactly one source is expected;
// proto_content takes precedence when both are present.
func (e *Engine) resolvePool(ctx context.Context, protoContent string, importPaths []schema.ImportRoot) (*schema.DescriptorPool, []string, error) {
	if protoContent == "" && len(importPaths) == 0 {
		return nil, nil, ErrMissingSchemaSource
	}

	if protoContent != "" {
		tmp, err := os.CreateTemp("", "protoloom-inline-*.proto")
		if err != nil {
			return nil, nil, fmt.Errorf("engine: write inline proto source: %w", err)
		}
		path := tmp.Name()
		defer os.Remove(path)
		if _, err := tmp.WriteString(protoContent); err != nil {
			_ = tmp.Close()
			return nil, nil, fmt.Errorf("engine: write inline proto source: %w", err)
		}
		if err := tmp.Close(); err != nil {
			return nil, nil, fmt.Errorf("engine: write inline proto source: %w", err)
		}

		roots := []schema.ImportRoot{{ID: "inline", Path: path, Kind: schema.KindFile, Enabled: true}}
		return e.compiler.Compile(ctx, roots)
	}

	return e.compiler.Compile(ctx, importPaths)
}
