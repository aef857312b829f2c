package callexec

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"google.golang.org/protobuf/reflect/protoreflect"

	"github.com/protoloom/protoloom/pkg/logging"
	"github.com/protoloom/protoloom/pkg/metrics"
	"github.com/protoloom/protoloom/pkg/schema"
	"github.com/protoloom/protoloom/pkg/streamreg"
	"github.com/protoloom/protoloom/pkg/transcode"
	"github.com/protoloom/protoloom/pkg/transport"
	"github.com/protoloom/protoloom/pkg/util"
)

// Executor is the call(...) entry point: it resolves the method, dispatches
// by its derived method type, and renders the resulting envelope.
type Executor struct {
	log *slog.Logger
}

// NewExecutor constructs an Executor with a no-op logger.
func NewExecutor() *Executor {
	return &Executor{log: logging.Nop()}
}

// SetLogger installs a structured logger, replacing the no-op default.
func (e *Executor) SetLogger(log *slog.Logger) {
	if log != nil {
		e.log = log
	}
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// Call resolves service/method and dispatches unary and server-streaming
// calls directly. Client-streaming and bidirectional methods return an
// error directing the caller to OpenStream/Send/Finish instead.
func (e *Executor) Call(ctx context.Context, req CallRequest, sink EventSink) (*Envelope, error) {
	sd, md, err := resolveMethod(req)
	if err != nil {
		return e.schemaErrorEnvelope(req, err), nil
	}

	methodType := schema.DeriveMethodType(md.IsStreamingClient(), md.IsStreamingServer())
	switch methodType {
	case schema.MethodTypeUnary:
		return e.callUnary(ctx, req, sd, md)
	case schema.MethodTypeServerStreaming:
		return e.callServerStreaming(ctx, req, sd, md, sink)
	default:
		return nil, fmt.Errorf("callexec: %s/%s is a client-streaming method; use OpenStream", req.Service, req.Method)
	}
}

func resolveMethod(req CallRequest) (protoreflect.ServiceDescriptor, protoreflect.MethodDescriptor, error) {
	sd, err := req.Pool.FindService(req.Service)
	if err != nil {
		return nil, nil, err
	}
	md, err := schema.FindMethod(sd, req.Method)
	if err != nil {
		return nil, nil, err
	}
	return sd, md, nil
}

func (e *Executor) schemaErrorEnvelope(req CallRequest, err error) *Envelope {
	return &Envelope{
		Status:      "error",
		GrpcStatus:  "unknown",
		Endpoint:    req.Endpoint,
		Service:     req.Service,
		Method:      req.Method,
		Request:     req.RequestJSON,
		Timestamp:   now(),
		Error:       err.Error(),
	}
}

// buildRequest assembles the outbound *http.Request for one POST. For
// unary and server-streaming calls body is a single framed message; for
// client/bidirectional streaming it is the pipe that carries every frame
// sent over the stream's lifetime.
func buildRequest(ctx context.Context, req CallRequest, sd protoreflect.ServiceDescriptor, body io.Reader) (*http.Request, error) {
	uri := transport.BuildURI(req.TLS, req.Endpoint, schema.FullMethodPath(sd, req.Method))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, uri, body)
	if err != nil {
		return nil, fmt.Errorf("callexec: build request: %w", err)
	}
	headers := transport.BuildHeaders(req.Auth, req.Metadata)
	httpReq.Header = headers
	return httpReq, nil
}

func transportErrorEnvelope(req CallRequest, isStreaming bool, err error) *Envelope {
	category, hints := Classify(err.Error())
	return &Envelope{
		Status:               "error",
		GrpcStatus:           "UNAVAILABLE",
		Endpoint:             req.Endpoint,
		Service:              req.Service,
		Method:               req.Method,
		IsStreaming:          isStreaming,
		Request:              req.RequestJSON,
		Timestamp:            now(),
		Error:                err.Error(),
		ErrorCategory:        category,
		TroubleshootingHints: hints,
	}
}

func grpcTrailerOrHeader(resp *http.Response) (status, message string) {
	status = resp.Header.Get("grpc-status")
	message = resp.Header.Get("grpc-message")
	if status == "" {
		status = resp.Trailer.Get("grpc-status")
		message = resp.Trailer.Get("grpc-message")
	}
	return status, message
}

func (e *Executor) recordCall(service, method, mode, status string, start time.Time) {
	if metrics.CallsTotal != nil {
		if vec, err := metrics.CallsTotal.WithLabels(service, method, mode, status); err == nil {
			vec.Inc()
		}
	}
	if metrics.CallDuration != nil {
		if vec, err := metrics.CallDuration.WithLabels(service, method, mode); err == nil {
			vec.Observe(time.Since(start).Seconds())
		}
	}
}

// callUnary implements §4.G's unary call: encode one frame, POST, await
// the full body, decode one frame, render the envelope.
func (e *Executor) callUnary(ctx context.Context, req CallRequest, sd protoreflect.ServiceDescriptor, md protoreflect.MethodDescriptor) (*Envelope, error) {
	start := time.Now()
	e.log.Debug("unary call starting",
		"service", req.Service, "method", req.Method, "endpoint", req.Endpoint,
		"request", util.TruncateBody(string(req.RequestJSON), 0))
	framed, err := transcode.EncodeRequest(md.Input(), req.RequestJSON)
	if err != nil {
		e.recordCall(req.Service, req.Method, "unary", "error", start)
		return e.schemaErrorEnvelope(req, err), nil
	}

	httpReq, err := buildRequest(ctx, req, sd, bytes.NewReader(framed))
	if err != nil {
		e.recordCall(req.Service, req.Method, "unary", "error", start)
		return e.schemaErrorEnvelope(req, err), nil
	}

	client, err := transport.NewClient(req.TLS)
	if err != nil {
		e.recordCall(req.Service, req.Method, "unary", "error", start)
		return transportErrorEnvelope(req, false, err), nil
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		e.recordCall(req.Service, req.Method, "unary", "error", start)
		return transportErrorEnvelope(req, false, err), nil
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		e.recordCall(req.Service, req.Method, "unary", "error", start)
		return transportErrorEnvelope(req, false, err), nil
	}

	rawStatus, grpcMessage := grpcTrailerOrHeader(resp)

	env := &Envelope{
		Endpoint:  req.Endpoint,
		Service:   req.Service,
		Method:    req.Method,
		Request:   req.RequestJSON,
		Timestamp: now(),
	}

	frames, err := transcode.DecodeFrames(body)
	if err != nil {
		env.Status = "error"
		env.GrpcStatus = displayGrpcStatus(rawStatus, 0)
		env.GrpcMessage = grpcMessage
		env.Error = err.Error()
		e.recordCall(req.Service, req.Method, "unary", "error", start)
		return env, nil
	}

	if len(frames) > 0 {
		responseJSON, decErr := transcode.DecodeFrame(md.Output(), frames[len(frames)-1])
		if decErr != nil {
			env.Status = "error"
			env.GrpcStatus = displayGrpcStatus(rawStatus, 0)
			env.GrpcMessage = grpcMessage
			env.Error = decErr.Error()
			e.recordCall(req.Service, req.Method, "unary", "error", start)
			return env, nil
		}
		env.Response = responseJSON
		env.ResponseSize = len(responseJSON)
		env.MessageCount = 1
	}

	env.GrpcStatus = displayGrpcStatus(rawStatus, len(frames))
	env.GrpcMessage = grpcMessage
	if rawStatus == "0" || (rawStatus == "" && len(frames) >= 1) {
		env.Status = "success"
		e.recordCall(req.Service, req.Method, "unary", "success", start)
	} else {
		env.Status = "error"
		env.GrpcMessage = canonicalGrpcMessage(env.GrpcStatus, grpcMessage)
		env.Details = decodeStatusDetails(resp)
		e.recordCall(req.Service, req.Method, "unary", "error", start)
	}
	e.log.Debug("unary call finished",
		"service", req.Service, "method", req.Method, "status", env.Status,
		"grpc_status", env.GrpcStatus, "response", util.TruncateBody(string(env.Response), 0))
	return env, nil
}

// displayGrpcStatus implements the open question's documented behavior:
// an empty trailer with a decodable body reports "0"; an empty trailer
// with an empty body reports "unknown".
func displayGrpcStatus(raw string, framesDecoded int) string {
	if raw != "" {
		return raw
	}
	if framesDecoded >= 1 {
		return "0"
	}
	return "unknown"
}

// callServerStreaming implements §4.G's server-streaming call: POST once,
// then read the response body as a growing frame buffer, emitting a
// stream-message event per decoded frame with a strictly increasing index.
func (e *Executor) callServerStreaming(ctx context.Context, req CallRequest, sd protoreflect.ServiceDescriptor, md protoreflect.MethodDescriptor, sink EventSink) (*Envelope, error) {
	start := time.Now()
	framed, err := transcode.EncodeRequest(md.Input(), req.RequestJSON)
	if err != nil {
		e.recordCall(req.Service, req.Method, "server_streaming", "error", start)
		return e.schemaErrorEnvelope(req, err), nil
	}

	httpReq, err := buildRequest(ctx, req, sd, bytes.NewReader(framed))
	if err != nil {
		e.recordCall(req.Service, req.Method, "server_streaming", "error", start)
		return e.schemaErrorEnvelope(req, err), nil
	}

	client, err := transport.NewClient(req.TLS)
	if err != nil {
		e.recordCall(req.Service, req.Method, "server_streaming", "error", start)
		return transportErrorEnvelope(req, true, err), nil
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		e.recordCall(req.Service, req.Method, "server_streaming", "error", start)
		return transportErrorEnvelope(req, true, err), nil
	}
	defer resp.Body.Close()

	responses, index, err := e.drainFrames(resp.Body, md.Output(), req.Service, req.Method, req.TabID, sink)
	if err != nil {
		e.recordCall(req.Service, req.Method, "server_streaming", "error", start)
		return transportErrorEnvelope(req, true, err), nil
	}

	rawStatus, grpcMessage := grpcTrailerOrHeader(resp)
	responseArray, _ := json.Marshal(responses)

	env := &Envelope{
		Endpoint:     req.Endpoint,
		Service:      req.Service,
		Method:       req.Method,
		IsStreaming:  true,
		MessageCount: index,
		Request:      req.RequestJSON,
		Response:     responseArray,
		ResponseSize: len(responseArray),
		GrpcStatus:   displayGrpcStatus(rawStatus, index),
		GrpcMessage:  grpcMessage,
		Timestamp:    now(),
	}
	if rawStatus == "0" || (rawStatus == "" && index >= 1) {
		env.Status = "success"
		e.recordCall(req.Service, req.Method, "server_streaming", "success", start)
	} else {
		env.Status = "error"
		env.GrpcMessage = canonicalGrpcMessage(env.GrpcStatus, grpcMessage)
		env.Details = decodeStatusDetails(resp)
		e.recordCall(req.Service, req.Method, "server_streaming", "error", start)
	}
	return env, nil
}

// drainFrames reads body to EOF, decoding and emitting each frame as it
// completes, until the underlying stream closes.
func (e *Executor) drainFrames(body io.Reader, outputDesc protoreflect.MessageDescriptor, service, method, tabID string, sink EventSink) ([]json.RawMessage, int, error) {
	var reader transcode.StreamFrameReader
	var responses []json.RawMessage
	buf := make([]byte, 32*1024)
	index := 0

	for {
		n, readErr := body.Read(buf)
		if n > 0 {
			reader.Feed(buf[:n])
			for {
				frame, ok := reader.Next()
				if !ok {
					break
				}
				data, decErr := transcode.DecodeFrame(outputDesc, frame)
				if decErr != nil {
					return responses, index, decErr
				}
				responses = append(responses, data)
				if metrics.StreamMessagesTotal != nil {
					if vec, mErr := metrics.StreamMessagesTotal.WithLabels(service, method, "received"); mErr == nil {
						vec.Inc()
					}
				}
				sink.emit(StreamEvent{TabID: tabID, Index: index, Data: data, Timestamp: now()})
				index++
			}
		}
		if readErr == io.EOF {
			return responses, index, nil
		}
		if readErr != nil {
			return responses, index, readErr
		}
	}
}

// OpenStream implements open-stream: it compiles nothing new (the caller
// already resolved req.Pool), builds a channel-backed request body, spawns
// the background task that forwards queued frames and (for bidirectional
// methods) emits stream-message events, and registers the stream.
func (e *Executor) OpenStream(ctx context.Context, req CallRequest, registry *streamreg.Registry, sink EventSink) error {
	sd, md, err := resolveMethod(req)
	if err != nil {
		return err
	}
	if !md.IsStreamingClient() {
		return ErrNotStreamingMethod
	}

	pr, pw := io.Pipe()
	sendQueue := make(chan []byte, 256)
	response := make(chan streamreg.Result, 1)

	entry := &streamreg.ActiveStream{
		SendQueue:  sendQueue,
		Pool:       req.Pool,
		InputDesc:  md.Input(),
		OutputDesc: md.Output(),
		Response:   response,
	}
	registry.Insert(req.TabID, entry)
	recordActiveStreams(registry.Count())

	httpReq, err := buildRequest(ctx, req, sd, pr)
	if err != nil {
		registry.Remove(req.TabID, entry)
		recordActiveStreams(registry.Count())
		return err
	}

	isBidi := md.IsStreamingServer()
	go e.runStreamTask(req, httpReq, pw, sendQueue, response, md, isBidi, sink)

	return nil
}

// runStreamTask owns the lifetime of one open stream's background work:
// forwarding the send queue into the request body pipe, performing the
// call, and (for bidirectional calls) decoding the response as a frame
// stream while emitting events, finally delivering exactly one Result.
func (e *Executor) runStreamTask(req CallRequest, httpReq *http.Request, pw *io.PipeWriter, sendQueue chan []byte, response chan streamreg.Result, md protoreflect.MethodDescriptor, isBidi bool, sink EventSink) {
	start := time.Now()
	mode := "client_streaming"
	if isBidi {
		mode = "bidirectional_streaming"
	}

	go func() {
		for frame := range sendQueue {
			if _, err := pw.Write(frame); err != nil {
				break
			}
		}
		_ = pw.Close()
	}()

	client, err := transport.NewClient(req.TLS)
	if err != nil {
		e.recordCall(req.Service, req.Method, mode, "error", start)
		response <- streamreg.Result{Err: err.Error()}
		return
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		e.recordCall(req.Service, req.Method, mode, "error", start)
		response <- streamreg.Result{Err: err.Error()}
		return
	}
	defer resp.Body.Close()

	rawStatus, grpcMessage := grpcTrailerOrHeader(resp)

	var responses []json.RawMessage
	var index int
	if isBidi {
		responses, index, err = e.drainFrames(resp.Body, md.Output(), req.Service, req.Method, req.TabID, sink)
		if err != nil {
			e.recordCall(req.Service, req.Method, mode, "error", start)
			response <- streamreg.Result{Err: err.Error()}
			return
		}
	} else {
		body, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			e.recordCall(req.Service, req.Method, mode, "error", start)
			response <- streamreg.Result{Err: readErr.Error()}
			return
		}
		frames, decErr := transcode.DecodeFrames(body)
		if decErr != nil {
			e.recordCall(req.Service, req.Method, mode, "error", start)
			response <- streamreg.Result{Err: decErr.Error()}
			return
		}
		if len(frames) > 0 {
			data, fe := transcode.DecodeFrame(md.Output(), frames[len(frames)-1])
			if fe != nil {
				e.recordCall(req.Service, req.Method, mode, "error", start)
				response <- streamreg.Result{Err: fe.Error()}
				return
			}
			responses = append(responses, data)
			index = 1
		}
	}

	env := &Envelope{
		Endpoint:     req.Endpoint,
		Service:      req.Service,
		Method:       req.Method,
		IsStreaming:  isBidi,
		MessageCount: index,
		GrpcStatus:   displayGrpcStatus(rawStatus, index),
		GrpcMessage:  grpcMessage,
		Timestamp:    now(),
	}
	if isBidi {
		arr, _ := json.Marshal(responses)
		env.Response = arr
		env.ResponseSize = len(arr)
	} else if len(responses) == 1 {
		env.Response = responses[0]
		env.ResponseSize = len(responses[0])
	}

	if rawStatus == "0" || (rawStatus == "" && index >= 1) {
		env.Status = "success"
		e.recordCall(req.Service, req.Method, mode, "success", start)
	} else {
		env.Status = "error"
		env.GrpcMessage = canonicalGrpcMessage(env.GrpcStatus, grpcMessage)
		env.Details = decodeStatusDetails(resp)
		e.recordCall(req.Service, req.Method, mode, "error", start)
	}

	envJSON, _ := json.Marshal(env)
	response <- streamreg.Result{JSON: envJSON}
}

// Send implements the send operation: frame body_json against the open
// stream's input descriptor and push it onto the queue. Framing reads the
// entry's InputDesc via Get (a stable field, safe to read outside the
// Push critical section); the enqueue itself goes through Push, which
// re-checks the entry under the registry's lock so a send racing a
// concurrent finish never reaches a closed channel.
func (e *Executor) Send(registry *streamreg.Registry, tabID string, bodyJSON json.RawMessage) error {
	entry, ok := registry.Get(tabID)
	if !ok {
		return ErrUnknownTab
	}

	framed, err := transcode.EncodeRequest(entry.InputDesc, bodyJSON)
	if err != nil {
		return err
	}

	switch err := registry.Push(tabID, framed); {
	case err == nil:
		return nil
	case errors.Is(err, streamreg.ErrUnknownTab):
		return ErrUnknownTab
	case errors.Is(err, streamreg.ErrQueueClosed):
		return streamreg.ErrQueueClosed
	case errors.Is(err, streamreg.ErrQueueFull):
		return fmt.Errorf("callexec: send queue full for tab %s", tabID)
	default:
		return err
	}
}

// Finish implements the finish operation: close the registry entry's send
// queue (signalling end-of-stream to the background task) and await its
// one-shot result, then drop the registry's reference. Closing and
// removal are two steps so a send racing finish sees ErrQueueClosed
// rather than the channel itself; Remove is a compare-and-delete so it
// can never drop a newer entry a later open-stream installed for the
// same tab_id.
func (e *Executor) Finish(ctx context.Context, registry *streamreg.Registry, tabID string) (*Envelope, error) {
	entry, err := registry.Close(tabID)
	if err != nil {
		if errors.Is(err, streamreg.ErrUnknownTab) {
			return nil, ErrUnknownTab
		}
		return nil, err
	}
	defer func() {
		registry.Remove(tabID, entry)
		recordActiveStreams(registry.Count())
	}()

	var result streamreg.Result
	select {
	case result = <-entry.Response:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if result.Err != "" {
		category, hints := Classify(result.Err)
		return &Envelope{
			Status:               "error",
			GrpcStatus:           "UNAVAILABLE",
			Timestamp:            now(),
			Error:                result.Err,
			ErrorCategory:        category,
			TroubleshootingHints: hints,
		}, nil
	}

	var env Envelope
	if err := json.Unmarshal(result.JSON, &env); err != nil {
		return nil, fmt.Errorf("callexec: decode background task result: %w", err)
	}
	return &env, nil
}
