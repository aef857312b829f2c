package engine

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/dynamicpb"

	"github.com/protoloom/protoloom/pkg/callexec"
	"github.com/protoloom/protoloom/pkg/schema"
	"github.com/protoloom/protoloom/pkg/transcode"
)

const echoProto = `syntax = "proto3";
package echo;

message Msg {
  string text = 1;
}

service Echo {
  rpc Say (Msg) returns (Msg);
  rpc Stream (Msg) returns (stream Msg);
  rpc Collect (stream Msg) returns (Msg);
}
`

func requireProtoc(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("protoc"); err != nil {
		t.Skip("protoc not installed; skipping end-to-end engine test")
	}
}

func mustJSON(t *testing.T, v interface{}) json.RawMessage {
	t.Helper()
	out, err := json.Marshal(v)
	require.NoError(t, err)
	return out
}

func echoText(md protoreflect.MessageDescriptor, payload []byte) string {
	msg := dynamicpb.NewMessage(md)
	_ = proto.Unmarshal(payload, msg)
	return msg.Get(msg.Descriptor().Fields().ByName("text")).String()
}

func echoFrame(md protoreflect.MessageDescriptor, text string) []byte {
	msg := dynamicpb.NewMessage(md)
	msg.Set(msg.Descriptor().Fields().ByName("text"), protoreflect.ValueOfString(text))
	payload, _ := proto.Marshal(msg)
	return transcode.EncodeFrame(payload)
}

// newEchoServer compiles echoProto itself (so its descriptors always match
// whatever the engine under test compiles from the same source) and serves
// Say (unary) and Stream (server-streaming) over plaintext h2c.
func newEchoServer(t *testing.T) *httptest.Server {
	t.Helper()
	compiler := schema.NewCompiler("")
	pool, _, err := compiler.Compile(context.Background(), fixtureRoots(t, echoProto))
	require.NoError(t, err)

	sd, err := pool.FindService("Echo")
	require.NoError(t, err)
	sayMD, err := schema.FindMethod(sd, "Say")
	require.NoError(t, err)
	streamMD, err := schema.FindMethod(sd, "Stream")
	require.NoError(t, err)
	collectMD, err := schema.FindMethod(sd, "Collect")
	require.NoError(t, err)

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/echo.Echo/Say":
			body, _ := io.ReadAll(r.Body)
			frames, err := transcode.DecodeFrames(body)
			if err != nil || len(frames) == 0 {
				w.Header().Set("grpc-status", "2")
				return
			}
			text := echoText(sayMD.Input(), frames[0].Payload)
			w.Header().Set("Trailer", "Grpc-Status")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write(echoFrame(sayMD.Output(), "echo:"+text))
			w.Header().Set(http.TrailerPrefix+"Grpc-Status", "0")

		case "/echo.Echo/Stream":
			body, _ := io.ReadAll(r.Body)
			frames, err := transcode.DecodeFrames(body)
			if err != nil || len(frames) == 0 {
				w.Header().Set("grpc-status", "2")
				return
			}
			text := echoText(streamMD.Input(), frames[0].Payload)
			w.Header().Set("Trailer", "Grpc-Status")
			w.WriteHeader(http.StatusOK)
			for i := 0; i < 3; i++ {
				_, _ = w.Write(echoFrame(streamMD.Output(), text))
				if f, ok := w.(http.Flusher); ok {
					f.Flush()
				}
			}
			w.Header().Set(http.TrailerPrefix+"Grpc-Status", "0")

		case "/echo.Echo/Collect":
			var received []string
			var reader transcode.StreamFrameReader
			buf := make([]byte, 4096)
			for {
				n, rerr := r.Body.Read(buf)
				if n > 0 {
					reader.Feed(buf[:n])
					for {
						frame, ok := reader.Next()
						if !ok {
							break
						}
						received = append(received, echoText(collectMD.Input(), frame.Payload))
					}
				}
				if rerr != nil {
					break
				}
			}
			joined := ""
			for i, s := range received {
				if i > 0 {
					joined += "|"
				}
				joined += s
			}
			w.Header().Set("Trailer", "Grpc-Status")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write(echoFrame(collectMD.Output(), joined))
			w.Header().Set(http.TrailerPrefix+"Grpc-Status", "0")

		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	return httptest.NewServer(h2c.NewHandler(handler, &http2.Server{}))
}

func fixtureRoots(t *testing.T, proto string) []schema.ImportRoot {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "echo.proto")
	require.NoError(t, os.WriteFile(path, []byte(proto), 0o644))
	return []schema.ImportRoot{{ID: "fixture", Path: dir, Kind: schema.KindDir, Enabled: true}}
}

func TestEngine_Dispatch_UnknownOperation(t *testing.T) {
	e := NewEngine("", nil)
	_, err := e.Dispatch(context.Background(), "no-such-op", nil)
	assert.ErrorIs(t, err, ErrUnknownOperation)
}

func TestEngine_Dispatch_ParseProtoSurface(t *testing.T) {
	e := NewEngine("", nil)
	payload := mustJSON(t, parseProtoSurfaceRequest{ProtoContent: echoProto})

	out, err := e.Dispatch(context.Background(), OpParseProtoSurface, payload)
	require.NoError(t, err)

	var services []schema.ServiceSummary
	require.NoError(t, json.Unmarshal(out, &services))
	require.Len(t, services, 1)
	assert.Equal(t, "Echo", services[0].Name)
	assert.Len(t, services[0].Methods, 3)
}

func TestEngine_Dispatch_ParseProtoFiles(t *testing.T) {
	requireProtoc(t)
	e := NewEngine("", nil)
	roots := fixtureRoots(t, echoProto)
	payload := mustJSON(t, parseProtoFilesRequest{ImportPaths: roots})

	out, err := e.Dispatch(context.Background(), OpParseProtoFiles, payload)
	require.NoError(t, err)

	var resp parseProtoFilesResponse
	require.NoError(t, json.Unmarshal(out, &resp))
	assert.True(t, resp.Success)
	require.Len(t, resp.Services, 1)
	assert.Equal(t, "Echo", resp.Services[0].Name)
}

func TestEngine_Dispatch_SampleFor(t *testing.T) {
	requireProtoc(t)
	e := NewEngine("", nil)
	payload := mustJSON(t, sampleForRequest{MessageType: "echo.Msg", ProtoContent: echoProto})

	out, err := e.Dispatch(context.Background(), OpSampleFor, payload)
	require.NoError(t, err)

	var rendered string
	require.NoError(t, json.Unmarshal(out, &rendered))

	var fields map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(rendered), &fields))
	assert.Equal(t, "", fields["text"])
}

func TestEngine_Dispatch_UnaryCallEndToEnd(t *testing.T) {
	requireProtoc(t)
	server := newEchoServer(t)
	defer server.Close()

	e := NewEngine("", nil)
	payload := mustJSON(t, callRequestPayload{
		Service:      "Echo",
		Method:       "Say",
		RequestData:  mustJSON(t, map[string]string{"text": "hi"}),
		Endpoint:     server.URL,
		ProtoContent: echoProto,
	})

	out, err := e.Dispatch(context.Background(), OpUnaryCall, payload)
	require.NoError(t, err)

	var env struct {
		Status   string          `json:"status"`
		Response json.RawMessage `json:"response"`
	}
	require.NoError(t, json.Unmarshal(out, &env))
	assert.Equal(t, "success", env.Status)

	var response map[string]string
	require.NoError(t, json.Unmarshal(env.Response, &response))
	assert.Equal(t, "echo:hi", response["text"])
}

func TestEngine_Dispatch_ServerStreamingEmitsEvents(t *testing.T) {
	requireProtoc(t)
	server := newEchoServer(t)
	defer server.Close()

	var events []callexec.StreamEvent
	sink := callexec.EventSink(func(ev callexec.StreamEvent) { events = append(events, ev) })

	e := NewEngine("", sink)
	payload := mustJSON(t, callRequestPayload{
		Service:      "Echo",
		Method:       "Stream",
		RequestData:  mustJSON(t, map[string]string{"text": "hey"}),
		Endpoint:     server.URL,
		ProtoContent: echoProto,
	})

	out, err := e.Dispatch(context.Background(), OpUnaryCall, payload)
	require.NoError(t, err)

	var env struct {
		Status       string `json:"status"`
		MessageCount int    `json:"message_count"`
		IsStreaming  bool   `json:"is_streaming"`
	}
	require.NoError(t, json.Unmarshal(out, &env))
	assert.Equal(t, "success", env.Status)
	assert.True(t, env.IsStreaming)
	assert.Equal(t, 3, env.MessageCount)

	require.Len(t, events, 3)
	for i, ev := range events {
		assert.Equal(t, i, ev.Index)
	}
}

func TestEngine_Dispatch_MissingSchemaSource(t *testing.T) {
	e := NewEngine("", nil)
	payload := mustJSON(t, callRequestPayload{Service: "Echo", Method: "Say", Endpoint: "127.0.0.1:1"})

	_, err := e.Dispatch(context.Background(), OpUnaryCall, payload)
	assert.ErrorIs(t, err, ErrMissingSchemaSource)
}

func TestEngine_Dispatch_OpenStreamSendFinish(t *testing.T) {
	requireProtoc(t)
	server := newEchoServer(t)
	defer server.Close()

	e := NewEngine("", nil)
	openPayload := mustJSON(t, callRequestPayload{
		Service:      "Echo",
		Method:       "Collect",
		Endpoint:     server.URL,
		ProtoContent: echoProto,
		TabID:        "tab-1",
	})
	out, err := e.Dispatch(context.Background(), OpOpenStream, openPayload)
	require.NoError(t, err)
	var opened string
	require.NoError(t, json.Unmarshal(out, &opened))
	assert.Equal(t, "Stream opened", opened)

	for _, msg := range []string{"a", "b", "c"} {
		sendPayload := mustJSON(t, sendRequest{
			TabID: "tab-1",
			Body:  mustJSON(t, map[string]string{"text": msg}),
		})
		out, err := e.Dispatch(context.Background(), OpSend, sendPayload)
		require.NoError(t, err)
		var note string
		require.NoError(t, json.Unmarshal(out, &note))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	finishPayload := mustJSON(t, finishRequest{TabID: "tab-1"})
	out, err = e.Dispatch(ctx, OpFinish, finishPayload)
	require.NoError(t, err)

	var env struct {
		Status   string          `json:"status"`
		Response json.RawMessage `json:"response"`
	}
	require.NoError(t, json.Unmarshal(out, &env))
	assert.Equal(t, "success", env.Status)

	var response map[string]string
	require.NoError(t, json.Unmarshal(env.Response, &response))
	assert.Equal(t, "a|b|c", response["text"])
}
