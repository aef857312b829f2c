package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/protoloom/protoloom/pkg/callexec"
	"github.com/protoloom/protoloom/pkg/engine"
	"github.com/protoloom/protoloom/pkg/schema"
	"github.com/protoloom/protoloom/pkg/util"
)

// newEngineFromFlags builds an Engine using the persistent --config and
// --protoc-path flags, installing the logger cliLogger builds from
// --log-level, --log-format and --loki-url, and routing
// stream-message events to sink (nil drops them, fine for one-shot calls).
func newEngineFromFlags(sink callexec.EventSink) (*engine.Engine, error) {
	cfg, err := loadRuntimeConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	e := engine.NewEngine(resolveProtocPath(cfg), sink)
	e.SetLogger(cliLogger())
	return e, nil
}

// schemaSource resolves --proto and --import flags into either inline proto
// content or a set of import roots, exactly one of which Dispatch expects.
// A bare path ending in ".proto" is treated as a file root; anything else is
// treated as a directory root.
func schemaSource(protoFile string, importPaths []string) (protoContent string, roots []schema.ImportRoot, err error) {
	if protoFile != "" {
		clean, ok := util.SafeFilePathAllowAbsolute(protoFile)
		if !ok {
			return "", nil, fmt.Errorf("--proto %q: invalid path", protoFile)
		}
		data, readErr := os.ReadFile(clean)
		if readErr != nil {
			return "", nil, fmt.Errorf("read --proto file: %w", readErr)
		}
		return string(data), nil, nil
	}

	for i, p := range importPaths {
		clean, ok := util.SafeFilePathAllowAbsolute(p)
		if !ok {
			return "", nil, fmt.Errorf("--import %q: invalid path", p)
		}
		kind := schema.KindDir
		if strings.HasSuffix(clean, ".proto") {
			kind = schema.KindFile
		}
		roots = append(roots, schema.ImportRoot{
			ID:      fmt.Sprintf("import-%d", i),
			Path:    clean,
			Kind:    kind,
			Enabled: true,
		})
	}
	return "", roots, nil
}

// printJSON pretty-prints v to stdout.
func printJSON(v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

// dispatchRaw invokes the engine and pretty-prints the response payload
// (which may already be a JSON string or object — either way it renders
// legibly on indent).
func dispatchRaw(ctx context.Context, e *engine.Engine, op string, req interface{}) error {
	payload, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	out, err := e.Dispatch(ctx, op, payload)
	if err != nil {
		return err
	}
	var generic interface{}
	if err := json.Unmarshal(out, &generic); err != nil {
		fmt.Println(string(out))
		return nil
	}
	return printJSON(generic)
}
