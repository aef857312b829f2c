package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/protoloom/protoloom/pkg/callexec"
	"github.com/protoloom/protoloom/pkg/engine"
)

var (
	streamProtoFile   string
	streamImportPaths []string
	streamService     string
	streamMethod      string
	streamEndpoint    string
	streamTabID       string
)

var streamCmd = &cobra.Command{
	Use:   "stream",
	Short: "Drive a client-streaming or bidirectional RPC from stdin",
	Long: `stream opens a client-streaming or bidirectional method via the
"open-stream" operation, then reads newline-delimited JSON request bodies
from stdin, sending each one via "send". On EOF it calls "finish" and
prints the resulting envelope. Bidirectional responses print as
stream-message events as they arrive.`,
	Example: `  # Pipe three Collect messages and print the aggregate response
  printf '{"text":"a"}\n{"text":"b"}\n{"text":"c"}\n' | \
    protoloom stream --proto ./echo.proto --service Echo --method Collect \
    --endpoint localhost:50051`,
	RunE: runStream,
}

func runStream(cmd *cobra.Command, args []string) error {
	if streamService == "" {
		return errMissingService
	}
	if streamMethod == "" {
		return errMissingMethod
	}
	protoContent, roots, err := schemaSource(streamProtoFile, streamImportPaths)
	if err != nil {
		return err
	}
	if protoContent == "" && len(roots) == 0 {
		return errMissingSchema
	}
	if streamTabID == "" {
		streamTabID = uuid.New().String()
	}

	e, err := newEngineFromFlags(func(ev callexec.StreamEvent) {
		_ = printJSON(ev)
	})
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	openPayload := map[string]interface{}{
		"service":       streamService,
		"method":        streamMethod,
		"endpoint":      streamEndpoint,
		"proto_content": protoContent,
		"import_paths":  roots,
		"tab_id":        streamTabID,
	}
	body, err := json.Marshal(openPayload)
	if err != nil {
		return err
	}
	if _, err := e.Dispatch(ctx, engine.OpOpenStream, body); err != nil {
		return fmt.Errorf("open-stream: %w", err)
	}
	fmt.Fprintf(os.Stderr, "stream opened, tab_id=%s\n", streamTabID)

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		sendPayload, err := json.Marshal(map[string]interface{}{
			"tab_id": streamTabID,
			"body":   json.RawMessage(line),
		})
		if err != nil {
			return err
		}
		if _, err := e.Dispatch(ctx, engine.OpSend, sendPayload); err != nil {
			return fmt.Errorf("send: %w", err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read stdin: %w", err)
	}

	finishPayload, err := json.Marshal(map[string]interface{}{"tab_id": streamTabID})
	if err != nil {
		return err
	}
	return dispatchRaw(ctx, e, engine.OpFinish, rawPayload(finishPayload))
}

// rawPayload lets dispatchRaw's json.Marshal round-trip an already-encoded
// payload unchanged.
type rawPayload json.RawMessage

func (p rawPayload) MarshalJSON() ([]byte, error) { return p, nil }

func init() {
	streamCmd.Flags().StringVar(&streamProtoFile, "proto", "", "Path to a .proto source file")
	streamCmd.Flags().StringArrayVar(&streamImportPaths, "import", nil, "Import root (directory or .proto file); repeatable")
	streamCmd.Flags().StringVar(&streamService, "service", "", "Service name (fully qualified or simple)")
	streamCmd.Flags().StringVar(&streamMethod, "method", "", "Method name")
	streamCmd.Flags().StringVar(&streamEndpoint, "endpoint", "", "host:port of the gRPC endpoint")
	streamCmd.Flags().StringVar(&streamTabID, "tab-id", "", "Stream identifier (default: a generated UUID)")
	rootCmd.AddCommand(streamCmd)
}
