package main

import (
	"encoding/json"
	"strings"

	"github.com/spf13/cobra"

	"github.com/protoloom/protoloom/pkg/callexec"
	"github.com/protoloom/protoloom/pkg/engine"
)

var (
	callProtoFile   string
	callImportPaths []string
	callService     string
	callMethod      string
	callEndpoint    string
	callData        string
	callMetadata    []string

	callAuthBearer       string
	callAuthBasicUser    string
	callAuthBasicPass    string
	callAuthAPIKeyHeader string
	callAuthAPIKeyValue  string

	callTLSEnabled    bool
	callTLSClientCert string
	callTLSClientKey  string
	callTLSServerCA   string
	callTLSInsecure   bool
)

var callCmd = &cobra.Command{
	Use:   "call",
	Short: "Invoke a unary or server-streaming RPC",
	Long: `call drives the "unary-call" operation for unary and server-streaming
methods. Server-streaming responses are accumulated and printed as a JSON
array once the stream completes; for client-streaming or bidirectional
methods use "protoloom stream" instead.`,
	Example: `  # Call a unary method over plaintext h2c
  protoloom call --proto ./echo.proto --service Echo --method Say \
    --endpoint localhost:50051 --data '{"text":"hi"}'`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if callService == "" {
			return errMissingService
		}
		if callMethod == "" {
			return errMissingMethod
		}
		protoContent, roots, err := schemaSource(callProtoFile, callImportPaths)
		if err != nil {
			return err
		}
		if protoContent == "" && len(roots) == 0 {
			return errMissingSchema
		}

		e, err := newEngineFromFlags(func(ev callexec.StreamEvent) {
			_ = printJSON(ev)
		})
		if err != nil {
			return err
		}

		payload := map[string]interface{}{
			"service":       callService,
			"method":        callMethod,
			"endpoint":      callEndpoint,
			"proto_content": protoContent,
			"import_paths":  roots,
			"metadata":      parseMetadata(callMetadata),
			"auth":          buildAuth(),
			"tls_config":    buildTLS(),
		}
		if callData != "" {
			payload["request_data"] = json.RawMessage(callData)
		}

		return dispatchRaw(cmd.Context(), e, engine.OpUnaryCall, payload)
	},
}

func parseMetadata(pairs []string) map[string]string {
	if len(pairs) == 0 {
		return nil
	}
	md := make(map[string]string, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok {
			continue
		}
		md[k] = v
	}
	return md
}

func buildAuth() map[string]interface{} {
	switch {
	case callAuthBearer != "":
		return map[string]interface{}{"kind": "bearer", "token": callAuthBearer}
	case callAuthBasicUser != "" || callAuthBasicPass != "":
		return map[string]interface{}{"kind": "basic", "username": callAuthBasicUser, "password": callAuthBasicPass}
	case callAuthAPIKeyHeader != "":
		return map[string]interface{}{"kind": "api_key", "header_name": callAuthAPIKeyHeader, "value": callAuthAPIKeyValue}
	default:
		return map[string]interface{}{"kind": "none"}
	}
}

func buildTLS() map[string]interface{} {
	return map[string]interface{}{
		"enabled":              callTLSEnabled,
		"client_cert":          callTLSClientCert,
		"client_key":           callTLSClientKey,
		"server_ca":            callTLSServerCA,
		"insecure_skip_verify": callTLSInsecure,
	}
}

func init() {
	callCmd.Flags().StringVar(&callProtoFile, "proto", "", "Path to a .proto source file")
	callCmd.Flags().StringArrayVar(&callImportPaths, "import", nil, "Import root (directory or .proto file); repeatable")
	callCmd.Flags().StringVar(&callService, "service", "", "Service name (fully qualified or simple)")
	callCmd.Flags().StringVar(&callMethod, "method", "", "Method name")
	callCmd.Flags().StringVar(&callEndpoint, "endpoint", "", "host:port of the gRPC endpoint")
	callCmd.Flags().StringVar(&callData, "data", "", "Request body as JSON")
	callCmd.Flags().StringArrayVar(&callMetadata, "metadata", nil, "Extra header as key=value; repeatable")

	callCmd.Flags().StringVar(&callAuthBearer, "auth-bearer", "", "Bearer token")
	callCmd.Flags().StringVar(&callAuthBasicUser, "auth-basic-user", "", "Basic auth username")
	callCmd.Flags().StringVar(&callAuthBasicPass, "auth-basic-pass", "", "Basic auth password")
	callCmd.Flags().StringVar(&callAuthAPIKeyHeader, "auth-api-key-header", "", "API key header name")
	callCmd.Flags().StringVar(&callAuthAPIKeyValue, "auth-api-key-value", "", "API key header value")

	callCmd.Flags().BoolVar(&callTLSEnabled, "tls", false, "Use TLS instead of plaintext h2c")
	callCmd.Flags().StringVar(&callTLSClientCert, "tls-client-cert", "", "Client certificate path (mTLS)")
	callCmd.Flags().StringVar(&callTLSClientKey, "tls-client-key", "", "Client key path (mTLS)")
	callCmd.Flags().StringVar(&callTLSServerCA, "tls-server-ca", "", "Server CA certificate path")
	callCmd.Flags().BoolVar(&callTLSInsecure, "tls-insecure-skip-verify", false, "Skip server certificate verification (development only)")

	rootCmd.AddCommand(callCmd)
}
