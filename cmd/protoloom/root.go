package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/protoloom/protoloom/pkg/logging"
	"github.com/protoloom/protoloom/pkg/metrics"
	"github.com/protoloom/protoloom/pkg/runtimeconfig"
)

var (
	configPath string
	protocPath string
	logLevel   string
	logFormat  string
	lokiURL    string

	// Version is injected during build.
	Version = "dev"
)

var rootCmd = &cobra.Command{
	Use:   "protoloom",
	Short: "protoloom explores and invokes gRPC services without generated stubs",
	Long: `protoloom compiles .proto sources on the fly and lets you list services,
synthesize sample request bodies, and invoke unary, streaming, and
bidirectional RPCs against a live endpoint — all from reflective
descriptors, no codegen required.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		metrics.Init()
	},
}

// Execute adds all child commands to the root command and runs it. Called
// once from main.main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a protoloom runtime config file (YAML)")
	rootCmd.PersistentFlags().StringVar(&protocPath, "protoc-path", "", "Override the protoc binary used to compile .proto sources")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Log format (text, json)")
	rootCmd.PersistentFlags().StringVar(&lokiURL, "loki-url", "", "Also ship logs to a Loki push endpoint (e.g. http://localhost:3100/loki/api/v1/push)")
}

// cliLogger builds a logger at the configured level and format, writing to
// stderr so stdout stays reserved for command output. When --loki-url is
// set, logs fan out to both stderr and Loki via a MultiHandler.
func cliLogger() *slog.Logger {
	base := logging.New(logging.Config{
		Level:  logging.ParseLevel(logLevel),
		Format: logging.ParseFormat(logFormat),
		Output: os.Stderr,
	})
	if lokiURL == "" {
		return base
	}

	opts := &slog.HandlerOptions{Level: logging.ParseLevel(logLevel)}
	var stderrHandler slog.Handler
	if logging.ParseFormat(logFormat) == logging.FormatJSON {
		stderrHandler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		stderrHandler = slog.NewTextHandler(os.Stderr, opts)
	}
	loki := logging.NewLokiHandler(lokiURL,
		logging.WithLokiLevel(logging.ParseLevel(logLevel)),
		logging.WithLokiLabels(map[string]string{"app": "protoloom"}))
	return slog.New(logging.NewMultiHandler(stderrHandler, loki))
}

// loadRuntimeConfig loads the configured config file, or falls back to
// runtimeconfig.Default() when --config was not given.
func loadRuntimeConfig() (*runtimeconfig.RuntimeConfig, error) {
	if configPath == "" {
		cfg := runtimeconfig.Default()
		return &cfg, nil
	}
	return runtimeconfig.LoadFromFile(configPath)
}

// resolveProtocPath applies the --protoc-path override over the config
// file's protoc_path, in that precedence order.
func resolveProtocPath(cfg *runtimeconfig.RuntimeConfig) string {
	if protocPath != "" {
		return protocPath
	}
	return cfg.ProtocPath
}

