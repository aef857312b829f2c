package main

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/protoloom/protoloom/pkg/metrics"
)

var metricsAddr string

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Serve Prometheus-format metrics over HTTP",
	Long: `metrics starts a small HTTP server exposing the process's counters and
histograms (calls, call duration, active streams, stream messages,
descriptor compiles, and classified errors) at GET /metrics, in the
Prometheus text exposition format.`,
	Example: `  protoloom metrics --addr :9090`,
	RunE: func(cmd *cobra.Command, args []string) error {
		registry := metrics.DefaultRegistry()
		if registry == nil {
			registry = metrics.Init()
		}
		mux := http.NewServeMux()
		mux.Handle("GET /metrics", registry.Handler())
		fmt.Fprintf(cmd.OutOrStdout(), "serving metrics on %s/metrics\n", metricsAddr)
		return http.ListenAndServe(metricsAddr, mux) //nolint:gosec
	},
}

func init() {
	metricsCmd.Flags().StringVar(&metricsAddr, "addr", ":9090", "Address to listen on")
	rootCmd.AddCommand(metricsCmd)
}
