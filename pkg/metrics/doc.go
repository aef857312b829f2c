// Package metrics provides Prometheus-compatible metrics collection for the
// dynamic gRPC runtime.
//
// This package implements the Prometheus text exposition format (text/plain; version=0.0.4)
// without any external dependencies, using only the standard library.
//
// Supported metric types:
//   - Counter: monotonically increasing value (e.g., call counts)
//   - Gauge: value that can go up or down (e.g., active streams)
//   - Histogram: distribution of values with configurable buckets (e.g., call latency)
//
// All metrics are thread-safe and can be updated from multiple goroutines.
//
// # Default Metrics
//
// The package provides pre-defined metrics for tracking call executor activity:
//
//   - protoloom_calls_total: Counter for calls executed (labels: service, method, mode, status)
//   - protoloom_call_duration_seconds: Histogram for call latency (labels: service, method, mode)
//   - protoloom_active_streams: Gauge for streams currently held by the stream registry
//   - protoloom_stream_messages_total: Counter for stream-message events (labels: service, method, direction)
//   - protoloom_descriptor_compiles_total: Counter for descriptor compiler invocations (labels: status)
//   - protoloom_errors_total: Counter for classified call errors (labels: category)
//
// # Usage
//
//	// Initialize the default metrics registry
//	registry := metrics.Init()
//
//	if calls, err := metrics.CallsTotal.WithLabels("echo.Echo", "Say", "unary", "success"); err == nil {
//		_ = calls.Inc()
//	}
//	if latency, err := metrics.CallDuration.WithLabels("echo.Echo", "Say", "unary"); err == nil {
//		latency.Observe(0.123)
//	}
//	_ = metrics.ActiveStreams.Set(float64(streams.Count())) // streams is a *streamreg.Registry
//
//	// Register the /metrics endpoint
//	http.Handle("/metrics", registry.Handler())
//
// Custom metrics can also be created:
//
//	registry := metrics.NewRegistry()
//	counter := registry.NewCounter("my_counter", "Description of counter", "label1", "label2")
//	if vec, err := counter.WithLabels("value1", "value2"); err == nil {
//		_ = vec.Inc()
//	}
package metrics
