package metrics

import "sync"

// Default metrics for the dynamic gRPC runtime.
// These are initialized by calling Init().
var (
	// CallsTotal counts the total number of calls executed.
	// Labels: service, method, mode (unary/server_streaming/client_streaming/bidirectional_streaming), status
	CallsTotal *Counter

	// CallDuration tracks the duration of calls in seconds.
	// Labels: service, method, mode
	CallDuration *Histogram

	// ActiveStreams is a gauge of the number of streams currently open in the registry.
	ActiveStreams *Gauge

	// StreamMessagesTotal counts stream-message events emitted.
	// Labels: service, method, direction (sent/received)
	StreamMessagesTotal *Counter

	// DescriptorCompilesTotal counts descriptor compiler invocations.
	// Labels: status (ok/error)
	DescriptorCompilesTotal *Counter

	// ErrorsTotal counts call errors by classification category.
	// Labels: category
	ErrorsTotal *Counter

	// defaultRegistry is the global metrics registry.
	defaultRegistry *Registry

	// initOnce ensures Init() is only called once.
	initOnce sync.Once
)

// Init initializes the default metrics and returns the registry.
// This function is idempotent and safe to call multiple times.
func Init() *Registry {
	initOnce.Do(func() {
		defaultRegistry = NewRegistry()

		CallsTotal = defaultRegistry.NewCounter(
			"protoloom_calls_total",
			"Total number of gRPC calls executed",
			"service", "method", "mode", "status",
		)

		CallDuration = defaultRegistry.NewHistogram(
			"protoloom_call_duration_seconds",
			"Duration of gRPC calls in seconds",
			DefaultBuckets,
			"service", "method", "mode",
		)

		ActiveStreams = defaultRegistry.NewGauge(
			"protoloom_active_streams",
			"Number of streams currently held in the stream registry",
		)

		StreamMessagesTotal = defaultRegistry.NewCounter(
			"protoloom_stream_messages_total",
			"Total number of stream messages sent or received",
			"service", "method", "direction",
		)

		DescriptorCompilesTotal = defaultRegistry.NewCounter(
			"protoloom_descriptor_compiles_total",
			"Total number of descriptor compiler invocations",
			"status",
		)

		ErrorsTotal = defaultRegistry.NewCounter(
			"protoloom_errors_total",
			"Total number of call errors by classification category",
			"category",
		)
	})

	return defaultRegistry
}

// DefaultRegistry returns the default metrics registry.
// Returns nil if Init() has not been called.
func DefaultRegistry() *Registry {
	return defaultRegistry
}

// Reset resets all default metrics. Useful for testing.
// This also resets the initOnce, allowing Init() to be called again.
func Reset() {
	initOnce = sync.Once{}
	defaultRegistry = nil
	CallsTotal = nil
	CallDuration = nil
	ActiveStreams = nil
	StreamMessagesTotal = nil
	DescriptorCompilesTotal = nil
	ErrorsTotal = nil
}
