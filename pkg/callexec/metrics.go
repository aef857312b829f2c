package callexec

import "github.com/protoloom/protoloom/pkg/metrics"

// recordActiveStreams publishes the registry's current size to the
// protoloom_active_streams gauge. Called after every Insert/Remove so the
// gauge never drifts from the registry it mirrors.
func recordActiveStreams(count int) {
	if metrics.ActiveStreams != nil {
		metrics.ActiveStreams.Set(float64(count))
	}
}
