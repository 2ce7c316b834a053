// Package metrics defines the Metrics Sink capability the Batch Drain
// Loop reports against (spec.md §4.8) and a Prometheus-backed
// implementation, grounded on this team's observability package.
package metrics

import "time"

// Sink is the capability the drain loop and classification core depend
// on. It is injected, not a package-level global, so tests can substitute
// a recording implementation.
type Sink interface {
	DrainFetched(n int)
	DrainSucceeded(n int)
	DrainFailed(n int)
	DrainSkippedInflight(n int)
	DrainPoisoned(n int)
	ObserveProcessingDuration(d time.Duration)
	FallbackActivated(modality string)
}
