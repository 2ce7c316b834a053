package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	drainFetched = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "triage_drain_fetched_total",
		Help: "Total number of inquiries fetched by a drain invocation.",
	})
	drainSucceeded = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "triage_drain_succeeded_total",
		Help: "Total number of inquiries successfully classified and routed.",
	})
	drainFailed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "triage_drain_failed_total",
		Help: "Total number of inquiries that failed processing in a drain invocation.",
	})
	drainSkippedInflight = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "triage_drain_skipped_inflight_total",
		Help: "Total number of inquiries skipped because another worker already claimed them.",
	})
	drainPoisoned = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "triage_drain_poisoned_total",
		Help: "Total number of inquiries moved to the poison state.",
	})
	processingDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "triage_inquiry_processing_duration_seconds",
		Help:    "Wall-clock duration of per-inquiry classification and routing.",
		Buckets: prometheus.DefBuckets,
	})
	fallbackActivated = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "triage_fallback_activated_total",
		Help: "Total number of permanent learned-to-rule-based fallbacks, by predictor modality.",
	}, []string{"modality"})

	registerOnce sync.Once
)

// PrometheusSink records the drain loop's metrics via prometheus/client_golang.
type PrometheusSink struct{}

// NewPrometheusSink registers the package's collectors with the default
// registry at most once and returns a Sink backed by them.
func NewPrometheusSink() *PrometheusSink {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			drainFetched, drainSucceeded, drainFailed, drainSkippedInflight,
			drainPoisoned, processingDuration, fallbackActivated,
		)
	})
	return &PrometheusSink{}
}

func (PrometheusSink) DrainFetched(n int)         { drainFetched.Add(float64(n)) }
func (PrometheusSink) DrainSucceeded(n int)       { drainSucceeded.Add(float64(n)) }
func (PrometheusSink) DrainFailed(n int)          { drainFailed.Add(float64(n)) }
func (PrometheusSink) DrainSkippedInflight(n int) { drainSkippedInflight.Add(float64(n)) }
func (PrometheusSink) DrainPoisoned(n int)        { drainPoisoned.Add(float64(n)) }

func (PrometheusSink) ObserveProcessingDuration(d time.Duration) {
	processingDuration.Observe(d.Seconds())
}

func (PrometheusSink) FallbackActivated(modality string) {
	fallbackActivated.WithLabelValues(modality).Inc()
}
