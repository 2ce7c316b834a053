package triage

import (
	"log/slog"

	"github.com/codeready-toolchain/triage/pkg/classifier"
	"github.com/codeready-toolchain/triage/pkg/metrics"
)

// fallbackListener adapts classifier.FallbackListener (modality + reason,
// for logging) to metrics.Sink.FallbackActivated (modality only, for the
// fallback_activated counter) — the two sinks were designed independently
// for different consumers and don't share a shape.
type fallbackListener struct {
	sink metrics.Sink
}

// NewFallbackListener builds the classifier.FallbackListener passed into
// classifier.HostConfig, logging the fallback reason and forwarding the
// modality to sink.
func NewFallbackListener(sink metrics.Sink) classifier.FallbackListener {
	return fallbackListener{sink: sink}
}

func (f fallbackListener) FallbackActivated(modality, reason string) {
	slog.Warn("predictor fell back to rule-based backend", "modality", modality, "reason", reason)
	f.sink.FallbackActivated(modality)
}
