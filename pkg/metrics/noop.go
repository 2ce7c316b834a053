package metrics

import "time"

// NoopSink discards every metric. Used by tests and by classify_text's
// debug entry point, which does not touch the drain loop.
type NoopSink struct{}

func (NoopSink) DrainFetched(int)                       {}
func (NoopSink) DrainSucceeded(int)                      {}
func (NoopSink) DrainFailed(int)                         {}
func (NoopSink) DrainSkippedInflight(int)                {}
func (NoopSink) DrainPoisoned(int)                       {}
func (NoopSink) ObserveProcessingDuration(time.Duration) {}
func (NoopSink) FallbackActivated(string)                {}
