// Package queue implements the Batch Drain Loop: a single bounded pass
// over unprocessed inquiries, fanned out across a small worker pool,
// following this team's worker-pool shape (pkg/queue's session workers)
// adapted from continuous polling to one-shot batch draining.
package queue

import (
	"context"
	"errors"
	"time"

	"github.com/codeready-toolchain/triage/pkg/models"
)

// ErrNoInquiriesAvailable is a sentinel for a fetch that finds nothing to
// process. Nothing in this package returns it: Run reports an empty fetch
// as a Result with Fetched == 0 and a nil error.
var ErrNoInquiriesAvailable = errors.New("no inquiries available")

// Classifier is the capability the drain loop depends on to turn canonical
// text into a PredictionTriple. Satisfied by *classifier.Host.
type Classifier interface {
	Predict(ctx context.Context, text string) (models.PredictionTriple, error)
}

// Normalizer turns a raw subject/body pair into canonical classifier input
// (spec.md §4.1). Satisfied by classifier.Normalize.
type Normalizer func(subject, body string) (string, error)

// Router is the capability the drain loop depends on to turn a
// PredictionTriple into a RoutingDecision. Satisfied by *routing.Engine.
type Router interface {
	Decide(ctx context.Context, inquiryID string, triple models.PredictionTriple, skillTags []string) models.RoutingDecision
}

// Store is the persistence capability the drain loop depends on. Satisfied
// by *storage.Repository.
type Store interface {
	FetchUnprocessed(ctx context.Context, limit int, leaseDuration time.Duration) ([]models.Inquiry, error)
	RecordResult(ctx context.Context, inquiryID string, pred models.Prediction, decision models.RoutingDecision) error
	RecordFailure(ctx context.Context, inquiryID, reason string, maxAttempts int) error
}

// Result summarizes one drain invocation (spec.md §4.8's required counters).
type Result struct {
	Fetched         int
	Succeeded       int
	Failed          int
	SkippedInflight int
	Poisoned        int
	Duration        time.Duration
}
