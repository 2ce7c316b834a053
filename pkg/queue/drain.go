package queue

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/codeready-toolchain/triage/pkg/metrics"
	"github.com/codeready-toolchain/triage/pkg/models"
)

// Config configures one DrainLoop (spec.md §4.8/§6).
type Config struct {
	// WorkerCount bounds how many inquiries are processed concurrently
	// within a single Run (spec.md §6 drain_worker_count, default 4).
	WorkerCount int
	// PerInquiryTimeout bounds how long a single inquiry's classify+route+
	// persist chain may run before it is abandoned as a failure.
	PerInquiryTimeout time.Duration
	// SoftDeadline bounds the whole Run call; inquiries still in flight
	// when it elapses are abandoned, their in-progress lease expiring
	// naturally for the next drain tick to retry.
	SoftDeadline time.Duration
	// LeaseDuration is how long a fetched inquiry is protected from being
	// claimed again by a concurrent drain invocation.
	LeaseDuration time.Duration
	// MaxProcessingAttempts is the poison-quarantine threshold (spec.md
	// §4.8, default 5).
	MaxProcessingAttempts int
}

// DrainLoop runs one bounded pass over unprocessed inquiries: fetch a
// batch, fan it out across Config.WorkerCount workers, and record either a
// successful classification+routing result or a failure per inquiry.
type DrainLoop struct {
	classifier Classifier
	normalize  Normalizer
	router     Router
	store      Store
	metrics    metrics.Sink
	cfg        Config
}

// NewDrainLoop constructs a DrainLoop. metrics may be nil, in which case a
// NoopSink is used. normalize turns each inquiry's raw subject/body into the
// canonical text handed to classifier (spec.md §4.1); it must not be nil.
func NewDrainLoop(classifier Classifier, normalize Normalizer, router Router, store Store, sink metrics.Sink, cfg Config) *DrainLoop {
	if sink == nil {
		sink = metrics.NoopSink{}
	}
	if cfg.WorkerCount < 1 {
		cfg.WorkerCount = 1
	}
	return &DrainLoop{classifier: classifier, normalize: normalize, router: router, store: store, metrics: sink, cfg: cfg}
}

// Run fetches up to batchLimit unprocessed inquiries and drains them. A
// batchLimit of 0 means unbounded (spec.md §4.8's rule-based-mode default).
func (d *DrainLoop) Run(ctx context.Context, batchLimit int) (Result, error) {
	start := time.Now()

	runCtx := ctx
	var cancel context.CancelFunc
	if d.cfg.SoftDeadline > 0 {
		runCtx, cancel = context.WithTimeout(ctx, d.cfg.SoftDeadline)
		defer cancel()
	}

	inquiries, err := d.store.FetchUnprocessed(runCtx, batchLimit, d.cfg.LeaseDuration)
	if err != nil {
		return Result{}, err
	}

	result := Result{Fetched: len(inquiries)}
	d.metrics.DrainFetched(len(inquiries))

	if len(inquiries) == 0 {
		result.Duration = time.Since(start)
		return result, nil
	}

	jobs := make(chan models.Inquiry)
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < d.cfg.WorkerCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for inq := range jobs {
				d.processOne(runCtx, inq, &mu, &result)
			}
		}()
	}

dispatch:
	for _, inq := range inquiries {
		select {
		case jobs <- inq:
		case <-runCtx.Done():
			// Soft deadline hit mid-dispatch: remaining inquiries stay
			// claimed under their lease and fall back into the next tick's
			// fetch once it expires.
			break dispatch
		}
	}
	close(jobs)
	wg.Wait()

	result.Duration = time.Since(start)
	return result, nil
}

func (d *DrainLoop) processOne(ctx context.Context, inq models.Inquiry, mu *sync.Mutex, result *Result) {
	itemCtx := ctx
	var cancel context.CancelFunc
	if d.cfg.PerInquiryTimeout > 0 {
		itemCtx, cancel = context.WithTimeout(ctx, d.cfg.PerInquiryTimeout)
		defer cancel()
	}

	log := slog.With("inquiry_id", inq.ID)
	started := time.Now()

	canonical, err := d.normalize(inq.Subject, inq.Body)
	if err != nil {
		d.recordFailure(itemCtx, inq, err, mu, result, log)
		return
	}

	triple, err := d.classifier.Predict(itemCtx, canonical)
	if err != nil {
		d.recordFailure(itemCtx, inq, err, mu, result, log)
		return
	}

	// Same category-derived skill tag the synchronous submit path passes.
	decision := d.router.Decide(itemCtx, inq.ID, triple, []string{string(triple.Category)})

	pred := models.Prediction{
		InquiryID:           inq.ID,
		Category:            triple.Category,
		CategoryConfidence:  triple.CategoryConfidence,
		Sentiment:           triple.Sentiment,
		SentimentConfidence: triple.SentimentConfidence,
		Urgency:             triple.Urgency,
		UrgencyConfidence:   triple.UrgencyConfidence,
		ModelIdentifier:     triple.ModelIdentifier,
		ClassifiedAt:        time.Now(),
	}

	if err := d.store.RecordResult(itemCtx, inq.ID, pred, decision); err != nil {
		if errors.Is(err, models.ErrPersistenceConflict) {
			// A concurrent drain invocation already finalized this
			// inquiry under an overlapping lease window.
			mu.Lock()
			result.SkippedInflight++
			mu.Unlock()
			d.metrics.DrainSkippedInflight(1)
			return
		}
		d.recordFailure(itemCtx, inq, err, mu, result, log)
		return
	}

	duration := time.Since(started)
	d.metrics.ObserveProcessingDuration(duration)
	mu.Lock()
	result.Succeeded++
	mu.Unlock()
	d.metrics.DrainSucceeded(1)
	log.Info("inquiry processed", "category", triple.Category, "department", decision.Department, "duration", duration)
}

func (d *DrainLoop) recordFailure(ctx context.Context, inq models.Inquiry, cause error, mu *sync.Mutex, result *Result, log *slog.Logger) {
	maxAttempts := d.cfg.MaxProcessingAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	// RecordFailure uses a background context: the inquiry must still be
	// marked failed even if itemCtx's timeout already fired.
	if err := d.store.RecordFailure(context.Background(), inq.ID, cause.Error(), maxAttempts); err != nil {
		log.Error("failed to record inquiry failure", "cause", cause, "record_error", err)
	}

	poisoned := inq.ProcessingAttempts+1 > maxAttempts

	mu.Lock()
	result.Failed++
	if poisoned {
		result.Poisoned++
	}
	mu.Unlock()

	d.metrics.DrainFailed(1)
	if poisoned {
		d.metrics.DrainPoisoned(1)
	}

	log.Warn("inquiry processing failed", "error", cause, "attempt", inq.ProcessingAttempts+1)
}
