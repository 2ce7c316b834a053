// Package triage wires the classification and routing core into the
// single façade external collaborators depend on (spec.md §6): the
// synchronous submit path, the debug classify-only path, the batch drain
// entry point, and the two read-only projections. Grounded on this team's
// services package, where each top-level operation lives behind one
// service with an explicit input struct and nil-checking constructor.
package triage

import (
	"context"
	"fmt"
	"net/mail"
	"time"
	"unicode/utf8"

	"github.com/codeready-toolchain/triage/pkg/classifier"
	"github.com/codeready-toolchain/triage/pkg/metrics"
	"github.com/codeready-toolchain/triage/pkg/models"
	"github.com/codeready-toolchain/triage/pkg/queue"
	"github.com/codeready-toolchain/triage/pkg/storage"
)

// Classifier is the prediction capability the service depends on.
// Satisfied by *classifier.Host.
type Classifier interface {
	Predict(ctx context.Context, text string) (models.PredictionTriple, error)
}

// Router is the routing capability the service depends on. Satisfied by
// *routing.Engine.
type Router interface {
	Decide(ctx context.Context, inquiryID string, triple models.PredictionTriple, skillTags []string) models.RoutingDecision
}

// Store is the persistence capability the service depends on. It is the
// union of what the synchronous submit path needs and what the drain
// loop needs (queue.Store), so one *storage.Repository can satisfy both
// without an adapter. Satisfied by *storage.Repository.
type Store interface {
	InsertInquiry(ctx context.Context, inq *models.Inquiry) error
	RecordResult(ctx context.Context, inquiryID string, pred models.Prediction, decision models.RoutingDecision) error
	FindInquiry(ctx context.Context, id string) (*storage.CombinedView, error)
	Statistics(ctx context.Context, window time.Duration) (models.Stats, error)
	FetchUnprocessed(ctx context.Context, limit int, leaseDuration time.Duration) ([]models.Inquiry, error)
	RecordFailure(ctx context.Context, inquiryID, reason string, maxAttempts int) error
}

// Service implements classify_and_route, classify_text, drain_unprocessed,
// find_inquiry, and statistics (spec.md §6).
type Service struct {
	classifier Classifier
	router     Router
	store      Store
	drain      *queue.DrainLoop
	metrics    metrics.Sink
	drainCfg   DrainBatchConfig
	usingHost  func() bool // Host.UsingLearned, nil when classifier isn't a *classifier.Host
}

// DrainBatchConfig holds the mode-dependent batch limits drain_unprocessed
// picks between (spec.md §4.8/§6): unbounded under the rule-based path,
// capped under the learned path.
type DrainBatchConfig struct {
	BatchLimitRuleBased int
	BatchLimitLearned   int
}

// learnedModeReporter is implemented by *classifier.Host. Asserted
// optionally so drain_unprocessed can pick its batch limit without
// requiring every Classifier (e.g. test fakes) to implement it.
type learnedModeReporter interface {
	UsingLearned() bool
}

// New constructs a Service.
func New(classifierImpl Classifier, router Router, store Store, sink metrics.Sink, drainCfg DrainBatchConfig, loopCfg queue.Config) *Service {
	if classifierImpl == nil {
		panic("triage.New: classifierImpl must not be nil")
	}
	if router == nil {
		panic("triage.New: router must not be nil")
	}
	if store == nil {
		panic("triage.New: store must not be nil")
	}
	if sink == nil {
		sink = metrics.NoopSink{}
	}

	loop := queue.NewDrainLoop(classifierImpl, classifier.Normalize, router, store, sink, loopCfg)

	var usingHost func() bool
	if reporter, ok := classifierImpl.(learnedModeReporter); ok {
		usingHost = reporter.UsingLearned
	}

	return &Service{
		classifier: classifierImpl,
		router:     router,
		store:      store,
		drain:      loop,
		metrics:    sink,
		drainCfg:   drainCfg,
		usingHost:  usingHost,
	}
}

// SubmitInput is classify_and_route's request shape (spec.md §6).
type SubmitInput struct {
	Subject     string
	Body        string
	SenderEmail string
	SenderName  string
	Metadata    map[string]any
}

// Submit implements classify_and_route: normalize, predict, decide, and
// persist all three records, returning the inquiry ID and the computed
// Prediction/RoutingDecision (spec.md §6).
func (s *Service) Submit(ctx context.Context, in SubmitInput) (string, models.Prediction, models.RoutingDecision, error) {
	if err := validateSubmitInput(in); err != nil {
		return "", models.Prediction{}, models.RoutingDecision{}, err
	}

	inq := &models.Inquiry{
		Subject:     in.Subject,
		Body:        in.Body,
		SenderEmail: in.SenderEmail,
		SenderName:  in.SenderName,
		Metadata:    in.Metadata,
	}
	if err := s.store.InsertInquiry(ctx, inq); err != nil {
		return "", models.Prediction{}, models.RoutingDecision{}, fmt.Errorf("insert inquiry: %w", err)
	}

	canonical, err := classifier.Normalize(in.Subject, in.Body)
	if err != nil {
		return "", models.Prediction{}, models.RoutingDecision{}, fmt.Errorf("normalize inquiry %s: %w", inq.ID, err)
	}

	triple, err := s.classifier.Predict(ctx, canonical)
	if err != nil {
		return "", models.Prediction{}, models.RoutingDecision{}, fmt.Errorf("classify inquiry %s: %w", inq.ID, err)
	}

	decision := s.router.Decide(ctx, inq.ID, triple, skillTagsFor(triple.Category))

	pred := models.Prediction{
		InquiryID:           inq.ID,
		Category:            triple.Category,
		CategoryConfidence:  triple.CategoryConfidence,
		Sentiment:           triple.Sentiment,
		SentimentConfidence: triple.SentimentConfidence,
		Urgency:             triple.Urgency,
		UrgencyConfidence:   triple.UrgencyConfidence,
		ModelIdentifier:     triple.ModelIdentifier,
		ClassifiedAt:        time.Now().UTC(),
	}

	if err := s.store.RecordResult(ctx, inq.ID, pred, decision); err != nil {
		return "", models.Prediction{}, models.RoutingDecision{}, fmt.Errorf("record result for %s: %w", inq.ID, err)
	}

	return inq.ID, pred, decision, nil
}

// ClassifyText implements classify_text: runs the predictors against raw
// text without persisting anything, for test/debug entry points (spec.md
// §6). includeAllScores controls whether the category predictor's full
// per-category score map is retained in the result.
func (s *Service) ClassifyText(ctx context.Context, subject, body string, includeAllScores bool) (models.PredictionTriple, error) {
	canonical, err := classifier.Normalize(subject, body)
	if err != nil {
		return models.PredictionTriple{}, err
	}
	triple, err := s.classifier.Predict(ctx, canonical)
	if err != nil {
		return models.PredictionTriple{}, err
	}
	if !includeAllScores {
		triple.CategoryAllScores = nil
	}
	return triple, nil
}

// Drain implements drain_unprocessed: one bounded pass over unprocessed
// inquiries (spec.md §6). The batch limit is unbounded under the
// rule-based path and capped under the learned path (spec.md §4.8).
func (s *Service) Drain(ctx context.Context) (queue.Result, error) {
	limit := s.drainCfg.BatchLimitRuleBased
	if s.usingHost != nil && s.usingHost() {
		limit = s.drainCfg.BatchLimitLearned
	}
	return s.drain.Run(ctx, limit)
}

// FindInquiry implements find_inquiry (spec.md §6).
func (s *Service) FindInquiry(ctx context.Context, id string) (*storage.CombinedView, error) {
	return s.store.FindInquiry(ctx, id)
}

// Statistics implements statistics(days?) (spec.md §6). A zero window
// means "all time".
func (s *Service) Statistics(ctx context.Context, window time.Duration) (models.Stats, error) {
	return s.store.Statistics(ctx, window)
}

func validateSubmitInput(in SubmitInput) error {
	if n := utf8.RuneCountInString(in.Subject); n < 1 || n > 500 {
		return models.NewValidationError("subject", "must be 1-500 characters")
	}
	if n := utf8.RuneCountInString(in.Body); n < 1 || n > 10000 {
		return models.NewValidationError("body", "must be 1-10000 characters")
	}
	if _, err := mail.ParseAddress(in.SenderEmail); err != nil {
		return models.NewValidationError("sender_email", "must be a valid email address")
	}
	return nil
}

// skillTagsFor derives the routing engine's skill-tags argument from
// category, per spec.md §4.6 ("skill-tags derived from category"): the
// category name itself is the one tag a skill_match roster entry can
// require.
func skillTagsFor(category models.Category) []string {
	return []string{string(category)}
}
