package classifier

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/codeready-toolchain/triage/pkg/models"
)

// FallbackListener is notified when a modality permanently falls back from
// its learned backend to its rule-based backend in auto mode (spec.md
// §4.5's fallback_activated event). Grounded on this team's capability-sink
// pattern: the Host depends on the interface, never a concrete sink.
type FallbackListener interface {
	FallbackActivated(modality, reason string)
}

// noopFallbackListener discards fallback_activated events.
type noopFallbackListener struct{}

func (noopFallbackListener) FallbackActivated(string, string) {}

// HostConfig configures Predictor Host construction (spec.md §4.5).
type HostConfig struct {
	// Mode is the configured use_rule_based tri-state.
	Mode models.BackendMode
	// AvailableMemoryBytes is the environment probe result. Zero means
	// "unknown", which this Host treats as below threshold (safest default).
	AvailableMemoryBytes uint64
	// MemoryThresholdBytes is the minimum resident memory required to
	// attempt a learned backend. Defaults to 16 GiB per spec.md §4.5.
	MemoryThresholdBytes uint64

	CategoryModelPath  string
	SentimentModelPath string

	Listener FallbackListener
}

const defaultMemoryThresholdBytes = 16 << 30 // 16 GiB

// modalityState tracks one predictor modality's current effective backend.
// The load-at-most-once, concurrent-callers-coalesce guarantee spec.md
// §4.5 requires is provided by each learned backend's own mutex-guarded
// ensureLoaded (category.go, sentiment.go); this state only latches the
// permanent auto-mode fallback decision.
type modalityState struct {
	// usingRuleBased latches to true the first time an auto-mode fallback
	// fires, and stays there for the process lifetime (spec.md §4.5).
	usingRuleBased atomic.Bool
}

// Host owns the three predictors, loads learned backends lazily, and
// exposes a single uniform Predict method (spec.md §4.5).
type Host struct {
	mode       models.BackendMode
	listener   FallbackListener
	useLearned bool // decided once at construction from mode + memory probe

	categoryLearned  CategoryBackend
	categoryRule     CategoryBackend
	sentimentLearned SentimentBackend
	sentimentRule    SentimentBackend
	urgency          UrgencyBackend

	categoryState  modalityState
	sentimentState modalityState
}

// NewHost constructs a Predictor Host per spec.md §4.5's backend-selection
// table. Urgency has no learned backend and always uses the rule-based
// cascade.
func NewHost(cfg HostConfig) (*Host, error) {
	if !cfg.Mode.IsValid() {
		return nil, fmt.Errorf("invalid backend mode %q: %w", cfg.Mode, models.ErrInvalidInput)
	}

	threshold := cfg.MemoryThresholdBytes
	if threshold == 0 {
		threshold = defaultMemoryThresholdBytes
	}

	listener := cfg.Listener
	if listener == nil {
		listener = noopFallbackListener{}
	}

	probeBelowThreshold := cfg.AvailableMemoryBytes < threshold

	var useLearned bool
	switch cfg.Mode {
	case models.BackendModeForce:
		useLearned = false
	case models.BackendModeOff:
		useLearned = true
	case models.BackendModeAuto:
		useLearned = !probeBelowThreshold
	}

	return &Host{
		mode:             cfg.Mode,
		listener:         listener,
		useLearned:       useLearned,
		categoryLearned:  NewLearnedCategoryBackend(cfg.CategoryModelPath),
		categoryRule:     NewRuleBasedCategoryBackend(),
		sentimentLearned: NewLearnedSentimentBackend(cfg.SentimentModelPath),
		sentimentRule:    NewRuleBasedSentimentBackend(),
		urgency:          NewRuleBasedUrgencyBackend(),
	}, nil
}

// Predict runs all three predictors against canonical text and composes
// their outputs into a PredictionTriple (spec.md §4.5 / GLOSSARY).
func (h *Host) Predict(ctx context.Context, text string) (models.PredictionTriple, error) {
	catResult, catBackendName, err := h.predictCategory(ctx, text)
	if err != nil {
		return models.PredictionTriple{}, err
	}

	sentResult, sentBackendName, err := h.predictSentiment(ctx, text)
	if err != nil {
		return models.PredictionTriple{}, err
	}

	urgResult, err := h.urgency.PredictUrgency(ctx, text)
	if err != nil {
		return models.PredictionTriple{}, fmt.Errorf("urgency prediction: %w", models.ErrClassificationError)
	}

	return models.PredictionTriple{
		Category:            catResult.Category,
		CategoryConfidence:  catResult.Confidence,
		CategoryAllScores:   catResult.AllScores,
		Sentiment:           sentResult.Sentiment,
		SentimentConfidence: sentResult.Confidence,
		Urgency:             urgResult.Urgency,
		UrgencyConfidence:   urgResult.Confidence,
		ModelIdentifier:     fmt.Sprintf("%s+%s+%s", catBackendName, sentBackendName, h.urgency.Name()),
	}, nil
}

// UsingLearned reports whether any modality is currently dispatching to a
// learned backend (i.e. hasn't permanently fallen back). The Batch Drain
// Loop uses this to pick its per-run batch limit (spec.md §4.8: unbounded
// under the rule-based path, capped under the learned path).
func (h *Host) UsingLearned() bool {
	if !h.useLearned {
		return false
	}
	return !h.categoryState.usingRuleBased.Load() || !h.sentimentState.usingRuleBased.Load()
}

func (h *Host) predictCategory(ctx context.Context, text string) (CategoryResult, string, error) {
	if !h.useLearned || h.categoryState.usingRuleBased.Load() {
		res, err := h.categoryRule.PredictCategory(ctx, text)
		return res, h.categoryRule.Name(), err
	}

	res, err := h.categoryLearned.PredictCategory(ctx, text)
	if err == nil {
		return res, h.categoryLearned.Name(), nil
	}
	return h.handleCategoryFailure(ctx, text, err)
}

func (h *Host) handleCategoryFailure(ctx context.Context, text string, err error) (CategoryResult, string, error) {
	if h.mode == models.BackendModeOff || !errors.Is(err, models.ErrModelUnavailable) {
		return CategoryResult{}, "", fmt.Errorf("category backend failed: %w", models.ErrClassificationError)
	}

	h.categoryState.usingRuleBased.Store(true)
	h.listener.FallbackActivated("category", err.Error())

	res, fbErr := h.categoryRule.PredictCategory(ctx, text)
	return res, h.categoryRule.Name(), fbErr
}

func (h *Host) predictSentiment(ctx context.Context, text string) (SentimentResult, string, error) {
	if !h.useLearned || h.sentimentState.usingRuleBased.Load() {
		res, err := h.sentimentRule.PredictSentiment(ctx, text)
		return res, h.sentimentRule.Name(), err
	}

	res, err := h.sentimentLearned.PredictSentiment(ctx, text)
	if err == nil {
		return res, h.sentimentLearned.Name(), nil
	}
	return h.handleSentimentFailure(ctx, text, err)
}

func (h *Host) handleSentimentFailure(ctx context.Context, text string, err error) (SentimentResult, string, error) {
	if h.mode == models.BackendModeOff || !errors.Is(err, models.ErrModelUnavailable) {
		return SentimentResult{}, "", fmt.Errorf("sentiment backend failed: %w", models.ErrClassificationError)
	}

	h.sentimentState.usingRuleBased.Store(true)
	h.listener.FallbackActivated("sentiment", err.Error())

	res, fbErr := h.sentimentRule.PredictSentiment(ctx, text)
	return res, h.sentimentRule.Name(), fbErr
}
