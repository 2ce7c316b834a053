package classifier

import (
	"context"

	"github.com/codeready-toolchain/triage/pkg/models"
)

// CategoryResult is the output shape every category backend must produce
// (spec.md §4.2). AllScores sums to 1 within 1e-3.
type CategoryResult struct {
	Category   models.Category
	Confidence float64
	AllScores  map[models.Category]float64
}

// CategoryBackend is the capability a category predictor backend
// implements. Both the learned and rule-based backends satisfy this
// interface interchangeably (spec.md §4.2), mirroring this team's LLM
// Provider capability pattern: callers depend on the interface, never
// on a concrete backend type.
type CategoryBackend interface {
	PredictCategory(ctx context.Context, text string) (CategoryResult, error)
	// Name identifies the backend for model_identifier composition.
	Name() string
}

// SentimentResult is the output shape every sentiment backend produces
// (spec.md §4.3).
type SentimentResult struct {
	Sentiment  models.Sentiment
	Confidence float64
}

// SentimentBackend is the capability a sentiment predictor backend
// implements.
type SentimentBackend interface {
	PredictSentiment(ctx context.Context, text string) (SentimentResult, error)
	Name() string
}

// UrgencyResult is the output shape the urgency predictor produces
// (spec.md §4.4).
type UrgencyResult struct {
	Urgency    models.Urgency
	Confidence float64
}

// UrgencyBackend is the capability the urgency predictor implements.
// spec.md §4.4 mandates a single deterministic rule-based predictor;
// the interface still exists so the Host can treat all three
// modalities uniformly.
type UrgencyBackend interface {
	PredictUrgency(ctx context.Context, text string) (UrgencyResult, error)
	Name() string
}
