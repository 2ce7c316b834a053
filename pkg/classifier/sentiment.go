package classifier

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strings"
	"sync"

	"github.com/codeready-toolchain/triage/pkg/models"
)

// polarityLexicon maps a lowercase word to a signed polarity weight.
// Positive values push toward models.SentimentPositive, negative values
// push toward models.SentimentNegative.
var polarityLexicon = map[string]float64{
	"good": 1.0, "great": 1.5, "excellent": 2.0, "love": 1.8, "happy": 1.5,
	"pleased": 1.3, "satisfied": 1.2, "thank": 1.0, "thanks": 1.0, "helpful": 1.2,
	"amazing": 1.8, "wonderful": 1.8, "perfect": 1.6,
	"bad": -1.0, "terrible": -2.0, "awful": -2.0, "hate": -1.8, "angry": -1.6,
	"frustrated": -1.5, "disappointed": -1.3, "unacceptable": -1.8, "broken": -1.2,
	"useless": -1.6, "horrible": -1.9, "worst": -2.0, "annoyed": -1.3, "upset": -1.4,
}

// intensifiers scale the polarity of the word that immediately follows them
// ("very bad" > "bad", spec.md §4.3).
var intensifiers = map[string]float64{
	"very": 1.6, "extremely": 2.0, "really": 1.4, "so": 1.3, "absolutely": 1.8,
}

// negators flip the polarity of a word within a 3-token window that
// follows them ("not good" → negative, spec.md §4.3).
var negators = map[string]bool{
	"not": true, "no": true, "never": true, "n't": true, "without": true,
}

var tokenPattern = regexp.MustCompile(`[a-zA-Z']+`)

// RuleBasedSentimentBackend implements the polarity-lexicon sentiment
// backend from spec.md §4.3.
type RuleBasedSentimentBackend struct{}

func NewRuleBasedSentimentBackend() *RuleBasedSentimentBackend {
	return &RuleBasedSentimentBackend{}
}

func (b *RuleBasedSentimentBackend) Name() string { return "rule_based_sentiment_v1" }

func (b *RuleBasedSentimentBackend) PredictSentiment(_ context.Context, text string) (SentimentResult, error) {
	tokens := tokenPattern.FindAllString(strings.ToLower(text), -1)

	var score float64
	negateUntil := -1
	intensifyFactor := 1.0

	for i, tok := range tokens {
		if negators[tok] {
			negateUntil = i + 3
			continue
		}
		if factor, ok := intensifiers[tok]; ok {
			intensifyFactor = factor
			continue
		}

		if polarity, ok := polarityLexicon[tok]; ok {
			contribution := polarity * intensifyFactor
			if i <= negateUntil {
				contribution = -contribution
			}
			score += contribution
		}
		intensifyFactor = 1.0
	}

	sentiment, confidence := scoreToSentiment(score)
	return SentimentResult{Sentiment: sentiment, Confidence: confidence}, nil
}

// scoreToSentiment converts a net polarity score into a sentiment label
// and a confidence in [0.5, 1.0], with ties favoring neutral per spec.md
// §4.3.
func scoreToSentiment(score float64) (models.Sentiment, float64) {
	const neutralBand = 0.3

	magnitude := math.Abs(score)
	// Squash the unbounded lexicon score into (0, 0.5] above the neutral
	// floor of 0.5, so stronger signals yield higher confidence without
	// ever reaching a false-certain 1.0.
	confidenceAboveFloor := 0.5 * (1 - 1/(1+magnitude))

	switch {
	case score > neutralBand:
		return models.SentimentPositive, 0.5 + confidenceAboveFloor
	case score < -neutralBand:
		return models.SentimentNegative, 0.5 + confidenceAboveFloor
	default:
		return models.SentimentNeutral, 0.6
	}
}

// LearnedSentimentBackend mirrors LearnedCategoryBackend: a lazily loaded
// learned backend with no artifact wired in, so it always reports
// ModelUnavailable and defers to the Predictor Host's fallback policy.
type LearnedSentimentBackend struct {
	modelPath string

	mu     sync.Mutex
	loaded bool
}

func NewLearnedSentimentBackend(modelPath string) *LearnedSentimentBackend {
	return &LearnedSentimentBackend{modelPath: modelPath}
}

func (b *LearnedSentimentBackend) Name() string { return "learned_sentiment_v1" }

func (b *LearnedSentimentBackend) PredictSentiment(ctx context.Context, text string) (SentimentResult, error) {
	if err := b.ensureLoaded(); err != nil {
		return SentimentResult{}, err
	}
	return SentimentResult{}, fmt.Errorf("learned sentiment backend not implemented: %w", models.ErrModelUnavailable)
}

func (b *LearnedSentimentBackend) ensureLoaded() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.loaded {
		return nil
	}
	if b.modelPath == "" {
		return fmt.Errorf("no sentiment model artifact configured: %w", models.ErrModelUnavailable)
	}
	b.loaded = true
	return nil
}
