package classifier

import (
	"context"
	"testing"

	"github.com/codeready-toolchain/triage/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRuleBasedSentimentPositive(t *testing.T) {
	b := NewRuleBasedSentimentBackend()
	res, err := b.PredictSentiment(context.Background(), "Thank you, your support team was great and very helpful")
	require.NoError(t, err)
	assert.Equal(t, models.SentimentPositive, res.Sentiment)
}

func TestRuleBasedSentimentNegative(t *testing.T) {
	b := NewRuleBasedSentimentBackend()
	res, err := b.PredictSentiment(context.Background(), "This is terrible, I am so frustrated with your broken product")
	require.NoError(t, err)
	assert.Equal(t, models.SentimentNegative, res.Sentiment)
}

func TestRuleBasedSentimentIntensifierIncreasesConfidence(t *testing.T) {
	b := NewRuleBasedSentimentBackend()
	plain, err := b.PredictSentiment(context.Background(), "This is bad")
	require.NoError(t, err)
	intensified, err := b.PredictSentiment(context.Background(), "This is very bad")
	require.NoError(t, err)

	assert.Equal(t, models.SentimentNegative, plain.Sentiment)
	assert.Equal(t, models.SentimentNegative, intensified.Sentiment)
	assert.Greater(t, intensified.Confidence, plain.Confidence)
}

func TestRuleBasedSentimentNegationFlipsPolarity(t *testing.T) {
	b := NewRuleBasedSentimentBackend()
	res, err := b.PredictSentiment(context.Background(), "This is not good at all")
	require.NoError(t, err)
	assert.Equal(t, models.SentimentNegative, res.Sentiment)
}

func TestRuleBasedSentimentTiesFavorNeutral(t *testing.T) {
	b := NewRuleBasedSentimentBackend()
	res, err := b.PredictSentiment(context.Background(), "The weather today is unremarkable")
	require.NoError(t, err)
	assert.Equal(t, models.SentimentNeutral, res.Sentiment)
}

func TestLearnedSentimentBackendReportsModelUnavailableWhenUnconfigured(t *testing.T) {
	b := NewLearnedSentimentBackend("")
	_, err := b.PredictSentiment(context.Background(), "anything")
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrModelUnavailable)
}
