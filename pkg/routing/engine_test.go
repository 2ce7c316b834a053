package routing

import (
	"context"
	"testing"
	"time"

	"github.com/codeready-toolchain/triage/pkg/models"
	"github.com/stretchr/testify/assert"
)

func fixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}

func TestEngineDefaultMappingNoEscalation(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	e := NewEngine(EngineConfig{Now: fixedClock(now)})

	decision := e.Decide(context.Background(), "inq-1", models.PredictionTriple{
		Category:  models.CategoryBilling,
		Sentiment: models.SentimentNegative,
		Urgency:   models.UrgencyMedium,
	}, nil)

	assert.Equal(t, models.DepartmentFinance, decision.Department)
	assert.False(t, decision.Escalated)
	assert.Equal(t, 35, decision.PriorityScore) // 25 (medium) + 10 (negative)
	assert.Equal(t, now.Add(24*time.Hour), decision.ResponseDeadline)
}

func TestEngineScoreClampedToBounds(t *testing.T) {
	e := NewEngine(EngineConfig{
		Escalations: []EscalationRule{mustRule("boost", nil, nil, nil, models.DepartmentEscalation, 50, true)},
	})

	decision := e.Decide(context.Background(), "inq-2", models.PredictionTriple{
		Category:  models.CategoryTechnicalSupport,
		Sentiment: models.SentimentNegative,
		Urgency:   models.UrgencyCritical,
	}, nil)

	assert.LessOrEqual(t, decision.PriorityScore, 100)
	assert.True(t, decision.Escalated)
}

func TestEngineFirstMatchingEscalationRuleWins(t *testing.T) {
	rules := []EscalationRule{
		mustRule("critical-negative", []models.Urgency{models.UrgencyCritical}, []models.Sentiment{models.SentimentNegative}, nil, models.DepartmentEscalation, 20, true),
		mustRule("any-critical", []models.Urgency{models.UrgencyCritical}, nil, nil, models.DepartmentTechnicalSupport, 0, false),
	}
	e := NewEngine(EngineConfig{Escalations: rules})

	decision := e.Decide(context.Background(), "inq-3", models.PredictionTriple{
		Category:  models.CategoryTechnicalSupport,
		Sentiment: models.SentimentNegative,
		Urgency:   models.UrgencyCritical,
	}, nil)

	assert.Equal(t, models.DepartmentEscalation, decision.Department)
	assert.True(t, decision.Escalated)
	assert.GreaterOrEqual(t, decision.PriorityScore, 80)
}

func TestEngineEscalationImpliesHighScore(t *testing.T) {
	rules := []EscalationRule{mustRule("always", nil, nil, nil, models.DepartmentEscalation, 100, true)}
	e := NewEngine(EngineConfig{Escalations: rules})

	decision := e.Decide(context.Background(), "inq-4", models.PredictionTriple{
		Category:  models.CategorySales,
		Sentiment: models.SentimentPositive,
		Urgency:   models.UrgencyLow,
	}, nil)

	assert.True(t, decision.Escalated)
	assert.GreaterOrEqual(t, decision.PriorityScore, 80)
}

func TestEngineDelegatesToPool(t *testing.T) {
	called := false
	pool := poolFunc(func(ctx context.Context, department models.Department, strategy models.AssignmentStrategy, skillTags []string) (string, bool) {
		called = true
		assert.Equal(t, models.DepartmentSales, department)
		return "dana", true
	})

	e := NewEngine(EngineConfig{Pool: pool})
	decision := e.Decide(context.Background(), "inq-5", models.PredictionTriple{
		Category:  models.CategorySales,
		Sentiment: models.SentimentNeutral,
		Urgency:   models.UrgencyLow,
	}, []string{"enterprise"})

	assert.True(t, called)
	assert.Equal(t, "dana", decision.Consultant)
}

func TestEngineEmptyPoolLeavesConsultantUnset(t *testing.T) {
	e := NewEngine(EngineConfig{})
	decision := e.Decide(context.Background(), "inq-6", models.PredictionTriple{
		Category: models.CategoryHR, Sentiment: models.SentimentNeutral, Urgency: models.UrgencyLow,
	}, nil)
	assert.Empty(t, decision.Consultant)
}

func TestEngineIncludesCategoryWeightInPriorityScore(t *testing.T) {
	weights := DefaultWeights()
	weights.Category[models.CategoryLegal] = 15
	e := NewEngine(EngineConfig{Weights: weights})

	decision := e.Decide(context.Background(), "inq-7", models.PredictionTriple{
		Category:  models.CategoryLegal,
		Sentiment: models.SentimentNeutral,
		Urgency:   models.UrgencyMedium,
	}, nil)

	assert.Equal(t, 40, decision.PriorityScore) // 25 (medium) + 0 (neutral) + 15 (legal)
}

type poolFunc func(ctx context.Context, department models.Department, strategy models.AssignmentStrategy, skillTags []string) (string, bool)

func (f poolFunc) Assign(ctx context.Context, department models.Department, strategy models.AssignmentStrategy, skillTags []string) (string, bool) {
	return f(ctx, department, strategy, skillTags)
}

func mustRule(name string, urgency []models.Urgency, sentiment []models.Sentiment, category []models.Category, dept models.Department, boost int, escalated bool) EscalationRule {
	r := EscalationRule{Name: name}
	r.When.Urgency = urgency
	r.When.Sentiment = sentiment
	r.When.Category = category
	r.Then.Department = dept
	r.Then.PriorityBoost = boost
	r.Then.Escalated = escalated
	return r
}
