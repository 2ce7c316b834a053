package routing

import (
	"context"
	"math"
	"time"

	"github.com/codeready-toolchain/triage/pkg/models"
)

// Pool is the capability the Engine delegates consultant assignment to.
// The engine calls the pool; the pool never calls back, breaking the
// cyclic dependency risk between the two (spec.md §9).
type Pool interface {
	Assign(ctx context.Context, department models.Department, strategy models.AssignmentStrategy, skillTags []string) (consultant string, ok bool)
}

// Clock abstracts "now" so decisions are reproducible in tests.
type Clock func() time.Time

// Engine computes a RoutingDecision from a PredictionTriple (spec.md §4.6).
type Engine struct {
	weights     Weights
	sla         map[models.Urgency]time.Duration
	escalations []EscalationRule
	pool        Pool
	strategy    models.AssignmentStrategy
	now         Clock
}

// EngineConfig configures Engine construction.
type EngineConfig struct {
	Weights     Weights
	SLA         map[models.Urgency]time.Duration
	Escalations []EscalationRule
	Pool        Pool
	Strategy    models.AssignmentStrategy
	// Now defaults to time.Now if unset.
	Now Clock
}

// NewEngine constructs a Routing Engine. Unset Weights/SLA fall back to
// the spec defaults.
func NewEngine(cfg EngineConfig) *Engine {
	weights := cfg.Weights
	if weights.Urgency == nil {
		weights = DefaultWeights()
	}
	sla := cfg.SLA
	if sla == nil {
		sla = DefaultSLA()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	strategy := cfg.Strategy
	if strategy == "" {
		strategy = models.AssignmentRoundRobin
	}

	return &Engine{
		weights:     weights,
		sla:         sla,
		escalations: cfg.Escalations,
		pool:        cfg.Pool,
		strategy:    strategy,
		now:         now,
	}
}

// Decide computes a RoutingDecision for inquiryID from its PredictionTriple,
// per spec.md §4.6. skillTags are derived from category by the caller
// (pkg/triage's submit path, pkg/queue's drain loop) and passed through to
// the consultant pool.
func (e *Engine) Decide(ctx context.Context, inquiryID string, triple models.PredictionTriple, skillTags []string) models.RoutingDecision {
	decidedAt := e.now()

	department, boost, escalated := e.evaluateEscalations(triple.Category, triple.Sentiment, triple.Urgency)

	priority := e.weights.Urgency[triple.Urgency] + e.weights.Sentiment[triple.Sentiment] + e.weights.Category[triple.Category] + boost
	score := clampScore(int(math.Round(priority)))

	var consultant string
	if e.pool != nil {
		if id, ok := e.pool.Assign(ctx, department, e.strategy, skillTags); ok {
			consultant = id
		}
	}

	deadline := decidedAt.Add(e.sla[triple.Urgency])

	return models.RoutingDecision{
		InquiryID:        inquiryID,
		Department:       department,
		Consultant:       consultant,
		PriorityScore:    score,
		Escalated:        escalated,
		ResponseDeadline: deadline,
		DecidedAt:        decidedAt,
	}
}

// evaluateEscalations walks the ordered escalation list and returns the
// first matching rule's department/boost/escalated, or the default
// category-to-department mapping if none match (spec.md §4.6).
func (e *Engine) evaluateEscalations(category models.Category, sentiment models.Sentiment, urgency models.Urgency) (models.Department, float64, bool) {
	for _, rule := range e.escalations {
		if rule.Matches(urgency, sentiment, category) {
			return rule.Then.Department, float64(rule.Then.PriorityBoost), rule.Then.Escalated
		}
	}
	return models.DepartmentFor(category), 0, false
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
