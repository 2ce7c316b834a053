// Package routing implements the Routing Engine and Consultant Pool:
// turning a PredictionTriple into a RoutingDecision per spec.md §4.6-§4.7,
// driven by declarative rules loaded the same way this team loads its
// YAML configuration (mergo merge of built-in defaults with operator
// overrides).
package routing

import (
	"time"

	"github.com/codeready-toolchain/triage/pkg/models"
)

// EscalationRule is one entry in the ordered escalation list (spec.md §6's
// routing rules file). A nil slice on any condition axis means wildcard.
type EscalationRule struct {
	Name string `yaml:"name"`
	When struct {
		Urgency   []models.Urgency   `yaml:"urgency,omitempty"`
		Sentiment []models.Sentiment `yaml:"sentiment,omitempty"`
		Category  []models.Category  `yaml:"category,omitempty"`
	} `yaml:"when"`
	Then struct {
		Department    models.Department `yaml:"department"`
		PriorityBoost int               `yaml:"priority_boost,omitempty"`
		Escalated     bool              `yaml:"escalated,omitempty"`
	} `yaml:"then"`
}

// Matches reports whether the rule's when-clause matches the given triple.
// An empty/omitted axis is a wildcard.
func (r EscalationRule) Matches(urgency models.Urgency, sentiment models.Sentiment, category models.Category) bool {
	if len(r.When.Urgency) > 0 && !containsUrgency(r.When.Urgency, urgency) {
		return false
	}
	if len(r.When.Sentiment) > 0 && !containsSentiment(r.When.Sentiment, sentiment) {
		return false
	}
	if len(r.When.Category) > 0 && !containsCategory(r.When.Category, category) {
		return false
	}
	return true
}

func containsUrgency(set []models.Urgency, v models.Urgency) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

func containsSentiment(set []models.Sentiment, v models.Sentiment) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

func containsCategory(set []models.Category, v models.Category) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

// Weights holds the priority-score axis weights (spec.md §4.6's reference
// table). All are configurable; DefaultWeights supplies the spec defaults.
type Weights struct {
	Urgency   map[models.Urgency]float64   `yaml:"urgency"`
	Sentiment map[models.Sentiment]float64 `yaml:"sentiment"`
	Category  map[models.Category]float64  `yaml:"category,omitempty"`
}

// DefaultWeights returns the spec-mandated reference weights. Category base
// priority defaults to 0 for every category, but the axis is configurable.
func DefaultWeights() Weights {
	category := make(map[models.Category]float64, len(models.Categories()))
	for _, c := range models.Categories() {
		category[c] = 0
	}

	return Weights{
		Urgency: map[models.Urgency]float64{
			models.UrgencyLow:      5,
			models.UrgencyMedium:   25,
			models.UrgencyHigh:     55,
			models.UrgencyCritical: 80,
		},
		Sentiment: map[models.Sentiment]float64{
			models.SentimentPositive: -5,
			models.SentimentNeutral:  0,
			models.SentimentNegative: 10,
		},
		Category: category,
	}
}

// DefaultSLA returns the spec-mandated default response-deadline windows
// (spec.md §4.6).
func DefaultSLA() map[models.Urgency]time.Duration {
	return map[models.Urgency]time.Duration{
		models.UrgencyCritical: time.Hour,
		models.UrgencyHigh:     4 * time.Hour,
		models.UrgencyMedium:   24 * time.Hour,
		models.UrgencyLow:      72 * time.Hour,
	}
}

// DefaultEscalations returns the built-in escalation list honored when no
// routing_rules.yaml overrides it (spec.md §8 scenario 1: critical+negative
// inquiries escalate under default configuration).
func DefaultEscalations() []EscalationRule {
	rule := EscalationRule{Name: "critical_negative"}
	rule.When.Urgency = []models.Urgency{models.UrgencyCritical}
	rule.When.Sentiment = []models.Sentiment{models.SentimentNegative}
	rule.Then.Department = models.DepartmentEscalation
	rule.Then.Escalated = true
	return []EscalationRule{rule}
}

// RulesConfig is the top-level shape of the routing rules YAML file
// (spec.md §6).
type RulesConfig struct {
	Weights     *Weights               `yaml:"weights,omitempty"`
	SLASeconds  map[models.Urgency]int `yaml:"sla_seconds,omitempty"`
	Escalations []EscalationRule       `yaml:"escalations,omitempty"`
}
