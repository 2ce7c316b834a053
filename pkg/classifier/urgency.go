package classifier

import (
	"context"
	"regexp"

	"github.com/codeready-toolchain/triage/pkg/models"
)

// urgencyRule is one ordered rule in the fixed urgency cascade (spec.md
// §4.4). The first rule whose pattern matches wins.
type urgencyRule struct {
	pattern    *regexp.Regexp
	urgency    models.Urgency
	confidence float64
}

var urgencyRules = []urgencyRule{
	{
		pattern:    wordSetPattern("urgent", "asap", "emergency", "critical", "immediately", "right now"),
		urgency:    models.UrgencyCritical,
		confidence: 0.95,
	},
	{
		pattern:    wordSetPattern("blocking", "cannot work", "down", "outage"),
		urgency:    models.UrgencyHigh,
		confidence: 0.85,
	},
	{
		pattern:    wordSetPattern("soon", "today", "this week"),
		urgency:    models.UrgencyMedium,
		confidence: 0.70,
	},
}

// wordSetPattern builds a single case-insensitive, whole-word-boundary
// alternation over the given terms, handling multi-word terms the same
// way the category lexicon does.
func wordSetPattern(terms ...string) *regexp.Regexp {
	alts := make([]string, len(terms))
	for i, t := range terms {
		escaped := regexp.QuoteMeta(t)
		alts[i] = `\b` + escapeSpaces(escaped) + `\b`
	}
	pattern := alts[0]
	for _, a := range alts[1:] {
		pattern += `|` + a
	}
	return regexp.MustCompile(`(?i)(?:` + pattern + `)`)
}

func escapeSpaces(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == ' ' {
			out = append(out, '\\', 's', '+')
			continue
		}
		out = append(out, s[i])
	}
	return string(out)
}

// RuleBasedUrgencyBackend implements the fixed ordered urgency cascade
// from spec.md §4.4. This is the only urgency backend: the spec requires
// no learned alternative.
type RuleBasedUrgencyBackend struct{}

func NewRuleBasedUrgencyBackend() *RuleBasedUrgencyBackend {
	return &RuleBasedUrgencyBackend{}
}

func (b *RuleBasedUrgencyBackend) Name() string { return "rule_based_urgency_v1" }

func (b *RuleBasedUrgencyBackend) PredictUrgency(_ context.Context, text string) (UrgencyResult, error) {
	for _, rule := range urgencyRules {
		if rule.pattern.MatchString(text) {
			return UrgencyResult{Urgency: rule.urgency, Confidence: rule.confidence}, nil
		}
	}
	return UrgencyResult{Urgency: models.UrgencyLow, Confidence: 0.60}, nil
}
