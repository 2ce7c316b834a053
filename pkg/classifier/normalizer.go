// Package classifier implements the text normalizer and the three
// predictors (category, sentiment, urgency) behind a single Predictor
// Host capability, per spec.md §4.
package classifier

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/codeready-toolchain/triage/pkg/models"
)

// maxCanonicalLength upper-bounds canonical text, in runes, per spec.md §4.1.
const maxCanonicalLength = 10500

// Pre-compiled, fixed normalization patterns. Unlike this team's
// config-driven masking pattern groups (pkg/masking in the sibling
// service), the normalizer's behavior is fixed by spec.md and is not
// operator-configurable, so the patterns are unexported package
// constants rather than a registry.
var (
	htmlTagPattern    = regexp.MustCompile(`(?s)<[^>]*>`)
	urlPattern        = regexp.MustCompile(`(?i)\b(?:https?://|www\.)[^\s<>"']+`)
	emailPattern      = regexp.MustCompile(`(?i)\b[A-Z0-9._%+\-]+@[A-Z0-9.\-]+\.[A-Z]{2,}\b`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// Normalize turns a raw subject and body into canonical text: a single
// bounded-length string used as the sole input to every predictor
// (spec.md GLOSSARY, §4.1). Subject and body are cleaned separately and
// joined by a single newline, the only newline left in the result, so the
// rule-based category backend can tell the subject from the body.
func Normalize(subject, body string) (string, error) {
	clean := func(s string) string {
		s = htmlTagPattern.ReplaceAllString(s, " ")
		s = urlPattern.ReplaceAllString(s, "<URL>")
		s = emailPattern.ReplaceAllString(s, "<EMAIL>")
		return strings.TrimSpace(whitespacePattern.ReplaceAllString(s, " "))
	}
	subj, bod := clean(subject), clean(body)

	if subj == "" && bod == "" {
		return "", models.NewValidationError("subject/body", "normalized text is empty")
	}
	text := subj + "\n" + bod

	if utf8.RuneCountInString(text) > maxCanonicalLength {
		text = truncatePreservingSubject(subject, text)
	}

	return text, nil
}

// truncatePreservingSubject bounds text to maxCanonicalLength, preserving
// the subject prefix and truncating the body tail, per spec.md §4.1.
func truncatePreservingSubject(subject, text string) string {
	subjPrefix := strings.TrimSpace(htmlTagPattern.ReplaceAllString(subject, " "))
	subjPrefix = whitespacePattern.ReplaceAllString(subjPrefix, " ")

	runes := []rune(text)
	if subjRunes := []rune(subjPrefix); len(subjRunes) >= maxCanonicalLength {
		return string(subjRunes[:maxCanonicalLength])
	}
	if strings.HasPrefix(text, subjPrefix) {
		return string(runes[:maxCanonicalLength])
	}
	// Subject was altered enough by masking that the literal prefix no
	// longer matches (e.g. it contained a URL/email); fall back to a
	// straight head-truncation, which still satisfies the bound.
	return string(runes[:maxCanonicalLength])
}
