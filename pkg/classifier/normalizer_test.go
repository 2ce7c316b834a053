package classifier

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeStripsHTMLAndMasksURLsAndEmails(t *testing.T) {
	text, err := Normalize(
		"Issue with <b>login</b>",
		`Please see https://example.com/docs and email me at jane.doe@example.com <br/> thanks`,
	)
	require.NoError(t, err)
	assert.NotContains(t, text, "<b>")
	assert.NotContains(t, text, "<br/>")
	assert.Contains(t, text, "<URL>")
	assert.Contains(t, text, "<EMAIL>")
	assert.NotContains(t, text, "example.com/docs")
	assert.NotContains(t, text, "jane.doe@example.com")
}

func TestNormalizeCollapsesWhitespace(t *testing.T) {
	text, err := Normalize("Subject", "line one\n\n\n   line   two\t\tline three")
	require.NoError(t, err)
	assert.False(t, strings.Contains(text, "  "))
}

func TestNormalizeEmptyYieldsValidationError(t *testing.T) {
	_, err := Normalize("   ", "<p></p>")
	require.Error(t, err)
}

func TestNormalizeTruncatesPreservingSubjectPrefix(t *testing.T) {
	subject := "Short subject"
	body := strings.Repeat("filler content ", 2000)

	text, err := Normalize(subject, body)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(text), maxCanonicalLength)
	assert.True(t, strings.HasPrefix(text, subject))
}
