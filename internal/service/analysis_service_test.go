package service

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/require"

	"github.com/kontrakwise/backend/internal/model"
	appErr "github.com/kontrakwise/backend/internal/pkg/errors"
)

func TestParseAnalysisWellFormed(t *testing.T) {
	raw := `SUMMARY: A services agreement between two parties with a one year term.
RISK: medium
REASONING: The liability cap excludes gross negligence.`

	summary, level, reasoning, err := parseAnalysis(raw)
	require.NoError(t, err)
	require.Equal(t, "A services agreement between two parties with a one year term.", summary)
	require.Equal(t, "medium", level)
	require.Equal(t, "The liability cap excludes gross negligence.", reasoning)
}

func TestParseAnalysisNormalizesRiskCase(t *testing.T) {
	_, level, _, err := parseAnalysis("SUMMARY: s\nRISK: HIGH\nREASONING: r")
	require.NoError(t, err)
	require.Equal(t, "high", level)
}

func TestParseAnalysisRejectsMalformed(t *testing.T) {
	_, _, _, err := parseAnalysis("just some prose with no labels")
	require.ErrorIs(t, err, appErr.ErrGenerationFailed)

	_, _, _, err = parseAnalysis("SUMMARY: s\nRISK: catastrophic\nREASONING: r")
	require.ErrorIs(t, err, appErr.ErrGenerationFailed)
}

func TestBuildAnalysisPromptIncludesRules(t *testing.T) {
	rules := []model.RiskRule{
		{Title: "Unlimited liability", Severity: "high", Description: "No cap on damages"},
		{Title: "Auto-renewal", Severity: "low"},
	}
	chunks := []model.Chunk{{Index: 0, Page: 1, Text: "This agreement is made between..."}}

	prompt := buildAnalysisPrompt(rules, chunks)
	require.Contains(t, prompt, "[HIGH] Unlimited liability: No cap on damages")
	require.Contains(t, prompt, "[LOW] Auto-renewal")
	require.Contains(t, prompt, "This agreement is made between...")
}

func TestBuildAnalysisPromptTruncatesOnRuneBoundary(t *testing.T) {
	// Multi-byte runes must not be cut mid-sequence when the excerpt is
	// trimmed to the size limit.
	big := "a" + strings.Repeat("€", maxAnalysisChars)
	chunks := []model.Chunk{{Index: 0, Page: 1, Text: big}}
	prompt := buildAnalysisPrompt(nil, chunks)
	require.True(t, utf8.ValidString(prompt))
}

func TestBuildAnalysisPromptBoundsExcerpt(t *testing.T) {
	big := strings.Repeat("clause text ", 500)
	chunks := make([]model.Chunk, 20)
	for i := range chunks {
		chunks[i] = model.Chunk{Index: i, Page: 1, Text: big}
	}
	prompt := buildAnalysisPrompt(nil, chunks)
	require.Less(t, len(prompt), maxAnalysisChars+len(analysisPromptTemplate)+100)
}
