package service

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kontrakwise/backend/internal/model"
)

func TestParseAnswerWithCitations(t *testing.T) {
	raw := `ANSWER: The notice period is 30 days.
---
EVIDENCE:
- Page 4: "Either party may terminate with thirty (30) days written notice."
- Page 5: "Notice must be delivered in writing."`

	parsed := parseAnswer(raw)
	require.Equal(t, "The notice period is 30 days.", parsed.Answer)
	require.Equal(t, []model.Citation{
		{Page: "4", Text: "Either party may terminate with thirty (30) days written notice."},
		{Page: "5", Text: "Notice must be delivered in writing."},
	}, parsed.Citations)
}

func TestParseAnswerWithoutEvidence(t *testing.T) {
	parsed := parseAnswer("ANSWER: The contract is silent on this matter.")
	require.Equal(t, "The contract is silent on this matter.", parsed.Answer)
	require.NotNil(t, parsed.Citations)
	require.Empty(t, parsed.Citations)
}

func TestParseAnswerNoDelimiterTreatsAllAsAnswer(t *testing.T) {
	raw := "This agreement covers payment terms and liability caps."
	parsed := parseAnswer(raw)
	require.Equal(t, raw, parsed.Answer)
	require.Empty(t, parsed.Citations)
}

func TestParseAnswerSkipsMalformedEvidenceLines(t *testing.T) {
	raw := `ANSWER: Covered.
---
EVIDENCE:
- Page 2: "A valid citation."
- Page : "missing page number"
- Page 3 without colon or quotes
some unrelated line
- Page 7: "Another valid one."`

	parsed := parseAnswer(raw)
	require.Equal(t, []model.Citation{
		{Page: "2", Text: "A valid citation."},
		{Page: "7", Text: "Another valid one."},
	}, parsed.Citations)
}

func TestParseAnswerNonNumericPageKept(t *testing.T) {
	raw := `ANSWER: See appendix.
---
EVIDENCE:
- Page A-1: "Appendix clause text."`

	parsed := parseAnswer(raw)
	require.Equal(t, []model.Citation{{Page: "A-1", Text: "Appendix clause text."}}, parsed.Citations)
}

func TestBuildContextBlock(t *testing.T) {
	block := buildContextBlock([]model.VectorMatch{
		{Page: 1, Text: "first chunk"},
		{Page: 3, Text: "second chunk"},
	})
	require.Equal(t, "[Source: Page 1]\nfirst chunk\n\n[Source: Page 3]\nsecond chunk", block)
}

func TestBuildChatPromptEmbedsContextAndQuestion(t *testing.T) {
	prompt := buildChatPrompt("CTX_BLOCK", "What is the notice period?")
	require.Contains(t, prompt, "CTX_BLOCK")
	require.Contains(t, prompt, "What is the notice period?")
	require.Contains(t, prompt, "The contract is silent on this matter.")
}
