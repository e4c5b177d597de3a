package ingest

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseTranscriptionJSONArray(t *testing.T) {
	pages := parseTranscription(`["first page text", "second page text"]`)
	require.Len(t, pages, 2)
	require.Equal(t, 1, pages[0].Number)
	require.Equal(t, "first page text", pages[0].Text)
	require.Equal(t, 2, pages[1].Number)
	require.Equal(t, "second page text", pages[1].Text)
}

func TestParseTranscriptionFencedJSON(t *testing.T) {
	raw := "```json\n[\"page one\", \"page two\"]\n```"
	pages := parseTranscription(raw)
	require.Len(t, pages, 2)
	require.Equal(t, "page one", pages[0].Text)
}

func TestParseTranscriptionPlainTextFallback(t *testing.T) {
	raw := "First block of text.\n\nSecond block of text."
	pages := parseTranscription(raw)
	require.Len(t, pages, 2)
	require.Equal(t, "First block of text.", pages[0].Text)
	require.Equal(t, "Second block of text.", pages[1].Text)
}

func TestParseTranscriptionBlankPagesKeepNumbering(t *testing.T) {
	pages := parseTranscription(`["", "second page"]`)
	require.Len(t, pages, 2)
	require.Equal(t, "", pages[0].Text)
	require.Equal(t, 2, pages[1].Number)
}

func TestParseTranscriptionAllBlank(t *testing.T) {
	require.Nil(t, parseTranscription(`["", "  "]`))
	require.Nil(t, parseTranscription("   "))
}
