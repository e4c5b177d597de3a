package ingest

import (
	"strings"
	"unicode/utf8"

	"github.com/kontrakwise/backend/internal/model"
)

// Separator priority for recursive splitting: paragraph break, line break,
// sentence end, word boundary. A hard character cut is the last resort.
var chunkSeparators = []string{"\n\n", "\n", ". ", " "}

// Chunker splits page text into overlapping spans of at most Size characters
// (runes), carrying roughly Overlap characters of trailing context into the
// next chunk. Chunks never span pages; each inherits the page it began on and
// is numbered sequentially across the whole document.
type Chunker struct {
	Size    int
	Overlap int
}

func NewChunker(size, overlap int) *Chunker {
	if size <= 0 {
		size = 1000
	}
	if overlap < 0 || overlap >= size {
		overlap = size / 10
	}
	return &Chunker{Size: size, Overlap: overlap}
}

func (c *Chunker) Chunk(pages []model.Page) []model.Chunk {
	var chunks []model.Chunk
	index := 0
	for _, page := range pages {
		text := strings.TrimSpace(page.Text)
		if text == "" {
			continue
		}
		for _, piece := range c.splitText(text, chunkSeparators) {
			piece = strings.TrimSpace(piece)
			if piece == "" {
				continue
			}
			chunks = append(chunks, model.Chunk{
				Index: index,
				Page:  page.Number,
				Text:  piece,
			})
			index++
		}
	}
	return chunks
}

func (c *Chunker) splitText(text string, separators []string) []string {
	separator := separators[len(separators)-1]
	var remaining []string
	for i, sep := range separators {
		if strings.Contains(text, sep) {
			separator = sep
			remaining = separators[i+1:]
			break
		}
	}

	splits := strings.Split(text, separator)
	joinSep := separator
	if strings.TrimSpace(separator) != "" {
		// Keep non-whitespace separators attached to the preceding piece
		// so sentence punctuation survives a chunk boundary.
		for i := 0; i < len(splits)-1; i++ {
			splits[i] += separator
		}
		joinSep = ""
	}
	var final []string
	var good []string
	for _, split := range splits {
		if utf8.RuneCountInString(split) < c.Size {
			good = append(good, split)
			continue
		}
		if len(good) > 0 {
			final = append(final, c.mergeSplits(good, joinSep)...)
			good = nil
		}
		if len(remaining) == 0 {
			final = append(final, c.hardCut(split)...)
		} else {
			final = append(final, c.splitText(split, remaining)...)
		}
	}
	if len(good) > 0 {
		final = append(final, c.mergeSplits(good, joinSep)...)
	}
	return final
}

// mergeSplits concatenates undersized pieces up to Size, retaining trailing
// pieces totaling at most Overlap characters as the head of the next chunk.
func (c *Chunker) mergeSplits(splits []string, separator string) []string {
	sepLen := utf8.RuneCountInString(separator)
	var docs []string
	var current []string
	total := 0
	for _, split := range splits {
		length := utf8.RuneCountInString(split)
		if total+length+len(current)*sepLen > c.Size && len(current) > 0 {
			if doc := strings.TrimSpace(strings.Join(current, separator)); doc != "" {
				docs = append(docs, doc)
			}
			for total > c.Overlap || (total+length+len(current)*sepLen > c.Size && total > 0) {
				total -= utf8.RuneCountInString(current[0])
				current = current[1:]
			}
		}
		current = append(current, split)
		total += length
	}
	if doc := strings.TrimSpace(strings.Join(current, separator)); doc != "" {
		docs = append(docs, doc)
	}
	return docs
}

func (c *Chunker) hardCut(text string) []string {
	runes := []rune(text)
	step := c.Size - c.Overlap
	if step <= 0 {
		step = c.Size
	}
	var out []string
	for start := 0; start < len(runes); start += step {
		end := start + c.Size
		if end > len(runes) {
			end = len(runes)
		}
		out = append(out, string(runes[start:end]))
		if end == len(runes) {
			break
		}
	}
	return out
}
