package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/kontrakwise/backend/internal/ai"
	"github.com/kontrakwise/backend/internal/model"
	appErr "github.com/kontrakwise/backend/internal/pkg/errors"
)

const transcribePrompt = `Transcribe this document page by page.
Return ONLY a JSON array of strings, one string per page, in page order.
Do not add commentary. Preserve the original text faithfully.`

// Extractor pulls per-page plain text out of a document. When the native text
// layer is missing (scanned pages), it falls back to a file-grounded LLM
// transcription of the whole document.
type Extractor struct {
	client *ai.Client
}

func NewExtractor(client *ai.Client) *Extractor {
	return &Extractor{client: client}
}

func (e *Extractor) Extract(ctx context.Context, path string) ([]model.Page, error) {
	logger := logutil.GetLogger(ctx).With(zap.String("path", path))
	pages, err := extractNative(path)
	if err != nil {
		logger.Warn("native text extraction failed, trying transcription", zap.Error(err))
		return e.transcribe(ctx, path)
	}
	// A single empty page means the document mixes scanned and text pages;
	// transcribe the whole document so page numbering stays consistent.
	usable := 0
	for _, page := range pages {
		if strings.TrimSpace(page.Text) != "" {
			usable++
		}
	}
	if len(pages) == 0 || usable < len(pages) {
		logger.Info("text layer incomplete, falling back to transcription",
			zap.Int("pages", len(pages)), zap.Int("usable", usable))
		return e.transcribe(ctx, path)
	}
	return pages, nil
}

func extractNative(path string) ([]model.Page, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}
	reader, err := pdf.NewReader(f, stat.Size())
	if err != nil {
		return nil, err
	}
	numPages := reader.NumPage()
	pages := make([]model.Page, 0, numPages)
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		text := ""
		if !page.V.IsNull() {
			if extracted, err := page.GetPlainText(nil); err == nil {
				text = extracted
			}
		}
		pages = append(pages, model.Page{Number: i, Text: text})
	}
	return pages, nil
}

func (e *Extractor) transcribe(ctx context.Context, path string) ([]model.Page, error) {
	raw, err := e.client.GenerateFromFile(ctx, path, transcribePrompt)
	if err != nil {
		return nil, fmt.Errorf("%w: transcription: %v", appErr.ErrExtractionFailed, err)
	}
	pages := parseTranscription(raw)
	if len(pages) == 0 {
		return nil, fmt.Errorf("%w: transcription returned no content", appErr.ErrExtractionFailed)
	}
	return pages, nil
}

// parseTranscription decodes the model's per-page JSON array, tolerating
// markdown fences. Non-JSON output degrades to blank-line paging.
func parseTranscription(raw string) []model.Page {
	clean := stripCodeFence(raw)
	var perPage []string
	if err := json.Unmarshal([]byte(clean), &perPage); err != nil {
		perPage = nil
		for _, block := range strings.Split(clean, "\n\n") {
			if strings.TrimSpace(block) == "" {
				continue
			}
			perPage = append(perPage, block)
		}
	}
	var pages []model.Page
	usable := false
	for i, text := range perPage {
		if strings.TrimSpace(text) != "" {
			usable = true
		}
		pages = append(pages, model.Page{Number: i + 1, Text: text})
	}
	if !usable {
		return nil
	}
	return pages
}

func stripCodeFence(s string) string {
	clean := strings.TrimSpace(s)
	clean = strings.TrimPrefix(clean, "```json")
	clean = strings.TrimPrefix(clean, "```")
	clean = strings.TrimSuffix(clean, "```")
	return strings.TrimSpace(clean)
}
