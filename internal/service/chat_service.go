package service

import (
	"context"
	"iter"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/kontrakwise/backend/internal/ai"
	"github.com/kontrakwise/backend/internal/ingest"
	"github.com/kontrakwise/backend/internal/model"
	appErr "github.com/kontrakwise/backend/internal/pkg/errors"
)

type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	GenerateStream(ctx context.Context, prompt string) iter.Seq2[string, error]
}

type VectorSearcher interface {
	Query(ctx context.Context, namespace string, vector []float32, topK int, filter model.VectorFilter) ([]model.VectorMatch, error)
}

type DocumentGetter interface {
	Get(ctx context.Context, userID, docID string) (*model.Document, error)
}

// ChatService answers questions about a single document, grounded in
// retrieved chunks with page-level citations.
type ChatService struct {
	documents DocumentGetter
	embedder  ai.IEmbedder
	vectors   VectorSearcher
	generator Generator
	topK      int
}

func NewChatService(documents DocumentGetter, embedder ai.IEmbedder, vectors VectorSearcher, generator Generator, topK int) *ChatService {
	if topK <= 0 {
		topK = 5
	}
	return &ChatService{
		documents: documents,
		embedder:  embedder,
		vectors:   vectors,
		generator: generator,
		topK:      topK,
	}
}

func (s *ChatService) Answer(ctx context.Context, userID string, req *model.ChatRequest) (*model.ChatAnswer, error) {
	prompt, err := s.buildPrompt(ctx, userID, req)
	if err != nil {
		return nil, err
	}
	raw, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		return nil, err
	}
	return parseAnswer(raw), nil
}

// AnswerStream emits a start event, one chunk event per received fragment,
// and exactly one terminal event: complete with the parsed answer, or error.
// A failing emit (client disconnected) stops the provider stream immediately.
func (s *ChatService) AnswerStream(ctx context.Context, userID string, req *model.ChatRequest, emit func(model.ChatStreamEvent) error) error {
	prompt, err := s.buildPrompt(ctx, userID, req)
	if err != nil {
		return emit(model.ChatStreamEvent{Type: model.StreamEventError, Message: streamErrorMessage(err)})
	}
	if err := emit(model.ChatStreamEvent{Type: model.StreamEventStart, Message: "Generating response"}); err != nil {
		return err
	}
	var full strings.Builder
	for fragment, err := range s.generator.GenerateStream(ctx, prompt) {
		if err != nil {
			logutil.GetLogger(ctx).Warn("stream generation failed", zap.Error(err))
			return emit(model.ChatStreamEvent{Type: model.StreamEventError, Message: "Failed to generate AI response"})
		}
		full.WriteString(fragment)
		if err := emit(model.ChatStreamEvent{Type: model.StreamEventChunk, Content: fragment}); err != nil {
			// Returning aborts the provider stream; no terminal event is owed
			// to a caller that already went away.
			return err
		}
	}
	answer := parseAnswer(full.String())
	return emit(model.ChatStreamEvent{
		Type:      model.StreamEventComplete,
		Answer:    answer.Answer,
		Citations: answer.Citations,
	})
}

func (s *ChatService) buildPrompt(ctx context.Context, userID string, req *model.ChatRequest) (string, error) {
	if req == nil || strings.TrimSpace(req.Query) == "" {
		return "", appErr.ErrInvalid
	}
	// Without a document id the query runs over the user's whole namespace.
	var filter model.VectorFilter
	if req.DocumentID != "" {
		// Ownership check doubles as the tenancy check: another user's
		// document is indistinguishable from a missing one.
		if _, err := s.documents.Get(ctx, userID, req.DocumentID); err != nil {
			return "", err
		}
		filter.DocumentID = req.DocumentID
	}
	queryVector, err := s.embedder.Embed(ctx, req.Query, "RETRIEVAL_QUERY")
	if err != nil {
		return "", err
	}
	matches, err := s.vectors.Query(ctx, ingest.Namespace(userID), queryVector, s.topK, filter)
	if err != nil {
		return "", err
	}
	return buildChatPrompt(buildContextBlock(matches), req.Query), nil
}

func streamErrorMessage(err error) string {
	switch {
	case appErr.IsNotFound(err):
		return "Document not found"
	case err == appErr.ErrInvalid:
		return "Invalid request"
	default:
		return "Failed to generate AI response"
	}
}
