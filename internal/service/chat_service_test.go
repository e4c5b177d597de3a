package service

import (
	"context"
	"errors"
	"iter"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kontrakwise/backend/internal/model"
	appErr "github.com/kontrakwise/backend/internal/pkg/errors"
)

type stubDocuments struct {
	doc *model.Document
	err error
}

func (s *stubDocuments) Get(ctx context.Context, userID, docID string) (*model.Document, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.doc, nil
}

type stubEmbedder struct{}

func (s *stubEmbedder) Embed(ctx context.Context, text, taskType string) ([]float32, error) {
	return []float32{0.1, 0.2}, nil
}

func (s *stubEmbedder) ModelName() string { return "stub-embed" }

type stubVectors struct {
	matches   []model.VectorMatch
	namespace string
	filter    model.VectorFilter
}

func (s *stubVectors) Query(ctx context.Context, namespace string, vector []float32, topK int, filter model.VectorFilter) ([]model.VectorMatch, error) {
	s.namespace = namespace
	s.filter = filter
	return s.matches, nil
}

type stubGenerator struct {
	response  string
	fragments []string
	streamErr error
	prompt    string
}

func (s *stubGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	s.prompt = prompt
	return s.response, nil
}

func (s *stubGenerator) GenerateStream(ctx context.Context, prompt string) iter.Seq2[string, error] {
	s.prompt = prompt
	return func(yield func(string, error) bool) {
		for _, fragment := range s.fragments {
			if !yield(fragment, nil) {
				return
			}
		}
		if s.streamErr != nil {
			yield("", s.streamErr)
		}
	}
}

func newTestChatService(docs *stubDocuments, vectors *stubVectors, gen *stubGenerator) *ChatService {
	return NewChatService(docs, &stubEmbedder{}, vectors, gen, 5)
}

func TestChatAnswerGroundsPromptInMatches(t *testing.T) {
	docs := &stubDocuments{doc: &model.Document{ID: "doc1", UserID: "u1"}}
	vectors := &stubVectors{matches: []model.VectorMatch{{Page: 2, Text: "Termination requires notice."}}}
	gen := &stubGenerator{response: `ANSWER: Notice is required.
---
EVIDENCE:
- Page 2: "Termination requires notice."`}

	chat := newTestChatService(docs, vectors, gen)
	answer, err := chat.Answer(context.Background(), "u1", &model.ChatRequest{Query: "termination?", DocumentID: "doc1"})
	require.NoError(t, err)
	require.Equal(t, "Notice is required.", answer.Answer)
	require.Equal(t, []model.Citation{{Page: "2", Text: "Termination requires notice."}}, answer.Citations)

	require.Equal(t, "user_u1", vectors.namespace)
	require.Equal(t, "doc1", vectors.filter.DocumentID)
	require.Contains(t, gen.prompt, "[Source: Page 2]\nTermination requires notice.")
	require.Contains(t, gen.prompt, "termination?")
}

func TestChatAnswerRejectsEmptyQuery(t *testing.T) {
	chat := newTestChatService(&stubDocuments{}, &stubVectors{}, &stubGenerator{})
	_, err := chat.Answer(context.Background(), "u1", &model.ChatRequest{Query: "  ", DocumentID: "doc1"})
	require.ErrorIs(t, err, appErr.ErrInvalid)
}

func TestChatAnswerWithoutDocumentQueriesWholeNamespace(t *testing.T) {
	vectors := &stubVectors{matches: []model.VectorMatch{{Page: 1, Text: "anywhere"}}}
	gen := &stubGenerator{response: "ANSWER: Found it."}
	chat := newTestChatService(&stubDocuments{err: appErr.ErrNotFound}, vectors, gen)

	answer, err := chat.Answer(context.Background(), "u1", &model.ChatRequest{Query: "q"})
	require.NoError(t, err)
	require.Equal(t, "Found it.", answer.Answer)
	require.Equal(t, "user_u1", vectors.namespace)
	require.Empty(t, vectors.filter.DocumentID)
}

func TestChatAnswerUnknownDocument(t *testing.T) {
	chat := newTestChatService(&stubDocuments{err: appErr.ErrNotFound}, &stubVectors{}, &stubGenerator{})
	_, err := chat.Answer(context.Background(), "u1", &model.ChatRequest{Query: "q", DocumentID: "other"})
	require.ErrorIs(t, err, appErr.ErrNotFound)
}

func TestChatAnswerOffTopicQuestionRefused(t *testing.T) {
	docs := &stubDocuments{doc: &model.Document{ID: "doc1"}}
	vectors := &stubVectors{matches: []model.VectorMatch{{Page: 1, Text: "Payment due in 30 days."}}}
	gen := &stubGenerator{response: "ANSWER: I'm sorry, but I can only answer questions based on the provided legal document. I don't have information regarding the weather."}

	chat := newTestChatService(docs, vectors, gen)
	answer, err := chat.Answer(context.Background(), "u1", &model.ChatRequest{Query: "What is the weather?", DocumentID: "doc1"})
	require.NoError(t, err)
	require.Contains(t, answer.Answer, "I can only answer questions based on the provided legal document")
	require.Empty(t, answer.Citations)
	// The grounding rules travel in the prompt itself.
	require.Contains(t, gen.prompt, "Base your answer ONLY on the context.")
}

func TestChatAnswerStreamAssemblesFragments(t *testing.T) {
	docs := &stubDocuments{doc: &model.Document{ID: "doc1"}}
	gen := &stubGenerator{fragments: []string{
		"ANSWER: ",
		"Hello",
		"\n---\nEVIDENCE:\n",
		`- Page 1: "hi"`,
	}}
	chat := newTestChatService(docs, &stubVectors{}, gen)

	var events []model.ChatStreamEvent
	err := chat.AnswerStream(context.Background(), "u1", &model.ChatRequest{Query: "q", DocumentID: "doc1"},
		func(event model.ChatStreamEvent) error {
			events = append(events, event)
			return nil
		})
	require.NoError(t, err)

	require.Equal(t, model.StreamEventStart, events[0].Type)
	var content strings.Builder
	for _, event := range events[1 : len(events)-1] {
		require.Equal(t, model.StreamEventChunk, event.Type)
		content.WriteString(event.Content)
	}
	last := events[len(events)-1]
	require.Equal(t, model.StreamEventComplete, last.Type)
	require.Equal(t, "Hello", last.Answer)
	require.Equal(t, []model.Citation{{Page: "1", Text: "hi"}}, last.Citations)
	require.Equal(t, "ANSWER: Hello\n---\nEVIDENCE:\n- Page 1: \"hi\"", content.String())
}

func TestChatAnswerStreamMidStreamFailure(t *testing.T) {
	docs := &stubDocuments{doc: &model.Document{ID: "doc1"}}
	gen := &stubGenerator{fragments: []string{"partial "}, streamErr: errors.New("provider boom")}
	chat := newTestChatService(docs, &stubVectors{}, gen)

	var events []model.ChatStreamEvent
	err := chat.AnswerStream(context.Background(), "u1", &model.ChatRequest{Query: "q", DocumentID: "doc1"},
		func(event model.ChatStreamEvent) error {
			events = append(events, event)
			return nil
		})
	require.NoError(t, err)

	var terminal []string
	for _, event := range events {
		if event.Type == model.StreamEventError || event.Type == model.StreamEventComplete {
			terminal = append(terminal, event.Type)
		}
	}
	require.Equal(t, []string{model.StreamEventError}, terminal)
}

func TestChatAnswerStreamSetupFailureEmitsErrorEvent(t *testing.T) {
	chat := newTestChatService(&stubDocuments{err: appErr.ErrNotFound}, &stubVectors{}, &stubGenerator{})

	var events []model.ChatStreamEvent
	err := chat.AnswerStream(context.Background(), "u1", &model.ChatRequest{Query: "q", DocumentID: "doc1"},
		func(event model.ChatStreamEvent) error {
			events = append(events, event)
			return nil
		})
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, model.StreamEventError, events[0].Type)
	require.Equal(t, "Document not found", events[0].Message)
}

func TestChatAnswerStreamAbortsWhenEmitFails(t *testing.T) {
	docs := &stubDocuments{doc: &model.Document{ID: "doc1"}}
	gen := &stubGenerator{fragments: []string{"a", "b", "c"}}
	chat := newTestChatService(docs, &stubVectors{}, gen)

	emitErr := errors.New("client gone")
	count := 0
	err := chat.AnswerStream(context.Background(), "u1", &model.ChatRequest{Query: "q", DocumentID: "doc1"},
		func(event model.ChatStreamEvent) error {
			count++
			if count == 2 {
				return emitErr
			}
			return nil
		})
	require.ErrorIs(t, err, emitErr)
	require.Equal(t, 2, count)
}
