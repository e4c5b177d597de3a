package model

type ChatRequest struct {
	Query      string `json:"query"`
	DocumentID string `json:"document_id,omitempty"`
	Role       string `json:"role,omitempty"`
}

// Citation is a page-anchored quote extracted from the model's structured
// answer. Page stays a string: it is transcribed from model output, not
// guaranteed numeric.
type Citation struct {
	Page string `json:"page"`
	Text string `json:"text"`
}

type ChatAnswer struct {
	Answer    string     `json:"answer"`
	Citations []Citation `json:"citations"`
}

// Stream event types for the SSE query endpoint. A stream carries one start
// event, zero or more chunk events, and exactly one terminal event (complete
// or error).
const (
	StreamEventStart    = "start"
	StreamEventChunk    = "chunk"
	StreamEventComplete = "complete"
	StreamEventError    = "error"
)

type ChatStreamEvent struct {
	Type      string     `json:"type"`
	Message   string     `json:"message,omitempty"`
	Content   string     `json:"content,omitempty"`
	Answer    string     `json:"answer,omitempty"`
	Citations []Citation `json:"citations,omitempty"`
}
