package model

// VectorRecord is one embedded chunk as stored in the vector index. ID is
// deterministic (doc_{document_id}_chunk_{index}) so re-ingestion overwrites
// instead of duplicating.
type VectorRecord struct {
	ID         string
	Embedding  []float32
	DocumentID string
	UserID     string
	Page       int
	ChunkIndex int
	Text       string
}

type VectorMatch struct {
	ID         string
	Score      float32
	DocumentID string
	UserID     string
	Page       int
	ChunkIndex int
	Text       string
}

// VectorFilter narrows a similarity query inside a namespace.
type VectorFilter struct {
	DocumentID string
}
