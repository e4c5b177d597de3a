package model

// Page is a single physical page of extracted text, 1-indexed.
type Page struct {
	Number int
	Text   string
}

// Chunk is a bounded span of page text. Index is sequential across the whole
// document; Page is the page the chunk's text began on.
type Chunk struct {
	Index int
	Page  int
	Text  string
}
