package errors

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalid      = errors.New("invalid")
	ErrConflict     = errors.New("conflict")
	ErrTooMany      = errors.New("too many requests")
	ErrInternal     = errors.New("internal")

	// Ingestion / query pipeline failures.
	ErrExtractionFailed     = errors.New("extraction failed")
	ErrNoExtractableContent = errors.New("no extractable content")
	ErrEmbeddingFailed      = errors.New("embedding failed")
	ErrIngestionFailed      = errors.New("ingestion failed")
	ErrGenerationFailed     = errors.New("generation failed")
)

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}
