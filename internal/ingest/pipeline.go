package ingest

import (
	"context"
	"fmt"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/kontrakwise/backend/internal/ai"
	"github.com/kontrakwise/backend/internal/model"
	appErr "github.com/kontrakwise/backend/internal/pkg/errors"
)

type TextExtractor interface {
	Extract(ctx context.Context, path string) ([]model.Page, error)
}

type VectorStore interface {
	Upsert(ctx context.Context, namespace string, records []model.VectorRecord) error
}

type DocumentStatusStore interface {
	UpdateProgress(ctx context.Context, docID, progress string) error
}

// Analyzer runs after vectors are written; failures are logged, never fatal.
type Analyzer interface {
	Analyze(ctx context.Context, docID, userID string, chunks []model.Chunk) error
}

// Pipeline turns an uploaded file into vector records: extract pages, chunk,
// embed each chunk, upsert in bounded batches under the owner's namespace.
// Vector ids are deterministic per (document, chunk index), so a re-run
// overwrites rather than duplicates.
type Pipeline struct {
	extractor TextExtractor
	chunker   *Chunker
	embedder  ai.IEmbedder
	vectors   VectorStore
	documents DocumentStatusStore
	analyzer  Analyzer
	batchSize int
}

func NewPipeline(
	extractor TextExtractor,
	chunker *Chunker,
	embedder ai.IEmbedder,
	vectors VectorStore,
	documents DocumentStatusStore,
	analyzer Analyzer,
	batchSize int,
) *Pipeline {
	if batchSize <= 0 {
		batchSize = 50
	}
	return &Pipeline{
		extractor: extractor,
		chunker:   chunker,
		embedder:  embedder,
		vectors:   vectors,
		documents: documents,
		analyzer:  analyzer,
		batchSize: batchSize,
	}
}

func Namespace(userID string) string {
	return "user_" + userID
}

func VectorID(docID string, chunkIndex int) string {
	return fmt.Sprintf("doc_%s_chunk_%d", docID, chunkIndex)
}

func (p *Pipeline) Ingest(ctx context.Context, filePath, docID, userID string) error {
	logger := logutil.GetLogger(ctx).With(zap.String("doc_id", docID), zap.String("user_id", userID))
	if err := p.setProgress(ctx, docID, model.ProgressExtracting); err != nil {
		return err
	}

	pages, err := p.extractor.Extract(ctx, filePath)
	if err != nil {
		p.fail(ctx, docID)
		return err
	}

	chunks := p.chunker.Chunk(pages)
	if len(chunks) == 0 {
		p.fail(ctx, docID)
		return fmt.Errorf("%w: document %s", appErr.ErrNoExtractableContent, docID)
	}
	logger.Info("document chunked", zap.Int("pages", len(pages)), zap.Int("chunks", len(chunks)))

	if err := p.setProgress(ctx, docID, model.ProgressAnalyzing); err != nil {
		return err
	}

	// Embed in chunk order so indices stay reproducible across reruns. A
	// failing chunk is skipped, not fatal.
	records := make([]model.VectorRecord, 0, len(chunks))
	for _, chunk := range chunks {
		emb, err := p.embedder.Embed(ctx, chunk.Text, "RETRIEVAL_DOCUMENT")
		if err != nil {
			logger.Warn("chunk embedding failed, skipping",
				zap.Int("chunk_index", chunk.Index),
				zap.Error(fmt.Errorf("%w: chunk %d: %v", appErr.ErrEmbeddingFailed, chunk.Index, err)))
			continue
		}
		records = append(records, model.VectorRecord{
			ID:         VectorID(docID, chunk.Index),
			Embedding:  emb,
			DocumentID: docID,
			UserID:     userID,
			Page:       chunk.Page,
			ChunkIndex: chunk.Index,
			Text:       chunk.Text,
		})
	}
	if len(records) == 0 {
		p.fail(ctx, docID)
		return fmt.Errorf("%w: no chunk could be embedded", appErr.ErrIngestionFailed)
	}

	namespace := Namespace(userID)
	for start := 0; start < len(records); start += p.batchSize {
		end := start + p.batchSize
		if end > len(records) {
			end = len(records)
		}
		if err := p.vectors.Upsert(ctx, namespace, records[start:end]); err != nil {
			// Prior batches stay in the index; the deterministic ids make the
			// next run overwrite them.
			p.fail(ctx, docID)
			return fmt.Errorf("%w: upsert batch %d: %v", appErr.ErrIngestionFailed, start/p.batchSize, err)
		}
	}
	logger.Info("vectors upserted", zap.Int("records", len(records)), zap.String("namespace", namespace))

	if p.analyzer != nil {
		if err := p.analyzer.Analyze(ctx, docID, userID, chunks); err != nil {
			logger.Warn("document analysis failed", zap.Error(err))
		}
	}

	return p.setProgress(ctx, docID, model.ProgressCompleted)
}

func (p *Pipeline) setProgress(ctx context.Context, docID, progress string) error {
	return p.documents.UpdateProgress(ctx, docID, progress)
}

func (p *Pipeline) fail(ctx context.Context, docID string) {
	if err := p.documents.UpdateProgress(context.WithoutCancel(ctx), docID, model.ProgressFailed); err != nil {
		logutil.GetLogger(ctx).Error("mark document failed", zap.String("doc_id", docID), zap.Error(err))
	}
}
