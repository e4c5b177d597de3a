package job

import (
	"context"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/kontrakwise/backend/internal/repo"
	"github.com/kontrakwise/backend/internal/service"
)

const retryBatchLimit = 10

// IngestRetryJob re-runs ingestion for documents stuck in pending or failed.
// A document qualifies once it has sat untouched longer than retryAfter;
// deterministic vector ids make the rerun overwrite any partial first pass.
type IngestRetryJob struct {
	documents  *repo.DocumentRepo
	docService *service.DocumentService
	retryAfter time.Duration
}

func NewIngestRetryJob(documents *repo.DocumentRepo, docService *service.DocumentService, retryAfter time.Duration) *IngestRetryJob {
	return &IngestRetryJob{
		documents:  documents,
		docService: docService,
		retryAfter: retryAfter,
	}
}

func (j *IngestRetryJob) Name() string {
	return "ingest_retry"
}

func (j *IngestRetryJob) Run(ctx context.Context) error {
	cutoff := time.Now().Add(-j.retryAfter).UnixMilli()
	docs, err := j.documents.ListStuck(ctx, cutoff, retryBatchLimit)
	if err != nil {
		return err
	}
	for i := range docs {
		doc := &docs[i]
		logger := logutil.GetLogger(ctx).With(
			zap.String("doc_id", doc.ID),
			zap.String("progress", doc.AIProgress),
		)
		// Bump mtime first so a crash mid-ingest does not make the next
		// sweep pick the same document immediately.
		if err := j.docService.TouchMtime(ctx, doc.ID); err != nil {
			logger.Warn("touch document failed", zap.Error(err))
			continue
		}
		if err := j.docService.Reingest(ctx, doc); err != nil {
			logger.Warn("reingest failed", zap.Error(err))
			continue
		}
		logger.Info("document reingested")
	}
	return nil
}
