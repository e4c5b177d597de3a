package service

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/kontrakwise/backend/internal/filestore"
	"github.com/kontrakwise/backend/internal/ingest"
	"github.com/kontrakwise/backend/internal/model"
	appErr "github.com/kontrakwise/backend/internal/pkg/errors"
	"github.com/kontrakwise/backend/internal/repo"
)

// DocumentService owns the document lifecycle: upload, listing, deletion and
// kicking off the ingestion pipeline. Ingestion runs in the background; the
// upload call returns as soon as the record exists.
type DocumentService struct {
	documents *repo.DocumentRepo
	types     *repo.DocumentTypeRepo
	vectors   *repo.VectorRepo
	store     filestore.Store
	pipeline  *ingest.Pipeline
}

func NewDocumentService(
	documents *repo.DocumentRepo,
	types *repo.DocumentTypeRepo,
	vectors *repo.VectorRepo,
	store filestore.Store,
	pipeline *ingest.Pipeline,
) *DocumentService {
	return &DocumentService{
		documents: documents,
		types:     types,
		vectors:   vectors,
		store:     store,
		pipeline:  pipeline,
	}
}

func (s *DocumentService) Upload(ctx context.Context, userID, filename, docTypeID string, file filestore.ReadSeekCloser, size int64) (*model.Document, error) {
	filename = filepath.Base(strings.TrimSpace(filename))
	if filename == "" || filename == "." {
		return nil, fmt.Errorf("%w: filename is required", appErr.ErrInvalid)
	}
	if !strings.EqualFold(filepath.Ext(filename), ".pdf") {
		return nil, fmt.Errorf("%w: only pdf files are supported", appErr.ErrInvalid)
	}
	if docTypeID != "" {
		if _, err := s.types.Get(ctx, userID, docTypeID); err != nil {
			return nil, fmt.Errorf("document type %s: %w", docTypeID, err)
		}
	}

	docID := newID()
	key := fmt.Sprintf("%s_%s.pdf", userID, docID)
	if err := s.store.Save(ctx, key, file, size); err != nil {
		return nil, fmt.Errorf("save upload: %w", err)
	}

	// The pipeline reads from the local filesystem, so spool the upload to a
	// temp file before ingestion. Object stores cannot be read back directly.
	tmpPath, err := spoolToTemp(file)
	if err != nil {
		return nil, fmt.Errorf("spool upload: %w", err)
	}

	now := time.Now().UnixMilli()
	doc := &model.Document{
		ID:             docID,
		UserID:         userID,
		DocumentTypeID: docTypeID,
		Filename:       filename,
		FilePath:       key,
		AIProgress:     model.ProgressPending,
		Ctime:          now,
		Mtime:          now,
	}
	if err := s.documents.Create(ctx, doc); err != nil {
		_ = os.Remove(tmpPath)
		return nil, err
	}

	bgCtx := context.WithoutCancel(ctx)
	go func() {
		defer func() { _ = os.Remove(tmpPath) }()
		if err := s.pipeline.Ingest(bgCtx, tmpPath, doc.ID, doc.UserID); err != nil {
			logutil.GetLogger(bgCtx).Error("document ingestion failed",
				zap.String("doc_id", doc.ID), zap.Error(err))
		}
	}()
	return doc, nil
}

func (s *DocumentService) List(ctx context.Context, userID string, limit, offset uint) ([]model.Document, error) {
	return s.documents.ListByUser(ctx, userID, limit, offset)
}

func (s *DocumentService) Get(ctx context.Context, userID, docID string) (*model.Document, error) {
	return s.documents.Get(ctx, userID, docID)
}

// Delete removes the document record, its vectors and its stored file. The
// file removal is best-effort; the record and vectors are authoritative.
func (s *DocumentService) Delete(ctx context.Context, userID, docID string) error {
	doc, err := s.documents.Get(ctx, userID, docID)
	if err != nil {
		return err
	}
	if err := s.vectors.DeleteByDocument(ctx, ingest.Namespace(userID), docID); err != nil {
		return fmt.Errorf("delete vectors: %w", err)
	}
	if err := s.documents.Delete(ctx, userID, docID); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, doc.FilePath); err != nil {
		logutil.GetLogger(ctx).Warn("delete stored file",
			zap.String("key", doc.FilePath), zap.Error(err))
	}
	return nil
}

// Reingest re-runs the pipeline for an existing document by reading its file
// back from the store. Used by the retry job for stuck documents.
func (s *DocumentService) Reingest(ctx context.Context, doc *model.Document) error {
	f, err := s.store.Open(ctx, doc.FilePath)
	if err != nil {
		return fmt.Errorf("open stored file %s: %w", doc.FilePath, err)
	}
	tmpPath, err := spoolToTemp(f)
	_ = f.Close()
	if err != nil {
		return fmt.Errorf("spool stored file: %w", err)
	}
	defer func() { _ = os.Remove(tmpPath) }()
	return s.pipeline.Ingest(ctx, tmpPath, doc.ID, doc.UserID)
}

// TouchMtime marks a document as recently handled so the retry job does not
// pick it up again immediately.
func (s *DocumentService) TouchMtime(ctx context.Context, docID string) error {
	return s.documents.UpdateMtime(ctx, docID, time.Now().UnixMilli())
}

func spoolToTemp(r filestore.ReadSeekCloser) (string, error) {
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	tmp, err := os.CreateTemp("", "kontrakwise-*.pdf")
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(tmp, r); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return "", err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return "", err
	}
	return tmp.Name(), nil
}
