package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/kontrakwise/backend/internal/model"
	"github.com/kontrakwise/backend/internal/pkg/dbutil"
	appErr "github.com/kontrakwise/backend/internal/pkg/errors"
)

var documentFields = []string{
	"id", "user_id", "document_type_id", "filename", "file_path",
	"ai_progress", "summary", "risk_level", "risk_reasoning", "ctime", "mtime",
}

type DocumentRepo struct {
	db *sql.DB
}

func NewDocumentRepo(db *sql.DB) *DocumentRepo {
	return &DocumentRepo{db: db}
}

func (r *DocumentRepo) Create(ctx context.Context, doc *model.Document) error {
	data := map[string]interface{}{
		"id":               doc.ID,
		"user_id":          doc.UserID,
		"document_type_id": nullable(doc.DocumentTypeID),
		"filename":         doc.Filename,
		"file_path":        doc.FilePath,
		"ai_progress":      doc.AIProgress,
		"summary":          doc.Summary,
		"risk_level":       doc.RiskLevel,
		"risk_reasoning":   doc.RiskReasoning,
		"ctime":            doc.Ctime,
		"mtime":            doc.Mtime,
	}
	sqlStr, args, err := builder.BuildInsert("documents", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *DocumentRepo) Get(ctx context.Context, userID, docID string) (*model.Document, error) {
	where := map[string]interface{}{
		"id":      docID,
		"user_id": userID,
	}
	sqlStr, args, err := builder.BuildSelect("documents", where, documentFields)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	if !rows.Next() {
		return nil, appErr.ErrNotFound
	}
	return scanDocument(rows)
}

func (r *DocumentRepo) ListByUser(ctx context.Context, userID string, limit, offset uint) ([]model.Document, error) {
	where := map[string]interface{}{
		"user_id":  userID,
		"_orderby": "ctime desc",
	}
	if limit > 0 {
		where["_limit"] = []uint{offset, limit}
	}
	sqlStr, args, err := builder.BuildSelect("documents", where, documentFields)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var docs []model.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	return docs, rows.Err()
}

func (r *DocumentRepo) UpdateProgress(ctx context.Context, docID, progress string) error {
	return r.update(ctx, docID, map[string]interface{}{"ai_progress": progress})
}

func (r *DocumentRepo) UpdateAnalysis(ctx context.Context, docID, summary, riskLevel, riskReasoning string) error {
	return r.update(ctx, docID, map[string]interface{}{
		"summary":        summary,
		"risk_level":     riskLevel,
		"risk_reasoning": riskReasoning,
	})
}

func (r *DocumentRepo) UpdateMtime(ctx context.Context, docID string, mtime int64) error {
	return r.update(ctx, docID, map[string]interface{}{"mtime": mtime})
}

func (r *DocumentRepo) update(ctx context.Context, docID string, update map[string]interface{}) error {
	where := map[string]interface{}{"id": docID}
	sqlStr, args, err := builder.BuildUpdate("documents", where, update)
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	result, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return appErr.ErrNotFound
	}
	return nil
}

func (r *DocumentRepo) Delete(ctx context.Context, userID, docID string) error {
	where := map[string]interface{}{
		"id":      docID,
		"user_id": userID,
	}
	sqlStr, args, err := builder.BuildDelete("documents", where)
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	result, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return appErr.ErrNotFound
	}
	return nil
}

// ListStuck returns documents whose ingestion has not completed and which
// have not been touched since the cutoff; the retry job re-runs them.
func (r *DocumentRepo) ListStuck(ctx context.Context, cutoff int64, limit int) ([]model.Document, error) {
	const query = `
		SELECT id, user_id, COALESCE(document_type_id, ''), filename, file_path,
		       ai_progress, summary, risk_level, risk_reasoning, ctime, mtime
		FROM documents
		WHERE ai_progress IN ($1, $2) AND mtime < $3
		ORDER BY mtime ASC
		LIMIT $4
	`
	rows, err := r.db.QueryContext(ctx, query, model.ProgressPending, model.ProgressFailed, cutoff, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var docs []model.Document
	for rows.Next() {
		var doc model.Document
		if err := rows.Scan(&doc.ID, &doc.UserID, &doc.DocumentTypeID, &doc.Filename, &doc.FilePath,
			&doc.AIProgress, &doc.Summary, &doc.RiskLevel, &doc.RiskReasoning, &doc.Ctime, &doc.Mtime); err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func scanDocument(rows *sql.Rows) (*model.Document, error) {
	var doc model.Document
	var typeID sql.NullString
	if err := rows.Scan(&doc.ID, &doc.UserID, &typeID, &doc.Filename, &doc.FilePath,
		&doc.AIProgress, &doc.Summary, &doc.RiskLevel, &doc.RiskReasoning, &doc.Ctime, &doc.Mtime); err != nil {
		return nil, err
	}
	doc.DocumentTypeID = typeID.String
	return &doc, nil
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
