package repo

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"

	"github.com/kontrakwise/backend/internal/model"
)

// VectorRepo is the similarity-index adapter over pgvector. Namespace is
// mandatory on every call: it is the tenancy boundary, one namespace per
// user, and no query ever crosses it.
type VectorRepo struct {
	db *sql.DB
}

func NewVectorRepo(db *sql.DB) *VectorRepo {
	return &VectorRepo{db: db}
}

// Upsert writes one batch of records. The caller is responsible for batching;
// this method does not split. The (namespace, vector_id) key makes re-runs
// overwrite instead of duplicate.
func (r *VectorRepo) Upsert(ctx context.Context, namespace string, records []model.VectorRecord) error {
	if namespace == "" {
		return fmt.Errorf("vector namespace is required")
	}
	if len(records) == 0 {
		return nil
	}
	const query = `
		INSERT INTO document_vectors (namespace, vector_id, document_id, user_id, page, chunk_index, content, embedding, mtime)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (namespace, vector_id) DO UPDATE SET
			document_id = EXCLUDED.document_id,
			user_id = EXCLUDED.user_id,
			page = EXCLUDED.page,
			chunk_index = EXCLUDED.chunk_index,
			content = EXCLUDED.content,
			embedding = EXCLUDED.embedding,
			mtime = EXCLUDED.mtime
	`
	now := time.Now().UnixMilli()
	for _, record := range records {
		_, err := r.db.ExecContext(ctx, query,
			namespace,
			record.ID,
			record.DocumentID,
			record.UserID,
			record.Page,
			record.ChunkIndex,
			record.Text,
			pgvector.NewVector(record.Embedding),
			now,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

// Query returns the topK nearest records by cosine distance within the
// namespace, optionally restricted to one document.
func (r *VectorRepo) Query(ctx context.Context, namespace string, vector []float32, topK int, filter model.VectorFilter) ([]model.VectorMatch, error) {
	if namespace == "" {
		return nil, fmt.Errorf("vector namespace is required")
	}
	if topK <= 0 {
		topK = 5
	}
	query := `
		SELECT vector_id, document_id, user_id, page, chunk_index, content,
		       1 - (embedding <=> $1) AS score
		FROM document_vectors
		WHERE namespace = $2
	`
	args := []interface{}{pgvector.NewVector(vector), namespace}
	if filter.DocumentID != "" {
		query += " AND document_id = $3"
		args = append(args, filter.DocumentID)
	}
	query += fmt.Sprintf(" ORDER BY embedding <=> $1 LIMIT %d", topK)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var matches []model.VectorMatch
	for rows.Next() {
		var match model.VectorMatch
		if err := rows.Scan(&match.ID, &match.DocumentID, &match.UserID, &match.Page,
			&match.ChunkIndex, &match.Text, &match.Score); err != nil {
			return nil, err
		}
		matches = append(matches, match)
	}
	return matches, rows.Err()
}

func (r *VectorRepo) Delete(ctx context.Context, namespace string, ids []string) error {
	if namespace == "" {
		return fmt.Errorf("vector namespace is required")
	}
	if len(ids) == 0 {
		return nil
	}
	const query = `DELETE FROM document_vectors WHERE namespace = $1 AND vector_id = ANY($2)`
	_, err := r.db.ExecContext(ctx, query, namespace, pq.Array(ids))
	return err
}

func (r *VectorRepo) DeleteByDocument(ctx context.Context, namespace, docID string) error {
	if namespace == "" {
		return fmt.Errorf("vector namespace is required")
	}
	const query = `DELETE FROM document_vectors WHERE namespace = $1 AND document_id = $2`
	_, err := r.db.ExecContext(ctx, query, namespace, docID)
	return err
}
