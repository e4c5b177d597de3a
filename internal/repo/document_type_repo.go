package repo

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/didi/gendry/builder"

	"github.com/kontrakwise/backend/internal/model"
	"github.com/kontrakwise/backend/internal/pkg/dbutil"
	appErr "github.com/kontrakwise/backend/internal/pkg/errors"
)

type DocumentTypeRepo struct {
	db *sql.DB
}

func NewDocumentTypeRepo(db *sql.DB) *DocumentTypeRepo {
	return &DocumentTypeRepo{db: db}
}

func (r *DocumentTypeRepo) Create(ctx context.Context, item *model.DocumentType) error {
	rules, err := encodeRiskRules(item.RiskRules)
	if err != nil {
		return err
	}
	data := map[string]interface{}{
		"id":          item.ID,
		"user_id":     nullable(item.UserID),
		"name":        item.Name,
		"description": item.Description,
		"risk_rules":  rules,
		"ctime":       item.Ctime,
		"mtime":       item.Mtime,
	}
	sqlStr, args, err := builder.BuildInsert("document_types", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

// ListVisible returns the user's own types plus the built-in ones
// (user_id IS NULL).
func (r *DocumentTypeRepo) ListVisible(ctx context.Context, userID string, limit, offset uint) ([]model.DocumentType, error) {
	query := `
		SELECT id, COALESCE(user_id, ''), name, description, risk_rules, ctime, mtime
		FROM document_types
		WHERE user_id = $1 OR user_id IS NULL
		ORDER BY ctime ASC
	`
	args := []interface{}{userID}
	if limit > 0 {
		query += " LIMIT $2 OFFSET $3"
		args = append(args, limit, offset)
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var items []model.DocumentType
	for rows.Next() {
		item, err := scanDocumentType(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

func (r *DocumentTypeRepo) Get(ctx context.Context, userID, typeID string) (*model.DocumentType, error) {
	const query = `
		SELECT id, COALESCE(user_id, ''), name, description, risk_rules, ctime, mtime
		FROM document_types
		WHERE id = $1 AND (user_id = $2 OR user_id IS NULL)
	`
	rows, err := r.db.QueryContext(ctx, query, typeID, userID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	if !rows.Next() {
		return nil, appErr.ErrNotFound
	}
	return scanDocumentType(rows)
}

func (r *DocumentTypeRepo) Update(ctx context.Context, item *model.DocumentType) error {
	rules, err := encodeRiskRules(item.RiskRules)
	if err != nil {
		return err
	}
	where := map[string]interface{}{
		"id":      item.ID,
		"user_id": item.UserID,
	}
	update := map[string]interface{}{
		"name":        item.Name,
		"description": item.Description,
		"risk_rules":  rules,
		"mtime":       item.Mtime,
	}
	sqlStr, args, err := builder.BuildUpdate("document_types", where, update)
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

func (r *DocumentTypeRepo) Delete(ctx context.Context, userID, typeID string) error {
	where := map[string]interface{}{
		"id":      typeID,
		"user_id": userID,
	}
	sqlStr, args, err := builder.BuildDelete("document_types", where)
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

func scanDocumentType(rows *sql.Rows) (*model.DocumentType, error) {
	var item model.DocumentType
	var rules sql.NullString
	if err := rows.Scan(&item.ID, &item.UserID, &item.Name, &item.Description, &rules, &item.Ctime, &item.Mtime); err != nil {
		return nil, err
	}
	if rules.Valid && rules.String != "" {
		if err := json.Unmarshal([]byte(rules.String), &item.RiskRules); err != nil {
			return nil, err
		}
	}
	return &item, nil
}

func encodeRiskRules(rules []model.RiskRule) (interface{}, error) {
	if len(rules) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(rules)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}
