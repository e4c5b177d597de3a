package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kontrakwise/backend/internal/model"
	appErr "github.com/kontrakwise/backend/internal/pkg/errors"
	"github.com/kontrakwise/backend/internal/repo"
)

var riskSeverities = map[string]bool{
	"low":    true,
	"medium": true,
	"high":   true,
}

type DocumentTypeService struct {
	types *repo.DocumentTypeRepo
}

func NewDocumentTypeService(types *repo.DocumentTypeRepo) *DocumentTypeService {
	return &DocumentTypeService{types: types}
}

func (s *DocumentTypeService) Create(ctx context.Context, userID string, name, description string, rules []model.RiskRule) (*model.DocumentType, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", appErr.ErrInvalid)
	}
	if err := validateRiskRules(rules); err != nil {
		return nil, err
	}
	now := time.Now().UnixMilli()
	item := &model.DocumentType{
		ID:          newID(),
		UserID:      userID,
		Name:        name,
		Description: strings.TrimSpace(description),
		RiskRules:   rules,
		Ctime:       now,
		Mtime:       now,
	}
	if err := s.types.Create(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *DocumentTypeService) List(ctx context.Context, userID string, limit, offset uint) ([]model.DocumentType, error) {
	return s.types.ListVisible(ctx, userID, limit, offset)
}

func (s *DocumentTypeService) Get(ctx context.Context, userID, typeID string) (*model.DocumentType, error) {
	return s.types.Get(ctx, userID, typeID)
}

// Update rejects built-in types: the repo matches on user_id, so a built-in
// (user_id NULL) never matches and surfaces as not found.
func (s *DocumentTypeService) Update(ctx context.Context, userID, typeID string, name, description string, rules []model.RiskRule) (*model.DocumentType, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", appErr.ErrInvalid)
	}
	if err := validateRiskRules(rules); err != nil {
		return nil, err
	}
	item := &model.DocumentType{
		ID:          typeID,
		UserID:      userID,
		Name:        name,
		Description: strings.TrimSpace(description),
		RiskRules:   rules,
		Mtime:       time.Now().UnixMilli(),
	}
	if err := s.types.Update(ctx, item); err != nil {
		return nil, err
	}
	return s.types.Get(ctx, userID, typeID)
}

func (s *DocumentTypeService) Delete(ctx context.Context, userID, typeID string) error {
	return s.types.Delete(ctx, userID, typeID)
}

func validateRiskRules(rules []model.RiskRule) error {
	for i, rule := range rules {
		if strings.TrimSpace(rule.Title) == "" {
			return fmt.Errorf("%w: risk rule %d: title is required", appErr.ErrInvalid, i)
		}
		if !riskSeverities[strings.ToLower(rule.Severity)] {
			return fmt.Errorf("%w: risk rule %d: severity must be low, medium or high", appErr.ErrInvalid, i)
		}
	}
	return nil
}
