package service

import (
	"context"
	"fmt"

	"github.com/rifalabs/rifa-engine/internal/domain"
	"github.com/rifalabs/rifa-engine/internal/repository"
	"github.com/rifalabs/rifa-engine/internal/repository/dao"
	"github.com/rifalabs/rifa-engine/internal/tenant"
)

// AuditService exposes the append-only trail to admins, filtered by the
// caller's scope.
type AuditService struct {
	audits *repository.AuditRepository
}

func NewAuditService(audits *repository.AuditRepository) *AuditService {
	return &AuditService{audits: audits}
}

func (s *AuditService) List(ctx context.Context, scope tenant.Scope, action, entityType, entityID string, limit int) ([]domain.AuditEntry, error) {
	entries, err := s.audits.List(ctx, scope, dao.ListFilter{
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Limit:      limit,
	})
	if err != nil {
		return nil, fmt.Errorf("s.audits.List -> %w", err)
	}
	return entries, nil
}
