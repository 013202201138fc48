package service

import (
	"context"
	"fmt"

	"github.com/rifalabs/rifa-engine/internal/domain"
	"github.com/rifalabs/rifa-engine/internal/monitoring"
	"github.com/rifalabs/rifa-engine/internal/repository"
	"github.com/rifalabs/rifa-engine/internal/tenant"
)

// BlocklistService manages the denylist the fraud gate consults. Manual
// blocks land next to the analyzer's automatic ones.
type BlocklistService struct {
	blocked *repository.BlockedRepository
}

func NewBlocklistService(blocked *repository.BlockedRepository) *BlocklistService {
	return &BlocklistService{blocked: blocked}
}

func (s *BlocklistService) Block(ctx context.Context, scope tenant.Scope, actor domain.User, entry domain.BlockedEntity) (domain.BlockedEntity, error) {
	entry.TenantID = scope.TenantIDPtr()

	exists, err := s.blocked.Exists(ctx, entry.Kind, entry.Value, entry.TenantID)
	if err != nil {
		return domain.BlockedEntity{}, fmt.Errorf("s.blocked.Exists -> %w", err)
	}
	if exists {
		return entry, nil
	}

	actorID := actor.ID
	created, err := s.blocked.Insert(ctx, entry, domain.ActionEntityBlocked, &actorID, string(actor.Role))
	if err != nil {
		return domain.BlockedEntity{}, fmt.Errorf("s.blocked.Insert -> %w", err)
	}
	monitoring.EntitiesBlocked.WithLabelValues(string(created.Kind)).Inc()
	return created, nil
}

func (s *BlocklistService) List(ctx context.Context, scope tenant.Scope) ([]domain.BlockedEntity, error) {
	return s.blocked.List(ctx, scope)
}
