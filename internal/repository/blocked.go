package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/rifalabs/rifa-engine/internal/domain"
	"github.com/rifalabs/rifa-engine/internal/repository/dao"
	"github.com/rifalabs/rifa-engine/internal/tenant"
)

var ErrNotBlocked = dao.ErrNotBlocked

type BlockedRepository struct {
	dao *dao.BlockedDAO
}

func NewBlockedRepository(blockedDAO *dao.BlockedDAO) *BlockedRepository {
	return &BlockedRepository{dao: blockedDAO}
}

func blockedDaoToDomain(b dao.BlockedEntity) domain.BlockedEntity {
	return domain.BlockedEntity{
		ID:        b.ID,
		Kind:      domain.BlockedKind(b.Kind),
		Value:     b.Value,
		Reason:    b.Reason,
		TenantID:  b.TenantID,
		CreatedAt: b.CreatedAt,
	}
}

// FindMatch returns the denylist entry blocking this caller, or ErrNotBlocked.
func (r *BlockedRepository) FindMatch(ctx context.Context, scope tenant.Scope, ip string, userID uuid.UUID) (domain.BlockedEntity, error) {
	blocked, err := r.dao.FindMatch(ctx, scope, ip, userID)
	if err != nil {
		return domain.BlockedEntity{}, err
	}
	return blockedDaoToDomain(blocked), nil
}

func (r *BlockedRepository) Exists(ctx context.Context, kind domain.BlockedKind, value string, tenantID *uuid.UUID) (bool, error) {
	return r.dao.Exists(ctx, string(kind), value, tenantID)
}

// Insert adds a denylist entry, auditing it as the given actor. A nil
// actorID records a system action.
func (r *BlockedRepository) Insert(ctx context.Context, blocked domain.BlockedEntity, action string, actorID *uuid.UUID, actorRole string) (domain.BlockedEntity, error) {
	created, err := r.dao.Insert(ctx, dao.BlockedEntity{
		Kind:     string(blocked.Kind),
		Value:    blocked.Value,
		Reason:   blocked.Reason,
		TenantID: blocked.TenantID,
	}, dao.AuditLog{
		ActorID:   actorID,
		ActorRole: actorRole,
		Action:    action,
	})
	if err != nil {
		return domain.BlockedEntity{}, err
	}
	return blockedDaoToDomain(created), nil
}

func (r *BlockedRepository) List(ctx context.Context, scope tenant.Scope) ([]domain.BlockedEntity, error) {
	rows, err := r.dao.List(ctx, scope)
	if err != nil {
		return nil, err
	}
	blocked := make([]domain.BlockedEntity, len(rows))
	for i, row := range rows {
		blocked[i] = blockedDaoToDomain(row)
	}
	return blocked, nil
}
