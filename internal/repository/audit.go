package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rifalabs/rifa-engine/internal/domain"
	"github.com/rifalabs/rifa-engine/internal/repository/dao"
	"github.com/rifalabs/rifa-engine/internal/tenant"
)

type AuditRepository struct {
	dao *dao.AuditDAO
}

func NewAuditRepository(auditDAO *dao.AuditDAO) *AuditRepository {
	return &AuditRepository{dao: auditDAO}
}

func auditDaoToDomain(row dao.AuditLog) domain.AuditEntry {
	entry := domain.AuditEntry{
		ID:         row.ID,
		ActorID:    row.ActorID,
		ActorRole:  row.ActorRole,
		Action:     row.Action,
		EntityType: row.EntityType,
		EntityID:   row.EntityID,
		IPAddress:  row.IPAddress,
		UserAgent:  row.UserAgent,
		TenantID:   row.TenantID,
		CreatedAt:  row.CreatedAt,
	}
	if row.OldValue != "" {
		_ = json.Unmarshal([]byte(row.OldValue), &entry.OldValue)
	}
	if row.NewValue != "" {
		_ = json.Unmarshal([]byte(row.NewValue), &entry.NewValue)
	}
	return entry
}

func (r *AuditRepository) List(ctx context.Context, scope tenant.Scope, filter dao.ListFilter) ([]domain.AuditEntry, error) {
	rows, err := r.dao.List(ctx, scope, filter)
	if err != nil {
		return nil, err
	}
	entries := make([]domain.AuditEntry, len(rows))
	for i, row := range rows {
		entries[i] = auditDaoToDomain(row)
	}
	return entries, nil
}

func (r *AuditRepository) CountReservationsByIP(ctx context.Context, scope tenant.Scope, ip string, since time.Time) (int64, error) {
	return r.dao.CountByIPSince(ctx, scope, ip, domain.ActionReserveTicket, since)
}

func (r *AuditRepository) SuspiciousIPs(ctx context.Context, since time.Time, threshold int) ([]dao.AggregateRow, error) {
	return r.dao.SuspiciousIPs(ctx, domain.ActionReserveTicket, since, threshold)
}

func (r *AuditRepository) SuspiciousActors(ctx context.Context, since time.Time, threshold int) ([]dao.AggregateRow, error) {
	return r.dao.SuspiciousActors(ctx, domain.ActionReservationSwept, since, threshold)
}
