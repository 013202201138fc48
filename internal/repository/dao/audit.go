package dao

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/rifalabs/rifa-engine/internal/tenant"
)

// AuditLog rows are append-only; nothing in the engine updates or deletes
// them.
type AuditLog struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	ActorID   *uuid.UUID `gorm:"type:uuid;index"`
	ActorRole string

	Action     string `gorm:"not null;index"`
	EntityType string `gorm:"not null"`
	EntityID   string `gorm:"not null;index"`

	OldValue string `gorm:"type:jsonb"`
	NewValue string `gorm:"type:jsonb"`

	IPAddress string `gorm:"index"`
	UserAgent string
	TenantID  *uuid.UUID `gorm:"type:uuid;index"`

	CreatedAt time.Time `gorm:"not null;index"`
}

type AuditDAO struct {
	db *gorm.DB
}

func NewAuditDAO(db *gorm.DB) *AuditDAO {
	return &AuditDAO{db: db}
}

// AppendTx inserts one audit row inside the caller's transaction. A failed
// audit write is logged and swallowed so it never alters the outcome of the
// primary operation.
func AppendTx(tx *gorm.DB, row AuditLog) {
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	if err := tx.Create(&row).Error; err != nil {
		zap.L().Error("failed to append audit log",
			zap.String("action", row.Action),
			zap.String("entity_id", row.EntityID),
			zap.Error(err),
		)
	}
}

// MarshalSnapshot serializes a before/after state snapshot for an audit row.
func MarshalSnapshot(snapshot map[string]any) string {
	if snapshot == nil {
		return ""
	}
	raw, err := json.Marshal(snapshot)
	if err != nil {
		zap.L().Error("failed to marshal audit snapshot", zap.Error(err))
		return ""
	}
	return string(raw)
}

// CountByIPSince counts audit rows for one action from one IP, for the fraud
// gate's trailing-window rate limit.
func (d *AuditDAO) CountByIPSince(ctx context.Context, scope tenant.Scope, ip, action string, since time.Time) (int64, error) {
	var count int64
	result := d.db.WithContext(ctx).Model(&AuditLog{}).
		Scopes(scope.Apply).
		Where("ip_address = ? AND action = ? AND created_at >= ?", ip, action, since).
		Count(&count)
	if result.Error != nil {
		return 0, result.Error
	}
	return count, nil
}

type ListFilter struct {
	Action     string
	EntityType string
	EntityID   string
	Limit      int
}

// List returns recent audit rows, newest first, filtered by scope.
func (d *AuditDAO) List(ctx context.Context, scope tenant.Scope, filter ListFilter) ([]AuditLog, error) {
	query := d.db.WithContext(ctx).Model(&AuditLog{}).Scopes(scope.Apply)
	if filter.Action != "" {
		query = query.Where("action = ?", filter.Action)
	}
	if filter.EntityType != "" {
		query = query.Where("entity_type = ?", filter.EntityType)
	}
	if filter.EntityID != "" {
		query = query.Where("entity_id = ?", filter.EntityID)
	}
	limit := filter.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	var rows []AuditLog
	if result := query.Order("created_at DESC").Limit(limit).Find(&rows); result.Error != nil {
		return nil, result.Error
	}
	return rows, nil
}

// AggregateRow is one (tenant, value, count) group from the analyzer queries.
type AggregateRow struct {
	TenantID uuid.UUID
	Value    string
	Count    int64
}

// SuspiciousIPs groups reservation actions per tenant and IP over the window
// and returns the groups above the threshold.
func (d *AuditDAO) SuspiciousIPs(ctx context.Context, action string, since time.Time, threshold int) ([]AggregateRow, error) {
	var rows []AggregateRow
	result := d.db.WithContext(ctx).Model(&AuditLog{}).
		Select("tenant_id AS tenant_id, ip_address AS value, COUNT(*) AS count").
		Where("action = ? AND created_at >= ?", action, since).
		Where("ip_address <> '' AND tenant_id IS NOT NULL").
		Group("tenant_id, ip_address").
		Having("COUNT(*) > ?", threshold).
		Scan(&rows)
	if result.Error != nil {
		return nil, result.Error
	}
	return rows, nil
}

// SuspiciousActors groups rows per tenant and actor, for the
// excessive-expirations rule.
func (d *AuditDAO) SuspiciousActors(ctx context.Context, action string, since time.Time, threshold int) ([]AggregateRow, error) {
	var rows []AggregateRow
	result := d.db.WithContext(ctx).Model(&AuditLog{}).
		Select("tenant_id AS tenant_id, CAST(actor_id AS TEXT) AS value, COUNT(*) AS count").
		Where("action = ? AND created_at >= ?", action, since).
		Where("actor_id IS NOT NULL AND tenant_id IS NOT NULL").
		Group("tenant_id, actor_id").
		Having("COUNT(*) > ?", threshold).
		Scan(&rows)
	if result.Error != nil {
		return nil, result.Error
	}
	return rows, nil
}
