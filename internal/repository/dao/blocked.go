package dao

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rifalabs/rifa-engine/internal/tenant"
)

var ErrNotBlocked = errors.New("entity is not blocked")

// BlockedEntity is a denylist row. A nil TenantID blocks across all tenants.
type BlockedEntity struct {
	ID       uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Kind     string     `gorm:"column:type;not null;index"`
	Value    string     `gorm:"not null;index"`
	Reason   string     ``
	TenantID *uuid.UUID `gorm:"type:uuid;index"`

	CreatedAt time.Time
}

type BlockedDAO struct {
	db *gorm.DB
}

func NewBlockedDAO(db *gorm.DB) *BlockedDAO {
	return &BlockedDAO{db: db}
}

// FindMatch returns the first entry matching the caller's IP or user id,
// considering both tenant-specific and global blocks.
func (d *BlockedDAO) FindMatch(ctx context.Context, scope tenant.Scope, ip string, userID uuid.UUID) (BlockedEntity, error) {
	query := d.db.WithContext(ctx).
		Where("(type = ? AND value = ?) OR (type = ? AND value = ?)", "ip", ip, "user", userID.String())

	if tenantID, ok := scope.TenantID(); ok {
		query = query.Where("tenant_id = ? OR tenant_id IS NULL", tenantID)
	}

	var blocked BlockedEntity
	result := query.First(&blocked)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return BlockedEntity{}, ErrNotBlocked
		}
		return BlockedEntity{}, result.Error
	}
	return blocked, nil
}

func (d *BlockedDAO) Exists(ctx context.Context, kind, value string, tenantID *uuid.UUID) (bool, error) {
	query := d.db.WithContext(ctx).Model(&BlockedEntity{}).
		Where("type = ? AND value = ?", kind, value)
	if tenantID != nil {
		query = query.Where("tenant_id = ?", *tenantID)
	} else {
		query = query.Where("tenant_id IS NULL")
	}

	var count int64
	if result := query.Count(&count); result.Error != nil {
		return false, result.Error
	}
	return count > 0, nil
}

func (d *BlockedDAO) Insert(ctx context.Context, blocked BlockedEntity, audit AuditLog) (BlockedEntity, error) {
	if blocked.ID == uuid.Nil {
		blocked.ID = uuid.New()
	}
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if result := tx.Create(&blocked); result.Error != nil {
			return result.Error
		}

		audit.EntityType = "blocked_entity"
		audit.EntityID = blocked.ID.String()
		audit.NewValue = MarshalSnapshot(map[string]any{
			"type":   blocked.Kind,
			"value":  blocked.Value,
			"reason": blocked.Reason,
		})
		audit.TenantID = blocked.TenantID
		AppendTx(tx, audit)

		return nil
	})
	if err != nil {
		return BlockedEntity{}, err
	}
	return blocked, nil
}

func (d *BlockedDAO) List(ctx context.Context, scope tenant.Scope) ([]BlockedEntity, error) {
	var rows []BlockedEntity
	query := d.db.WithContext(ctx).Model(&BlockedEntity{})
	if tenantID, ok := scope.TenantID(); ok {
		query = query.Where("tenant_id = ? OR tenant_id IS NULL", tenantID)
	}
	if result := query.Order("created_at DESC").Find(&rows); result.Error != nil {
		return nil, result.Error
	}
	return rows, nil
}
