package dao

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrTenantNotFound = errors.New("tenant not found")

type Tenant struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name   string    `gorm:"not null"`
	Domain string    `gorm:"unique;not null"`

	CreatedAt time.Time
}

type TenantDAO struct {
	db *gorm.DB
}

func NewTenantDAO(db *gorm.DB) *TenantDAO {
	return &TenantDAO{db: db}
}

func (d *TenantDAO) Insert(ctx context.Context, tenant Tenant) (Tenant, error) {
	if tenant.ID == uuid.Nil {
		tenant.ID = uuid.New()
	}
	if result := d.db.WithContext(ctx).Create(&tenant); result.Error != nil {
		return Tenant{}, result.Error
	}
	return tenant, nil
}

func (d *TenantDAO) FindByID(ctx context.Context, id uuid.UUID) (Tenant, error) {
	var tenant Tenant
	result := d.db.WithContext(ctx).First(&tenant, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Tenant{}, ErrTenantNotFound
		}
		return Tenant{}, result.Error
	}
	return tenant, nil
}

// FindByDomain resolves the tenant serving a routable domain.
func (d *TenantDAO) FindByDomain(ctx context.Context, domain string) (Tenant, error) {
	var tenant Tenant
	result := d.db.WithContext(ctx).First(&tenant, "domain = ?", domain)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Tenant{}, ErrTenantNotFound
		}
		return Tenant{}, result.Error
	}
	return tenant, nil
}
