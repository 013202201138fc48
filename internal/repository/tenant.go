package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/rifalabs/rifa-engine/internal/domain"
	"github.com/rifalabs/rifa-engine/internal/repository/dao"
)

var ErrTenantNotFound = dao.ErrTenantNotFound

type TenantRepository struct {
	dao *dao.TenantDAO
}

func NewTenantRepository(tenantDAO *dao.TenantDAO) *TenantRepository {
	return &TenantRepository{dao: tenantDAO}
}

func tenantDaoToDomain(t dao.Tenant) domain.Tenant {
	return domain.Tenant{
		ID:        t.ID,
		Name:      t.Name,
		Domain:    t.Domain,
		CreatedAt: t.CreatedAt,
	}
}

func (r *TenantRepository) Insert(ctx context.Context, t domain.Tenant) (domain.Tenant, error) {
	created, err := r.dao.Insert(ctx, dao.Tenant{
		ID:     t.ID,
		Name:   t.Name,
		Domain: t.Domain,
	})
	if err != nil {
		return domain.Tenant{}, err
	}
	return tenantDaoToDomain(created), nil
}

func (r *TenantRepository) FindByID(ctx context.Context, id uuid.UUID) (domain.Tenant, error) {
	tenant, err := r.dao.FindByID(ctx, id)
	if err != nil {
		return domain.Tenant{}, err
	}
	return tenantDaoToDomain(tenant), nil
}

func (r *TenantRepository) FindByDomain(ctx context.Context, host string) (domain.Tenant, error) {
	tenant, err := r.dao.FindByDomain(ctx, host)
	if err != nil {
		return domain.Tenant{}, err
	}
	return tenantDaoToDomain(tenant), nil
}
