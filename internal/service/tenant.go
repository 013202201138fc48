package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/rifalabs/rifa-engine/internal/domain"
	"github.com/rifalabs/rifa-engine/internal/repository"
)

var ErrTenantNotFound = repository.ErrTenantNotFound

// TenantService provisions and looks up tenants. Reserved for global admins;
// the handler enforces that.
type TenantService struct {
	tenants *repository.TenantRepository
}

func NewTenantService(tenants *repository.TenantRepository) *TenantService {
	return &TenantService{tenants: tenants}
}

func (s *TenantService) Create(ctx context.Context, t domain.Tenant) (domain.Tenant, error) {
	created, err := s.tenants.Insert(ctx, t)
	if err != nil {
		return domain.Tenant{}, fmt.Errorf("s.tenants.Insert -> %w", err)
	}
	return created, nil
}

func (s *TenantService) Get(ctx context.Context, id uuid.UUID) (domain.Tenant, error) {
	return s.tenants.FindByID(ctx, id)
}

// GetByDomain resolves the tenant serving a routable domain.
func (s *TenantService) GetByDomain(ctx context.Context, host string) (domain.Tenant, error) {
	return s.tenants.FindByDomain(ctx, host)
}
