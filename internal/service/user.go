package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/rifalabs/rifa-engine/internal/domain"
	"github.com/rifalabs/rifa-engine/internal/repository"
	"github.com/rifalabs/rifa-engine/internal/tenant"
)

var ErrUserNotFound = repository.ErrUserNotFound

type UserService struct {
	users *repository.UserRepository
}

func NewUserService(users *repository.UserRepository) *UserService {
	return &UserService{users: users}
}

// GetByID loads a principal by id. Unscoped on purpose: the caller's scope is
// derived from the user row, not the other way around.
func (s *UserService) GetByID(ctx context.Context, id uuid.UUID) (domain.User, error) {
	user, err := s.users.FindByID(ctx, tenant.Unscoped(), id)
	if err != nil {
		return domain.User{}, fmt.Errorf("s.users.FindByID -> %w", err)
	}
	return user, nil
}

func (s *UserService) GetUser(ctx context.Context, scope tenant.Scope, id uuid.UUID) (domain.User, error) {
	return s.users.FindByID(ctx, scope, id)
}

// UpdateSettings stores the owner's reservation timeout and closing lead.
func (s *UserService) UpdateSettings(ctx context.Context, actor domain.User, settings domain.OwnerSettings) (domain.OwnerSettings, error) {
	settings.UserID = actor.ID
	updated, err := s.users.UpsertSettings(ctx, settings)
	if err != nil {
		return domain.OwnerSettings{}, fmt.Errorf("s.users.UpsertSettings -> %w", err)
	}
	return updated, nil
}
