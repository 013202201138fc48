package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/rifalabs/rifa-engine/internal/domain"
	"github.com/rifalabs/rifa-engine/internal/repository/dao"
	"github.com/rifalabs/rifa-engine/internal/tenant"
)

var (
	ErrUserNotFound    = dao.ErrUserNotFound
	ErrUserEmailExists = dao.ErrUserEmailExists
)

type UserRepository struct {
	dao *dao.UserDAO
}

func NewUserRepository(userDAO *dao.UserDAO) *UserRepository {
	return &UserRepository{dao: userDAO}
}

func userDaoToDomain(u dao.User) domain.User {
	return domain.User{
		ID:        u.ID,
		TenantID:  u.TenantID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      domain.Role(u.Role),
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
	}
}

func (r *UserRepository) FindByID(ctx context.Context, scope tenant.Scope, id uuid.UUID) (domain.User, error) {
	user, err := r.dao.FindByID(ctx, scope, id)
	if err != nil {
		return domain.User{}, err
	}
	return userDaoToDomain(user), nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (domain.User, error) {
	user, err := r.dao.FindByEmail(ctx, email)
	if err != nil {
		return domain.User{}, err
	}
	return userDaoToDomain(user), nil
}

// ReservationTimeout returns the owner's configured reservation timeout in
// minutes, or fallback when the owner has no settings row.
func (r *UserRepository) ReservationTimeout(ctx context.Context, ownerID uuid.UUID, fallback int) (int, error) {
	settings, ok, err := r.dao.FindSettings(ctx, ownerID)
	if err != nil {
		return 0, err
	}
	if !ok || settings.ReservationTimeoutMinutes <= 0 {
		return fallback, nil
	}
	return settings.ReservationTimeoutMinutes, nil
}

// ClosingLead returns the owner's configured closing lead time in minutes.
func (r *UserRepository) ClosingLead(ctx context.Context, ownerID uuid.UUID, fallback int) (int, error) {
	settings, ok, err := r.dao.FindSettings(ctx, ownerID)
	if err != nil {
		return 0, err
	}
	if !ok || settings.ClosingLeadMinutes <= 0 {
		return fallback, nil
	}
	return settings.ClosingLeadMinutes, nil
}

func (r *UserRepository) UpsertSettings(ctx context.Context, settings domain.OwnerSettings) (domain.OwnerSettings, error) {
	updated, err := r.dao.UpsertSettings(ctx, dao.OwnerSettings{
		UserID:                    settings.UserID,
		ReservationTimeoutMinutes: settings.ReservationTimeoutMinutes,
		ClosingLeadMinutes:        settings.ClosingLeadMinutes,
	})
	if err != nil {
		return domain.OwnerSettings{}, err
	}
	return domain.OwnerSettings{
		ID:                        updated.ID,
		UserID:                    updated.UserID,
		ReservationTimeoutMinutes: updated.ReservationTimeoutMinutes,
		ClosingLeadMinutes:        updated.ClosingLeadMinutes,
	}, nil
}
