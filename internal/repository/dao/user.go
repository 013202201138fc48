package dao

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/rifalabs/rifa-engine/internal/tenant"
)

var (
	ErrUserEmailExists = errors.New("user already exists")
	ErrUserNotFound    = errors.New("user not found")
)

type User struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey"`
	TenantID uuid.UUID `gorm:"type:uuid;not null;index"`

	Name     string
	Email    string `gorm:"unique;not null"`
	Password string `gorm:"not null"`
	Role     string `gorm:"not null;default:USER"`
	IsActive bool   `gorm:"not null;default:true"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// OwnerSettings holds per-raffle-owner rules such as the reservation timeout.
type OwnerSettings struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID uuid.UUID `gorm:"type:uuid;unique;not null"`

	ReservationTimeoutMinutes int `gorm:"default:20"`
	ClosingLeadMinutes        int `gorm:"default:20"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

type UserDAO struct {
	db *gorm.DB
}

func NewUserDAO(db *gorm.DB) *UserDAO {
	return &UserDAO{db: db}
}

func (d *UserDAO) Insert(ctx context.Context, user User) (User, error) {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}

	result := d.db.WithContext(ctx).Create(&user)
	if result.Error != nil {
		var err *pgconn.PgError
		if errors.As(result.Error, &err) &&
			err.Code == pgerrcode.UniqueViolation &&
			strings.Contains(err.Message, `unique constraint "uni_users_email"`) {
			return User{}, ErrUserEmailExists
		}

		return User{}, result.Error
	}

	return user, nil
}

func (d *UserDAO) FindByID(ctx context.Context, scope tenant.Scope, id uuid.UUID) (User, error) {
	var user User
	result := d.db.WithContext(ctx).Scopes(scope.Apply).First(&user, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return User{}, ErrUserNotFound
		}
		return User{}, result.Error
	}
	return user, nil
}

func (d *UserDAO) FindByEmail(ctx context.Context, email string) (User, error) {
	var user User
	result := d.db.WithContext(ctx).First(&user, "email = ?", email)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return User{}, ErrUserNotFound
		}
		return User{}, result.Error
	}
	return user, nil
}

// UpsertSettings creates or replaces the owner's rules row.
func (d *UserDAO) UpsertSettings(ctx context.Context, settings OwnerSettings) (OwnerSettings, error) {
	var existing OwnerSettings
	err := d.db.WithContext(ctx).First(&existing, "user_id = ?", settings.UserID).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		settings.ID = uuid.New()
		if result := d.db.WithContext(ctx).Create(&settings); result.Error != nil {
			return OwnerSettings{}, result.Error
		}
		return settings, nil
	case err != nil:
		return OwnerSettings{}, err
	}

	existing.ReservationTimeoutMinutes = settings.ReservationTimeoutMinutes
	existing.ClosingLeadMinutes = settings.ClosingLeadMinutes
	if result := d.db.WithContext(ctx).Save(&existing); result.Error != nil {
		return OwnerSettings{}, result.Error
	}
	return existing, nil
}

// FindSettings returns the owner's rules, or ok=false when none are stored.
func (d *UserDAO) FindSettings(ctx context.Context, ownerID uuid.UUID) (OwnerSettings, bool, error) {
	var settings OwnerSettings
	result := d.db.WithContext(ctx).First(&settings, "user_id = ?", ownerID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return OwnerSettings{}, false, nil
		}
		return OwnerSettings{}, false, result.Error
	}
	return settings, true, nil
}
