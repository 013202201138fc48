package domain

import (
	"time"

	"github.com/google/uuid"
)

// Role is the principal role axis.
type Role string

const (
	RoleGlobalAdmin Role = "GLOBAL_ADMIN"
	RoleAdmin       Role = "ADMIN" // tenant admin
	RoleUser        Role = "USER"  // tenant user
)

func (r Role) Valid() bool {
	switch r {
	case RoleGlobalAdmin, RoleAdmin, RoleUser:
		return true
	}
	return false
}

// Elevated principals bypass the fraud gate and may perform admin operations.
func (r Role) Elevated() bool {
	return r == RoleGlobalAdmin || r == RoleAdmin
}

type User struct {
	ID       uuid.UUID
	TenantID uuid.UUID
	Name     string
	Email    string
	Role     Role
	IsActive bool

	CreatedAt time.Time
}

// OwnerSettings holds per-raffle-owner rules.
type OwnerSettings struct {
	ID     uuid.UUID
	UserID uuid.UUID

	ReservationTimeoutMinutes int
	ClosingLeadMinutes        int
}
