// Package tenant provides the explicit scope value threaded through every
// repository call. A scope is either bound to one tenant or unscoped for a
// global-admin principal; the data layer applies it to every query so no code
// path can forget the per-tenant filter.
package tenant

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rifalabs/rifa-engine/internal/domain"
)

var ErrCrossTenant = errors.New("principal cannot select another tenant")

type Scope struct {
	tenantID uuid.UUID
	unscoped bool
}

// For binds a scope to one tenant.
func For(tenantID uuid.UUID) Scope {
	return Scope{tenantID: tenantID}
}

// Unscoped is the cross-tenant view reserved for global admins.
func Unscoped() Scope {
	return Scope{unscoped: true}
}

// Resolve derives the scope for a principal. Non-elevated principals are
// always bound to their own tenant regardless of what they asked for; a
// global admin may select any tenant or the cross-tenant view (nil selected).
func Resolve(user domain.User, selected *uuid.UUID) (Scope, error) {
	if user.Role == domain.RoleGlobalAdmin {
		if selected == nil {
			return Unscoped(), nil
		}
		return For(*selected), nil
	}

	if selected != nil && *selected != user.TenantID {
		return Scope{}, ErrCrossTenant
	}
	return For(user.TenantID), nil
}

// TenantID returns the bound tenant and false when unscoped.
func (s Scope) TenantID() (uuid.UUID, bool) {
	if s.unscoped {
		return uuid.Nil, false
	}
	return s.tenantID, true
}

// TenantIDPtr is a convenience for audit rows and inserts.
func (s Scope) TenantIDPtr() *uuid.UUID {
	if s.unscoped {
		return nil
	}
	id := s.tenantID
	return &id
}

// Apply filters a query by the bound tenant. Meant for db.Scopes(s.Apply).
func (s Scope) Apply(db *gorm.DB) *gorm.DB {
	if s.unscoped {
		return db
	}
	return db.Where("tenant_id = ?", s.tenantID)
}

// ApplyTo is Apply with an explicit column, for joined queries where
// tenant_id would be ambiguous.
func (s Scope) ApplyTo(column string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if s.unscoped {
			return db
		}
		return db.Where(column+" = ?", s.tenantID)
	}
}
