package tenant

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rifalabs/rifa-engine/internal/domain"
)

func TestResolveGlobalAdmin(t *testing.T) {
	admin := domain.User{ID: uuid.New(), TenantID: uuid.New(), Role: domain.RoleGlobalAdmin}

	// No selection: the cross-tenant view.
	scope, err := Resolve(admin, nil)
	require.NoError(t, err)
	_, bound := scope.TenantID()
	assert.False(t, bound)
	assert.Nil(t, scope.TenantIDPtr())

	// Any tenant may be selected, including a foreign one.
	selected := uuid.New()
	scope, err = Resolve(admin, &selected)
	require.NoError(t, err)
	got, bound := scope.TenantID()
	require.True(t, bound)
	assert.Equal(t, selected, got)
}

func TestResolveRegularUser(t *testing.T) {
	user := domain.User{ID: uuid.New(), TenantID: uuid.New(), Role: domain.RoleUser}

	// Without a selection the user is bound to their own tenant.
	scope, err := Resolve(user, nil)
	require.NoError(t, err)
	got, bound := scope.TenantID()
	require.True(t, bound)
	assert.Equal(t, user.TenantID, got)

	// Selecting the own tenant is a no-op.
	own := user.TenantID
	scope, err = Resolve(user, &own)
	require.NoError(t, err)
	got, _ = scope.TenantID()
	assert.Equal(t, user.TenantID, got)

	// Selecting any other tenant is rejected.
	foreign := uuid.New()
	_, err = Resolve(user, &foreign)
	assert.ErrorIs(t, err, ErrCrossTenant)
}

func TestResolveTenantAdminCannotCross(t *testing.T) {
	admin := domain.User{ID: uuid.New(), TenantID: uuid.New(), Role: domain.RoleAdmin}

	foreign := uuid.New()
	_, err := Resolve(admin, &foreign)
	assert.ErrorIs(t, err, ErrCrossTenant)
}
