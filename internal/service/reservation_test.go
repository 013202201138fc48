package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rifalabs/rifa-engine/internal/domain"
	"github.com/rifalabs/rifa-engine/internal/tenant"
)

func TestReserveAndRetry(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	tenantID := env.seedTenant(t)
	admin := env.seedUser(t, tenantID, domain.RoleAdmin)
	buyer := env.seedUser(t, tenantID, domain.RoleUser)
	raffleID := env.seedActiveRaffle(t, tenantID, admin.ID, domain.KindTens)
	scope := tenant.For(tenantID)

	first, err := env.reservations.Reserve(ctx, scope, buyer, raffleID, "07", "10.0.0.1", "ua")
	require.NoError(t, err)
	assert.False(t, first.AlreadyHeld)
	assert.WithinDuration(t, time.Now().UTC().Add(20*time.Minute), first.ExpiresAt, 5*time.Second)

	// Retrying is idempotent for the same holder.
	retry, err := env.reservations.Reserve(ctx, scope, buyer, raffleID, "07", "10.0.0.1", "ua")
	require.NoError(t, err)
	assert.True(t, retry.AlreadyHeld)
	assert.Equal(t, first.PaymentCorrelationID, retry.PaymentCorrelationID)

	// Another buyer loses the race.
	other := env.seedUser(t, tenantID, domain.RoleUser)
	_, err = env.reservations.Reserve(ctx, scope, other, raffleID, "07", "10.0.0.2", "ua")
	assert.ErrorIs(t, err, ErrTicketUnavailable)
}

func TestReserveInactiveRaffle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	tenantID := env.seedTenant(t)
	admin := env.seedUser(t, tenantID, domain.RoleAdmin)
	buyer := env.seedUser(t, tenantID, domain.RoleUser)
	raffleID := env.seedRaffle(t, tenantID, admin.ID, domain.KindTens, domain.RaffleDraft)

	_, err := env.reservations.Reserve(ctx, tenant.For(tenantID), buyer, raffleID, "07", "10.0.0.1", "ua")
	assert.ErrorIs(t, err, ErrRaffleNotActive)
}

func TestReserveTenantIsolation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	tenantA := env.seedTenant(t)
	tenantB := env.seedTenant(t)
	adminA := env.seedUser(t, tenantA, domain.RoleAdmin)
	buyerB := env.seedUser(t, tenantB, domain.RoleUser)
	raffleA := env.seedActiveRaffle(t, tenantA, adminA.ID, domain.KindTens)

	// Another tenant's raffle does not exist for this scope.
	_, err := env.reservations.Reserve(ctx, tenant.For(tenantB), buyerB, raffleA, "07", "10.0.0.1", "ua")
	assert.ErrorIs(t, err, ErrRaffleNotFound)
}

func TestReserveUsesOwnerTimeout(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	tenantID := env.seedTenant(t)
	admin := env.seedUser(t, tenantID, domain.RoleAdmin)
	buyer := env.seedUser(t, tenantID, domain.RoleUser)
	raffleID := env.seedActiveRaffle(t, tenantID, admin.ID, domain.KindTens)

	_, err := env.users.UpdateSettings(ctx, admin, domain.OwnerSettings{
		ReservationTimeoutMinutes: 5,
		ClosingLeadMinutes:        20,
	})
	require.NoError(t, err)

	reserved, err := env.reservations.Reserve(ctx, tenant.For(tenantID), buyer, raffleID, "07", "10.0.0.1", "ua")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().UTC().Add(5*time.Minute), reserved.ExpiresAt, 5*time.Second)
}

func TestSweepExpiredService(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	tenantID := env.seedTenant(t)
	admin := env.seedUser(t, tenantID, domain.RoleAdmin)
	buyer := env.seedUser(t, tenantID, domain.RoleUser)
	raffleID := env.seedActiveRaffle(t, tenantID, admin.ID, domain.KindTens)
	scope := tenant.For(tenantID)

	reserved, err := env.reservations.Reserve(ctx, scope, buyer, raffleID, "07", "10.0.0.1", "ua")
	require.NoError(t, err)

	// Force the deadline into the past and sweep.
	past := time.Now().UTC().Add(-time.Minute)
	require.NoError(t, env.db.Table("tickets").Where("id = ?", reserved.TicketID).
		Update("reservation_deadline", &past).Error)

	swept, err := env.reservations.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, swept)

	tickets, err := env.reservations.ListTickets(ctx, scope, raffleID)
	require.NoError(t, err)
	for _, ticket := range tickets {
		if ticket.ID == reserved.TicketID {
			assert.Equal(t, domain.TicketExpired, ticket.Status)
			assert.Nil(t, ticket.OwnerID)
		}
	}
}
