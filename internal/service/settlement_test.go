package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rifalabs/rifa-engine/internal/domain"
	"github.com/rifalabs/rifa-engine/internal/repository/dao"
	"github.com/rifalabs/rifa-engine/internal/tenant"
)

// closedRaffleWithSale closes a raffle after selling ticket "07" to the buyer.
func (e *testEnv) closedRaffleWithSale(t *testing.T, ctx context.Context, tenantID uuid.UUID, admin, buyer domain.User) uuid.UUID {
	t.Helper()
	scope := tenant.For(tenantID)

	raffleID := e.seedActiveRaffle(t, tenantID, admin.ID, domain.KindTens)
	reserved, err := e.reservations.Reserve(ctx, scope, buyer, raffleID, "07", "10.0.0.1", "ua")
	require.NoError(t, err)
	_, err = e.reservations.ConfirmPayment(ctx, reserved.PaymentCorrelationID, "", "")
	require.NoError(t, err)

	_, err = e.raffles.Close(ctx, scope, admin, raffleID)
	require.NoError(t, err)
	return raffleID
}

func TestPublishAndSettle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	tenantID := env.seedTenant(t)
	admin := env.seedUser(t, tenantID, domain.RoleAdmin)
	buyer := env.seedUser(t, tenantID, domain.RoleUser)
	scope := tenant.For(tenantID)
	raffleID := env.closedRaffleWithSale(t, ctx, tenantID, admin, buyer)

	// The milhar "1207" ends in the sold dezena "07".
	published, err := env.settlements.PublishResult(ctx, scope, admin, raffleID, "1207", "PT-RIO", time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, domain.KindTens, published.Kind)
	assert.False(t, published.Settled)

	outcome, err := env.settlements.Settle(ctx, scope, admin, raffleID)
	require.NoError(t, err)
	assert.Equal(t, domain.RaffleSettled, outcome.RaffleStatus)
	assert.Equal(t, 1, outcome.WinnerCount)

	winners, err := env.settlements.Winners(ctx, scope, raffleID)
	require.NoError(t, err)
	require.Len(t, winners, 1)
	assert.Equal(t, buyer.ID, winners[0].UserID)

	stored, err := env.settlements.Result(ctx, scope, raffleID)
	require.NoError(t, err)
	assert.True(t, stored.Settled)
}

func TestPublishResultRejectsGarbage(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	tenantID := env.seedTenant(t)
	admin := env.seedUser(t, tenantID, domain.RoleAdmin)
	buyer := env.seedUser(t, tenantID, domain.RoleUser)
	scope := tenant.For(tenantID)
	raffleID := env.closedRaffleWithSale(t, ctx, tenantID, admin, buyer)

	_, err := env.settlements.PublishResult(ctx, scope, admin, raffleID, "12x7", "", time.Now().UTC())
	assert.ErrorIs(t, err, domain.ErrInvalidResultValue)

	// The rejected value never reached the database.
	var count int64
	require.NoError(t, env.db.Model(&dao.Result{}).Where("raffle_id = ?", raffleID).Count(&count).Error)
	assert.Zero(t, count)
}

func TestPublishResultRequiresClosedRaffle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	tenantID := env.seedTenant(t)
	admin := env.seedUser(t, tenantID, domain.RoleAdmin)
	scope := tenant.For(tenantID)
	raffleID := env.seedActiveRaffle(t, tenantID, admin.ID, domain.KindTens)

	_, err := env.settlements.PublishResult(ctx, scope, admin, raffleID, "07", "", time.Now().UTC())
	assert.ErrorIs(t, err, ErrRaffleNotClosed)
}

func TestSettleWithoutResult(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	tenantID := env.seedTenant(t)
	admin := env.seedUser(t, tenantID, domain.RoleAdmin)
	buyer := env.seedUser(t, tenantID, domain.RoleUser)
	scope := tenant.For(tenantID)
	raffleID := env.closedRaffleWithSale(t, ctx, tenantID, admin, buyer)

	_, err := env.settlements.Settle(ctx, scope, admin, raffleID)
	assert.ErrorIs(t, err, ErrResultNotFound)
}

func TestSettleTwice(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	tenantID := env.seedTenant(t)
	admin := env.seedUser(t, tenantID, domain.RoleAdmin)
	buyer := env.seedUser(t, tenantID, domain.RoleUser)
	scope := tenant.For(tenantID)
	raffleID := env.closedRaffleWithSale(t, ctx, tenantID, admin, buyer)

	_, err := env.settlements.PublishResult(ctx, scope, admin, raffleID, "07", "", time.Now().UTC())
	require.NoError(t, err)
	_, err = env.settlements.Settle(ctx, scope, admin, raffleID)
	require.NoError(t, err)

	_, err = env.settlements.Settle(ctx, scope, admin, raffleID)
	assert.ErrorIs(t, err, ErrRaffleNotClosed)
}
