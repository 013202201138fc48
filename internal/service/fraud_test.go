package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rifalabs/rifa-engine/internal/domain"
	"github.com/rifalabs/rifa-engine/internal/repository/dao"
	"github.com/rifalabs/rifa-engine/internal/tenant"
)

func TestGateReservationCap(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	tenantID := env.seedTenant(t)
	admin := env.seedUser(t, tenantID, domain.RoleAdmin)
	buyer := env.seedUser(t, tenantID, domain.RoleUser)
	raffleID := env.seedActiveRaffle(t, tenantID, admin.ID, domain.KindTens)
	scope := tenant.For(tenantID)

	for i := 0; i < env.fraudConf.MaxReservations; i++ {
		_, err := env.reservations.Reserve(ctx, scope, buyer, raffleID, fmt.Sprintf("%02d", i), "10.0.0.1", "ua")
		require.NoError(t, err)
	}

	_, err := env.reservations.Reserve(ctx, scope, buyer, raffleID, "99", "10.0.0.1", "ua")
	assert.ErrorIs(t, err, ErrRateLimited)
}

func TestGateCapFreesAfterPayment(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	tenantID := env.seedTenant(t)
	admin := env.seedUser(t, tenantID, domain.RoleAdmin)
	buyer := env.seedUser(t, tenantID, domain.RoleUser)
	raffleID := env.seedActiveRaffle(t, tenantID, admin.ID, domain.KindTens)
	scope := tenant.For(tenantID)

	var lastCorrelation string
	for i := 0; i < env.fraudConf.MaxReservations; i++ {
		reserved, err := env.reservations.Reserve(ctx, scope, buyer, raffleID, fmt.Sprintf("%02d", i), "10.0.0.1", "ua")
		require.NoError(t, err)
		lastCorrelation = reserved.PaymentCorrelationID
	}

	// Paying one reservation counts it out of the cap.
	_, err := env.reservations.ConfirmPayment(ctx, lastCorrelation, "", "")
	require.NoError(t, err)

	_, err = env.reservations.Reserve(ctx, scope, buyer, raffleID, "99", "10.0.0.1", "ua")
	assert.NoError(t, err)
}

func TestGateDenylist(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	tenantID := env.seedTenant(t)
	admin := env.seedUser(t, tenantID, domain.RoleAdmin)
	buyer := env.seedUser(t, tenantID, domain.RoleUser)
	raffleID := env.seedActiveRaffle(t, tenantID, admin.ID, domain.KindTens)
	scope := tenant.For(tenantID)

	require.NoError(t, env.db.Create(&dao.BlockedEntity{
		ID:       uuid.New(),
		Kind:     string(domain.BlockedUser),
		Value:    buyer.ID.String(),
		Reason:   "chargeback abuse",
		TenantID: &tenantID,
	}).Error)

	_, err := env.reservations.Reserve(ctx, scope, buyer, raffleID, "07", "10.0.0.1", "ua")
	assert.ErrorIs(t, err, ErrBlocked)

	// A global IP block (nil tenant) hits every tenant.
	other := env.seedUser(t, tenantID, domain.RoleUser)
	require.NoError(t, env.db.Create(&dao.BlockedEntity{
		ID:     uuid.New(),
		Kind:   string(domain.BlockedIP),
		Value:  "66.66.66.66",
		Reason: "botnet",
	}).Error)

	_, err = env.reservations.Reserve(ctx, scope, other, raffleID, "07", "66.66.66.66", "ua")
	assert.ErrorIs(t, err, ErrBlocked)
}

func TestGateElevatedBypass(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	tenantID := env.seedTenant(t)
	admin := env.seedUser(t, tenantID, domain.RoleAdmin)
	raffleID := env.seedActiveRaffle(t, tenantID, admin.ID, domain.KindTens)
	scope := tenant.For(tenantID)

	require.NoError(t, env.db.Create(&dao.BlockedEntity{
		ID:       uuid.New(),
		Kind:     string(domain.BlockedUser),
		Value:    admin.ID.String(),
		Reason:   "should not matter",
		TenantID: &tenantID,
	}).Error)

	_, err := env.reservations.Reserve(ctx, scope, admin, raffleID, "07", "10.0.0.1", "ua")
	assert.NoError(t, err)
}

func TestGateCooldown(t *testing.T) {
	env := newTestEnv(t)
	env.fraudConf.CooldownSeconds = 60
	ctx := context.Background()
	tenantID := env.seedTenant(t)
	admin := env.seedUser(t, tenantID, domain.RoleAdmin)
	buyer := env.seedUser(t, tenantID, domain.RoleUser)
	raffleID := env.seedActiveRaffle(t, tenantID, admin.ID, domain.KindTens)
	scope := tenant.For(tenantID)

	_, err := env.reservations.Reserve(ctx, scope, buyer, raffleID, "07", "10.0.0.1", "ua")
	require.NoError(t, err)

	_, err = env.reservations.Reserve(ctx, scope, buyer, raffleID, "08", "10.0.0.1", "ua")
	assert.ErrorIs(t, err, ErrRateLimited)
}

func TestGateIPRate(t *testing.T) {
	env := newTestEnv(t)
	env.fraudConf.IPRatePerMinute = 3
	ctx := context.Background()
	tenantID := env.seedTenant(t)
	admin := env.seedUser(t, tenantID, domain.RoleAdmin)
	raffleID := env.seedActiveRaffle(t, tenantID, admin.ID, domain.KindTens)
	scope := tenant.For(tenantID)

	// Distinct buyers behind one address; the cap never triggers.
	for i := 0; i < 3; i++ {
		buyer := env.seedUser(t, tenantID, domain.RoleUser)
		_, err := env.reservations.Reserve(ctx, scope, buyer, raffleID, fmt.Sprintf("%02d", i), "10.0.0.1", "ua")
		require.NoError(t, err)
	}

	buyer := env.seedUser(t, tenantID, domain.RoleUser)
	_, err := env.reservations.Reserve(ctx, scope, buyer, raffleID, "99", "10.0.0.1", "ua")
	assert.ErrorIs(t, err, ErrRateLimited)

	// A different address is unaffected.
	_, err = env.reservations.Reserve(ctx, scope, buyer, raffleID, "99", "10.0.0.2", "ua")
	assert.NoError(t, err)
}

func TestAnalyzerAutoBlocksHotIP(t *testing.T) {
	env := newTestEnv(t)
	env.fraudConf.AnalyzerIPPerHour = 5
	ctx := context.Background()
	tenantID := env.seedTenant(t)

	// Synthesize an hour of reservation audit rows from one address.
	for i := 0; i < 6; i++ {
		require.NoError(t, env.db.Create(&dao.AuditLog{
			ID:        uuid.New(),
			ActorRole: string(domain.RoleUser),
			Action:    domain.ActionReserveTicket,
			IPAddress: "66.66.66.66",
			TenantID:  &tenantID,
			CreatedAt: time.Now().UTC().Add(-10 * time.Minute),
		}).Error)
	}

	require.NoError(t, env.analyzer.Analyze(ctx))

	var blocked []dao.BlockedEntity
	require.NoError(t, env.db.Find(&blocked, "type = ? AND value = ?", "ip", "66.66.66.66").Error)
	require.Len(t, blocked, 1)

	// A second run does not duplicate the entry.
	require.NoError(t, env.analyzer.Analyze(ctx))
	require.NoError(t, env.db.Find(&blocked, "type = ? AND value = ?", "ip", "66.66.66.66").Error)
	assert.Len(t, blocked, 1)
}

func TestAnalyzerAutoBlocksSerialExpirer(t *testing.T) {
	env := newTestEnv(t)
	env.fraudConf.AnalyzerExpPerHour = 3
	ctx := context.Background()
	tenantID := env.seedTenant(t)
	buyer := env.seedUser(t, tenantID, domain.RoleUser)

	for i := 0; i < 4; i++ {
		buyerID := buyer.ID
		require.NoError(t, env.db.Create(&dao.AuditLog{
			ID:        uuid.New(),
			ActorID:   &buyerID,
			ActorRole: domain.ActorRoleSystem,
			Action:    domain.ActionReservationSwept,
			TenantID:  &tenantID,
			CreatedAt: time.Now().UTC().Add(-10 * time.Minute),
		}).Error)
	}

	require.NoError(t, env.analyzer.Analyze(ctx))

	var blocked []dao.BlockedEntity
	require.NoError(t, env.db.Find(&blocked, "type = ? AND value = ?", "user", buyer.ID.String()).Error)
	assert.Len(t, blocked, 1)
}
