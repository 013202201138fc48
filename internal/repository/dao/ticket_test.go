package dao

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rifalabs/rifa-engine/internal/domain"
	"github.com/rifalabs/rifa-engine/internal/tenant"
)

func TestReserve(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	tn := seedTenant(t, db)
	buyer := seedUser(t, db, tn.ID, string(domain.RoleUser))
	raffle := seedRaffle(t, db, tn.ID, buyer.ID, domain.KindTens, domain.RaffleActive)
	scope := tenant.For(tn.ID)
	dao := NewTicketDAO(db)

	reserved, err := dao.Reserve(ctx, scope, raffle.ID, "07", buyer, "10.0.0.1", "test-agent", 20*time.Minute)
	require.NoError(t, err)
	assert.False(t, reserved.AlreadyHeld)
	assert.Equal(t, "07", reserved.Number)
	assert.NotEmpty(t, reserved.PaymentCorrelationID)
	assert.WithinDuration(t, time.Now().UTC().Add(20*time.Minute), reserved.ExpiresAt, 5*time.Second)

	stored := ticketByNumber(t, db, raffle.ID, "07")
	assert.Equal(t, string(domain.TicketReserved), stored.Status)
	require.NotNil(t, stored.OwnerID)
	assert.Equal(t, buyer.ID, *stored.OwnerID)

	var auditCount int64
	require.NoError(t, db.Model(&AuditLog{}).Where("action = ?", domain.ActionReserveTicket).Count(&auditCount).Error)
	assert.EqualValues(t, 1, auditCount)
}

func TestReserveConflict(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	tn := seedTenant(t, db)
	first := seedUser(t, db, tn.ID, string(domain.RoleUser))
	second := seedUser(t, db, tn.ID, string(domain.RoleUser))
	raffle := seedRaffle(t, db, tn.ID, first.ID, domain.KindTens, domain.RaffleActive)
	scope := tenant.For(tn.ID)
	dao := NewTicketDAO(db)

	_, err := dao.Reserve(ctx, scope, raffle.ID, "42", first, "10.0.0.1", "ua", 20*time.Minute)
	require.NoError(t, err)

	_, err = dao.Reserve(ctx, scope, raffle.ID, "42", second, "10.0.0.2", "ua", 20*time.Minute)
	assert.ErrorIs(t, err, ErrTicketUnavailable)
}

func TestReserveIdempotentRetry(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	tn := seedTenant(t, db)
	buyer := seedUser(t, db, tn.ID, string(domain.RoleUser))
	raffle := seedRaffle(t, db, tn.ID, buyer.ID, domain.KindTens, domain.RaffleActive)
	scope := tenant.For(tn.ID)
	dao := NewTicketDAO(db)

	first, err := dao.Reserve(ctx, scope, raffle.ID, "42", buyer, "10.0.0.1", "ua", 20*time.Minute)
	require.NoError(t, err)

	retry, err := dao.Reserve(ctx, scope, raffle.ID, "42", buyer, "10.0.0.1", "ua", 20*time.Minute)
	require.NoError(t, err)
	assert.True(t, retry.AlreadyHeld)
	assert.Equal(t, first.PaymentCorrelationID, retry.PaymentCorrelationID)
	assert.Equal(t, first.ExpiresAt.Unix(), retry.ExpiresAt.Unix())
}

func TestReserveByTicketID(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	tn := seedTenant(t, db)
	buyer := seedUser(t, db, tn.ID, string(domain.RoleUser))
	raffle := seedRaffle(t, db, tn.ID, buyer.ID, domain.KindTens, domain.RaffleActive)
	scope := tenant.For(tn.ID)
	dao := NewTicketDAO(db)

	want := ticketByNumber(t, db, raffle.ID, "13")
	reserved, err := dao.Reserve(ctx, scope, raffle.ID, want.ID.String(), buyer, "10.0.0.1", "ua", 20*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, want.ID, reserved.TicketID)
	assert.Equal(t, "13", reserved.Number)
}

func TestReserveTenantIsolation(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	tnA := seedTenant(t, db)
	tnB := seedTenant(t, db)
	buyerB := seedUser(t, db, tnB.ID, string(domain.RoleUser))
	raffleA := seedRaffle(t, db, tnA.ID, seedUser(t, db, tnA.ID, string(domain.RoleAdmin)).ID, domain.KindTens, domain.RaffleActive)
	dao := NewTicketDAO(db)

	// A ticket in tenant A does not exist for a scope bound to tenant B.
	_, err := dao.Reserve(ctx, tenant.For(tnB.ID), raffleA.ID, "07", buyerB, "10.0.0.1", "ua", 20*time.Minute)
	assert.ErrorIs(t, err, ErrTicketNotFound)
}

func TestConfirmPayment(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	tn := seedTenant(t, db)
	buyer := seedUser(t, db, tn.ID, string(domain.RoleUser))
	raffle := seedRaffle(t, db, tn.ID, buyer.ID, domain.KindTens, domain.RaffleActive)
	scope := tenant.For(tn.ID)
	dao := NewTicketDAO(db)

	reserved, err := dao.Reserve(ctx, scope, raffle.ID, "07", buyer, "10.0.0.1", "ua", 20*time.Minute)
	require.NoError(t, err)

	affected, err := dao.ConfirmPayment(ctx, reserved.PaymentCorrelationID, "10.9.9.9", "gateway")
	require.NoError(t, err)
	require.Len(t, affected, 1)
	assert.Equal(t, reserved.TicketID, affected[0])

	stored := ticketByNumber(t, db, raffle.ID, "07")
	assert.Equal(t, string(domain.TicketPaid), stored.Status)
	assert.Nil(t, stored.ReservationDeadline)

	var logs []PaymentLog
	require.NoError(t, db.Find(&logs, "ticket_id = ?", reserved.TicketID).Error)
	require.Len(t, logs, 1)
	assert.Equal(t, string(domain.PaymentLogPaid), logs[0].Status)
	assert.True(t, logs[0].Amount.Equal(raffle.TicketPrice))

	// Second webhook delivery is a no-op.
	affected, err = dao.ConfirmPayment(ctx, reserved.PaymentCorrelationID, "10.9.9.9", "gateway")
	require.NoError(t, err)
	assert.Empty(t, affected)

	require.NoError(t, db.Find(&logs, "ticket_id = ?", reserved.TicketID).Error)
	assert.Len(t, logs, 1)
}

func TestConfirmPaymentUnknownCorrelation(t *testing.T) {
	db := newTestDB(t)

	_, err := NewTicketDAO(db).ConfirmPayment(context.Background(), "no-such-checkout", "", "")
	assert.ErrorIs(t, err, ErrTicketNotFound)
}

func TestAdminMarkPaid(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	tn := seedTenant(t, db)
	admin := seedUser(t, db, tn.ID, string(domain.RoleAdmin))
	buyer := seedUser(t, db, tn.ID, string(domain.RoleUser))
	raffle := seedRaffle(t, db, tn.ID, admin.ID, domain.KindTens, domain.RaffleActive)
	scope := tenant.For(tn.ID)
	dao := NewTicketDAO(db)

	// An available ticket has no owner and cannot be billed.
	_, err := dao.AdminMarkPaid(ctx, scope, raffle.ID, "07", admin)
	assert.ErrorIs(t, err, ErrTicketNotBillable)

	_, err = dao.Reserve(ctx, scope, raffle.ID, "07", buyer, "10.0.0.1", "ua", 20*time.Minute)
	require.NoError(t, err)

	paid, err := dao.AdminMarkPaid(ctx, scope, raffle.ID, "07", admin)
	require.NoError(t, err)
	assert.Equal(t, string(domain.TicketPaid), paid.Status)

	// Marking a paid ticket again returns it unchanged.
	again, err := dao.AdminMarkPaid(ctx, scope, raffle.ID, "07", admin)
	require.NoError(t, err)
	assert.Equal(t, paid.ID, again.ID)
}

func TestAdminCancel(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	tn := seedTenant(t, db)
	admin := seedUser(t, db, tn.ID, string(domain.RoleAdmin))
	buyer := seedUser(t, db, tn.ID, string(domain.RoleUser))
	raffle := seedRaffle(t, db, tn.ID, admin.ID, domain.KindTens, domain.RaffleActive)
	scope := tenant.For(tn.ID)
	dao := NewTicketDAO(db)

	_, err := dao.Reserve(ctx, scope, raffle.ID, "07", buyer, "10.0.0.1", "ua", 20*time.Minute)
	require.NoError(t, err)

	cancelled, err := dao.AdminCancel(ctx, scope, raffle.ID, "07", admin)
	require.NoError(t, err)
	assert.Equal(t, string(domain.TicketCancelled), cancelled.Status)

	var logs []PaymentLog
	require.NoError(t, db.Find(&logs, "ticket_id = ?", cancelled.ID).Error)
	require.Len(t, logs, 1)
	assert.Equal(t, string(domain.PaymentLogCancelled), logs[0].Status)

	// Cancelling an available ticket is an illegal transition.
	var transitionErr *domain.InvalidTransitionError
	_, err = dao.AdminCancel(ctx, scope, raffle.ID, "08", admin)
	assert.ErrorAs(t, err, &transitionErr)
}

func TestSweepExpired(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	tn := seedTenant(t, db)
	buyer := seedUser(t, db, tn.ID, string(domain.RoleUser))
	raffle := seedRaffle(t, db, tn.ID, buyer.ID, domain.KindTens, domain.RaffleActive)
	scope := tenant.For(tn.ID)
	dao := NewTicketDAO(db)

	_, err := dao.Reserve(ctx, scope, raffle.ID, "07", buyer, "10.0.0.1", "ua", 20*time.Minute)
	require.NoError(t, err)
	_, err = dao.Reserve(ctx, scope, raffle.ID, "08", buyer, "10.0.0.1", "ua", 20*time.Minute)
	require.NoError(t, err)

	// Nothing is due yet.
	swept, err := dao.SweepExpired(ctx, time.Now().UTC())
	require.NoError(t, err)
	assert.Zero(t, swept)

	// An hour later both reservations are overdue.
	swept, err = dao.SweepExpired(ctx, time.Now().UTC().Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 2, swept)

	stored := ticketByNumber(t, db, raffle.ID, "07")
	assert.Equal(t, string(domain.TicketExpired), stored.Status)
	assert.Nil(t, stored.OwnerID)
	assert.Nil(t, stored.ReservationDeadline)
	assert.Nil(t, stored.PaymentCorrelationID)

	// Re-running finds nothing.
	swept, err = dao.SweepExpired(ctx, time.Now().UTC().Add(time.Hour))
	require.NoError(t, err)
	assert.Zero(t, swept)

	// An expired ticket is reservable again.
	reserved, err := dao.Reserve(ctx, scope, raffle.ID, "07", buyer, "10.0.0.1", "ua", 20*time.Minute)
	require.NoError(t, err)
	assert.False(t, reserved.AlreadyHeld)
}

func TestCountReserved(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	tn := seedTenant(t, db)
	buyer := seedUser(t, db, tn.ID, string(domain.RoleUser))
	raffle := seedRaffle(t, db, tn.ID, buyer.ID, domain.KindTens, domain.RaffleActive)
	other := seedRaffle(t, db, tn.ID, buyer.ID, domain.KindTens, domain.RaffleActive)
	scope := tenant.For(tn.ID)
	dao := NewTicketDAO(db)

	for _, number := range []string{"01", "02", "03"} {
		_, err := dao.Reserve(ctx, scope, raffle.ID, number, buyer, "10.0.0.1", "ua", 20*time.Minute)
		require.NoError(t, err)
	}
	_, err := dao.Reserve(ctx, scope, other.ID, "01", buyer, "10.0.0.1", "ua", 20*time.Minute)
	require.NoError(t, err)

	count, err := dao.CountReserved(ctx, scope, buyer.ID, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 4, count)

	count, err = dao.CountReserved(ctx, scope, buyer.ID, &raffle.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 3, count)
}
