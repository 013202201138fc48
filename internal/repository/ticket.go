package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/rifalabs/rifa-engine/internal/domain"
	"github.com/rifalabs/rifa-engine/internal/repository/dao"
	"github.com/rifalabs/rifa-engine/internal/tenant"
)

var (
	ErrTicketNotFound    = dao.ErrTicketNotFound
	ErrTicketUnavailable = dao.ErrTicketUnavailable
	ErrTicketNotBillable = dao.ErrTicketNotBillable
)

type TicketRepository struct {
	dao *dao.TicketDAO
}

func NewTicketRepository(ticketDAO *dao.TicketDAO) *TicketRepository {
	return &TicketRepository{dao: ticketDAO}
}

func ticketDaoToDomain(t dao.Ticket) domain.Ticket {
	return domain.Ticket{
		ID:                   t.ID,
		RaffleID:             t.RaffleID,
		TenantID:             t.TenantID,
		Number:               t.Number,
		Status:               domain.TicketStatus(t.Status),
		PrizeStatus:          domain.PrizeStatus(t.PrizeStatus),
		OwnerID:              t.OwnerID,
		ReservationDeadline:  t.ReservationDeadline,
		PaymentCorrelationID: t.PaymentCorrelationID,
		CreatedAt:            t.CreatedAt,
		UpdatedAt:            t.UpdatedAt,
	}
}

func ticketsDaoToDomain(rows []dao.Ticket) []domain.Ticket {
	tickets := make([]domain.Ticket, len(rows))
	for i, row := range rows {
		tickets[i] = ticketDaoToDomain(row)
	}
	return tickets
}

func (r *TicketRepository) Reserve(ctx context.Context, scope tenant.Scope, raffleID uuid.UUID, ref string, actor domain.User, ip, userAgent string, timeout time.Duration) (domain.Reservation, error) {
	reserved, err := r.dao.Reserve(ctx, scope, raffleID, ref, dao.User{ID: actor.ID, Role: string(actor.Role)}, ip, userAgent, timeout)
	if err != nil {
		return domain.Reservation{}, err
	}
	return domain.Reservation{
		TicketID:             reserved.TicketID,
		Number:               reserved.Number,
		PaymentCorrelationID: reserved.PaymentCorrelationID,
		ExpiresAt:            reserved.ExpiresAt,
		AlreadyHeld:          reserved.AlreadyHeld,
	}, nil
}

func (r *TicketRepository) ConfirmPayment(ctx context.Context, correlationID, ip, userAgent string) ([]uuid.UUID, error) {
	return r.dao.ConfirmPayment(ctx, correlationID, ip, userAgent)
}

func (r *TicketRepository) AdminMarkPaid(ctx context.Context, scope tenant.Scope, raffleID uuid.UUID, ref string, actor domain.User) (domain.Ticket, error) {
	ticket, err := r.dao.AdminMarkPaid(ctx, scope, raffleID, ref, dao.User{ID: actor.ID, Role: string(actor.Role)})
	if err != nil {
		return domain.Ticket{}, err
	}
	return ticketDaoToDomain(ticket), nil
}

func (r *TicketRepository) AdminCancel(ctx context.Context, scope tenant.Scope, raffleID uuid.UUID, ref string, actor domain.User) (domain.Ticket, error) {
	ticket, err := r.dao.AdminCancel(ctx, scope, raffleID, ref, dao.User{ID: actor.ID, Role: string(actor.Role)})
	if err != nil {
		return domain.Ticket{}, err
	}
	return ticketDaoToDomain(ticket), nil
}

func (r *TicketRepository) SweepExpired(ctx context.Context, now time.Time) (int, error) {
	return r.dao.SweepExpired(ctx, now)
}

func (r *TicketRepository) CountReserved(ctx context.Context, scope tenant.Scope, userID uuid.UUID, raffleID *uuid.UUID) (int64, error) {
	return r.dao.CountReserved(ctx, scope, userID, raffleID)
}

func (r *TicketRepository) LastReservedAt(ctx context.Context, scope tenant.Scope, userID uuid.UUID) (time.Time, bool, error) {
	return r.dao.LastReservedAt(ctx, scope, userID)
}

func (r *TicketRepository) ListByRaffle(ctx context.Context, scope tenant.Scope, raffleID uuid.UUID) ([]domain.Ticket, error) {
	rows, err := r.dao.ListByRaffle(ctx, scope, raffleID)
	if err != nil {
		return nil, err
	}
	return ticketsDaoToDomain(rows), nil
}

func (r *TicketRepository) FindByRef(ctx context.Context, scope tenant.Scope, raffleID uuid.UUID, ref string) (domain.Ticket, error) {
	ticket, err := r.dao.FindByRef(ctx, scope, raffleID, ref)
	if err != nil {
		return domain.Ticket{}, err
	}
	return ticketDaoToDomain(ticket), nil
}
