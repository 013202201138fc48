package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/rifalabs/rifa-engine/internal/config"
	"github.com/rifalabs/rifa-engine/internal/domain"
	"github.com/rifalabs/rifa-engine/internal/monitoring"
	"github.com/rifalabs/rifa-engine/internal/repository"
	"github.com/rifalabs/rifa-engine/internal/tenant"
)

var (
	ErrRaffleNotFound    = repository.ErrRaffleNotFound
	ErrRaffleNotActive   = repository.ErrRaffleNotActive
	ErrTicketNotFound    = repository.ErrTicketNotFound
	ErrTicketUnavailable = repository.ErrTicketUnavailable
	ErrTicketNotBillable = repository.ErrTicketNotBillable
)

// ReservationService owns the ticket sales axis: reservations, payment
// confirmation and the administrative overrides.
type ReservationService struct {
	raffles *repository.RaffleRepository
	tickets *repository.TicketRepository
	users   *repository.UserRepository
	gate    *FraudGate
	conf    *config.EngineConfig
}

func NewReservationService(raffles *repository.RaffleRepository, tickets *repository.TicketRepository, users *repository.UserRepository, gate *FraudGate, conf *config.EngineConfig) *ReservationService {
	return &ReservationService{
		raffles: raffles,
		tickets: tickets,
		users:   users,
		gate:    gate,
		conf:    conf,
	}
}

// Reserve places a time-boxed exclusive hold on one ticket. The fraud gate
// runs first; the raffle must be active and visible in the caller's scope.
func (s *ReservationService) Reserve(ctx context.Context, scope tenant.Scope, actor domain.User, raffleID uuid.UUID, ticketRef, ip, userAgent string) (domain.Reservation, error) {
	if err := s.gate.Check(ctx, scope, actor, ip, raffleID); err != nil {
		switch {
		case errors.Is(err, ErrBlocked):
			monitoring.ReservationAttempts.WithLabelValues("blocked").Inc()
		case errors.Is(err, ErrRateLimited):
			monitoring.ReservationAttempts.WithLabelValues("rate_limited").Inc()
		}
		return domain.Reservation{}, err
	}

	raffle, err := s.raffles.FindByID(ctx, scope, raffleID)
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("s.raffles.FindByID -> %w", err)
	}
	if raffle.Status != domain.RaffleActive {
		return domain.Reservation{}, ErrRaffleNotActive
	}

	timeoutMinutes, err := s.users.ReservationTimeout(ctx, raffle.OwnerID, s.conf.ReservationTimeoutMinutes)
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("s.users.ReservationTimeout -> %w", err)
	}

	reservation, err := s.tickets.Reserve(ctx, scope, raffle.ID, ticketRef, actor, ip, userAgent, time.Duration(timeoutMinutes)*time.Minute)
	if err != nil {
		if errors.Is(err, ErrTicketUnavailable) {
			monitoring.ReservationAttempts.WithLabelValues("conflict").Inc()
		} else {
			monitoring.ReservationAttempts.WithLabelValues("error").Inc()
		}
		return domain.Reservation{}, fmt.Errorf("s.tickets.Reserve -> %w", err)
	}

	if reservation.AlreadyHeld {
		monitoring.ReservationAttempts.WithLabelValues("already_held").Inc()
	} else {
		monitoring.ReservationAttempts.WithLabelValues("reserved").Inc()
	}
	return reservation, nil
}

// ConfirmPayment is invoked by a payment-gateway webhook adapter once a
// checkout is paid. Idempotent; returns the affected ticket ids.
func (s *ReservationService) ConfirmPayment(ctx context.Context, correlationID, ip, userAgent string) ([]uuid.UUID, error) {
	affected, err := s.tickets.ConfirmPayment(ctx, correlationID, ip, userAgent)
	if err != nil {
		return nil, fmt.Errorf("s.tickets.ConfirmPayment -> %w", err)
	}
	return affected, nil
}

// AdminMarkPaid forces a held or cancelled ticket to paid.
func (s *ReservationService) AdminMarkPaid(ctx context.Context, scope tenant.Scope, actor domain.User, raffleID uuid.UUID, ticketRef string) (domain.Ticket, error) {
	ticket, err := s.tickets.AdminMarkPaid(ctx, scope, raffleID, ticketRef, actor)
	if err != nil {
		return domain.Ticket{}, fmt.Errorf("s.tickets.AdminMarkPaid -> %w", err)
	}
	return ticket, nil
}

// AdminCancel voids a reservation or purchase.
func (s *ReservationService) AdminCancel(ctx context.Context, scope tenant.Scope, actor domain.User, raffleID uuid.UUID, ticketRef string) (domain.Ticket, error) {
	ticket, err := s.tickets.AdminCancel(ctx, scope, raffleID, ticketRef, actor)
	if err != nil {
		return domain.Ticket{}, fmt.Errorf("s.tickets.AdminCancel -> %w", err)
	}
	return ticket, nil
}

// SweepExpired reclaims overdue reservations. Called by the scheduler.
func (s *ReservationService) SweepExpired(ctx context.Context) (int, error) {
	swept, err := s.tickets.SweepExpired(ctx, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("s.tickets.SweepExpired -> %w", err)
	}
	monitoring.TicketsExpired.Add(float64(swept))
	return swept, nil
}

func (s *ReservationService) ListTickets(ctx context.Context, scope tenant.Scope, raffleID uuid.UUID) ([]domain.Ticket, error) {
	if _, err := s.raffles.FindByID(ctx, scope, raffleID); err != nil {
		return nil, fmt.Errorf("s.raffles.FindByID -> %w", err)
	}
	return s.tickets.ListByRaffle(ctx, scope, raffleID)
}
