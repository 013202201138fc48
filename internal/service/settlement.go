package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/rifalabs/rifa-engine/internal/domain"
	"github.com/rifalabs/rifa-engine/internal/monitoring"
	"github.com/rifalabs/rifa-engine/internal/repository"
	"github.com/rifalabs/rifa-engine/internal/tenant"
)

var (
	ErrRaffleNotClosed = repository.ErrRaffleNotClosed
	ErrResultExists    = repository.ErrResultExists
	ErrResultNotFound  = repository.ErrResultNotFound
	ErrAlreadySettled  = repository.ErrAlreadySettled
	ErrNoPaidTickets   = repository.ErrNoPaidTickets
	ErrNoWinnerMatch   = repository.ErrNoWinnerMatch
)

// SettlementService publishes draw results and runs the settlement
// ("apuração") that matches them against paid tickets.
type SettlementService struct {
	raffles *repository.RaffleRepository
}

func NewSettlementService(raffles *repository.RaffleRepository) *SettlementService {
	return &SettlementService{raffles: raffles}
}

// PublishResult records the drawn value for a closed raffle. The raw value
// must normalize onto the raffle's ticket width; a raffle holds at most one
// result, ever.
func (s *SettlementService) PublishResult(ctx context.Context, scope tenant.Scope, actor domain.User, raffleID uuid.UUID, rawValue, venue string, drawnAt time.Time) (domain.Result, error) {
	raffle, err := s.raffles.FindByID(ctx, scope, raffleID)
	if err != nil {
		return domain.Result{}, fmt.Errorf("s.raffles.FindByID -> %w", err)
	}
	if _, err := raffle.Kind.NormalizeResult(rawValue); err != nil {
		return domain.Result{}, err
	}

	result, err := s.raffles.PublishResult(ctx, scope, domain.Result{
		RaffleID:  raffleID,
		RawValue:  rawValue,
		DrawVenue: venue,
		DrawnAt:   drawnAt,
	}, actor)
	if err != nil {
		return domain.Result{}, fmt.Errorf("s.raffles.PublishResult -> %w", err)
	}
	return result, nil
}

// Settle classifies every paid ticket against the published result and
// records winners exactly once. Runs at most once successfully per result.
func (s *SettlementService) Settle(ctx context.Context, scope tenant.Scope, actor domain.User, raffleID uuid.UUID) (domain.SettleOutcome, error) {
	winnerCount, err := s.raffles.Settle(ctx, scope, raffleID, actor)
	if err != nil {
		switch {
		case errors.Is(err, ErrRaffleNotClosed),
			errors.Is(err, ErrResultNotFound),
			errors.Is(err, ErrAlreadySettled),
			errors.Is(err, ErrNoPaidTickets),
			errors.Is(err, ErrNoWinnerMatch):
			monitoring.SettlementRuns.WithLabelValues("rejected").Inc()
		default:
			monitoring.SettlementRuns.WithLabelValues("error").Inc()
		}
		return domain.SettleOutcome{}, fmt.Errorf("s.raffles.Settle -> %w", err)
	}

	monitoring.SettlementRuns.WithLabelValues("success").Inc()
	return domain.SettleOutcome{
		RaffleStatus: domain.RaffleSettled,
		WinnerCount:  winnerCount,
	}, nil
}

func (s *SettlementService) Result(ctx context.Context, scope tenant.Scope, raffleID uuid.UUID) (domain.Result, error) {
	return s.raffles.FindResult(ctx, scope, raffleID)
}

func (s *SettlementService) Winners(ctx context.Context, scope tenant.Scope, raffleID uuid.UUID) ([]domain.Winner, error) {
	return s.raffles.ListWinners(ctx, scope, raffleID)
}
