package service

import (
	"context"
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
	ErrRaffleNotDraft = repository.ErrRaffleNotDraft
	ErrInvalidKind    = domain.ErrInvalidRaffleKind
)

// RaffleService manages the raffle lifecycle around the reservation and
// settlement engines: creation with the full ticket pool, activation,
// closing, and the closer job.
type RaffleService struct {
	raffles *repository.RaffleRepository
	users   *repository.UserRepository
	conf    *config.EngineConfig
}

func NewRaffleService(raffles *repository.RaffleRepository, users *repository.UserRepository, conf *config.EngineConfig) *RaffleService {
	return &RaffleService{
		raffles: raffles,
		users:   users,
		conf:    conf,
	}
}

// Create persists a draft raffle and generates its entire ticket pool at the
// kind's fixed width. When no closing time is given, sales stop a configured
// lead time before the draw.
func (s *RaffleService) Create(ctx context.Context, scope tenant.Scope, actor domain.User, raffle domain.Raffle) (domain.Raffle, error) {
	if !raffle.Kind.Valid() {
		return domain.Raffle{}, ErrInvalidKind
	}

	tenantID, ok := scope.TenantID()
	if !ok {
		tenantID = raffle.TenantID
	}
	raffle.TenantID = tenantID
	raffle.OwnerID = actor.ID
	raffle.Status = domain.RaffleDraft

	if raffle.ClosingTime == nil {
		lead, err := s.users.ClosingLead(ctx, actor.ID, s.conf.ClosingLeadMinutes)
		if err != nil {
			return domain.Raffle{}, fmt.Errorf("s.users.ClosingLead -> %w", err)
		}
		closing := raffle.DrawDeadline.Add(-time.Duration(lead) * time.Minute)
		raffle.ClosingTime = &closing
	}

	created, err := s.raffles.Create(ctx, raffle)
	if err != nil {
		return domain.Raffle{}, fmt.Errorf("s.raffles.Create -> %w", err)
	}
	return created, nil
}

// Activate opens a draft raffle for sales.
func (s *RaffleService) Activate(ctx context.Context, scope tenant.Scope, actor domain.User, raffleID uuid.UUID) (domain.Raffle, error) {
	raffle, err := s.raffles.UpdateStatus(ctx, scope, raffleID, domain.RaffleDraft, domain.RaffleActive, actor, "RAFFLE_ACTIVATED")
	if err != nil {
		return domain.Raffle{}, fmt.Errorf("s.raffles.UpdateStatus -> %w", err)
	}
	return raffle, nil
}

// Close stops sales on an active raffle ahead of settlement.
func (s *RaffleService) Close(ctx context.Context, scope tenant.Scope, actor domain.User, raffleID uuid.UUID) (domain.Raffle, error) {
	raffle, err := s.raffles.UpdateStatus(ctx, scope, raffleID, domain.RaffleActive, domain.RaffleClosed, actor, domain.ActionRaffleClosed)
	if err != nil {
		return domain.Raffle{}, fmt.Errorf("s.raffles.UpdateStatus -> %w", err)
	}
	return raffle, nil
}

// CloseDue closes every active raffle past its effective closing time.
// Called by the scheduler.
func (s *RaffleService) CloseDue(ctx context.Context) (int, error) {
	closed, err := s.raffles.CloseDue(ctx, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("s.raffles.CloseDue -> %w", err)
	}
	monitoring.RafflesClosed.Add(float64(closed))
	return closed, nil
}

func (s *RaffleService) Get(ctx context.Context, scope tenant.Scope, raffleID uuid.UUID) (domain.Raffle, error) {
	return s.raffles.FindByID(ctx, scope, raffleID)
}

func (s *RaffleService) ListByStatus(ctx context.Context, scope tenant.Scope, status domain.RaffleStatus) ([]domain.Raffle, error) {
	return s.raffles.ListByStatus(ctx, scope, status)
}
