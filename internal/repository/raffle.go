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
	ErrRaffleNotFound  = dao.ErrRaffleNotFound
	ErrRaffleNotDraft  = dao.ErrRaffleNotDraft
	ErrRaffleNotActive = dao.ErrRaffleNotActive
	ErrRaffleNotClosed = dao.ErrRaffleNotClosed
	ErrResultExists    = dao.ErrResultExists
	ErrResultNotFound  = dao.ErrResultNotFound
	ErrAlreadySettled  = dao.ErrAlreadySettled
	ErrNoPaidTickets   = dao.ErrNoPaidTickets
	ErrNoWinnerMatch   = dao.ErrNoWinnerMatch
)

type RaffleRepository struct {
	dao *dao.RaffleDAO
}

func NewRaffleRepository(raffleDAO *dao.RaffleDAO) *RaffleRepository {
	return &RaffleRepository{dao: raffleDAO}
}

func raffleDaoToDomain(r dao.Raffle) domain.Raffle {
	return domain.Raffle{
		ID:           r.ID,
		TenantID:     r.TenantID,
		OwnerID:      r.OwnerID,
		Name:         r.Name,
		Description:  r.Description,
		Kind:         domain.RaffleKind(r.Kind),
		Status:       domain.RaffleStatus(r.Status),
		TicketPrice:  r.TicketPrice,
		DrawDeadline: r.DrawDeadline,
		ClosingTime:  r.ClosingTime,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

func raffleDomainToDao(r domain.Raffle) dao.Raffle {
	return dao.Raffle{
		ID:           r.ID,
		TenantID:     r.TenantID,
		OwnerID:      r.OwnerID,
		Name:         r.Name,
		Description:  r.Description,
		Kind:         string(r.Kind),
		Status:       string(r.Status),
		TicketPrice:  r.TicketPrice,
		DrawDeadline: r.DrawDeadline,
		ClosingTime:  r.ClosingTime,
	}
}

func resultDaoToDomain(r dao.Result) domain.Result {
	return domain.Result{
		ID:        r.ID,
		RaffleID:  r.RaffleID,
		TenantID:  r.TenantID,
		Kind:      domain.RaffleKind(r.Kind),
		RawValue:  r.RawValue,
		DrawVenue: r.DrawVenue,
		DrawnAt:   r.DrawnAt,
		Settled:   r.Settled,
		CreatedBy: r.CreatedBy,
		CreatedAt: r.CreatedAt,
	}
}

// Create persists a raffle with its full ticket pool, every ticket available.
func (r *RaffleRepository) Create(ctx context.Context, raffle domain.Raffle) (domain.Raffle, error) {
	kind := raffle.Kind
	tickets := make([]dao.Ticket, 0, kind.PoolSize())
	for n := kind.FirstNumber(); n < kind.FirstNumber()+kind.PoolSize(); n++ {
		tickets = append(tickets, dao.Ticket{
			Number:      kind.FormatNumber(n),
			Status:      string(domain.TicketAvailable),
			PrizeStatus: string(domain.PrizePending),
		})
	}

	created, err := r.dao.Insert(ctx, raffleDomainToDao(raffle), tickets)
	if err != nil {
		return domain.Raffle{}, err
	}
	return raffleDaoToDomain(created), nil
}

func (r *RaffleRepository) FindByID(ctx context.Context, scope tenant.Scope, id uuid.UUID) (domain.Raffle, error) {
	raffle, err := r.dao.FindByID(ctx, scope, id)
	if err != nil {
		return domain.Raffle{}, err
	}
	return raffleDaoToDomain(raffle), nil
}

func (r *RaffleRepository) ListByStatus(ctx context.Context, scope tenant.Scope, status domain.RaffleStatus) ([]domain.Raffle, error) {
	rows, err := r.dao.ListByStatus(ctx, scope, string(status))
	if err != nil {
		return nil, err
	}
	raffles := make([]domain.Raffle, len(rows))
	for i, row := range rows {
		raffles[i] = raffleDaoToDomain(row)
	}
	return raffles, nil
}

// UpdateStatus performs one lifecycle transition, auditing it as the actor.
func (r *RaffleRepository) UpdateStatus(ctx context.Context, scope tenant.Scope, id uuid.UUID, from, to domain.RaffleStatus, actor domain.User, action string) (domain.Raffle, error) {
	actorID := actor.ID
	raffle, err := r.dao.UpdateStatus(ctx, scope, id, string(from), string(to), dao.AuditLog{
		ActorID:   &actorID,
		ActorRole: string(actor.Role),
		Action:    action,
	})
	if err != nil {
		return domain.Raffle{}, err
	}
	return raffleDaoToDomain(raffle), nil
}

func (r *RaffleRepository) CloseDue(ctx context.Context, now time.Time) (int, error) {
	return r.dao.CloseDue(ctx, now)
}

func (r *RaffleRepository) PublishResult(ctx context.Context, scope tenant.Scope, res domain.Result, actor domain.User) (domain.Result, error) {
	actorID := actor.ID
	created, err := r.dao.PublishResult(ctx, scope, dao.Result{
		RaffleID:  res.RaffleID,
		RawValue:  res.RawValue,
		DrawVenue: res.DrawVenue,
		DrawnAt:   res.DrawnAt,
		CreatedBy: actor.ID,
	}, dao.AuditLog{
		ActorID:   &actorID,
		ActorRole: string(actor.Role),
	})
	if err != nil {
		return domain.Result{}, err
	}
	return resultDaoToDomain(created), nil
}

func (r *RaffleRepository) FindResult(ctx context.Context, scope tenant.Scope, raffleID uuid.UUID) (domain.Result, error) {
	res, err := r.dao.FindResult(ctx, scope, raffleID)
	if err != nil {
		return domain.Result{}, err
	}
	return resultDaoToDomain(res), nil
}

func (r *RaffleRepository) Settle(ctx context.Context, scope tenant.Scope, raffleID uuid.UUID, actor domain.User) (int, error) {
	return r.dao.Settle(ctx, scope, raffleID, actor.ID, string(actor.Role))
}

func (r *RaffleRepository) ListWinners(ctx context.Context, scope tenant.Scope, raffleID uuid.UUID) ([]domain.Winner, error) {
	rows, err := r.dao.ListWinners(ctx, scope, raffleID)
	if err != nil {
		return nil, err
	}
	winners := make([]domain.Winner, len(rows))
	for i, row := range rows {
		winners[i] = domain.Winner{
			ID:        row.ID,
			RaffleID:  row.RaffleID,
			TicketID:  row.TicketID,
			UserID:    row.UserID,
			TenantID:  row.TenantID,
			CreatedAt: row.CreatedAt,
		}
	}
	return winners, nil
}
