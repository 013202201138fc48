package dao

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/rifalabs/rifa-engine/internal/domain"
	"github.com/rifalabs/rifa-engine/internal/tenant"
)

var (
	ErrRaffleNotFound  = errors.New("raffle not found")
	ErrRaffleNotDraft  = errors.New("raffle is not a draft")
	ErrRaffleNotActive = errors.New("raffle is not active")
	ErrRaffleNotClosed = errors.New("raffle is not closed")
	ErrResultExists    = errors.New("result already published for this raffle")
	ErrResultNotFound  = errors.New("no result published for this raffle")
	ErrAlreadySettled  = errors.New("raffle already settled for this result")
	ErrNoPaidTickets   = errors.New("raffle has no paid tickets")
	ErrNoWinnerMatch   = errors.New("result does not match any paid ticket")
)

type Raffle struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey"`
	TenantID uuid.UUID `gorm:"type:uuid;not null;index"`
	OwnerID  uuid.UUID `gorm:"type:uuid;not null;index"`

	Name        string `gorm:"not null"`
	Description string
	Kind        string          `gorm:"not null"`
	Status      string          `gorm:"not null;index"`
	TicketPrice decimal.Decimal `gorm:"type:numeric(10,2);not null"`

	DrawDeadline time.Time `gorm:"not null"`
	ClosingTime  *time.Time

	Tickets []Ticket `gorm:"foreignKey:RaffleID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Result is unique per raffle and immutable once settled.
type Result struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey"`
	RaffleID uuid.UUID `gorm:"type:uuid;unique;not null"`
	TenantID uuid.UUID `gorm:"type:uuid;not null;index"`

	Kind      string    `gorm:"not null"`
	RawValue  string    `gorm:"not null"`
	DrawVenue string    `gorm:"not null"`
	DrawnAt   time.Time `gorm:"not null"`
	Settled   bool      `gorm:"not null;default:false"`

	CreatedBy uuid.UUID `gorm:"type:uuid;not null"`
	CreatedAt time.Time
}

type Winner struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey"`
	RaffleID uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_winner_entry"`
	TicketID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_winner_entry"`
	UserID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_winner_entry"`
	TenantID uuid.UUID `gorm:"type:uuid;not null;index"`

	CreatedAt time.Time
}

type RaffleDAO struct {
	db *gorm.DB
}

func NewRaffleDAO(db *gorm.DB) *RaffleDAO {
	return &RaffleDAO{db: db}
}

// Insert creates the raffle together with its full ticket pool in one
// transaction.
func (d *RaffleDAO) Insert(ctx context.Context, raffle Raffle, tickets []Ticket) (Raffle, error) {
	if raffle.ID == uuid.Nil {
		raffle.ID = uuid.New()
	}

	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if result := tx.Create(&raffle); result.Error != nil {
			return result.Error
		}
		for i := range tickets {
			tickets[i].ID = uuid.New()
			tickets[i].RaffleID = raffle.ID
			tickets[i].TenantID = raffle.TenantID
		}
		// Ticket pools run into the thousands; batch the insert.
		if result := tx.CreateInBatches(tickets, 500); result.Error != nil {
			return result.Error
		}
		return nil
	})
	if err != nil {
		return Raffle{}, err
	}
	return raffle, nil
}

func (d *RaffleDAO) FindByID(ctx context.Context, scope tenant.Scope, id uuid.UUID) (Raffle, error) {
	var raffle Raffle
	result := d.db.WithContext(ctx).Scopes(scope.Apply).First(&raffle, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Raffle{}, ErrRaffleNotFound
		}
		return Raffle{}, result.Error
	}
	return raffle, nil
}

func (d *RaffleDAO) ListByStatus(ctx context.Context, scope tenant.Scope, status string) ([]Raffle, error) {
	var raffles []Raffle
	result := d.db.WithContext(ctx).Scopes(scope.Apply).
		Where("status = ?", status).
		Order("created_at DESC").
		Find(&raffles)
	if result.Error != nil {
		return nil, result.Error
	}
	return raffles, nil
}

// UpdateStatus moves a raffle between lifecycle states, verifying the
// expected current state under lock and writing the audit row in the same
// transaction.
func (d *RaffleDAO) UpdateStatus(ctx context.Context, scope tenant.Scope, id uuid.UUID, from, to string, audit AuditLog) (Raffle, error) {
	var raffle Raffle
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := lockForUpdate(tx).Scopes(scope.Apply).First(&raffle, "id = ?", id)
		if result.Error != nil {
			if errors.Is(result.Error, gorm.ErrRecordNotFound) {
				return ErrRaffleNotFound
			}
			return result.Error
		}

		if raffle.Status != from {
			switch from {
			case string(domain.RaffleDraft):
				return ErrRaffleNotDraft
			case string(domain.RaffleActive):
				return ErrRaffleNotActive
			default:
				return ErrRaffleNotClosed
			}
		}

		raffle.Status = to
		if result := tx.Save(&raffle); result.Error != nil {
			return result.Error
		}

		audit.EntityType = "raffle"
		audit.EntityID = raffle.ID.String()
		audit.TenantID = &raffle.TenantID
		audit.OldValue = MarshalSnapshot(map[string]any{"status": from})
		audit.NewValue = MarshalSnapshot(map[string]any{"status": to})
		AppendTx(tx, audit)

		return nil
	})
	if err != nil {
		return Raffle{}, err
	}
	return raffle, nil
}

// CloseDue moves every active raffle past its effective closing time to
// closed, as one batch transaction. Returns how many raffles were closed.
func (d *RaffleDAO) CloseDue(ctx context.Context, now time.Time) (int, error) {
	closed := 0
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var due []Raffle
		result := tx.
			Where("status = ?", string(domain.RaffleActive)).
			Where("(closing_time IS NOT NULL AND closing_time <= ?) OR (closing_time IS NULL AND draw_deadline <= ?)", now, now).
			Find(&due)
		if result.Error != nil {
			return result.Error
		}

		for i := range due {
			due[i].Status = string(domain.RaffleClosed)
			if result := tx.Save(&due[i]); result.Error != nil {
				return result.Error
			}
			AppendTx(tx, AuditLog{
				ActorRole:  domain.ActorRoleSystem,
				Action:     domain.ActionRaffleClosedJob,
				EntityType: "raffle",
				EntityID:   due[i].ID.String(),
				TenantID:   &due[i].TenantID,
				OldValue:   MarshalSnapshot(map[string]any{"status": string(domain.RaffleActive)}),
				NewValue:   MarshalSnapshot(map[string]any{"status": string(domain.RaffleClosed)}),
			})
		}
		closed = len(due)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return closed, nil
}

// PublishResult records the drawn value for a closed raffle. At most one
// result may ever exist per raffle.
func (d *RaffleDAO) PublishResult(ctx context.Context, scope tenant.Scope, res Result, audit AuditLog) (Result, error) {
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var raffle Raffle
		result := lockForUpdate(tx).Scopes(scope.Apply).First(&raffle, "id = ?", res.RaffleID)
		if result.Error != nil {
			if errors.Is(result.Error, gorm.ErrRecordNotFound) {
				return ErrRaffleNotFound
			}
			return result.Error
		}
		if raffle.Status != string(domain.RaffleClosed) {
			return ErrRaffleNotClosed
		}

		var count int64
		if result := tx.Model(&Result{}).Where("raffle_id = ?", raffle.ID).Count(&count); result.Error != nil {
			return result.Error
		}
		if count > 0 {
			return ErrResultExists
		}

		res.ID = uuid.New()
		res.TenantID = raffle.TenantID
		res.Kind = raffle.Kind
		if result := tx.Create(&res); result.Error != nil {
			return result.Error
		}

		audit.Action = domain.ActionResultPublished
		audit.EntityType = "raffle"
		audit.EntityID = raffle.ID.String()
		audit.TenantID = &raffle.TenantID
		audit.NewValue = MarshalSnapshot(map[string]any{
			"result":     res.RawValue,
			"draw_venue": res.DrawVenue,
			"drawn_at":   res.DrawnAt,
		})
		AppendTx(tx, audit)

		return nil
	})
	if err != nil {
		return Result{}, err
	}
	return res, nil
}

func (d *RaffleDAO) FindResult(ctx context.Context, scope tenant.Scope, raffleID uuid.UUID) (Result, error) {
	var res Result
	result := d.db.WithContext(ctx).Scopes(scope.Apply).First(&res, "raffle_id = ?", raffleID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Result{}, ErrResultNotFound
		}
		return Result{}, result.Error
	}
	return res, nil
}

// Settle classifies every paid ticket of a closed raffle against the
// published result, records winners exactly once, marks the result settled
// and the raffle settled, all in one transaction.
//
// Preconditions are re-checked under lock so a concurrent or repeated call
// fails cleanly instead of duplicating winner rows.
func (d *RaffleDAO) Settle(ctx context.Context, scope tenant.Scope, raffleID uuid.UUID, actorID uuid.UUID, actorRole string) (int, error) {
	winnerCount := 0
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var raffle Raffle
		result := lockForUpdate(tx).Scopes(scope.Apply).First(&raffle, "id = ?", raffleID)
		if result.Error != nil {
			if errors.Is(result.Error, gorm.ErrRecordNotFound) {
				return ErrRaffleNotFound
			}
			return result.Error
		}
		if raffle.Status != string(domain.RaffleClosed) {
			return ErrRaffleNotClosed
		}

		var res Result
		result = lockForUpdate(tx).First(&res, "raffle_id = ?", raffle.ID)
		if result.Error != nil {
			if errors.Is(result.Error, gorm.ErrRecordNotFound) {
				return ErrResultNotFound
			}
			return result.Error
		}
		if res.Settled {
			return ErrAlreadySettled
		}

		matchNumber, err := domain.RaffleKind(raffle.Kind).NormalizeResult(res.RawValue)
		if err != nil {
			return err
		}

		var paid []Ticket
		result = tx.
			Where("raffle_id = ? AND status = ?", raffle.ID, string(domain.TicketPaid)).
			Find(&paid)
		if result.Error != nil {
			return result.Error
		}
		if len(paid) == 0 {
			return ErrNoPaidTickets
		}

		matched := false
		for i := range paid {
			if paid[i].Number == matchNumber {
				matched = true
				break
			}
		}
		if !matched {
			return ErrNoWinnerMatch
		}

		for i := range paid {
			ticket := &paid[i]

			// Re-entrancy guard: a winner row recorded by a previous partial
			// run is never duplicated.
			if ticket.OwnerID != nil {
				var existing int64
				result = tx.Model(&Winner{}).
					Where("raffle_id = ? AND ticket_id = ? AND user_id = ?", raffle.ID, ticket.ID, *ticket.OwnerID).
					Count(&existing)
				if result.Error != nil {
					return result.Error
				}
				if existing > 0 {
					winnerCount++
					continue
				}
			}

			if ticket.Number != matchNumber {
				ticket.PrizeStatus = string(domain.PrizeLoser)
				if result := tx.Save(ticket); result.Error != nil {
					return result.Error
				}
				continue
			}

			ticket.PrizeStatus = string(domain.PrizeWinner)
			if result := tx.Save(ticket); result.Error != nil {
				return result.Error
			}

			if ticket.OwnerID == nil {
				// A paid ticket always carries its owner; guard anyway so a
				// corrupt row cannot insert an unattributable winner.
				continue
			}

			winner := Winner{
				ID:       uuid.New(),
				RaffleID: raffle.ID,
				TicketID: ticket.ID,
				UserID:   *ticket.OwnerID,
				TenantID: raffle.TenantID,
			}
			if result := tx.Create(&winner); result.Error != nil {
				return result.Error
			}
			winnerCount++

			AppendTx(tx, AuditLog{
				ActorID:    &actorID,
				ActorRole:  actorRole,
				Action:     domain.ActionWinnerRecorded,
				EntityType: "raffle",
				EntityID:   raffle.ID.String(),
				TenantID:   &raffle.TenantID,
				NewValue: MarshalSnapshot(map[string]any{
					"ticket_id": ticket.ID.String(),
					"number":    ticket.Number,
					"user_id":   ticket.OwnerID.String(),
				}),
			})
		}

		res.Settled = true
		if result := tx.Save(&res); result.Error != nil {
			return result.Error
		}

		oldStatus := raffle.Status
		raffle.Status = string(domain.RaffleSettled)
		if result := tx.Save(&raffle); result.Error != nil {
			return result.Error
		}

		AppendTx(tx, AuditLog{
			ActorID:    &actorID,
			ActorRole:  actorRole,
			Action:     domain.ActionRaffleSettled,
			EntityType: "raffle",
			EntityID:   raffle.ID.String(),
			TenantID:   &raffle.TenantID,
			OldValue:   MarshalSnapshot(map[string]any{"status": oldStatus}),
			NewValue: MarshalSnapshot(map[string]any{
				"status":       raffle.Status,
				"result_id":    res.ID.String(),
				"winner_count": winnerCount,
			}),
		})

		return nil
	})
	if err != nil {
		return 0, err
	}
	return winnerCount, nil
}

func (d *RaffleDAO) ListWinners(ctx context.Context, scope tenant.Scope, raffleID uuid.UUID) ([]Winner, error) {
	var winners []Winner
	result := d.db.WithContext(ctx).Scopes(scope.Apply).
		Where("raffle_id = ?", raffleID).
		Order("created_at ASC").
		Find(&winners)
	if result.Error != nil {
		return nil, result.Error
	}
	return winners, nil
}
