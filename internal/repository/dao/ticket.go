package dao

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rifalabs/rifa-engine/internal/domain"
	"github.com/rifalabs/rifa-engine/internal/tenant"
)

var (
	ErrTicketNotFound    = errors.New("ticket not found")
	ErrTicketUnavailable = errors.New("ticket is not available")
	ErrTicketNotBillable = errors.New("ticket has no owner to bill")
)

type Ticket struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey"`
	RaffleID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_ticket_raffle_number"`
	TenantID uuid.UUID `gorm:"type:uuid;not null;index"`

	Number      string `gorm:"not null;uniqueIndex:idx_ticket_raffle_number"`
	Status      string `gorm:"not null;index"`
	PrizeStatus string `gorm:"not null;default:PENDING"`

	OwnerID              *uuid.UUID `gorm:"type:uuid;index"`
	ReservationDeadline  *time.Time `gorm:"index"`
	PaymentCorrelationID *string    `gorm:"index"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

type TicketDAO struct {
	db *gorm.DB
}

func NewTicketDAO(db *gorm.DB) *TicketDAO {
	return &TicketDAO{db: db}
}

// ReservedTicket carries the state of a ticket right after a reserve call.
type ReservedTicket struct {
	TicketID             uuid.UUID
	Number               string
	PaymentCorrelationID string
	ExpiresAt            time.Time
	AlreadyHeld          bool
}

// findByRefTx locates a ticket by id or by its printed number within a
// raffle, under the caller's transaction.
func findByRefTx(tx *gorm.DB, scope tenant.Scope, raffleID uuid.UUID, ref string) (*Ticket, error) {
	query := tx.Scopes(scope.Apply).Where("raffle_id = ?", raffleID)
	if id, err := uuid.Parse(ref); err == nil {
		query = query.Where("id = ?", id)
	} else {
		query = query.Where("number = ?", ref)
	}

	var ticket Ticket
	if result := query.First(&ticket); result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrTicketNotFound
		}
		return nil, result.Error
	}
	return &ticket, nil
}

// Reserve performs the available/expired -> reserved transition under an
// exclusive row lock. Of any two simultaneous attempts on the same ticket,
// exactly one observes an eligible pre-state; the other gets
// ErrTicketUnavailable. A retry by the current holder returns the existing
// correlation id and deadline unchanged.
func (d *TicketDAO) Reserve(ctx context.Context, scope tenant.Scope, raffleID uuid.UUID, ref string, user User, ip, userAgent string, timeout time.Duration) (ReservedTicket, error) {
	var reserved ReservedTicket

	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ticket, err := findByRefTx(lockForUpdate(tx), scope, raffleID, ref)
		if err != nil {
			return err
		}

		status := domain.TicketStatus(ticket.Status)
		if status == domain.TicketReserved && ticket.OwnerID != nil && *ticket.OwnerID == user.ID {
			reserved = ReservedTicket{
				TicketID:             ticket.ID,
				Number:               ticket.Number,
				PaymentCorrelationID: deref(ticket.PaymentCorrelationID),
				ExpiresAt:            derefTime(ticket.ReservationDeadline),
				AlreadyHeld:          true,
			}
			return nil
		}
		if !status.Reservable() {
			return ErrTicketUnavailable
		}

		expiresAt := time.Now().UTC().Add(timeout)
		correlationID := uuid.New().String()
		oldStatus := ticket.Status

		ticket.Status = string(domain.TicketReserved)
		ticket.OwnerID = &user.ID
		ticket.ReservationDeadline = &expiresAt
		ticket.PaymentCorrelationID = &correlationID
		if result := tx.Save(ticket); result.Error != nil {
			return result.Error
		}

		AppendTx(tx, AuditLog{
			ActorID:    &user.ID,
			ActorRole:  user.Role,
			Action:     domain.ActionReserveTicket,
			EntityType: "ticket",
			EntityID:   ticket.ID.String(),
			IPAddress:  ip,
			UserAgent:  userAgent,
			TenantID:   &ticket.TenantID,
			OldValue:   MarshalSnapshot(map[string]any{"status": oldStatus}),
			NewValue: MarshalSnapshot(map[string]any{
				"status":         string(domain.TicketReserved),
				"correlation_id": correlationID,
			}),
		})

		reserved = ReservedTicket{
			TicketID:             ticket.ID,
			Number:               ticket.Number,
			PaymentCorrelationID: correlationID,
			ExpiresAt:            expiresAt,
		}
		return nil
	})
	if err != nil {
		return ReservedTicket{}, err
	}
	return reserved, nil
}

// ConfirmPayment transitions every reserved ticket of one checkout to paid.
// Idempotent: tickets already paid are skipped. Returns the affected ids.
func (d *TicketDAO) ConfirmPayment(ctx context.Context, correlationID, ip, userAgent string) ([]uuid.UUID, error) {
	var affected []uuid.UUID

	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var tickets []Ticket
		result := lockForUpdate(tx).Where("payment_correlation_id = ?", correlationID).Find(&tickets)
		if result.Error != nil {
			return result.Error
		}
		if len(tickets) == 0 {
			return ErrTicketNotFound
		}

		prices := map[uuid.UUID]Raffle{}
		for i := range tickets {
			ticket := &tickets[i]
			if ticket.Status == string(domain.TicketPaid) {
				continue
			}
			if err := domain.ValidateTransition(domain.TicketStatus(ticket.Status), domain.TicketPaid); err != nil {
				return err
			}

			oldStatus := ticket.Status
			ticket.Status = string(domain.TicketPaid)
			ticket.ReservationDeadline = nil
			if result := tx.Save(ticket); result.Error != nil {
				return result.Error
			}

			raffle, ok := prices[ticket.RaffleID]
			if !ok {
				if result := tx.First(&raffle, "id = ?", ticket.RaffleID); result.Error != nil {
					return result.Error
				}
				prices[ticket.RaffleID] = raffle
			}

			if err := appendPaymentLogTx(tx, PaymentLog{
				RaffleID:             ticket.RaffleID,
				TicketID:             ticket.ID,
				UserID:               ticket.OwnerID,
				TenantID:             ticket.TenantID,
				PaymentCorrelationID: correlationID,
				Amount:               raffle.TicketPrice,
				Method:               string(domain.PaymentPix),
				Status:               string(domain.PaymentLogPaid),
			}); err != nil {
				return err
			}

			AppendTx(tx, AuditLog{
				ActorRole:  domain.ActorRoleSystem,
				Action:     domain.ActionPaymentConfirmed,
				EntityType: "ticket",
				EntityID:   ticket.ID.String(),
				IPAddress:  ip,
				UserAgent:  userAgent,
				TenantID:   &ticket.TenantID,
				OldValue:   MarshalSnapshot(map[string]any{"status": oldStatus}),
				NewValue: MarshalSnapshot(map[string]any{
					"status":         string(domain.TicketPaid),
					"correlation_id": correlationID,
				}),
			})

			affected = append(affected, ticket.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return affected, nil
}

// AdminMarkPaid forces a ticket to paid, bypassing the deadline logic. An
// available ticket has no owner to bill and is rejected.
func (d *TicketDAO) AdminMarkPaid(ctx context.Context, scope tenant.Scope, raffleID uuid.UUID, ref string, actor User) (Ticket, error) {
	var updated Ticket

	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ticket, err := findByRefTx(lockForUpdate(tx), scope, raffleID, ref)
		if err != nil {
			return err
		}

		if ticket.Status == string(domain.TicketAvailable) || ticket.OwnerID == nil {
			return ErrTicketNotBillable
		}
		if ticket.Status == string(domain.TicketPaid) {
			updated = *ticket
			return nil
		}
		if err := domain.ValidateTransition(domain.TicketStatus(ticket.Status), domain.TicketPaid); err != nil {
			return err
		}

		oldStatus := ticket.Status
		ticket.Status = string(domain.TicketPaid)
		ticket.ReservationDeadline = nil
		if ticket.PaymentCorrelationID == nil {
			manual := fmt.Sprintf("MANUAL-%s", uuid.New())
			ticket.PaymentCorrelationID = &manual
		}
		if result := tx.Save(ticket); result.Error != nil {
			return result.Error
		}

		var raffle Raffle
		if result := tx.First(&raffle, "id = ?", ticket.RaffleID); result.Error != nil {
			return result.Error
		}
		if err := appendPaymentLogTx(tx, PaymentLog{
			RaffleID:             ticket.RaffleID,
			TicketID:             ticket.ID,
			UserID:               ticket.OwnerID,
			TenantID:             ticket.TenantID,
			PaymentCorrelationID: *ticket.PaymentCorrelationID,
			Amount:               raffle.TicketPrice,
			Method:               string(domain.PaymentPix),
			Status:               string(domain.PaymentLogPaid),
		}); err != nil {
			return err
		}

		AppendTx(tx, AuditLog{
			ActorID:    &actor.ID,
			ActorRole:  actor.Role,
			Action:     domain.ActionAdminMarkPaid,
			EntityType: "ticket",
			EntityID:   ticket.ID.String(),
			TenantID:   &ticket.TenantID,
			OldValue:   MarshalSnapshot(map[string]any{"status": oldStatus}),
			NewValue:   MarshalSnapshot(map[string]any{"status": string(domain.TicketPaid)}),
		})

		updated = *ticket
		return nil
	})
	if err != nil {
		return Ticket{}, err
	}
	return updated, nil
}

// AdminCancel voids a reservation or purchase. The financial log records the
// cancellation when a payment correlation exists.
func (d *TicketDAO) AdminCancel(ctx context.Context, scope tenant.Scope, raffleID uuid.UUID, ref string, actor User) (Ticket, error) {
	var updated Ticket

	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ticket, err := findByRefTx(lockForUpdate(tx), scope, raffleID, ref)
		if err != nil {
			return err
		}

		if err := domain.ValidateTransition(domain.TicketStatus(ticket.Status), domain.TicketCancelled); err != nil {
			return err
		}

		oldStatus := ticket.Status
		ticket.Status = string(domain.TicketCancelled)
		ticket.ReservationDeadline = nil
		if result := tx.Save(ticket); result.Error != nil {
			return result.Error
		}

		if ticket.PaymentCorrelationID != nil {
			var raffle Raffle
			if result := tx.First(&raffle, "id = ?", ticket.RaffleID); result.Error != nil {
				return result.Error
			}
			if err := appendPaymentLogTx(tx, PaymentLog{
				RaffleID:             ticket.RaffleID,
				TicketID:             ticket.ID,
				UserID:               ticket.OwnerID,
				TenantID:             ticket.TenantID,
				PaymentCorrelationID: *ticket.PaymentCorrelationID,
				Amount:               raffle.TicketPrice,
				Method:               string(domain.PaymentPix),
				Status:               string(domain.PaymentLogCancelled),
			}); err != nil {
				return err
			}
		}

		AppendTx(tx, AuditLog{
			ActorID:    &actor.ID,
			ActorRole:  actor.Role,
			Action:     domain.ActionAdminCancel,
			EntityType: "ticket",
			EntityID:   ticket.ID.String(),
			TenantID:   &ticket.TenantID,
			OldValue:   MarshalSnapshot(map[string]any{"status": oldStatus}),
			NewValue:   MarshalSnapshot(map[string]any{"status": string(domain.TicketCancelled)}),
		})

		updated = *ticket
		return nil
	})
	if err != nil {
		return Ticket{}, err
	}
	return updated, nil
}

// SweepExpired reclaims every reservation whose deadline has passed, as one
// batch transaction. The status predicate makes the run idempotent: tickets
// already swept or re-reserved are excluded.
func (d *TicketDAO) SweepExpired(ctx context.Context, now time.Time) (int, error) {
	swept := 0
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var expired []Ticket
		result := tx.
			Where("status = ? AND reservation_deadline < ?", string(domain.TicketReserved), now).
			Find(&expired)
		if result.Error != nil {
			return result.Error
		}
		if len(expired) == 0 {
			return nil
		}

		ids := make([]uuid.UUID, len(expired))
		for i := range expired {
			ids[i] = expired[i].ID
		}

		// Conditional bulk update: a ticket re-reserved between the select
		// and here keeps its new reservation untouched.
		result = tx.Model(&Ticket{}).
			Where("id IN ? AND status = ?", ids, string(domain.TicketReserved)).
			Updates(map[string]any{
				"status":                 string(domain.TicketExpired),
				"owner_id":               nil,
				"reservation_deadline":   nil,
				"payment_correlation_id": nil,
			})
		if result.Error != nil {
			return result.Error
		}
		swept = int(result.RowsAffected)

		for i := range expired {
			ticket := &expired[i]
			AppendTx(tx, AuditLog{
				ActorID:    ticket.OwnerID,
				ActorRole:  domain.ActorRoleSystem,
				Action:     domain.ActionReservationSwept,
				EntityType: "ticket",
				EntityID:   ticket.ID.String(),
				TenantID:   &ticket.TenantID,
				OldValue:   MarshalSnapshot(map[string]any{"status": string(domain.TicketReserved)}),
				NewValue:   MarshalSnapshot(map[string]any{"status": string(domain.TicketExpired)}),
			})
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return swept, nil
}

// CountReserved counts tickets a user currently holds. raffleID narrows the
// count to one raffle when the cap is raffle-scoped.
func (d *TicketDAO) CountReserved(ctx context.Context, scope tenant.Scope, userID uuid.UUID, raffleID *uuid.UUID) (int64, error) {
	query := d.db.WithContext(ctx).Model(&Ticket{}).Scopes(scope.Apply).
		Where("owner_id = ? AND status = ?", userID, string(domain.TicketReserved))
	if raffleID != nil {
		query = query.Where("raffle_id = ?", *raffleID)
	}

	var count int64
	if result := query.Count(&count); result.Error != nil {
		return 0, result.Error
	}
	return count, nil
}

// LastReservedAt returns when the user's most recent held reservation was
// made, for the cooldown check.
func (d *TicketDAO) LastReservedAt(ctx context.Context, scope tenant.Scope, userID uuid.UUID) (time.Time, bool, error) {
	var ticket Ticket
	result := d.db.WithContext(ctx).Scopes(scope.Apply).
		Where("owner_id = ? AND status = ?", userID, string(domain.TicketReserved)).
		Order("updated_at DESC").
		First(&ticket)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, result.Error
	}
	return ticket.UpdatedAt, true, nil
}

func (d *TicketDAO) ListByRaffle(ctx context.Context, scope tenant.Scope, raffleID uuid.UUID) ([]Ticket, error) {
	var tickets []Ticket
	result := d.db.WithContext(ctx).Scopes(scope.Apply).
		Where("raffle_id = ?", raffleID).
		Order("number ASC").
		Find(&tickets)
	if result.Error != nil {
		return nil, result.Error
	}
	return tickets, nil
}

func (d *TicketDAO) FindByRef(ctx context.Context, scope tenant.Scope, raffleID uuid.UUID, ref string) (Ticket, error) {
	ticket, err := findByRefTx(d.db.WithContext(ctx), scope, raffleID, ref)
	if err != nil {
		return Ticket{}, err
	}
	return *ticket, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefTime(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
