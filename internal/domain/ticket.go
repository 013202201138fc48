package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TicketStatus is the sales axis of a ticket.
type TicketStatus string

const (
	TicketAvailable TicketStatus = "livre"
	TicketReserved  TicketStatus = "reservado"
	TicketPaid      TicketStatus = "pago"
	TicketExpired   TicketStatus = "expirado"
	TicketCancelled TicketStatus = "cancelado"
)

func (s TicketStatus) Valid() bool {
	switch s {
	case TicketAvailable, TicketReserved, TicketPaid, TicketExpired, TicketCancelled:
		return true
	}
	return false
}

// Reservable reports whether a new reservation may start from this status.
func (s TicketStatus) Reservable() bool {
	return s == TicketAvailable || s == TicketExpired
}

// PrizeStatus is the prize axis, assigned only during settlement.
type PrizeStatus string

const (
	PrizePending PrizeStatus = "PENDING"
	PrizeWinner  PrizeStatus = "WINNER"
	PrizeLoser   PrizeStatus = "LOSER"
)

func (s PrizeStatus) Valid() bool {
	switch s {
	case PrizePending, PrizeWinner, PrizeLoser:
		return true
	}
	return false
}

// InvalidTransitionError reports a ticket status change outside the legal
// state machine.
type InvalidTransitionError struct {
	From TicketStatus
	To   TicketStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid ticket transition: %s -> %s", e.From, e.To)
}

// ValidateTransition enforces the ticket state machine. Admin overrides
// (manual pay of a cancelled ticket) are part of the legal set.
func ValidateTransition(from, to TicketStatus) error {
	legal := false
	switch to {
	case TicketReserved:
		legal = from.Reservable()
	case TicketPaid:
		legal = from == TicketReserved || from == TicketCancelled
	case TicketExpired:
		legal = from == TicketReserved
	case TicketCancelled:
		legal = from == TicketReserved || from == TicketPaid
	}
	if !legal {
		return &InvalidTransitionError{From: from, To: to}
	}
	return nil
}

type Ticket struct {
	ID       uuid.UUID
	RaffleID uuid.UUID
	TenantID uuid.UUID

	Number      string
	Status      TicketStatus
	PrizeStatus PrizeStatus

	// OwnerID and ReservationDeadline are set while the ticket is held.
	// PaymentCorrelationID groups tickets paid in one checkout.
	OwnerID              *uuid.UUID
	ReservationDeadline  *time.Time
	PaymentCorrelationID *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Reservation is the outcome of a reserve call.
type Reservation struct {
	TicketID             uuid.UUID
	Number               string
	PaymentCorrelationID string
	ExpiresAt            time.Time

	// AlreadyHeld is true when the caller retried a reservation they already
	// own; deadline and correlation id are returned unchanged.
	AlreadyHeld bool
}
