package domain

import (
	"time"

	"github.com/google/uuid"
)

// Result is the published draw outcome of a closed raffle. At most one per
// raffle; immutable once Settled is set.
type Result struct {
	ID       uuid.UUID
	RaffleID uuid.UUID
	TenantID uuid.UUID

	Kind      RaffleKind
	RawValue  string
	DrawVenue string
	DrawnAt   time.Time
	Settled   bool

	CreatedBy uuid.UUID
	CreatedAt time.Time
}

// Winner joins a settled raffle to a winning paid ticket and its owner.
// At most one row per (raffle, ticket, user).
type Winner struct {
	ID       uuid.UUID
	RaffleID uuid.UUID
	TicketID uuid.UUID
	UserID   uuid.UUID
	TenantID uuid.UUID

	CreatedAt time.Time
}

// SettleOutcome summarizes a successful settlement run.
type SettleOutcome struct {
	RaffleStatus RaffleStatus
	WinnerCount  int
}
