package domain

import (
	"time"

	"github.com/google/uuid"
)

// Audit action names recorded by the engine.
const (
	ActionReserveTicket     = "RESERVE_TICKET"
	ActionPaymentConfirmed  = "PAYMENT_CONFIRMED_WEBHOOK"
	ActionAdminMarkPaid     = "ADMIN_MARK_PAID"
	ActionAdminCancel       = "ADMIN_CANCEL_TICKET"
	ActionReservationSwept  = "RESERVATION_EXPIRED_JOB"
	ActionRaffleClosed      = "RAFFLE_CLOSED"
	ActionRaffleClosedJob   = "RAFFLE_CLOSED_JOB"
	ActionResultPublished   = "RESULT_PUBLISHED"
	ActionWinnerRecorded    = "WINNER_RECORDED"
	ActionRaffleSettled     = "RAFFLE_SETTLED"
	ActionEntityBlocked     = "ENTITY_BLOCKED"
	ActionEntityAutoBlocked = "ENTITY_AUTO_BLOCKED"
)

// ActorRoleSystem marks audit entries written by background jobs.
const ActorRoleSystem = "system"

// AuditEntry is one append-only record of a state-changing action.
type AuditEntry struct {
	ID uuid.UUID

	ActorID   *uuid.UUID
	ActorRole string

	Action     string
	EntityType string
	EntityID   string

	// OldValue and NewValue are JSON snapshots of the mutated state.
	OldValue map[string]any
	NewValue map[string]any

	IPAddress string
	UserAgent string
	TenantID  *uuid.UUID

	CreatedAt time.Time
}
