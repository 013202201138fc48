package domain

import (
	"time"

	"github.com/google/uuid"
)

// BlockedKind tells what a denylist entry matches against.
type BlockedKind string

const (
	BlockedIP   BlockedKind = "ip"
	BlockedUser BlockedKind = "user"
)

func (k BlockedKind) Valid() bool {
	return k == BlockedIP || k == BlockedUser
}

// BlockedEntity is a denylist entry. TenantID nil means a global block.
type BlockedEntity struct {
	ID       uuid.UUID
	Kind     BlockedKind
	Value    string
	Reason   string
	TenantID *uuid.UUID

	CreatedAt time.Time
}
