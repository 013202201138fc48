package domain

import (
	"time"

	"github.com/google/uuid"
)

// Tenant is the isolation boundary. Every tenant-scoped row carries its id;
// routing resolves a tenant from its domain.
type Tenant struct {
	ID     uuid.UUID
	Name   string
	Domain string

	CreatedAt time.Time
}
