package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PaymentMethod string

const (
	PaymentPix    PaymentMethod = "pix"
	PaymentDebit  PaymentMethod = "debito"
	PaymentCredit PaymentMethod = "credito"
)

type PaymentLogStatus string

const (
	PaymentLogPaid      PaymentLogStatus = "pago"
	PaymentLogCancelled PaymentLogStatus = "cancelado"
	PaymentLogRefunded  PaymentLogStatus = "estornado"
)

// PaymentLog is a settlement-independent financial record written whenever a
// ticket with a payment correlation id is paid or cancelled.
type PaymentLog struct {
	ID       uuid.UUID
	RaffleID uuid.UUID
	TicketID uuid.UUID
	UserID   *uuid.UUID
	TenantID uuid.UUID

	PaymentCorrelationID string
	Amount               decimal.Decimal
	Method               PaymentMethod
	Status               PaymentLogStatus

	CreatedAt time.Time
}
