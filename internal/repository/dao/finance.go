package dao

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/rifalabs/rifa-engine/internal/tenant"
)

// PaymentLog rows record money movement independently of settlement. Unlike
// audit rows they participate in the caller's transaction strictly: a failed
// financial log aborts the operation.
type PaymentLog struct {
	ID       uuid.UUID  `gorm:"type:uuid;primaryKey"`
	RaffleID uuid.UUID  `gorm:"type:uuid;not null;index"`
	TicketID uuid.UUID  `gorm:"type:uuid;not null;index"`
	UserID   *uuid.UUID `gorm:"type:uuid"`
	TenantID uuid.UUID  `gorm:"type:uuid;not null;index"`

	PaymentCorrelationID string          `gorm:"not null;index"`
	Amount               decimal.Decimal `gorm:"type:numeric(10,2);not null"`
	Method               string          `gorm:"not null"`
	Status               string          `gorm:"not null"`

	CreatedAt time.Time
}

func appendPaymentLogTx(tx *gorm.DB, row PaymentLog) error {
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	return tx.Create(&row).Error
}

type PaymentLogDAO struct {
	db *gorm.DB
}

func NewPaymentLogDAO(db *gorm.DB) *PaymentLogDAO {
	return &PaymentLogDAO{db: db}
}

func (d *PaymentLogDAO) ListByRaffle(ctx context.Context, scope tenant.Scope, raffleID uuid.UUID) ([]PaymentLog, error) {
	var rows []PaymentLog
	result := d.db.WithContext(ctx).Scopes(scope.Apply).
		Where("raffle_id = ?", raffleID).
		Order("created_at DESC").
		Find(&rows)
	if result.Error != nil {
		return nil, result.Error
	}
	return rows, nil
}
