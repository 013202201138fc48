package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/rifalabs/rifa-engine/internal/domain"
	"github.com/rifalabs/rifa-engine/internal/repository/dao"
	"github.com/rifalabs/rifa-engine/internal/tenant"
)

type PaymentLogRepository struct {
	dao *dao.PaymentLogDAO
}

func NewPaymentLogRepository(paymentLogDAO *dao.PaymentLogDAO) *PaymentLogRepository {
	return &PaymentLogRepository{dao: paymentLogDAO}
}

func paymentLogDaoToDomain(p dao.PaymentLog) domain.PaymentLog {
	return domain.PaymentLog{
		ID:                   p.ID,
		RaffleID:             p.RaffleID,
		TicketID:             p.TicketID,
		UserID:               p.UserID,
		TenantID:             p.TenantID,
		PaymentCorrelationID: p.PaymentCorrelationID,
		Amount:               p.Amount,
		Method:               domain.PaymentMethod(p.Method),
		Status:               domain.PaymentLogStatus(p.Status),
		CreatedAt:            p.CreatedAt,
	}
}

func (r *PaymentLogRepository) ListByRaffle(ctx context.Context, scope tenant.Scope, raffleID uuid.UUID) ([]domain.PaymentLog, error) {
	rows, err := r.dao.ListByRaffle(ctx, scope, raffleID)
	if err != nil {
		return nil, err
	}
	logs := make([]domain.PaymentLog, len(rows))
	for i, row := range rows {
		logs[i] = paymentLogDaoToDomain(row)
	}
	return logs, nil
}
