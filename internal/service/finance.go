package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/rifalabs/rifa-engine/internal/domain"
	"github.com/rifalabs/rifa-engine/internal/repository"
	"github.com/rifalabs/rifa-engine/internal/tenant"
)

// FinanceService reads the money-movement trail for admins.
type FinanceService struct {
	payments *repository.PaymentLogRepository
	raffles  *repository.RaffleRepository
}

func NewFinanceService(payments *repository.PaymentLogRepository, raffles *repository.RaffleRepository) *FinanceService {
	return &FinanceService{payments: payments, raffles: raffles}
}

func (s *FinanceService) ListPayments(ctx context.Context, scope tenant.Scope, raffleID uuid.UUID) ([]domain.PaymentLog, error) {
	if _, err := s.raffles.FindByID(ctx, scope, raffleID); err != nil {
		return nil, fmt.Errorf("s.raffles.FindByID -> %w", err)
	}
	return s.payments.ListByRaffle(ctx, scope, raffleID)
}
