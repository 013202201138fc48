package response

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rifalabs/rifa-engine/internal/domain"
)

type RaffleResponse struct {
	ID           uuid.UUID       `json:"id"`
	TenantID     uuid.UUID       `json:"tenant_id"`
	OwnerID      uuid.UUID       `json:"owner_id"`
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	Kind         string          `json:"kind"`
	Status       string          `json:"status"`
	TicketPrice  decimal.Decimal `json:"ticket_price"`
	DrawDeadline time.Time       `json:"draw_deadline"`
	ClosingTime  *time.Time      `json:"closing_time,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

func NewRaffleResponse(r domain.Raffle) RaffleResponse {
	return RaffleResponse{
		ID:           r.ID,
		TenantID:     r.TenantID,
		OwnerID:      r.OwnerID,
		Name:         r.Name,
		Description:  r.Description,
		Kind:         string(r.Kind),
		Status:       string(r.Status),
		TicketPrice:  r.TicketPrice,
		DrawDeadline: r.DrawDeadline,
		ClosingTime:  r.ClosingTime,
		CreatedAt:    r.CreatedAt,
	}
}

type TicketResponse struct {
	ID                  uuid.UUID  `json:"id"`
	Number              string     `json:"number"`
	Status              string     `json:"status"`
	PrizeStatus         string     `json:"prize_status"`
	OwnerID             *uuid.UUID `json:"owner_id,omitempty"`
	ReservationDeadline *time.Time `json:"reservation_deadline,omitempty"`
}

func NewTicketResponse(t domain.Ticket) TicketResponse {
	return TicketResponse{
		ID:                  t.ID,
		Number:              t.Number,
		Status:              string(t.Status),
		PrizeStatus:         string(t.PrizeStatus),
		OwnerID:             t.OwnerID,
		ReservationDeadline: t.ReservationDeadline,
	}
}

type ReservationResponse struct {
	TicketID             uuid.UUID `json:"ticket_id"`
	Number               string    `json:"number"`
	PaymentCorrelationID string    `json:"payment_correlation_id"`
	ExpiresAt            time.Time `json:"expires_at"`
	AlreadyHeld          bool      `json:"already_held"`
}

func NewReservationResponse(r domain.Reservation) ReservationResponse {
	return ReservationResponse{
		TicketID:             r.TicketID,
		Number:               r.Number,
		PaymentCorrelationID: r.PaymentCorrelationID,
		ExpiresAt:            r.ExpiresAt,
		AlreadyHeld:          r.AlreadyHeld,
	}
}

type ResultResponse struct {
	RaffleID  uuid.UUID `json:"raffle_id"`
	RawValue  string    `json:"raw_value"`
	DrawVenue string    `json:"draw_venue,omitempty"`
	DrawnAt   time.Time `json:"drawn_at"`
	Settled   bool      `json:"settled"`
}

func NewResultResponse(r domain.Result) ResultResponse {
	return ResultResponse{
		RaffleID:  r.RaffleID,
		RawValue:  r.RawValue,
		DrawVenue: r.DrawVenue,
		DrawnAt:   r.DrawnAt,
		Settled:   r.Settled,
	}
}

type SettleResponse struct {
	RaffleStatus string `json:"raffle_status"`
	WinnerCount  int    `json:"winner_count"`
}

type WinnerResponse struct {
	TicketID uuid.UUID `json:"ticket_id"`
	UserID   uuid.UUID `json:"user_id"`
}
