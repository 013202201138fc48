package v1

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/rifalabs/rifa-engine/internal/api/handler/v1/request"
	"github.com/rifalabs/rifa-engine/internal/api/handler/v1/response"
	"github.com/rifalabs/rifa-engine/internal/domain"
	"github.com/rifalabs/rifa-engine/internal/service"
	"github.com/rifalabs/rifa-engine/internal/tenant"
)

type ReservationService interface {
	Reserve(ctx context.Context, scope tenant.Scope, actor domain.User, raffleID uuid.UUID, ticketRef, ip, userAgent string) (domain.Reservation, error)
	ConfirmPayment(ctx context.Context, correlationID, ip, userAgent string) ([]uuid.UUID, error)
	AdminMarkPaid(ctx context.Context, scope tenant.Scope, actor domain.User, raffleID uuid.UUID, ticketRef string) (domain.Ticket, error)
	AdminCancel(ctx context.Context, scope tenant.Scope, actor domain.User, raffleID uuid.UUID, ticketRef string) (domain.Ticket, error)
	ListTickets(ctx context.Context, scope tenant.Scope, raffleID uuid.UUID) ([]domain.Ticket, error)
}

type TicketHandler struct {
	svc  ReservationService
	uSvc UserService
}

func NewTicketHandler(svc ReservationService, uSvc UserService) *TicketHandler {
	return &TicketHandler{
		svc:  svc,
		uSvc: uSvc,
	}
}

func (h *TicketHandler) HandleReserveTicket(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	scope, respErr := resolveScope(ctx, user)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	raffleID, respErr := parseUUIDParam(ctx, "raffleID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	ticketRef := ctx.Param("ticketRef")

	reservation, err := h.svc.Reserve(ctx.Request.Context(), scope, user, raffleID, ticketRef, ctx.ClientIP(), ctx.Request.UserAgent())
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRaffleNotFound):
			response.RenderErr(ctx, response.ErrNotFound("raffle", "ID", raffleID))
		case errors.Is(err, service.ErrTicketNotFound):
			response.RenderErr(ctx, response.ErrNotFound("ticket", "ref", ticketRef))
		case errors.Is(err, service.ErrRaffleNotActive), errors.Is(err, service.ErrTicketUnavailable):
			response.RenderErr(ctx, response.ErrConflict(err))
		case errors.Is(err, service.ErrBlocked):
			response.RenderErr(ctx, response.ErrPermissionDenied(err))
		case errors.Is(err, service.ErrRateLimited):
			response.RenderErr(ctx, response.ErrTooManyRequests(err))
		default:
			err = fmt.Errorf("v1.HandleReserveTicket -> h.svc.Reserve -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
		}
		return
	}

	status := http.StatusCreated
	if reservation.AlreadyHeld {
		status = http.StatusOK
	}
	ctx.JSON(status, response.NewReservationResponse(reservation))
}

// HandlePaymentWebhook is called by the payment-gateway adapter once a
// checkout completes. Unauthenticated routes must not reach it; the caller
// is trusted to have verified the gateway signature.
func (h *TicketHandler) HandlePaymentWebhook(ctx *gin.Context) {
	var req request.PaymentWebhookRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}
	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	affected, err := h.svc.ConfirmPayment(ctx.Request.Context(), req.CorrelationID, ctx.ClientIP(), ctx.Request.UserAgent())
	if err != nil {
		if errors.Is(err, service.ErrTicketNotFound) {
			response.RenderErr(ctx, response.ErrNotFound("reservation", "correlation_id", req.CorrelationID))
			return
		}

		err = fmt.Errorf("v1.HandlePaymentWebhook -> h.svc.ConfirmPayment -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"confirmed_tickets": affected})
}

func (h *TicketHandler) HandleMarkPaid(ctx *gin.Context) {
	h.handleOverride(ctx, h.svc.AdminMarkPaid)
}

func (h *TicketHandler) HandleCancelTicket(ctx *gin.Context) {
	h.handleOverride(ctx, h.svc.AdminCancel)
}

func (h *TicketHandler) handleOverride(ctx *gin.Context, op func(context.Context, tenant.Scope, domain.User, uuid.UUID, string) (domain.Ticket, error)) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	if !user.Role.Elevated() {
		response.RenderErr(ctx, response.ErrPermissionDenied(fmt.Errorf("user %v cannot override tickets", user.ID)))
		return
	}

	scope, respErr := resolveScope(ctx, user)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	raffleID, respErr := parseUUIDParam(ctx, "raffleID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	ticketRef := ctx.Param("ticketRef")

	ticket, err := op(ctx.Request.Context(), scope, user, raffleID, ticketRef)
	if err != nil {
		var transitionErr *domain.InvalidTransitionError
		switch {
		case errors.Is(err, service.ErrRaffleNotFound):
			response.RenderErr(ctx, response.ErrNotFound("raffle", "ID", raffleID))
		case errors.Is(err, service.ErrTicketNotFound):
			response.RenderErr(ctx, response.ErrNotFound("ticket", "ref", ticketRef))
		case errors.Is(err, service.ErrTicketNotBillable), errors.As(err, &transitionErr):
			response.RenderErr(ctx, response.ErrConflict(err))
		default:
			err = fmt.Errorf("v1.handleOverride -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
		}
		return
	}

	ctx.JSON(http.StatusOK, response.NewTicketResponse(ticket))
}

func (h *TicketHandler) HandleListTickets(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	scope, respErr := resolveScope(ctx, user)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	raffleID, respErr := parseUUIDParam(ctx, "raffleID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	tickets, err := h.svc.ListTickets(ctx.Request.Context(), scope, raffleID)
	if err != nil {
		if errors.Is(err, service.ErrRaffleNotFound) {
			response.RenderErr(ctx, response.ErrNotFound("raffle", "ID", raffleID))
			return
		}

		err = fmt.Errorf("v1.HandleListTickets -> h.svc.ListTickets -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	result := make([]response.TicketResponse, len(tickets))
	for i, ticket := range tickets {
		result[i] = response.NewTicketResponse(ticket)
	}
	ctx.JSON(http.StatusOK, result)
}
