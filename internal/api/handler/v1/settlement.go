package v1

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/rifalabs/rifa-engine/internal/api/handler/v1/request"
	"github.com/rifalabs/rifa-engine/internal/api/handler/v1/response"
	"github.com/rifalabs/rifa-engine/internal/domain"
	"github.com/rifalabs/rifa-engine/internal/service"
	"github.com/rifalabs/rifa-engine/internal/tenant"
)

type SettlementService interface {
	PublishResult(ctx context.Context, scope tenant.Scope, actor domain.User, raffleID uuid.UUID, rawValue, venue string, drawnAt time.Time) (domain.Result, error)
	Settle(ctx context.Context, scope tenant.Scope, actor domain.User, raffleID uuid.UUID) (domain.SettleOutcome, error)
	Result(ctx context.Context, scope tenant.Scope, raffleID uuid.UUID) (domain.Result, error)
	Winners(ctx context.Context, scope tenant.Scope, raffleID uuid.UUID) ([]domain.Winner, error)
}

type SettlementHandler struct {
	svc  SettlementService
	uSvc UserService
}

func NewSettlementHandler(svc SettlementService, uSvc UserService) *SettlementHandler {
	return &SettlementHandler{
		svc:  svc,
		uSvc: uSvc,
	}
}

func (h *SettlementHandler) HandlePublishResult(ctx *gin.Context) {
	user, scope, raffleID, respErr := h.adminContext(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	var req request.PublishResultRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}
	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	result, err := h.svc.PublishResult(ctx.Request.Context(), scope, user, raffleID, req.Value, req.Venue, req.DrawnAt)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRaffleNotFound):
			response.RenderErr(ctx, response.ErrNotFound("raffle", "ID", raffleID))
		case errors.Is(err, domain.ErrInvalidResultValue):
			response.RenderErr(ctx, response.ErrBadRequest(err))
		case errors.Is(err, service.ErrRaffleNotClosed), errors.Is(err, service.ErrResultExists):
			response.RenderErr(ctx, response.ErrConflict(err))
		default:
			err = fmt.Errorf("v1.HandlePublishResult -> h.svc.PublishResult -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
		}
		return
	}

	ctx.JSON(http.StatusCreated, response.NewResultResponse(result))
}

func (h *SettlementHandler) HandleSettleRaffle(ctx *gin.Context) {
	user, scope, raffleID, respErr := h.adminContext(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	outcome, err := h.svc.Settle(ctx.Request.Context(), scope, user, raffleID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRaffleNotFound):
			response.RenderErr(ctx, response.ErrNotFound("raffle", "ID", raffleID))
		case errors.Is(err, service.ErrResultNotFound):
			response.RenderErr(ctx, response.ErrNotFound("result", "raffleID", raffleID))
		case errors.Is(err, service.ErrRaffleNotClosed),
			errors.Is(err, service.ErrAlreadySettled),
			errors.Is(err, service.ErrNoPaidTickets),
			errors.Is(err, service.ErrNoWinnerMatch):
			response.RenderErr(ctx, response.ErrConflict(err))
		default:
			err = fmt.Errorf("v1.HandleSettleRaffle -> h.svc.Settle -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
		}
		return
	}

	ctx.JSON(http.StatusOK, response.SettleResponse{
		RaffleStatus: string(outcome.RaffleStatus),
		WinnerCount:  outcome.WinnerCount,
	})
}

func (h *SettlementHandler) HandleGetResult(ctx *gin.Context) {
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

	result, err := h.svc.Result(ctx.Request.Context(), scope, raffleID)
	if err != nil {
		if errors.Is(err, service.ErrResultNotFound) {
			response.RenderErr(ctx, response.ErrNotFound("result", "raffleID", raffleID))
			return
		}

		err = fmt.Errorf("v1.HandleGetResult -> h.svc.Result -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, response.NewResultResponse(result))
}

func (h *SettlementHandler) HandleListWinners(ctx *gin.Context) {
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

	winners, err := h.svc.Winners(ctx.Request.Context(), scope, raffleID)
	if err != nil {
		err = fmt.Errorf("v1.HandleListWinners -> h.svc.Winners -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	result := make([]response.WinnerResponse, len(winners))
	for i, winner := range winners {
		result[i] = response.WinnerResponse{
			TicketID: winner.TicketID,
			UserID:   winner.UserID,
		}
	}
	ctx.JSON(http.StatusOK, result)
}

func (h *SettlementHandler) adminContext(ctx *gin.Context) (domain.User, tenant.Scope, uuid.UUID, *response.Err) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		return domain.User{}, tenant.Scope{}, uuid.Nil, respErr
	}

	if !user.Role.Elevated() {
		return domain.User{}, tenant.Scope{}, uuid.Nil,
			response.ErrPermissionDenied(fmt.Errorf("user %v cannot manage settlements", user.ID))
	}

	scope, respErr := resolveScope(ctx, user)
	if respErr != nil {
		return domain.User{}, tenant.Scope{}, uuid.Nil, respErr
	}

	raffleID, respErr := parseUUIDParam(ctx, "raffleID")
	if respErr != nil {
		return domain.User{}, tenant.Scope{}, uuid.Nil, respErr
	}

	return user, scope, raffleID, nil
}
