package v1

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rifalabs/rifa-engine/internal/api/handler/v1/request"
	"github.com/rifalabs/rifa-engine/internal/api/handler/v1/response"
	"github.com/rifalabs/rifa-engine/internal/domain"
	"github.com/rifalabs/rifa-engine/internal/service"
	"github.com/rifalabs/rifa-engine/internal/tenant"
)

type RaffleService interface {
	Create(ctx context.Context, scope tenant.Scope, actor domain.User, raffle domain.Raffle) (domain.Raffle, error)
	Activate(ctx context.Context, scope tenant.Scope, actor domain.User, raffleID uuid.UUID) (domain.Raffle, error)
	Close(ctx context.Context, scope tenant.Scope, actor domain.User, raffleID uuid.UUID) (domain.Raffle, error)
	Get(ctx context.Context, scope tenant.Scope, raffleID uuid.UUID) (domain.Raffle, error)
	ListByStatus(ctx context.Context, scope tenant.Scope, status domain.RaffleStatus) ([]domain.Raffle, error)
}

type RaffleHandler struct {
	svc  RaffleService
	uSvc UserService
}

func NewRaffleHandler(svc RaffleService, uSvc UserService) *RaffleHandler {
	return &RaffleHandler{
		svc:  svc,
		uSvc: uSvc,
	}
}

func (h *RaffleHandler) HandleCreateRaffle(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	if !user.Role.Elevated() {
		response.RenderErr(ctx, response.ErrPermissionDenied(fmt.Errorf("user %v cannot create raffles", user.ID)))
		return
	}

	scope, respErr := resolveScope(ctx, user)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	var req request.CreateRaffleRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}
	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	price, err := decimal.NewFromString(req.TicketPrice)
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(fmt.Errorf("invalid ticket price: %v", req.TicketPrice)))
		return
	}

	created, err := h.svc.Create(ctx.Request.Context(), scope, user, domain.Raffle{
		Name:         req.Name,
		Description:  req.Description,
		Kind:         domain.RaffleKind(req.Kind),
		TicketPrice:  price,
		DrawDeadline: req.DrawDeadline,
		ClosingTime:  req.ClosingTime,
	})
	if err != nil {
		if errors.Is(err, service.ErrInvalidKind) {
			response.RenderErr(ctx, response.ErrBadRequest(err))
			return
		}

		err = fmt.Errorf("v1.HandleCreateRaffle -> h.svc.Create -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusCreated, response.NewRaffleResponse(created))
}

func (h *RaffleHandler) HandleActivateRaffle(ctx *gin.Context) {
	h.handleTransition(ctx, h.svc.Activate)
}

func (h *RaffleHandler) HandleCloseRaffle(ctx *gin.Context) {
	h.handleTransition(ctx, h.svc.Close)
}

func (h *RaffleHandler) handleTransition(ctx *gin.Context, op func(context.Context, tenant.Scope, domain.User, uuid.UUID) (domain.Raffle, error)) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	if !user.Role.Elevated() {
		response.RenderErr(ctx, response.ErrPermissionDenied(fmt.Errorf("user %v cannot manage raffles", user.ID)))
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

	raffle, err := op(ctx.Request.Context(), scope, user, raffleID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRaffleNotFound):
			response.RenderErr(ctx, response.ErrNotFound("raffle", "ID", raffleID))
		case errors.Is(err, service.ErrRaffleNotDraft), errors.Is(err, service.ErrRaffleNotActive):
			response.RenderErr(ctx, response.ErrConflict(err))
		default:
			err = fmt.Errorf("v1.handleTransition -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
		}
		return
	}

	ctx.JSON(http.StatusOK, response.NewRaffleResponse(raffle))
}

func (h *RaffleHandler) HandleGetRaffle(ctx *gin.Context) {
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

	raffle, err := h.svc.Get(ctx.Request.Context(), scope, raffleID)
	if err != nil {
		if errors.Is(err, service.ErrRaffleNotFound) {
			response.RenderErr(ctx, response.ErrNotFound("raffle", "ID", raffleID))
			return
		}

		err = fmt.Errorf("v1.HandleGetRaffle -> h.svc.Get -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, response.NewRaffleResponse(raffle))
}

func (h *RaffleHandler) HandleListRaffles(ctx *gin.Context) {
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

	status := domain.RaffleStatus(ctx.DefaultQuery("status", string(domain.RaffleActive)))
	if !status.Valid() {
		response.RenderErr(ctx, response.ErrBadRequest(fmt.Errorf("invalid status: %v", status)))
		return
	}

	raffles, err := h.svc.ListByStatus(ctx.Request.Context(), scope, status)
	if err != nil {
		err = fmt.Errorf("v1.HandleListRaffles -> h.svc.ListByStatus -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	result := make([]response.RaffleResponse, len(raffles))
	for i, raffle := range raffles {
		result[i] = response.NewRaffleResponse(raffle)
	}
	ctx.JSON(http.StatusOK, result)
}
