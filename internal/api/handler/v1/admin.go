package v1

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/rifalabs/rifa-engine/internal/api/handler/v1/request"
	"github.com/rifalabs/rifa-engine/internal/api/handler/v1/response"
	"github.com/rifalabs/rifa-engine/internal/domain"
	"github.com/rifalabs/rifa-engine/internal/service"
	"github.com/rifalabs/rifa-engine/internal/tenant"
)

type BlocklistService interface {
	Block(ctx context.Context, scope tenant.Scope, actor domain.User, entry domain.BlockedEntity) (domain.BlockedEntity, error)
	List(ctx context.Context, scope tenant.Scope) ([]domain.BlockedEntity, error)
}

type AuditService interface {
	List(ctx context.Context, scope tenant.Scope, action, entityType, entityID string, limit int) ([]domain.AuditEntry, error)
}

type FinanceService interface {
	ListPayments(ctx context.Context, scope tenant.Scope, raffleID uuid.UUID) ([]domain.PaymentLog, error)
}

type TenantService interface {
	Create(ctx context.Context, t domain.Tenant) (domain.Tenant, error)
	Get(ctx context.Context, id uuid.UUID) (domain.Tenant, error)
	GetByDomain(ctx context.Context, host string) (domain.Tenant, error)
}

type AdminHandler struct {
	blocklist BlocklistService
	audits    AuditService
	finance   FinanceService
	tenants   TenantService
	uSvc      UserService
}

func NewAdminHandler(blocklist BlocklistService, audits AuditService, finance FinanceService, tenants TenantService, uSvc UserService) *AdminHandler {
	return &AdminHandler{
		blocklist: blocklist,
		audits:    audits,
		finance:   finance,
		tenants:   tenants,
		uSvc:      uSvc,
	}
}

// globalAdmin is the stricter variant of admin for the provisioning surface.
func (h *AdminHandler) globalAdmin(ctx *gin.Context) (domain.User, *response.Err) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		return domain.User{}, respErr
	}
	if user.Role != domain.RoleGlobalAdmin {
		return domain.User{},
			response.ErrPermissionDenied(fmt.Errorf("user %v is not a global admin", user.ID))
	}
	return user, nil
}

func (h *AdminHandler) admin(ctx *gin.Context) (domain.User, tenant.Scope, *response.Err) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		return domain.User{}, tenant.Scope{}, respErr
	}

	if !user.Role.Elevated() {
		return domain.User{}, tenant.Scope{},
			response.ErrPermissionDenied(fmt.Errorf("user %v is not an admin", user.ID))
	}

	scope, respErr := resolveScope(ctx, user)
	if respErr != nil {
		return domain.User{}, tenant.Scope{}, respErr
	}

	return user, scope, nil
}

func (h *AdminHandler) HandleBlockEntity(ctx *gin.Context) {
	user, scope, respErr := h.admin(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	var req request.BlockEntityRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}
	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	created, err := h.blocklist.Block(ctx.Request.Context(), scope, user, domain.BlockedEntity{
		Kind:   domain.BlockedKind(req.Kind),
		Value:  req.Value,
		Reason: req.Reason,
	})
	if err != nil {
		err = fmt.Errorf("v1.HandleBlockEntity -> h.blocklist.Block -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusCreated, created)
}

func (h *AdminHandler) HandleListBlocked(ctx *gin.Context) {
	_, scope, respErr := h.admin(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	blocked, err := h.blocklist.List(ctx.Request.Context(), scope)
	if err != nil {
		err = fmt.Errorf("v1.HandleListBlocked -> h.blocklist.List -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, blocked)
}

func (h *AdminHandler) HandleListAuditLog(ctx *gin.Context) {
	_, scope, respErr := h.admin(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "100"))
	entries, err := h.audits.List(
		ctx.Request.Context(),
		scope,
		ctx.Query("action"),
		ctx.Query("entity_type"),
		ctx.Query("entity_id"),
		limit,
	)
	if err != nil {
		err = fmt.Errorf("v1.HandleListAuditLog -> h.audits.List -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, entries)
}

func (h *AdminHandler) HandleListPayments(ctx *gin.Context) {
	_, scope, respErr := h.admin(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	raffleID, respErr := parseUUIDParam(ctx, "raffleID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	payments, err := h.finance.ListPayments(ctx.Request.Context(), scope, raffleID)
	if err != nil {
		if errors.Is(err, service.ErrRaffleNotFound) {
			response.RenderErr(ctx, response.ErrNotFound("raffle", "ID", raffleID))
			return
		}

		err = fmt.Errorf("v1.HandleListPayments -> h.finance.ListPayments -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, payments)
}

func (h *AdminHandler) HandleCreateTenant(ctx *gin.Context) {
	if _, respErr := h.globalAdmin(ctx); respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	var req request.CreateTenantRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}
	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	created, err := h.tenants.Create(ctx.Request.Context(), domain.Tenant{
		Name:   req.Name,
		Domain: req.Domain,
	})
	if err != nil {
		err = fmt.Errorf("v1.HandleCreateTenant -> h.tenants.Create -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusCreated, created)
}

func (h *AdminHandler) HandleGetTenant(ctx *gin.Context) {
	if _, respErr := h.globalAdmin(ctx); respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	tenantID, respErr := parseUUIDParam(ctx, "tenantID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	found, err := h.tenants.Get(ctx.Request.Context(), tenantID)
	if err != nil {
		if errors.Is(err, service.ErrTenantNotFound) {
			response.RenderErr(ctx, response.ErrNotFound("tenant", "ID", tenantID))
			return
		}

		err = fmt.Errorf("v1.HandleGetTenant -> h.tenants.Get -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, found)
}

// HandleFindTenant resolves a tenant by its routable domain, e.g.
// GET /admin/tenants?domain=banca.example.com.
func (h *AdminHandler) HandleFindTenant(ctx *gin.Context) {
	if _, respErr := h.globalAdmin(ctx); respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	host := ctx.Query("domain")
	if host == "" {
		response.RenderErr(ctx, response.ErrBadRequest(errors.New("domain query parameter is required")))
		return
	}

	found, err := h.tenants.GetByDomain(ctx.Request.Context(), host)
	if err != nil {
		if errors.Is(err, service.ErrTenantNotFound) {
			response.RenderErr(ctx, response.ErrNotFound("tenant", "domain", host))
			return
		}

		err = fmt.Errorf("v1.HandleFindTenant -> h.tenants.GetByDomain -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, found)
}

func (h *AdminHandler) HandleUpdateSettings(ctx *gin.Context) {
	user, _, respErr := h.admin(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	var req request.OwnerSettingsRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}
	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	updated, err := h.uSvc.UpdateSettings(ctx.Request.Context(), user, domain.OwnerSettings{
		ReservationTimeoutMinutes: req.ReservationTimeoutMinutes,
		ClosingLeadMinutes:        req.ClosingLeadMinutes,
	})
	if err != nil {
		err = fmt.Errorf("v1.HandleUpdateSettings -> h.uSvc.UpdateSettings -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, updated)
}
