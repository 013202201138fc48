package v1

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/rifalabs/rifa-engine/internal/api/handler/v1/response"
	"github.com/rifalabs/rifa-engine/internal/api/middleware"
	"github.com/rifalabs/rifa-engine/internal/domain"
	"github.com/rifalabs/rifa-engine/internal/tenant"
)

type UserService interface {
	GetByID(ctx context.Context, id uuid.UUID) (domain.User, error)
	GetUser(ctx context.Context, scope tenant.Scope, id uuid.UUID) (domain.User, error)
	UpdateSettings(ctx context.Context, actor domain.User, settings domain.OwnerSettings) (domain.OwnerSettings, error)
}

// getUserFromContext loads the principal the authenticator verified.
func getUserFromContext(ctx *gin.Context, svc UserService) (domain.User, *response.Err) {
	raw, exists := ctx.Get(middleware.ContextKeyUserID)
	if !exists {
		return domain.User{}, response.ErrUnauthorized("not authenticated")
	}

	userID, err := uuid.Parse(fmt.Sprintf("%v", raw))
	if err != nil {
		return domain.User{}, response.ErrUnauthorized("token subject is not a valid user id")
	}

	user, err := svc.GetByID(ctx.Request.Context(), userID)
	if err != nil {
		return domain.User{}, response.ErrUnauthorized("user not found")
	}
	if !user.IsActive {
		return domain.User{}, response.ErrPermissionDenied(fmt.Errorf("user %v is deactivated", user.ID))
	}

	return user, nil
}

// resolveScope derives the tenant scope from the principal and the optional
// X-Tenant-ID header. Only global admins may select a foreign tenant.
func resolveScope(ctx *gin.Context, user domain.User) (tenant.Scope, *response.Err) {
	var selected *uuid.UUID
	if header := ctx.GetHeader("X-Tenant-ID"); header != "" {
		id, err := uuid.Parse(header)
		if err != nil {
			return tenant.Scope{}, response.ErrBadRequest(fmt.Errorf("X-Tenant-ID is not a valid uuid"))
		}
		selected = &id
	}

	scope, err := tenant.Resolve(user, selected)
	if err != nil {
		return tenant.Scope{}, response.ErrPermissionDenied(err)
	}
	return scope, nil
}

func parseUUIDParam(ctx *gin.Context, name string) (uuid.UUID, *response.Err) {
	id, err := uuid.Parse(ctx.Param(name))
	if err != nil {
		return uuid.Nil, response.ErrBadRequest(fmt.Errorf("invalid %v: %v", name, ctx.Param(name)))
	}
	return id, nil
}
