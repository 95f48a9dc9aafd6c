package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/contacthub/contacthub/internal/domain/user"
	"github.com/contacthub/contacthub/internal/http/middlewares"
	"github.com/contacthub/contacthub/internal/service"
	"github.com/gin-gonic/gin"
)

// UserDirectory is the slice of the users repo this handler needs.
type UserDirectory interface {
	List(ctx context.Context, limit, offset int) ([]user.User, int, error)
	UpdateAvatar(ctx context.Context, id, url string) (user.User, error)
	Disable(ctx context.Context, id string) error
}

type UsersHandler struct {
	users UserDirectory
	cache service.UserCache
}

func NewUsersHandler(users UserDirectory, cache service.UserCache) *UsersHandler {
	return &UsersHandler{users: users, cache: cache}
}

type UpdateAvatarRequest struct {
	Avatar string `json:"avatar" binding:"required,url,max=2048"`
}

// Me returns the authenticated user resolved by the auth middleware.
func (h *UsersHandler) Me(ctx *gin.Context) {
	u, ok := middlewares.UserFromContext(ctx)

	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity context")
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, u)
}

func (h *UsersHandler) UpdateAvatar(ctx *gin.Context) {
	u, ok := middlewares.UserFromContext(ctx)

	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity context")
		return
	}

	var req UpdateAvatarRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	updated, err := h.users.UpdateAvatar(cctx, u.ID, req.Avatar)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(ctx, "User not found")
			return
		}
		RespondStoreError(ctx, err, "Could not update avatar")
		return
	}

	// Drop the cached copy so the next token verification sees the change.
	if h.cache != nil {
		h.cache.Invalidate(cctx, u.ID)
	}

	ctx.JSON(http.StatusOK, updated)
}

// Disable is admin-only, enforced by the RBAC middleware on the route. It
// soft-disables the account; the cached copy is dropped so in-flight access
// tokens stop verifying immediately instead of at cache expiry.
func (h *UsersHandler) Disable(ctx *gin.Context) {
	id := ctx.Param("id")

	if actorID, ok := middlewares.UserIDFromContext(ctx); ok && actorID == id {
		RespondError(ctx, http.StatusBadRequest, "cannot_disable_self", "Admins cannot disable their own account.", nil)
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	if err := h.users.Disable(cctx, id); err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(ctx, "User not found")
			return
		}
		RespondStoreError(ctx, err, "Could not disable user")
		return
	}

	if h.cache != nil {
		h.cache.Invalidate(cctx, id)
	}

	ctx.Status(http.StatusNoContent)
}

// List is admin-only, enforced by the RBAC middleware on the route.
func (h *UsersHandler) List(ctx *gin.Context) {
	limit := queryInt(ctx, "limit", 100)
	skip := queryInt(ctx, "skip", 0)

	if limit <= 0 || limit > 500 {
		limit = 100
	}
	if skip < 0 {
		skip = 0
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	users, total, err := h.users.List(cctx, limit, skip)

	if err != nil {
		RespondStoreError(ctx, err, "Could not list users")
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, gin.H{
		"totalCount": total,
		"skip":       skip,
		"limit":      limit,
		"items":      users,
	})
}
