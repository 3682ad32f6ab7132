package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/geocoder89/taskflow/internal/domain/user"
	"github.com/geocoder89/taskflow/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

const (
	msgUserNotFound    = "User not found"
	msgInvalidUpdate   = "Invalid update"
	msgUpdateForbidden = "Not allowed to update this user"
)

type AccountService interface {
	GetAccount(ctx context.Context, id string) (user.PublicAccount, error)
	ListAccounts(ctx context.Context) ([]user.PublicAccount, error)
	UpdateAccount(ctx context.Context, actor user.PublicAccount, id string, req user.UpdateRequest) (user.PublicAccount, error)
	CreateAccount(ctx context.Context, name, email, password string, roleType user.RoleClass) (user.PublicAccount, error)
}

type UsersHandler struct {
	svc AccountService
	log *slog.Logger
}

func NewUsersHandler(svc AccountService, log *slog.Logger) *UsersHandler {
	if log == nil {
		log = slog.Default()
	}
	return &UsersHandler{svc: svc, log: log}
}

type userResponse struct {
	User user.PublicAccount `json:"user"`
}

// Me returns the caller's own account as resolved by RequireAuth.
func (h *UsersHandler) Me(ctx *gin.Context) {
	acc, ok := middlewares.AccountFromContext(ctx)
	if !ok {
		RespondUnauthorized(ctx, "no_token", "No token, authorization denied")
		return
	}

	ctx.JSON(http.StatusOK, acc)
}

func (h *UsersHandler) List(ctx *gin.Context) {
	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	items, err := h.svc.ListAccounts(cctx)
	if err != nil {
		h.log.ErrorContext(ctx.Request.Context(), "list accounts failed", "err", err, "request_id", requestIDFrom(ctx))
		RespondInternal(ctx)
		return
	}

	// the web client expects a bare array, never null
	if items == nil {
		items = []user.PublicAccount{}
	}

	ctx.JSON(http.StatusOK, items)
}

func (h *UsersHandler) Get(ctx *gin.Context) {
	id := ctx.Param("id")

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	acc, err := h.svc.GetAccount(cctx, id)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(ctx, msgUserNotFound)
			return
		}
		h.log.ErrorContext(ctx.Request.Context(), "get account failed", "err", err, "user_id", id, "request_id", requestIDFrom(ctx))
		RespondInternal(ctx)
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, acc)
}

func (h *UsersHandler) Update(ctx *gin.Context) {
	h.update(ctx, ctx.Param("id"))
}

// UpdateMe is PUT /users/me: the caller's own account.
func (h *UsersHandler) UpdateMe(ctx *gin.Context) {
	actor, ok := middlewares.AccountFromContext(ctx)
	if !ok {
		RespondUnauthorized(ctx, "no_token", "No token, authorization denied")
		return
	}

	h.update(ctx, actor.ID)
}

func (h *UsersHandler) update(ctx *gin.Context, id string) {
	actor, ok := middlewares.AccountFromContext(ctx)
	if !ok {
		RespondUnauthorized(ctx, "no_token", "No token, authorization denied")
		return
	}

	// permission is checked before the body
	if !actor.CanEdit(id) {
		RespondForbidden(ctx, msgUpdateForbidden)
		return
	}

	var req user.UpdateRequest
	if !BindJSON(ctx, &req, msgInvalidUpdate) {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	updated, err := h.svc.UpdateAccount(cctx, actor, id, req)
	if err != nil {
		switch {
		case errors.Is(err, user.ErrValidation):
			RespondBadRequest(ctx, msgInvalidUpdate, gin.H{"reason": err.Error()})
		case errors.Is(err, user.ErrForbidden):
			RespondForbidden(ctx, msgUpdateForbidden)
		case errors.Is(err, user.ErrNotFound):
			RespondNotFound(ctx, msgUserNotFound)
		default:
			h.log.ErrorContext(ctx.Request.Context(), "update account failed", "err", err, "user_id", id, "request_id", requestIDFrom(ctx))
			RespondInternal(ctx)
		}
		return
	}

	ctx.JSON(http.StatusOK, updated)
}

// AdminCreate adds an account on behalf of an admin. No token is issued.
func (h *UsersHandler) AdminCreate(ctx *gin.Context) {
	var req user.CreateRequest
	if !BindJSON(ctx, &req, msgAllFieldsRequired) {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	created, err := h.svc.CreateAccount(cctx, req.Name, req.Email, req.Password, req.RoleType)
	if err != nil {
		switch {
		case errors.Is(err, user.ErrPasswordTooLong):
			RespondBadRequest(ctx, msgPasswordTooLong, gin.H{"field": "password", "maxBytes": 72})
		case errors.Is(err, user.ErrValidation):
			RespondBadRequest(ctx, msgAllFieldsRequired, gin.H{"reason": err.Error()})
		case errors.Is(err, user.ErrConflict):
			RespondConflict(ctx, "email_taken", msgEmailTaken)
		default:
			h.log.ErrorContext(ctx.Request.Context(), "admin create failed", "err", err, "request_id", requestIDFrom(ctx))
			RespondInternal(ctx)
		}
		return
	}

	ctx.JSON(http.StatusCreated, userResponse{User: created})
}
