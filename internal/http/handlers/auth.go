package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/geocoder89/taskflow/internal/domain/user"
	"github.com/gin-gonic/gin"
)

const (
	msgAllFieldsRequired  = "All fields are required"
	msgLoginFieldsMissing = "Email and password are required"
	msgEmailTaken         = "User with this email already exists"
	msgInvalidCredentials = "Invalid credentials"
	msgPasswordTooLong    = "Password is too long"
)

type Authenticator interface {
	Register(ctx context.Context, name, email, password string) (user.PublicAccount, string, error)
	Login(ctx context.Context, email, password string) (user.PublicAccount, string, error)
}

type AuthHandler struct {
	svc Authenticator
	log *slog.Logger
}

func NewAuthHandler(svc Authenticator, log *slog.Logger) *AuthHandler {
	if log == nil {
		log = slog.Default()
	}
	return &AuthHandler{svc: svc, log: log}
}

func (h *AuthHandler) Register(ctx *gin.Context) {
	var req user.RegisterRequest

	if !BindJSON(ctx, &req, msgAllFieldsRequired) {
		return
	}

	// bcrypt plus a snapshot write
	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	acc, token, err := h.svc.Register(cctx, req.Name, req.Email, req.Password)

	if err != nil {
		switch {
		case errors.Is(err, user.ErrPasswordTooLong):
			RespondBadRequest(ctx, msgPasswordTooLong, gin.H{"field": "password", "maxBytes": 72})
		case errors.Is(err, user.ErrValidation):
			RespondBadRequest(ctx, msgAllFieldsRequired, gin.H{"reason": err.Error()})
		case errors.Is(err, user.ErrConflict):
			RespondConflict(ctx, "email_taken", msgEmailTaken)
		default:
			h.log.ErrorContext(ctx.Request.Context(), "register failed", "err", err, "request_id", requestIDFrom(ctx))
			RespondInternal(ctx)
		}
		return
	}

	ctx.JSON(http.StatusCreated, user.AuthResponse{User: acc, Token: token})
}

func (h *AuthHandler) Login(ctx *gin.Context) {
	var req user.LoginRequest

	if !BindJSON(ctx, &req, msgLoginFieldsMissing) {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	acc, token, err := h.svc.Login(cctx, req.Email, req.Password)

	if err != nil {
		switch {
		case errors.Is(err, user.ErrValidation):
			RespondBadRequest(ctx, msgLoginFieldsMissing, nil)
		case errors.Is(err, user.ErrInvalidCredentials):
			// same answer for unknown email and wrong password
			RespondUnauthorized(ctx, "invalid_credentials", msgInvalidCredentials)
		default:
			h.log.ErrorContext(ctx.Request.Context(), "login failed", "err", err, "request_id", requestIDFrom(ctx))
			RespondInternal(ctx)
		}
		return
	}

	ctx.JSON(http.StatusOK, user.AuthResponse{User: acc, Token: token})
}
