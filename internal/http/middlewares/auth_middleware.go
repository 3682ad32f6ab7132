package middlewares

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/geocoder89/taskflow/internal/actorctx"
	"github.com/geocoder89/taskflow/internal/domain/user"
	"github.com/gin-gonic/gin"
)

const (
	msgNoToken      = "No token, authorization denied"
	msgInvalidToken = "Token is not valid"
	msgUserNotFound = "User not found"
)

// Keep this small interface so tests can fake it easily.
type AccountResolver interface {
	Authenticate(ctx context.Context, token string) (user.PublicAccount, error)
}

type AuthMiddleware struct {
	accounts AccountResolver
	log      *slog.Logger
}

func NewAuthMiddleware(accounts AccountResolver, log *slog.Logger) *AuthMiddleware {
	if log == nil {
		log = slog.Default()
	}
	return &AuthMiddleware{accounts: accounts, log: log}
}

// BearerToken extracts the token from an Authorization header value.
// The scheme is matched case-insensitively.
func BearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}

	token = strings.TrimSpace(token)
	return token, token != ""
}

func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := BearerToken(c.GetHeader("Authorization"))
		if !ok {
			abortJSON(c, http.StatusUnauthorized, "no_token", msgNoToken)
			return
		}

		acc, err := m.accounts.Authenticate(c.Request.Context(), raw)
		if err != nil {
			switch {
			case errors.Is(err, user.ErrUnauthenticated):
				abortJSON(c, http.StatusUnauthorized, "invalid_token", msgInvalidToken)
			case errors.Is(err, user.ErrNotFound):
				// valid signature, account gone
				abortJSON(c, http.StatusNotFound, "not_found", msgUserNotFound)
			default:
				m.log.ErrorContext(c.Request.Context(), "authenticate failed", "err", err, "request_id", c.GetString(CtxRequestID))
				abortJSON(c, http.StatusInternalServerError, "internal_error", "Server error")
			}
			return
		}

		c.Set(ctxAccount, acc)
		c.Request = c.Request.WithContext(actorctx.WithUserID(c.Request.Context(), acc.ID))

		c.Next()
	}
}

// AccountFromContext returns the account resolved by RequireAuth.
func AccountFromContext(c *gin.Context) (user.PublicAccount, bool) {
	v, ok := c.Get(ctxAccount)
	if !ok {
		return user.PublicAccount{}, false
	}
	acc, ok := v.(user.PublicAccount)
	return acc, ok
}
