package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/geocoder89/taskflow/internal/config"
	"github.com/geocoder89/taskflow/internal/domain/user"
	"github.com/geocoder89/taskflow/internal/http/handlers"
	"github.com/geocoder89/taskflow/internal/http/middlewares"
	"github.com/geocoder89/taskflow/internal/observability"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// AccountService is everything the HTTP layer needs from the service.
type AccountService interface {
	handlers.Authenticator
	handlers.AccountService
	middlewares.AccountResolver
}

type Deps struct {
	Accounts AccountService
	// readiness probe for the snapshot store; nil means always ready
	Ping func(ctx context.Context) error
	// optional; no metrics middleware when nil
	Prom *observability.Prom
	// served at /metrics when set
	Metrics http.Handler
}

func NewRouter(log *slog.Logger, cfg config.Config, deps Deps) *gin.Engine {
	if cfg.Env != "dev" && gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// middleware
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware("taskflow"))
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger(log))
	if deps.Prom != nil {
		r.Use(deps.Prom.GinHandleMiddleware())
	}
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(cfg.CORSOrigins))
	r.Use(middlewares.MaxBodyBytes(cfg.MaxBodyBytes))
	r.Use(middlewares.RequireJSON())

	// health
	h := handlers.NewHealthHandler(deps.Ping)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)

	if deps.Metrics != nil {
		r.GET("/metrics", gin.WrapH(deps.Metrics))
	}

	authMW := middlewares.NewAuthMiddleware(deps.Accounts, log)
	authHandler := handlers.NewAuthHandler(deps.Accounts, log)
	usersHandler := handlers.NewUsersHandler(deps.Accounts, log)

	// public
	r.POST("/auth/register", authHandler.Register)
	r.POST("/auth/login", authHandler.Login)

	// bearer token required
	authed := r.Group("/", authMW.RequireAuth())
	authed.GET("/users/me", usersHandler.Me)
	authed.PUT("/users/me", usersHandler.UpdateMe)
	authed.GET("/users", usersHandler.List)
	authed.GET("/users/:id", usersHandler.Get)
	authed.PUT("/users/:id", usersHandler.Update)

	// admin only
	admin := r.Group("/admin", authMW.RequireAuth(), authMW.RequireRole(user.RoleAdmin))
	admin.POST("/users", usersHandler.AdminCreate)

	return r
}
