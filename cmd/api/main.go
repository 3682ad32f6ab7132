package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/geocoder89/taskflow/internal/auth"
	"github.com/geocoder89/taskflow/internal/config"
	"github.com/geocoder89/taskflow/internal/db"
	httpx "github.com/geocoder89/taskflow/internal/http"
	"github.com/geocoder89/taskflow/internal/observability"
	"github.com/geocoder89/taskflow/internal/repo/file"
	"github.com/geocoder89/taskflow/internal/repo/memory"
	"github.com/geocoder89/taskflow/internal/repo/postgres"
	"github.com/geocoder89/taskflow/internal/repo/redisstore"
	"github.com/geocoder89/taskflow/internal/service"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	// Load the config set up
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid config", "err", err)
		os.Exit(1)
	}

	log := observability.NewLogger(cfg.Env)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.OtelEndpoint != "" {
		shutdownTracer, err := observability.InitTracer(ctx, observability.TracerConfig{
			ServiceName: "taskflow",
			Env:         cfg.Env,
			Endpoint:    cfg.OtelEndpoint,
			SampleRatio: cfg.OtelSampleRatio,
		})
		if err != nil {
			log.Error("tracer init failed", "err", err)
			os.Exit(1)
		}
		defer func() {
			sctx, cancel := config.WithTimeout(5 * time.Second)
			defer cancel()
			_ = shutdownTracer(sctx)
		}()
	}

	snapshots, closeStore, err := openSnapshots(ctx, cfg, log)
	if err != nil {
		log.Error("snapshot store unavailable", "driver", cfg.StoreDriver, "err", err)
		os.Exit(1)
	}
	defer closeStore()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	prom := observability.NewProm(reg)

	users := memory.NewUsersRepo(ctx, snapshots, log, memory.WithSaveObserver(prom.ObserveSnapshotSave))
	prom.RegisterAccountsGauge(reg, users.Count)

	tokens := auth.NewManager(cfg.JWTSecret, cfg.TokenTTL)
	svc := service.NewAuthService(users, tokens, log)

	if err := svc.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword, cfg.AdminName); err != nil {
		log.Error("admin seed failed", "err", err)
		os.Exit(1)
	}

	router := httpx.NewRouter(log, cfg, httpx.Deps{
		Accounts: svc,
		Ping:     users.Ping,
		Prom:     prom,
		Metrics:  promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	})

	// server set up
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("server starting", "port", cfg.Port, "env", cfg.Env, "store", cfg.StoreDriver, "accounts", users.Count())
		err := srv.ListenAndServe()

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	<-ctx.Done()
	log.Info("server shutting down")

	shutdownCtx, cancel := config.WithTimeout(10 * time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "err", err)
		return
	}

	log.Info("shutdown complete")
}

func openSnapshots(ctx context.Context, cfg config.Config, log *slog.Logger) (memory.Snapshots, func(), error) {
	switch cfg.StoreDriver {
	case config.StorePostgres:
		pool, err := db.NewPool(ctx, cfg.DBURL, 4)
		if err != nil {
			return nil, nil, err
		}

		store := postgres.NewAccountsRepo(pool)
		if err := store.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return store, pool.Close, nil

	case config.StoreRedis:
		store := redisstore.New(redisstore.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Key:      cfg.RedisKey,
		})

		pctx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()

		if err := store.Ping(pctx); err != nil {
			_ = store.Close()
			return nil, nil, fmt.Errorf("redis ping: %w", err)
		}
		return store, func() {
			if err := store.Close(); err != nil {
				log.Warn("redis close failed", "err", err)
			}
		}, nil

	default:
		log.Info("using file snapshot store", "path", cfg.UsersFile)
		return file.NewUsersFile(cfg.UsersFile), func() {}, nil
	}
}
