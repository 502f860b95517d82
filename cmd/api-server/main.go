package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/clinicware/clinic-booking/internal/api"
	"github.com/clinicware/clinic-booking/internal/clinic"
	"github.com/clinicware/clinic-booking/internal/config"
	"github.com/clinicware/clinic-booking/internal/db"
	"github.com/clinicware/clinic-booking/internal/logger"
	redisclient "github.com/clinicware/clinic-booking/internal/redis"
)

const version = "0.3.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	zl, err := logger.New(cfg.LogLevel, cfg.Env)
	if err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	zl.Info("api-server starting up",
		zap.String("env", cfg.Env),
		zap.String("http_port", cfg.HTTPPort),
		zap.String("version", version),
	)

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect Postgres
	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.Connect(pgCtx, cfg.PostgresDSN)
	cancelPg()
	if err != nil {
		zl.Fatal("postgres connection error", zap.Error(err))
	}
	defer pgPool.Close()
	zl.Info("connected to Postgres")

	// Connect Redis
	rdb, err := redisclient.NewClient(cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
	if err != nil {
		zl.Fatal("redis connection error", zap.Error(err))
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			zl.Warn("error closing redis", zap.Error(err))
		}
	}()
	zl.Info("connected to Redis")

	repo := clinic.NewPgRepository(pgPool)
	locker := redisclient.NewRedisWindowLocker(rdb, cfg.LockTTL)
	svc := clinic.NewService(repo, locker, zl)

	router := api.NewRouter(api.RouterConfig{
		Service:     svc,
		Logger:      zl,
		PgPool:      pgPool,
		Redis:       rdb,
		Env:         cfg.Env,
		Version:     version,
		MaxRequests: cfg.MaxRequests,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-rootCtx.Done():
		zl.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Fatal("http server error", zap.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zl.Warn("graceful shutdown failed", zap.Error(err))
	}

	zl.Info("api-server stopped")
}
