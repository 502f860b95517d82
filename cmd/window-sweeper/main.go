package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/clinicware/clinic-booking/internal/clinic"
	"github.com/clinicware/clinic-booking/internal/config"
	"github.com/clinicware/clinic-booking/internal/db"
	"github.com/clinicware/clinic-booking/internal/logger"
	redisclient "github.com/clinicware/clinic-booking/internal/redis"
)

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

	zl.Info("window-sweeper starting up",
		zap.String("env", cfg.Env),
		zap.Duration("interval", cfg.SweepInterval),
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

	// Run once at startup
	runOnce(rootCtx, svc, zl)

	ticker := time.NewTicker(cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rootCtx.Done():
			zl.Info("shutdown signal received, stopping window sweeper")
			return
		case <-ticker.C:
			runOnce(rootCtx, svc, zl)
		}
	}
}

func runOnce(ctx context.Context, svc *clinic.Service, zl *zap.Logger) {
	runCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	start := time.Now()
	removed, err := svc.SweepEndedWindows(runCtx)
	if err != nil {
		zl.Error("sweep run error", zap.Error(err))
		return
	}
	zl.Info("sweep run complete",
		zap.Int64("removed", removed),
		zap.Duration("took", time.Since(start)),
	)
}
