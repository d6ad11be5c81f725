package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hackgods/clinic-journey-scheduling/internal/cases"
	"github.com/hackgods/clinic-journey-scheduling/internal/config"
	"github.com/hackgods/clinic-journey-scheduling/internal/db"
	"github.com/hackgods/clinic-journey-scheduling/internal/kanban"
	"github.com/hackgods/clinic-journey-scheduling/internal/logging"
	"github.com/hackgods/clinic-journey-scheduling/internal/metrics"
	"github.com/hackgods/clinic-journey-scheduling/internal/professional"
	redisclient "github.com/hackgods/clinic-journey-scheduling/internal/redis"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Default().Error("config load error", "error", err.Error())
		os.Exit(1)
	}

	logger := logging.New(cfg.LogLevel).With("service", "projection-worker")
	logger.Info("projection worker starting up", "env", cfg.Env, "interval", cfg.WorkerInterval.String())

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN, db.PoolOptions{MaxConns: 4})
	cancelPg()
	if err != nil {
		logger.Error("postgres connection error", "error", err.Error())
		os.Exit(1)
	}
	defer pgPool.Close()
	logger.Info("connected to Postgres")

	rdb, err := redisclient.NewRedisClient(redisclient.ClientOptions{
		Addr:     cfg.RedisAddr,
		Username: cfg.RedisUsername,
		Password: cfg.RedisPassword,
	})
	if err != nil {
		logger.Error("redis connection error", "error", err.Error())
		os.Exit(1)
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			logger.Warn("error closing redis", "error", err.Error())
		}
	}()
	logger.Info("connected to Redis")

	// The worker only reads cases, so its store has no notifier.
	caseStore := cases.NewStore(cases.NewPgRepository(pgPool), nil, logger)
	professionals := professional.NewService(professional.NewPgRepository(pgPool), nil, logger)
	projector := kanban.NewProjector(caseStore, professionals, rdb, metrics.NewScheduling(prometheus.DefaultRegisterer), logger)

	if err := projector.Run(rootCtx, cfg.WorkerInterval); err != nil {
		logger.Error("projection worker stopped", "error", err.Error())
		os.Exit(1)
	}
	logger.Info("shutdown signal received, projection worker stopped")
}
