package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hackgods/clinic-journey-scheduling/internal/api"
	"github.com/hackgods/clinic-journey-scheduling/internal/attempts"
	"github.com/hackgods/clinic-journey-scheduling/internal/audit"
	"github.com/hackgods/clinic-journey-scheduling/internal/availability"
	"github.com/hackgods/clinic-journey-scheduling/internal/booking"
	"github.com/hackgods/clinic-journey-scheduling/internal/cases"
	"github.com/hackgods/clinic-journey-scheduling/internal/config"
	"github.com/hackgods/clinic-journey-scheduling/internal/db"
	"github.com/hackgods/clinic-journey-scheduling/internal/kanban"
	"github.com/hackgods/clinic-journey-scheduling/internal/logging"
	"github.com/hackgods/clinic-journey-scheduling/internal/metrics"
	"github.com/hackgods/clinic-journey-scheduling/internal/professional"
	redisclient "github.com/hackgods/clinic-journey-scheduling/internal/redis"
	"github.com/hackgods/clinic-journey-scheduling/internal/stages"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Default().Error("config load error", "error", err.Error())
		os.Exit(1)
	}

	logger := logging.New(cfg.LogLevel).With("service", "api-server")
	logger.Info("api-server starting up", "env", cfg.Env, "http_port", cfg.HTTPPort, "version", version)

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN, db.PoolOptions{MaxConns: cfg.DBMaxConns})
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

	m := metrics.NewScheduling(prometheus.DefaultRegisterer)
	events := audit.NewRecorder(pgPool, logger)

	caseStore := cases.NewStore(cases.NewPgRepository(pgPool), redisclient.NewPublisher(rdb, ""), logger).
		WithEvents(events)
	professionals := professional.NewService(professional.NewPgRepository(pgPool), events, logger)
	windows := availability.NewPgRepository(pgPool)

	bookings := booking.NewService(
		windows,
		booking.NewPgRepository(pgPool),
		caseStore,
		redisclient.NewRedisKeyLocker(rdb, cfg.LockTTL),
		events,
		m,
		logger,
		booking.Options{
			PublicHorizonDays: cfg.PublicHorizonDays,
			ManualHorizonDays: cfg.ManualHorizonDays,
			Location:          cfg.Location(),
		},
	)
	engine := stages.NewEngine(stages.NewRegistry(), caseStore, events, m, logger)
	tracker := attempts.NewService(attempts.NewPgRepository(pgPool), caseStore, professionals, events, logger)
	board := kanban.NewProjector(caseStore, professionals, rdb, m, logger)

	router := api.NewRouter(api.RouterConfig{
		Bookings:      bookings,
		Cases:         caseStore,
		Stages:        engine,
		Attempts:      tracker,
		Professionals: professionals,
		Availability:  windows,
		Board:         board,
		Metrics:       promhttp.Handler(),
		PostgresPing:  pgPool.Ping,
		RedisPing:     func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		JWTSecret:     cfg.AdminJWTSecret,
		Logger:        logger,
		Env:           cfg.Env,
		Version:       version,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-rootCtx.Done():
	case err := <-serveErr:
		if err != nil {
			logger.Error("http server error", "error", err.Error())
		}
	}

	logger.Info("shutting down api-server", "timeout", cfg.ShutdownTimeout.String())
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err.Error())
	}
}
