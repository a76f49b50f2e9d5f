package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/gridrun/race-api/internal/config"
	"github.com/gridrun/race-api/internal/handlers"
	"github.com/gridrun/race-api/internal/notify"
	"github.com/gridrun/race-api/internal/presence"
	"github.com/gridrun/race-api/internal/profile"
	"github.com/gridrun/race-api/internal/race"
	"github.com/gridrun/race-api/internal/territory"
	"github.com/gridrun/race-api/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	var logger *zap.Logger
	if cfg.Env == "production" {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// PostgreSQL (settlement history)
	pgPool, err := pgxpool.New(ctx, cfg.PostgresURL)
	if err != nil {
		sugar.Fatalw("failed to create postgres pool", "error", err)
	}
	defer pgPool.Close()

	// ClickHouse (telemetry)
	chOptions, err := clickhouse.ParseDSN(cfg.ClickHouseURL)
	if err != nil {
		sugar.Fatalw("invalid clickhouse dsn", "error", err)
	}
	chConn, err := clickhouse.Open(chOptions)
	if err != nil {
		sugar.Fatalw("failed to connect to clickhouse", "error", err)
	}
	defer chConn.Close()

	// Redis (presence, profiles, notifications)
	redisOptions, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		sugar.Fatalw("invalid redis url", "error", err)
	}
	rdb := redis.NewClient(redisOptions)
	defer rdb.Close()

	// Telemetry worker pool
	pool := worker.NewPool(worker.PoolConfig{
		WorkerCount:   cfg.WorkerCount,
		QueueSize:     cfg.QueueSize,
		BatchSize:     cfg.BatchSize,
		FlushInterval: cfg.FlushInterval,
		ClickHouse:    chConn,
		Logger:        logger,
	})
	pool.Start(ctx)

	// Race session manager
	manager := race.NewManager(cfg.TickInterval, logger)

	// Territory ledger and midnight scheduler
	zoneCfg := race.DefaultSessionConfig()
	ledger := territory.NewLedger(territory.LedgerConfig{
		ZoneID: zoneCfg.Zone.ID,
		Owner:  territory.FactionRose,
	})
	settlements := territory.NewSettlementStore(pgPool)
	territorySvc := territory.NewService(ledger, settlements, logger)

	// Presence and profiles
	presenceStore := presence.NewStore(rdb, cfg.RunnerStaleAfter)
	profileStore := profile.NewStore(rdb)

	lang := notify.Language(cfg.Language)
	h := handlers.New(handlers.Config{
		WorkerPool: pool,
		Sessions:   manager,
		Territory:  territorySvc,
		Presence:   presenceStore,
		Profiles:   profileStore,
		NewSink: func(userID string) race.EventSink {
			return notify.New(rdb, logger, userID, lang)
		},
		Postgres:   pgPool,
		ClickHouse: chConn,
		Redis:      rdb,
		Logger:     logger,
	})

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Handle("/metrics", promhttp.Handler())
	r.Mount("/", h.Routes())

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		sugar.Infow("server starting", "port", cfg.Port, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		territorySvc.RunScheduler(gctx)
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		sugar.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			sugar.Errorw("server shutdown error", "error", err)
		}

		manager.Shutdown()
		pool.Stop()
		return nil
	})

	if err := g.Wait(); err != nil {
		sugar.Fatalw("server error", "error", err)
	}
	sugar.Info("goodbye")
}
