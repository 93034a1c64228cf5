package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"crm_backend/internal/accounts"
	"crm_backend/internal/enrichment"
	"crm_backend/internal/events"
	apphttp "crm_backend/internal/http"
	"crm_backend/internal/http/router"
	"crm_backend/internal/leadgen"
	"crm_backend/internal/pipeline"
	"crm_backend/internal/scheduler"
	syncmodule "crm_backend/internal/sync"
	"crm_backend/migrations"
	"crm_backend/platform/config"
	"crm_backend/platform/db"
	"crm_backend/platform/logger"
	"crm_backend/platform/validator"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, cfg, migrations.FS)
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	syncEnqueuer, closeScheduler := initSyncScheduler(cfg, log)
	if closeScheduler != nil {
		defer closeScheduler()
	}

	enrichClient, err := enrichment.NewClient(ctx, cfg)
	if err != nil {
		log.Error("failed to initialize enrichment client", "error", err)
		panic("failed to initialize enrichment client: " + err.Error())
	}
	if enrichClient == nil {
		log.Warn("GEMINI_API_KEY not configured; enrichment falls back to heuristics")
	}
	enrichSvc := enrichment.NewService(enrichClient, log)

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	val := validator.New()

	accountsModule := accounts.New(pool, val, log)
	leadgenModule := leadgen.New(pool, log)
	pipelineModule, err := pipeline.New(pool, eventBus, val, log, cfg)
	if err != nil {
		log.Error("failed to initialize pipeline module", "error", err)
		panic("failed to initialize pipeline module: " + err.Error())
	}
	syncModule := syncmodule.New(pool, accountsModule.Repository(), pipelineModule.Repository(),
		leadgenModule.Repository(), enrichSvc, eventBus, val, log, cfg)

	// Stage changes on account-linked deals push a fresh snapshot to the
	// lead generation module through the task queue.
	if syncEnqueuer != nil {
		eventBus.Subscribe(events.DealStageChangedName, events.HandlerFunc(func(ctx context.Context, event events.Event) error {
			changed, ok := event.(events.DealStageChanged)
			if !ok || changed.AccountID == nil {
				return nil
			}
			return syncEnqueuer.EnqueueAccountSync(ctx, scheduler.AccountSyncPayload{
				AccountID: changed.AccountID.String(),
			})
		}))
	}

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   db.NewPoolAdapter(pool),
		EventBus: eventBus,
		Modules: []apphttp.Module{
			accountsModule,
			pipelineModule,
			leadgenModule,
			syncModule,
		},
	}

	engine := router.New(app)

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- engine.Run(cfg.HTTPAddr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
	case err := <-srvErr:
		if err != nil {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

func initSyncScheduler(cfg config.SchedulerConfig, log *logger.Logger) (scheduler.SyncEnqueuer, func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; background sync disabled")
		return nil, nil
	}

	client, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize sync scheduler client", "error", err)
		return nil, nil
	}

	return client, func() {
		_ = client.Close()
	}
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
