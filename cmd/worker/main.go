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
	"crm_backend/internal/leadgen"
	"crm_backend/internal/pipeline"
	"crm_backend/internal/scheduler"
	syncmodule "crm_backend/internal/sync"
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

	log := logger.New(cfg.Env)
	log.Info("starting sync worker", "env", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Migrations are owned by the API process; the worker only needs a pool.
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

	eventBus := events.NewInMemoryBus(log)

	enrichClient, err := enrichment.NewClient(ctx, cfg)
	if err != nil {
		log.Error("failed to initialize enrichment client", "error", err)
		panic("failed to initialize enrichment client: " + err.Error())
	}
	if enrichClient == nil {
		log.Warn("GEMINI_API_KEY not configured; enrichment falls back to heuristics")
	}
	enrichSvc := enrichment.NewService(enrichClient, log)

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

	worker, err := scheduler.NewWorker(cfg, syncModule.Service(), log)
	if err != nil {
		log.Error("failed to initialize sync worker", "error", err)
		panic("failed to initialize sync worker: " + err.Error())
	}

	log.Info("sync worker listening", "queue", cfg.GetAsynqQueueName())
	worker.Run(ctx)
	log.Info("sync worker stopped")
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
