package scheduler

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	syncservice "crm_backend/internal/sync/service"
	"crm_backend/platform/config"
	"crm_backend/platform/logger"
)

type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	sync   *syncservice.Service
	log    *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, syncSvc *syncservice.Service, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server: server,
		mux:    mux,
		sync:   syncSvc,
		log:    log,
	}

	mux.HandleFunc(TaskAccountSync, w.handleAccountSync)
	mux.HandleFunc(TaskActivitySync, w.handleActivitySync)
	mux.HandleFunc(TaskEnrichment, w.handleEnrichment)

	return w, nil
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}

func (w *Worker) handleAccountSync(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseAccountSyncPayload(task)
	if err != nil {
		return err
	}
	accountID, err := uuid.Parse(payload.AccountID)
	if err != nil {
		return err
	}
	return w.sync.SyncAccountToLeadGen(ctx, accountID)
}

func (w *Worker) handleActivitySync(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseActivitySyncPayload(task)
	if err != nil {
		return err
	}
	accountID, err := uuid.Parse(payload.AccountID)
	if err != nil {
		return err
	}
	_, err = w.sync.SyncActivities(ctx, accountID)
	return err
}

func (w *Worker) handleEnrichment(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseEnrichmentPayload(task)
	if err != nil {
		return err
	}
	accountID, err := uuid.Parse(payload.AccountID)
	if err != nil {
		return err
	}
	_, err = w.sync.EnrichAccount(ctx, accountID)
	return err
}
