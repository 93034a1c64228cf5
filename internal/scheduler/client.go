package scheduler

import (
	"context"
	"crypto/tls"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"crm_backend/platform/config"
)

type Client struct {
	client *asynq.Client
	queue  string
}

// SyncEnqueuer is the slice of Client the API process uses to hand sync
// work to the background worker.
type SyncEnqueuer interface {
	EnqueueAccountSync(ctx context.Context, payload AccountSyncPayload) error
	EnqueueActivitySync(ctx context.Context, payload ActivitySyncPayload) error
	EnqueueEnrichment(ctx context.Context, payload EnrichmentPayload) error
}

func NewClient(cfg config.SchedulerConfig) (*Client, error) {
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

	return &Client{
		client: asynq.NewClient(opt),
		queue:  queue,
	}, nil
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

func (c *Client) EnqueueAccountSync(ctx context.Context, payload AccountSyncPayload) error {
	if c == nil || c.client == nil {
		return nil
	}
	task, err := NewAccountSyncTask(payload)
	if err != nil {
		return err
	}
	_, err = c.client.EnqueueContext(ctx, task, asynq.Queue(c.queue))
	return err
}

func (c *Client) EnqueueActivitySync(ctx context.Context, payload ActivitySyncPayload) error {
	if c == nil || c.client == nil {
		return nil
	}
	task, err := NewActivitySyncTask(payload)
	if err != nil {
		return err
	}
	_, err = c.client.EnqueueContext(ctx, task, asynq.Queue(c.queue))
	return err
}

func (c *Client) EnqueueEnrichment(ctx context.Context, payload EnrichmentPayload) error {
	if c == nil || c.client == nil {
		return nil
	}
	task, err := NewEnrichmentTask(payload)
	if err != nil {
		return err
	}
	_, err = c.client.EnqueueContext(ctx, task, asynq.Queue(c.queue))
	return err
}

func redisClientOpt(redisURL string, tlsInsecure bool) (asynq.RedisClientOpt, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return asynq.RedisClientOpt{}, err
	}

	var tlsConfig *tls.Config
	if opt.TLSConfig != nil {
		clone := opt.TLSConfig.Clone()
		if tlsInsecure {
			clone.InsecureSkipVerify = true
		}
		tlsConfig = clone
	} else if tlsInsecure {
		tlsConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return asynq.RedisClientOpt{
		Addr:      opt.Addr,
		Password:  opt.Password,
		DB:        opt.DB,
		TLSConfig: tlsConfig,
	}, nil
}
