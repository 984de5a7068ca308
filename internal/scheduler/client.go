package scheduler

import (
	"context"
	"errors"
	"time"

	"listingmap_backend/platform/config"
	"listingmap_backend/platform/redisconn"

	"github.com/hibiken/asynq"
)

// warmupUniqueTTL keeps repeated loads of one variant from queueing
// duplicate warm-ups.
const warmupUniqueTTL = 10 * time.Minute

type Client struct {
	client *asynq.Client
	queue  string
}

// WarmupScheduler enqueues district warm-ups.
type WarmupScheduler interface {
	ScheduleDistrictWarmup(ctx context.Context, variant string) error
}

func NewClient(cfg config.SchedulerConfig) (*Client, error) {
	opt, err := redisClientOpt(cfg.GetRedisURL(), cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	return &Client{
		client: asynq.NewClient(opt),
		queue:  queueName(cfg),
	}, nil
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// ScheduleDistrictWarmup enqueues a warm-up unless one is already pending for
// the variant.
func (c *Client) ScheduleDistrictWarmup(ctx context.Context, variant string) error {
	if c == nil || c.client == nil {
		return nil
	}

	task, err := NewDistrictWarmupTask(DistrictWarmupPayload{Variant: variant})
	if err != nil {
		return err
	}

	_, err = c.client.EnqueueContext(ctx, task, asynq.Queue(c.queue), asynq.Unique(warmupUniqueTTL), asynq.MaxRetry(3))
	if errors.Is(err, asynq.ErrDuplicateTask) {
		return nil
	}
	return err
}

func queueName(cfg config.SchedulerConfig) string {
	if q := cfg.GetAsynqQueue(); q != "" {
		return q
	}
	return "default"
}

func redisClientOpt(redisURL string, tlsInsecure bool) (asynq.RedisClientOpt, error) {
	opt, err := redisconn.Options(redisURL, tlsInsecure)
	if err != nil {
		return asynq.RedisClientOpt{}, err
	}

	return asynq.RedisClientOpt{
		Addr:      opt.Addr,
		Password:  opt.Password,
		DB:        opt.DB,
		TLSConfig: opt.TLSConfig,
	}, nil
}
