package scheduler

import (
	"context"
	"fmt"

	"listingmap_backend/internal/geocode"
	"listingmap_backend/platform/apperr"
	"listingmap_backend/platform/config"
	"listingmap_backend/platform/logger"

	"github.com/hibiken/asynq"
)

// DistrictWarmer computes district grouping for a variant.
type DistrictWarmer interface {
	WarmDistricts(ctx context.Context, variant string) (map[string]int, error)
}

type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	warmer DistrictWarmer
	log    *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, warmer DistrictWarmer, log *logger.Logger) (*Worker, error) {
	opt, err := redisClientOpt(cfg.GetRedisURL(), cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 4
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queueName(cfg): 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server: server,
		mux:    mux,
		warmer: warmer,
		log:    log,
	}

	mux.HandleFunc(TaskDistrictWarmup, w.handleDistrictWarmup)

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

func (w *Worker) handleDistrictWarmup(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseDistrictWarmupPayload(task)
	if err != nil {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}

	histogram, err := w.warmer.WarmDistricts(ctx, payload.Variant)
	if err != nil {
		// Unknown variants and variants without district grouping never succeed.
		if apperr.Is(err, apperr.KindNotFound) || apperr.Is(err, apperr.KindValidation) {
			return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
		}
		return err
	}

	w.log.WithVariant(payload.Variant).Info("district warm-up complete", "districts", len(histogram), "unknown", histogram[geocode.UnknownLabel])
	return nil
}
