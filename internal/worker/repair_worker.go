package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/GTDGit/devhub_api/internal/cache"
)

// RepairQueue is the queue the repair worker drains.
type RepairQueue interface {
	Dequeue(ctx context.Context, n int) ([]cache.RepairJob, error)
	Enqueue(ctx context.Context, job cache.RepairJob) error
	Bury(ctx context.Context, job cache.RepairJob) error
}

// MirrorReplayer re-applies a queued mirror write.
type MirrorReplayer interface {
	Replay(ctx context.Context, job cache.RepairJob) (skipped bool, err error)
}

// RepairWorker retries developer mirror writes that failed during assign or
// unassign.
type RepairWorker struct {
	queue       RepairQueue
	mirror      MirrorReplayer
	interval    time.Duration
	batchSize   int
	maxAttempts int
}

// NewRepairWorker constructs a RepairWorker.
func NewRepairWorker(queue RepairQueue, mirror MirrorReplayer, interval time.Duration, batchSize, maxAttempts int) *RepairWorker {
	return &RepairWorker{
		queue:       queue,
		mirror:      mirror,
		interval:    interval,
		batchSize:   batchSize,
		maxAttempts: maxAttempts,
	}
}

// Start begins the periodic repair loop until context is canceled.
func (w *RepairWorker) Start(ctx context.Context) {
	log.Info().Dur("interval", w.interval).Msg("Starting mirror repair worker")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.run(ctx)
		case <-ctx.Done():
			log.Info().Msg("Mirror repair worker stopped")
			return
		}
	}
}

// run drains one batch. Failed jobs go back to the tail of the queue, so a
// single run never sees the same job twice.
func (w *RepairWorker) run(ctx context.Context) {
	jobs, err := w.queue.Dequeue(ctx, w.batchSize)
	if err != nil {
		log.Error().Err(err).Msg("Failed to dequeue mirror repairs")
		return
	}
	if len(jobs) == 0 {
		return
	}
	log.Info().Int("count", len(jobs)).Msg("Processing mirror repairs")

	for i, job := range jobs {
		if ctx.Err() != nil {
			w.putBack(context.Background(), jobs[i:])
			return
		}
		w.process(ctx, job)
	}
}

func (w *RepairWorker) process(ctx context.Context, job cache.RepairJob) {
	skipped, err := w.mirror.Replay(ctx, job)
	if err == nil {
		log.Info().
			Str("developer_id", job.DeveloperID).
			Str("product_id", job.ProductID).
			Str("op", string(job.Op)).
			Bool("skipped", skipped).
			Msg("Mirror repair done")
		return
	}

	job.Attempts++
	job.LastError = err.Error()
	if job.Attempts >= w.maxAttempts {
		log.Error().Err(err).
			Str("developer_id", job.DeveloperID).
			Str("product_id", job.ProductID).
			Int("attempts", job.Attempts).
			Msg("Mirror repair exhausted, burying job")
		if berr := w.queue.Bury(ctx, job); berr != nil {
			log.Error().Err(berr).Msg("Failed to bury mirror repair")
		}
		return
	}

	log.Warn().Err(err).
		Str("developer_id", job.DeveloperID).
		Int("attempts", job.Attempts).
		Msg("Mirror repair failed, requeueing")
	if qerr := w.queue.Enqueue(ctx, job); qerr != nil {
		log.Error().Err(qerr).Msg("Failed to requeue mirror repair")
	}
}

func (w *RepairWorker) putBack(ctx context.Context, jobs []cache.RepairJob) {
	for _, job := range jobs {
		if err := w.queue.Enqueue(ctx, job); err != nil {
			log.Error().Err(err).Str("developer_id", job.DeveloperID).Msg("Failed to return mirror repair to queue")
		}
	}
}
