package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	repairKey     = "devhub:mirror:repair"
	repairDeadKey = "devhub:mirror:repair:dead"
)

// MirrorOp is the change a repair job applies to a developer's project list.
type MirrorOp string

const (
	MirrorAdd    MirrorOp = "add"
	MirrorRemove MirrorOp = "remove"
)

// RepairJob is a mirror write that failed and must be retried.
type RepairJob struct {
	Op          MirrorOp  `json:"op"`
	DeveloperID string    `json:"developerId"`
	ProductID   string    `json:"productId"`
	ProductName string    `json:"productName"`
	Attempts    int       `json:"attempts"`
	LastError   string    `json:"lastError,omitempty"`
	EnqueuedAt  time.Time `json:"enqueuedAt"`
}

// RepairQueue is a FIFO of RepairJobs kept in a Redis list.
type RepairQueue struct {
	redis *RedisClient
}

// NewRepairQueue creates a new RepairQueue.
func NewRepairQueue(redis *RedisClient) *RepairQueue {
	return &RepairQueue{redis: redis}
}

// Enqueue appends job to the queue.
func (q *RepairQueue) Enqueue(ctx context.Context, job RepairJob) error {
	if job.EnqueuedAt.IsZero() {
		job.EnqueuedAt = time.Now().UTC()
	}
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return q.redis.Push(ctx, repairKey, string(data))
}

// Dequeue pops up to n jobs. Entries that do not decode are logged and dropped.
func (q *RepairQueue) Dequeue(ctx context.Context, n int) ([]RepairJob, error) {
	raw, err := q.redis.PopN(ctx, repairKey, n)
	if err != nil {
		return nil, err
	}
	jobs := make([]RepairJob, 0, len(raw))
	for _, r := range raw {
		var job RepairJob
		if err := json.Unmarshal([]byte(r), &job); err != nil {
			log.Error().Err(err).Str("payload", r).Msg("Dropping malformed repair job")
			continue
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

// Bury moves a job that exhausted its attempts to the dead-letter list.
func (q *RepairQueue) Bury(ctx context.Context, job RepairJob) error {
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return q.redis.Push(ctx, repairDeadKey, string(data))
}

// Pending returns the number of queued jobs.
func (q *RepairQueue) Pending(ctx context.Context) (int64, error) {
	return q.redis.Len(ctx, repairKey)
}

// Dead returns the number of buried jobs.
func (q *RepairQueue) Dead(ctx context.Context) (int64, error) {
	return q.redis.Len(ctx, repairDeadKey)
}
