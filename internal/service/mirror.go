package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"

	"github.com/GTDGit/devhub_api/internal/cache"
	"github.com/GTDGit/devhub_api/internal/repository"
)

// RepairEnqueuer accepts mirror writes that must be retried later.
type RepairEnqueuer interface {
	Enqueue(ctx context.Context, job cache.RepairJob) error
}

// MirrorWriter applies changes to a developer's assignedProjects list. The
// list is a denormalized copy of product assignments, so a failed write is
// reported and queued instead of failing the caller.
type MirrorWriter struct {
	developers DeveloperStore
	products   ProductStore
	breaker    *gobreaker.CircuitBreaker
	queue      RepairEnqueuer
}

// NewMirrorWriter creates a MirrorWriter. queue may be nil, in which case
// failures are only reported and left to reconciliation.
func NewMirrorWriter(stores Stores, queue RepairEnqueuer) *MirrorWriter {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "developer-mirror",
		MaxRequests: 1,
		Timeout:     10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).
				Msg("Circuit breaker state changed")
		},
		// A developer that no longer exists has no mirror to fix.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, repository.ErrNotFound)
		},
	})
	return &MirrorWriter{developers: stores.Developers, products: stores.Products, breaker: breaker, queue: queue}
}

// Apply performs job once. A missing developer is not an error.
func (m *MirrorWriter) Apply(ctx context.Context, job cache.RepairJob) error {
	_, err := m.breaker.Execute(func() (interface{}, error) {
		switch job.Op {
		case cache.MirrorAdd:
			return nil, m.developers.AddProject(ctx, job.DeveloperID, job.ProductName)
		case cache.MirrorRemove:
			return nil, m.developers.RemoveProject(ctx, job.DeveloperID, job.ProductName)
		}
		return nil, fmt.Errorf("unknown mirror op %q", job.Op)
	})
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	return err
}

// Write applies job and returns warnings to surface when it fails.
func (m *MirrorWriter) Write(ctx context.Context, job cache.RepairJob) []string {
	err := m.Apply(ctx, job)
	if err == nil {
		return nil
	}

	log.Warn().Err(err).
		Str("op", string(job.Op)).
		Str("developer_id", job.DeveloperID).
		Str("product_id", job.ProductID).
		Msg("Developer mirror write failed")

	warning := fmt.Sprintf("developer %s assignedProjects not updated for %q", job.DeveloperID, job.ProductName)
	if m.queue == nil {
		return []string{warning + "; reconciliation will correct it"}
	}

	job.LastError = err.Error()
	if qerr := m.queue.Enqueue(ctx, job); qerr != nil {
		log.Error().Err(qerr).Str("developer_id", job.DeveloperID).Msg("Failed to queue mirror repair")
		return []string{warning + "; repair could not be queued, reconciliation will correct it"}
	}
	return []string{warning + "; queued for repair"}
}

// Replay applies a queued job if the product still implies it. A job made
// stale by a later assign or unassign is dropped and reported as skipped.
func (m *MirrorWriter) Replay(ctx context.Context, job cache.RepairJob) (skipped bool, err error) {
	product, err := m.products.GetByID(ctx, job.ProductID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		if job.Op == cache.MirrorAdd {
			return true, nil
		}
	case err != nil:
		return false, err
	default:
		listed := product.AssignedDevelopers.Has(job.DeveloperID)
		if (job.Op == cache.MirrorAdd) != listed {
			return true, nil
		}
		if job.Op == cache.MirrorAdd {
			job.ProductName = product.Name
		}
	}
	return false, m.Apply(ctx, job)
}
