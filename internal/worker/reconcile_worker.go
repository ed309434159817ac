package worker

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/GTDGit/devhub_api/internal/service"
)

// Reconciler runs one mirror reconciliation pass.
type Reconciler interface {
	Reconcile(ctx context.Context) (*service.ReconcileReport, error)
}

// ReconcileWorker runs mirror reconciliation on a cron schedule.
type ReconcileWorker struct {
	reconciler Reconciler
	schedule   string
	timeout    time.Duration
}

// NewReconcileWorker constructs a ReconcileWorker. schedule uses standard
// cron syntax or descriptors such as "@every 1h".
func NewReconcileWorker(reconciler Reconciler, schedule string) *ReconcileWorker {
	return &ReconcileWorker{
		reconciler: reconciler,
		schedule:   schedule,
		timeout:    10 * time.Minute,
	}
}

// Start schedules reconciliation and blocks until context is canceled.
func (w *ReconcileWorker) Start(ctx context.Context) {
	c := cron.New(cron.WithChain(cron.Recover(cronLogger{})))
	if _, err := c.AddFunc(w.schedule, func() { w.run(ctx) }); err != nil {
		log.Error().Err(err).Str("schedule", w.schedule).Msg("Invalid reconcile schedule, worker disabled")
		return
	}

	log.Info().Str("schedule", w.schedule).Msg("Starting reconcile worker")
	c.Start()

	<-ctx.Done()
	<-c.Stop().Done()
	log.Info().Msg("Reconcile worker stopped")
}

func (w *ReconcileWorker) run(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	runCtx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	report, err := w.reconciler.Reconcile(runCtx)
	if err != nil {
		log.Error().Err(err).Msg("Scheduled reconciliation failed")
		return
	}
	if len(report.Orphaned) > 0 && !report.OrphansPruned {
		log.Warn().Int("developers", len(report.Orphaned)).Msg("Orphaned project names left in place")
	}
}

// cronLogger routes cron's internal logging to zerolog.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	log.Debug().Fields(keysAndValues).Msg(msg)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
