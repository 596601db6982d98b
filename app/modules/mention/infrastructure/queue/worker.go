package mentionqueue

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/riverqueue/river"
	mentionservice "github.com/tnt-tag-history/tnt-history/app/modules/mention/application"
	"github.com/tnt-tag-history/tnt-history/pkg/attr"
)

// Reconciler is the slice of the mention service the worker drives.
type Reconciler interface {
	ReconcileAll(ctx context.Context) (*mentionservice.ReconcileReport, error)
}

// ReconcileMentionsWorker runs ReconcileAll for each job.
type ReconcileMentionsWorker struct {
	river.WorkerDefaults[ReconcileMentionsJob]
	reconciler Reconciler
	logger     *slog.Logger
}

func NewReconcileMentionsWorker(logger *slog.Logger, reconciler Reconciler) *ReconcileMentionsWorker {
	return &ReconcileMentionsWorker{reconciler: reconciler, logger: logger}
}

func (w *ReconcileMentionsWorker) Work(ctx context.Context, job *river.Job[ReconcileMentionsJob]) error {
	logger := w.logger.With(
		attr.Int64("job_id", job.ID),
		attr.String("reason", job.Args.Reason),
		attr.Int("attempt", job.Attempt),
	)
	logger.InfoContext(ctx, "Running mention reconcile job")

	report, err := w.reconciler.ReconcileAll(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "Mention reconcile job failed", attr.Error(err))
		return fmt.Errorf("reconcile mentions: %w", err)
	}

	logger.InfoContext(ctx, "Mention reconcile job completed",
		attr.Int("events_scanned", report.EventsScanned),
		attr.Int("players_updated", report.PlayersUpdated),
		attr.Int("failures", report.Failures),
	)
	return nil
}
