package mentionqueue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/tnt-tag-history/tnt-history/pkg/attr"
	"github.com/tnt-tag-history/tnt-history/pkg/observability"
)

// QueueName is the dedicated River queue for mention jobs.
const QueueName = "mentions"

// QueueService schedules mention maintenance jobs.
type QueueService interface {
	// EnqueueReconcile inserts a one-off reconcile job. Requests within the
	// same minute collapse into one job.
	EnqueueReconcile(ctx context.Context, reason string) (*JobInfo, error)
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

var _ QueueService = (*Service)(nil)

// Service handles mention job scheduling using River.
type Service struct {
	client  *river.Client[pgx.Tx]
	pool    *pgxpool.Pool
	logger  *slog.Logger
	metrics observability.ServiceMetrics
}

// NewService connects a pgx pool to dsn and builds a River client that runs
// the reconcile worker, plus a periodic reconcile when interval is positive.
func NewService(ctx context.Context, dsn string, reconciler Reconciler, interval time.Duration, logger *slog.Logger, metrics observability.ServiceMetrics) (*Service, error) {
	ctxLogger := logger.With(
		attr.String("operation", "new_mention_queue_service"),
		attr.String("component", "river_queue"),
	)

	start := time.Now()
	metrics.RecordOperationAttempt(ctx, "initialize_service", "river")

	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		metrics.RecordOperationFailure(ctx, "initialize_service", "river")
		return nil, fmt.Errorf("failed to parse DSN: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		metrics.RecordOperationFailure(ctx, "initialize_service", "river")
		return nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		ctxLogger.Error("Failed to ping database for River", attr.Error(err))
		metrics.RecordOperationFailure(ctx, "initialize_service", "river")
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	workers := river.NewWorkers()
	river.AddWorker(workers, NewReconcileMentionsWorker(ctxLogger, reconciler))

	riverConfig := &river.Config{
		Queues: map[string]river.QueueConfig{
			river.QueueDefault: {MaxWorkers: 5},
			QueueName:          {MaxWorkers: 1},
		},
		Workers:      workers,
		PeriodicJobs: PeriodicJobs(interval),
	}

	client, err := river.NewClient(riverpgxv5.New(pool), riverConfig)
	if err != nil {
		pool.Close()
		ctxLogger.Error("Failed to create River client", attr.Error(err))
		metrics.RecordOperationFailure(ctx, "initialize_service", "river")
		return nil, fmt.Errorf("failed to create River client: %w", err)
	}

	metrics.RecordOperationSuccess(ctx, "initialize_service", "river")
	metrics.RecordOperationDuration(ctx, "initialize_service", "river", time.Since(start))
	ctxLogger.Info("Mention queue service initialized", attr.Duration("reconcile_interval", interval))

	return &Service{client: client, pool: pool, logger: ctxLogger, metrics: metrics}, nil
}

// PeriodicJobs returns the periodic reconcile schedule. A non-positive
// interval disables it.
func PeriodicJobs(interval time.Duration) []*river.PeriodicJob {
	if interval <= 0 {
		return nil
	}
	return []*river.PeriodicJob{
		river.NewPeriodicJob(
			river.PeriodicInterval(interval),
			func() (river.JobArgs, *river.InsertOpts) {
				return ReconcileMentionsJob{Reason: "periodic"}, &river.InsertOpts{Queue: QueueName}
			},
			&river.PeriodicJobOpts{RunOnStart: false},
		),
	}
}

func (s *Service) Start(ctx context.Context) error {
	s.metrics.RecordOperationAttempt(ctx, "start_service", "river")
	if err := s.client.Start(ctx); err != nil {
		s.logger.Error("Failed to start River client", attr.Error(err))
		s.metrics.RecordOperationFailure(ctx, "start_service", "river")
		return fmt.Errorf("failed to start River client: %w", err)
	}
	s.metrics.RecordOperationSuccess(ctx, "start_service", "river")
	s.logger.Info("Mention queue service started")
	return nil
}

func (s *Service) Stop(ctx context.Context) error {
	s.metrics.RecordOperationAttempt(ctx, "stop_service", "river")
	defer s.pool.Close()

	if err := s.client.Stop(ctx); err != nil {
		s.logger.Error("Failed to stop River client", attr.Error(err))
		s.metrics.RecordOperationFailure(ctx, "stop_service", "river")
		return fmt.Errorf("failed to stop River client: %w", err)
	}
	s.metrics.RecordOperationSuccess(ctx, "stop_service", "river")
	s.logger.Info("Mention queue service stopped")
	return nil
}

func (s *Service) EnqueueReconcile(ctx context.Context, reason string) (*JobInfo, error) {
	start := time.Now()
	s.metrics.RecordOperationAttempt(ctx, "enqueue_reconcile", "river")

	res, err := s.client.Insert(ctx, ReconcileMentionsJob{Reason: reason}, &river.InsertOpts{
		Queue: QueueName,
		UniqueOpts: river.UniqueOpts{
			ByPeriod: time.Minute,
		},
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to enqueue reconcile job", attr.Error(err))
		s.metrics.RecordOperationFailure(ctx, "enqueue_reconcile", "river")
		return nil, fmt.Errorf("failed to enqueue reconcile job: %w", err)
	}

	s.metrics.RecordOperationSuccess(ctx, "enqueue_reconcile", "river")
	s.metrics.RecordOperationDuration(ctx, "enqueue_reconcile", "river", time.Since(start))
	s.logger.InfoContext(ctx, "Reconcile job enqueued",
		attr.Int64("job_id", res.Job.ID),
		attr.Bool("duplicate", res.UniqueSkippedAsDuplicate),
	)

	return &JobInfo{
		ID:     res.Job.ID,
		Kind:   res.Job.Kind,
		Queue:  res.Job.Queue,
		Reason: reason,
		State:  string(res.Job.State),
	}, nil
}
