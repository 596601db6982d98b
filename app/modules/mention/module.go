package mention

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/go-chi/chi/v5"
	eventdb "github.com/tnt-tag-history/tnt-history/app/modules/event/infrastructure/repositories"
	mentionservice "github.com/tnt-tag-history/tnt-history/app/modules/mention/application"
	mentionhandlers "github.com/tnt-tag-history/tnt-history/app/modules/mention/infrastructure/handlers"
	mentionqueue "github.com/tnt-tag-history/tnt-history/app/modules/mention/infrastructure/queue"
	playerdb "github.com/tnt-tag-history/tnt-history/app/modules/player/infrastructure/repositories"
	"github.com/tnt-tag-history/tnt-history/config"
	"github.com/tnt-tag-history/tnt-history/pkg/observability"
	"github.com/uptrace/bun"
)

// Module represents the mention module.
type Module struct {
	Service  *mentionservice.MentionService
	Queue    *mentionqueue.Service
	Handlers *mentionhandlers.MentionHandlers
	logger   *slog.Logger

	// mu guards cancelFunc and closed, which Run and Close touch from
	// different goroutines.
	mu         sync.Mutex
	cancelFunc context.CancelFunc
	closed     bool
}

// NewMentionModule wires the indexer. The River queue is only built when
// withQueue is set; CLI commands run without it.
func NewMentionModule(
	ctx context.Context,
	cfg *config.Config,
	obs observability.Observability,
	db *bun.DB,
	withQueue bool,
) (*Module, error) {
	logger := obs.Logger
	logger.InfoContext(ctx, "mention.NewMentionModule initializing")

	service := mentionservice.NewMentionService(
		eventdb.NewRepository(db),
		playerdb.NewRepository(db),
		logger,
		obs.Metrics,
		obs.Tracer,
		db,
	)

	var queue *mentionqueue.Service
	var enqueuer mentionhandlers.Enqueuer
	if withQueue {
		q, err := mentionqueue.NewService(ctx, cfg.Postgres.DSN, service, cfg.Jobs.ReconcileInterval, logger, obs.Metrics)
		if err != nil {
			return nil, fmt.Errorf("failed to create mention queue: %w", err)
		}
		queue = q
		enqueuer = q
	}

	return &Module{
		Service:  service,
		Queue:    queue,
		Handlers: mentionhandlers.NewMentionHandlers(service, enqueuer, logger, obs.Tracer),
		logger:   logger,
	}, nil
}

// RegisterRoutes mounts the admin endpoints. admin must already enforce admin auth.
func (m *Module) RegisterRoutes(admin chi.Router) {
	m.Handlers.AdminRoutes(admin)
}

// Run starts the job queue and blocks until ctx is done or Close is called.
// Run after Close returns immediately.
func (m *Module) Run(ctx context.Context, wg *sync.WaitGroup) {
	if wg != nil {
		defer wg.Done()
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	m.cancelFunc = cancel
	m.mu.Unlock()
	defer cancel()

	m.logger.InfoContext(ctx, "Starting mention module")

	if m.Queue != nil {
		if err := m.Queue.Start(ctx); err != nil {
			m.logger.ErrorContext(ctx, "Failed to start mention queue", "error", err)
			return
		}
	}

	<-ctx.Done()
	m.logger.InfoContext(ctx, "Mention module goroutine stopped")
}

// Close shuts down the mention module.
func (m *Module) Close(ctx context.Context) error {
	m.logger.Info("Stopping mention module")

	m.mu.Lock()
	m.closed = true
	cancel := m.cancelFunc
	m.mu.Unlock()
	if cancel != nil {
		cancel()
	}

	if m.Queue != nil {
		if err := m.Queue.Stop(ctx); err != nil {
			return fmt.Errorf("error stopping mention queue: %w", err)
		}
	}

	m.logger.Info("Mention module stopped")
	return nil
}
