package timeline

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/go-chi/chi/v5"
	eventdb "github.com/tnt-tag-history/tnt-history/app/modules/event/infrastructure/repositories"
	timelineservice "github.com/tnt-tag-history/tnt-history/app/modules/timeline/application"
	timelinehandlers "github.com/tnt-tag-history/tnt-history/app/modules/timeline/infrastructure/handlers"
	timelinerouter "github.com/tnt-tag-history/tnt-history/app/modules/timeline/infrastructure/router"
	timelinesessions "github.com/tnt-tag-history/tnt-history/app/modules/timeline/sessions"
	"github.com/tnt-tag-history/tnt-history/config"
	"github.com/tnt-tag-history/tnt-history/pkg/observability"
	"github.com/uptrace/bun"
)

// Module represents the timeline module.
type Module struct {
	Service        *timelineservice.TimelineService
	Sessions       *timelinesessions.Store
	Handlers       *timelinehandlers.TimelineHandlers
	TimelineRouter *timelinerouter.TimelineRouter
}

// NewTimelineModule wires the timeline. When router or subscriber is nil,
// overrides of deleted events are left to expire with their session.
func NewTimelineModule(
	ctx context.Context,
	cfg *config.Config,
	obs observability.Observability,
	db *bun.DB,
	subscriber message.Subscriber,
	router *message.Router,
) (*Module, error) {
	logger := obs.Logger
	logger.InfoContext(ctx, "timeline.NewTimelineModule initializing")

	sessions := timelinesessions.NewStore(timelinesessions.DefaultTTL)
	service := timelineservice.NewTimelineService(eventdb.NewRepository(db), sessions, logger, obs.Tracer, db)
	handlers := timelinehandlers.NewTimelineHandlers(service, logger, obs.Tracer, cfg.HTTP.SecureCookies)

	m := &Module{Service: service, Sessions: sessions, Handlers: handlers}
	if router != nil && subscriber != nil {
		m.TimelineRouter = timelinerouter.NewTimelineRouter(logger, router, subscriber, obs.Tracer)
		if err := m.TimelineRouter.Configure(ctx, handlers); err != nil {
			return nil, fmt.Errorf("failed to configure timeline router: %w", err)
		}
	}
	return m, nil
}

// RegisterRoutes mounts the public timeline endpoints.
func (m *Module) RegisterRoutes(public chi.Router) {
	m.Handlers.Routes(public)
}
