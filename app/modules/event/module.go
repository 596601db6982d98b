package event

import (
	"context"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/go-chi/chi/v5"
	eventservice "github.com/tnt-tag-history/tnt-history/app/modules/event/application"
	eventhandlers "github.com/tnt-tag-history/tnt-history/app/modules/event/infrastructure/handlers"
	eventdb "github.com/tnt-tag-history/tnt-history/app/modules/event/infrastructure/repositories"
	"github.com/tnt-tag-history/tnt-history/pkg/observability"
	"github.com/uptrace/bun"
)

// Module represents the event module.
type Module struct {
	EventService eventservice.Service
	Handlers     *eventhandlers.EventHandlers
	obs          observability.Observability
}

// NewEventModule creates and initializes a new event module.
func NewEventModule(
	ctx context.Context,
	obs observability.Observability,
	db *bun.DB,
	indexer eventservice.Indexer,
	publisher message.Publisher,
	categories eventhandlers.CategoryChecker,
) *Module {
	logger := obs.Logger
	logger.InfoContext(ctx, "event.NewEventModule initializing")

	// 1. Initialize Repository
	repo := eventdb.NewRepository(db)

	// 2. Initialize Service
	service := eventservice.NewEventService(repo, indexer, publisher, logger, obs.Metrics, obs.Tracer, db)

	// 3. Initialize Handlers
	handlers := eventhandlers.NewEventHandlers(service, categories, logger, obs.Tracer)

	return &Module{
		EventService: service,
		Handlers:     handlers,
		obs:          obs,
	}
}

// RegisterRoutes mounts the public and admin endpoints.
func (m *Module) RegisterRoutes(public, admin chi.Router) {
	m.Handlers.Routes(public)
	m.Handlers.AdminRoutes(admin)
}
