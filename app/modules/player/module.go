package player

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/go-chi/chi/v5"
	eventdb "github.com/tnt-tag-history/tnt-history/app/modules/event/infrastructure/repositories"
	playerservice "github.com/tnt-tag-history/tnt-history/app/modules/player/application"
	playerhandlers "github.com/tnt-tag-history/tnt-history/app/modules/player/infrastructure/handlers"
	playeridentity "github.com/tnt-tag-history/tnt-history/app/modules/player/infrastructure/identity"
	playerdb "github.com/tnt-tag-history/tnt-history/app/modules/player/infrastructure/repositories"
	playerrouter "github.com/tnt-tag-history/tnt-history/app/modules/player/infrastructure/router"
	playerstats "github.com/tnt-tag-history/tnt-history/app/modules/player/infrastructure/stats"
	"github.com/tnt-tag-history/tnt-history/config"
	"github.com/tnt-tag-history/tnt-history/pkg/observability"
	"github.com/uptrace/bun"
)

// Module represents the player module.
type Module struct {
	PlayerService playerservice.Service
	Handlers      *playerhandlers.PlayerHandlers
	PlayerRouter  *playerrouter.PlayerRouter
}

// NewPlayerModule creates and initializes a new player module. router and
// bus may be nil, in which case IGN sync requests are not consumed.
func NewPlayerModule(
	ctx context.Context,
	cfg *config.Config,
	obs observability.Observability,
	db *bun.DB,
	cascade playerservice.Cascader,
	bus message.Publisher,
	subscriber message.Subscriber,
	router *message.Router,
) (*Module, error) {
	logger := obs.Logger
	logger.InfoContext(ctx, "player.NewPlayerModule initializing")

	// 1. Initialize Clients
	identity := playeridentity.NewClient(cfg.Identity.BaseURL, cfg.Identity.RequestsPerSecond, cfg.Identity.Timeout)
	stats := playerstats.NewClient(cfg.Stats.BaseURL, cfg.Stats.APIKey, cfg.Stats.RequestsPerSecond, cfg.Stats.Timeout)

	// 2. Initialize Service
	service := playerservice.NewPlayerService(playerservice.Deps{
		Repo:      playerdb.NewRepository(db),
		Events:    eventdb.NewRepository(db),
		Identity:  identity,
		Stats:     stats,
		Cascade:   cascade,
		Publisher: bus,
	}, logger, obs.Metrics, obs.Tracer, db)

	// 3. Initialize Handlers
	handlers := playerhandlers.NewPlayerHandlers(service, logger, obs.Tracer)

	m := &Module{PlayerService: service, Handlers: handlers}

	// 4. Initialize Router
	if router != nil && subscriber != nil {
		m.PlayerRouter = playerrouter.NewPlayerRouter(logger, router, subscriber, obs.Tracer)
		if err := m.PlayerRouter.Configure(ctx, handlers); err != nil {
			return nil, fmt.Errorf("failed to configure player router: %w", err)
		}
	}

	return m, nil
}

// RegisterRoutes mounts the public and admin endpoints.
func (m *Module) RegisterRoutes(public, admin chi.Router) {
	m.Handlers.Routes(public)
	m.Handlers.AdminRoutes(admin)
}
