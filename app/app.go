package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/components/metrics"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/nats-io/nats.go"
	"github.com/tnt-tag-history/tnt-history/app/modules/auth"
	"github.com/tnt-tag-history/tnt-history/app/modules/category"
	"github.com/tnt-tag-history/tnt-history/app/modules/event"
	"github.com/tnt-tag-history/tnt-history/app/modules/mention"
	"github.com/tnt-tag-history/tnt-history/app/modules/player"
	"github.com/tnt-tag-history/tnt-history/app/modules/timeline"
	"github.com/tnt-tag-history/tnt-history/app/shared/domainevents"
	"github.com/tnt-tag-history/tnt-history/config"
	"github.com/tnt-tag-history/tnt-history/pkg/bundb"
	"github.com/tnt-tag-history/tnt-history/pkg/eventbus"
	"github.com/tnt-tag-history/tnt-history/pkg/observability"
	"github.com/uptrace/bun"
)

// ServiceName labels logs, traces and metrics.
const ServiceName = "tnt-history"

// Modules holds every feature module.
type Modules struct {
	Mention  *mention.Module
	Category *category.Module
	Event    *event.Module
	Player   *player.Module
	Timeline *timeline.Module
	Auth     *auth.Module
}

// App wires configuration, infrastructure and modules into one server.
type App struct {
	Config          *config.Config
	Observability   observability.Observability
	DB              *bun.DB
	NATS            *nats.Conn
	EventBus        *eventbus.Bus
	WatermillRouter *message.Router
	Modules         Modules
	HTTPServer      *http.Server
	MetricsServer   *http.Server
}

// NewApp connects to Postgres and optional NATS and builds every module.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	obs := observability.New(observability.Config{
		ServiceName: ServiceName,
		Environment: cfg.Observability.Environment,
		LogLevel:    cfg.Observability.LogLevel,
	})
	logger := obs.Logger

	a := &App{Config: cfg, Observability: obs}

	db, err := bundb.Open(ctx, cfg.Postgres.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	a.DB = db

	if cfg.NATS.URL != "" {
		nc, err := nats.Connect(cfg.NATS.URL,
			nats.Name(ServiceName),
			nats.MaxReconnects(-1),
			nats.ReconnectWait(2*time.Second),
		)
		if err != nil {
			a.closeInfra()
			return nil, fmt.Errorf("failed to connect to NATS: %w", err)
		}
		a.NATS = nc
		logger.InfoContext(ctx, "Connected to NATS", slog.String("url", nc.ConnectedUrlRedacted()))
	}

	a.EventBus = eventbus.New(logger, a.NATS, cfg.NATS.SubjectPrefix)
	if a.NATS != nil {
		if err := a.EventBus.Bridge(domainevents.BridgedTopics...); err != nil {
			a.closeInfra()
			return nil, fmt.Errorf("failed to bridge event bus: %w", err)
		}
	}

	router, err := message.NewRouter(message.RouterConfig{CloseTimeout: 10 * time.Second}, watermill.NewSlogLogger(logger))
	if err != nil {
		a.closeInfra()
		return nil, fmt.Errorf("failed to create watermill router: %w", err)
	}
	router.AddMiddleware(
		middleware.CorrelationID,
		middleware.Recoverer,
	)
	metrics.NewPrometheusMetricsBuilder(obs.Registry, "tnt_history", "watermill").AddPrometheusRouterMetrics(router)
	a.WatermillRouter = router

	if err := a.initializeModules(ctx); err != nil {
		a.closeInfra()
		return nil, err
	}

	a.HTTPServer = &http.Server{
		Addr:              cfg.HTTP.ListenAddress,
		Handler:           a.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	if cfg.Observability.MetricsAddress != "" {
		a.MetricsServer = &http.Server{
			Addr:              cfg.Observability.MetricsAddress,
			Handler:           a.metricsHandler(),
			ReadHeaderTimeout: 10 * time.Second,
		}
	}

	logger.InfoContext(ctx, "Application initialized")
	return a, nil
}

// initializeModules builds modules in dependency order: the mention indexer
// first, then the modules that call into it.
func (a *App) initializeModules(ctx context.Context) error {
	cfg, obs, db := a.Config, a.Observability, a.DB

	mentionModule, err := mention.NewMentionModule(ctx, cfg, obs, db, true)
	if err != nil {
		return fmt.Errorf("failed to initialize mention module: %w", err)
	}
	a.Modules.Mention = mentionModule

	a.Modules.Category = category.NewCategoryModule(ctx, obs, db)

	a.Modules.Event = event.NewEventModule(ctx, obs, db, mentionModule.Service, a.EventBus, a.Modules.Category.Service)

	playerModule, err := player.NewPlayerModule(ctx, cfg, obs, db, mentionModule.Service, a.EventBus, a.EventBus, a.WatermillRouter)
	if err != nil {
		return fmt.Errorf("failed to initialize player module: %w", err)
	}
	a.Modules.Player = playerModule

	timelineModule, err := timeline.NewTimelineModule(ctx, cfg, obs, db, a.EventBus, a.WatermillRouter)
	if err != nil {
		return fmt.Errorf("failed to initialize timeline module: %w", err)
	}
	a.Modules.Timeline = timelineModule

	a.Modules.Auth = auth.NewModule(ctx, cfg, obs)
	return nil
}
