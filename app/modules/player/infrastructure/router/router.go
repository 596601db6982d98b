package playerrouter

import (
	"context"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/tnt-tag-history/tnt-history/app/shared/domainevents"
	"github.com/tnt-tag-history/tnt-history/pkg/eventbus"
	"go.opentelemetry.io/otel/trace"
)

// Handlers is the set of message handlers the player module consumes.
type Handlers interface {
	HandleIGNSyncRequested(ctx context.Context, payload *domainevents.PlayerIGNSyncRequestedPayloadV1) error
}

// PlayerRouter handles Watermill handler registration for player events.
type PlayerRouter struct {
	logger     *slog.Logger
	router     *message.Router
	subscriber message.Subscriber
	tracer     trace.Tracer
}

// NewPlayerRouter creates a new PlayerRouter.
func NewPlayerRouter(logger *slog.Logger, router *message.Router, subscriber message.Subscriber, tracer trace.Tracer) *PlayerRouter {
	return &PlayerRouter{logger: logger, router: router, subscriber: subscriber, tracer: tracer}
}

// Configure sets up the router with handlers.
func (r *PlayerRouter) Configure(_ context.Context, handlers Handlers) error {
	r.logger.Info("Registering player module handlers",
		slog.String("ign_sync_subject", domainevents.PlayerIGNSyncRequestedV1),
	)

	registerHandler(r, domainevents.PlayerIGNSyncRequestedV1, handlers.HandleIGNSyncRequested)

	r.logger.Info("Player module handlers registered successfully")
	return nil
}

func registerHandler[T any](r *PlayerRouter, topic string, handler func(context.Context, *T) error) {
	handlerName := "player." + topic
	r.router.AddNoPublisherHandler(
		handlerName,
		topic,
		r.subscriber,
		eventbus.WrapTyped(handlerName, r.logger, r.tracer, handler),
	)
}
