package timelinerouter

import (
	"context"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/tnt-tag-history/tnt-history/app/shared/domainevents"
	"github.com/tnt-tag-history/tnt-history/pkg/eventbus"
	"go.opentelemetry.io/otel/trace"
)

// Handlers is the set of message handlers the timeline module consumes.
type Handlers interface {
	HandleEventDeleted(ctx context.Context, payload *domainevents.EventDeletedPayloadV1) error
}

// TimelineRouter registers the timeline module's Watermill handlers.
type TimelineRouter struct {
	logger     *slog.Logger
	router     *message.Router
	subscriber message.Subscriber
	tracer     trace.Tracer
}

func NewTimelineRouter(logger *slog.Logger, router *message.Router, subscriber message.Subscriber, tracer trace.Tracer) *TimelineRouter {
	return &TimelineRouter{logger: logger, router: router, subscriber: subscriber, tracer: tracer}
}

// Configure subscribes to event deletions so stale overrides are dropped.
func (r *TimelineRouter) Configure(_ context.Context, handlers Handlers) error {
	handlerName := "timeline." + domainevents.EventDeletedV1
	r.router.AddNoPublisherHandler(
		handlerName,
		domainevents.EventDeletedV1,
		r.subscriber,
		eventbus.WrapTyped(handlerName, r.logger, r.tracer, handlers.HandleEventDeleted),
	)
	r.logger.Info("Timeline module handlers registered", slog.String("subject", domainevents.EventDeletedV1))
	return nil
}
