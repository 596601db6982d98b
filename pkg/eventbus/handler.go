package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/tnt-tag-history/tnt-history/pkg/attr"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// WrapTyped adapts a typed handler to a Watermill consumer. The payload is
// decoded as JSON; a payload that does not decode is logged and acked, since
// redelivering it can never succeed.
func WrapTyped[T any](
	handlerName string,
	logger *slog.Logger,
	tracer trace.Tracer,
	handler func(context.Context, *T) error,
) message.NoPublishHandlerFunc {
	return func(msg *message.Message) error {
		ctx := msg.Context()
		if id := msg.Metadata.Get("correlation_id"); id != "" {
			ctx = attr.WithCorrelationID(ctx, id)
		}

		ctx, span := tracer.Start(ctx, handlerName, trace.WithAttributes(
			attribute.String("message_uuid", msg.UUID),
			attribute.String("topic", msg.Metadata.Get("topic")),
		))
		defer span.End()

		payload := new(T)
		if err := json.Unmarshal(msg.Payload, payload); err != nil {
			logger.ErrorContext(ctx, "Dropping undecodable message",
				attr.String("handler", handlerName),
				attr.String("message_uuid", msg.UUID),
				attr.Error(err),
			)
			return nil
		}

		if err := handler(ctx, payload); err != nil {
			span.RecordError(err)
			logger.ErrorContext(ctx, "Message handler failed",
				attr.ExtractCorrelationID(ctx),
				attr.String("handler", handlerName),
				attr.Error(err),
			)
			return fmt.Errorf("%s: %w", handlerName, err)
		}
		return nil
	}
}
