package timelinerouter

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/stretchr/testify/require"
	timelineservice "github.com/tnt-tag-history/tnt-history/app/modules/timeline/application"
	timelinehandlers "github.com/tnt-tag-history/tnt-history/app/modules/timeline/infrastructure/handlers"
	timelinesessions "github.com/tnt-tag-history/tnt-history/app/modules/timeline/sessions"
	"github.com/tnt-tag-history/tnt-history/app/shared/domainevents"
	"github.com/tnt-tag-history/tnt-history/pkg/eventbus"
	"go.opentelemetry.io/otel/trace/noop"
)

func TestEventDeletionPrunesOverrides(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tracer := noop.NewTracerProvider().Tracer("test")
	bus := eventbus.New(logger, nil, "")
	defer bus.Close()

	router, err := message.NewRouter(message.RouterConfig{}, watermill.NewSlogLogger(logger))
	require.NoError(t, err)

	store := timelinesessions.NewStore(time.Hour)
	store.Drag("s1", "gone", 2, 100, 600)
	store.Drag("s1", "kept", 3, 200, 600)

	svc := timelineservice.NewTimelineService(nil, store, logger, tracer, nil)
	handlers := timelinehandlers.NewTimelineHandlers(svc, logger, tracer, false)
	require.NoError(t, NewTimelineRouter(logger, router, bus, tracer).Configure(context.Background(), handlers))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = router.Run(ctx) }()
	<-router.Running()

	require.NoError(t, eventbus.PublishPayload(ctx, bus, domainevents.EventDeletedV1,
		domainevents.EventDeletedPayloadV1{EventID: "gone", OccurredAt: time.Now()}))

	require.Eventually(t, func() bool {
		_, ok := store.Overrides("s1")["gone"]
		return !ok
	}, 2*time.Second, 10*time.Millisecond)
	require.Contains(t, store.Overrides("s1"), "kept")
}
