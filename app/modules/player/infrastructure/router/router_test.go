package playerrouter

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/stretchr/testify/require"
	"github.com/tnt-tag-history/tnt-history/app/shared/domainevents"
	"github.com/tnt-tag-history/tnt-history/pkg/eventbus"
	"go.opentelemetry.io/otel/trace/noop"
)

type fakeHandlers struct {
	got chan *domainevents.PlayerIGNSyncRequestedPayloadV1
}

func (f *fakeHandlers) HandleIGNSyncRequested(ctx context.Context, payload *domainevents.PlayerIGNSyncRequestedPayloadV1) error {
	f.got <- payload
	return nil
}

func TestIGNSyncRequestReachesHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	bus := eventbus.New(logger, nil, "")
	defer bus.Close()

	router, err := message.NewRouter(message.RouterConfig{}, watermill.NewSlogLogger(logger))
	require.NoError(t, err)

	handlers := &fakeHandlers{got: make(chan *domainevents.PlayerIGNSyncRequestedPayloadV1, 1)}
	pr := NewPlayerRouter(logger, router, bus, noop.NewTracerProvider().Tracer("test"))
	require.NoError(t, pr.Configure(context.Background(), handlers))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = router.Run(ctx) }()
	<-router.Running()

	require.NoError(t, eventbus.PublishPayload(ctx, bus, domainevents.PlayerIGNSyncRequestedV1,
		domainevents.PlayerIGNSyncRequestedPayloadV1{PlayerID: "p1", UUID: "abc"}))

	select {
	case payload := <-handlers.got:
		require.Equal(t, "p1", payload.PlayerID)
	case <-time.After(2 * time.Second):
		t.Fatal("handler was not called")
	}
}
