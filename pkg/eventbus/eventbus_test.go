package eventbus

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tnt-tag-history/tnt-history/pkg/attr"
	"go.opentelemetry.io/otel/trace/noop"
)

type testPayload struct {
	ID    string `json:"id"`
	Count int    `json:"count"`
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestBus_LocalPublishSubscribe(t *testing.T) {
	bus := New(discardLogger(), nil, "")
	t.Cleanup(func() { _ = bus.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch, err := bus.Subscribe(ctx, "thing.happened.v1")
	require.NoError(t, err)

	require.NoError(t, bus.Bridge("thing.happened.v1"), "Bridge without NATS is a no-op")

	pubCtx := attr.WithCorrelationID(context.Background(), "abc")
	require.NoError(t, PublishPayload(pubCtx, bus, "thing.happened.v1", testPayload{ID: "x", Count: 2}))

	select {
	case msg := <-ch:
		msg.Ack()
		assert.Equal(t, "abc", msg.Metadata.Get("correlation_id"))
		assert.Equal(t, "thing.happened.v1", msg.Metadata.Get("topic"))
		assert.JSONEq(t, `{"id":"x","count":2}`, string(msg.Payload))
	case <-time.After(2 * time.Second):
		t.Fatal("message not delivered")
	}
}

func TestNewMessage_NoCorrelationID(t *testing.T) {
	msg, err := NewMessage(context.Background(), "t", testPayload{ID: "y"})
	require.NoError(t, err)
	assert.Empty(t, msg.Metadata.Get("correlation_id"))
	assert.NotEmpty(t, msg.UUID)
}

func TestNewMessage_UnmarshalablePayload(t *testing.T) {
	_, err := NewMessage(context.Background(), "t", make(chan int))
	assert.Error(t, err)
}

func TestWrapTyped(t *testing.T) {
	tracer := noop.NewTracerProvider().Tracer("test")
	handlerErr := errors.New("boom")

	tests := []struct {
		name      string
		payload   string
		handler   func(context.Context, *testPayload) error
		wantErr   bool
		wantCalls int
	}{
		{
			name:    "decodes payload and restores correlation id",
			payload: `{"id":"e1","count":3}`,
			handler: func(ctx context.Context, p *testPayload) error {
				if p.ID != "e1" || p.Count != 3 {
					return errors.New("payload mismatch")
				}
				if attr.CorrelationID(ctx) != "corr" {
					return errors.New("correlation id missing")
				}
				return nil
			},
			wantCalls: 1,
		},
		{
			name:      "undecodable payload is dropped without error",
			payload:   `{not json`,
			handler:   func(context.Context, *testPayload) error { return nil },
			wantCalls: 0,
		},
		{
			name:      "handler error is returned for redelivery",
			payload:   `{"id":"e2"}`,
			handler:   func(context.Context, *testPayload) error { return handlerErr },
			wantErr:   true,
			wantCalls: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			wrapped := WrapTyped("test.handler", discardLogger(), tracer, func(ctx context.Context, p *testPayload) error {
				calls++
				return tt.handler(ctx, p)
			})

			msg := message.NewMessage("uuid-1", []byte(tt.payload))
			msg.Metadata.Set("correlation_id", "corr")

			err := wrapped(msg)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, handlerErr)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.wantCalls, calls)
		})
	}
}
