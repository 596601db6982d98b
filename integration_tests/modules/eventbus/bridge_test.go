package eventbusintegrationtests

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/stretchr/testify/require"
	"github.com/tnt-tag-history/tnt-history/app/shared/domainevents"
	"github.com/tnt-tag-history/tnt-history/pkg/attr"
	"github.com/tnt-tag-history/tnt-history/pkg/eventbus"
)

// newInstance builds a bus the way the server does, on its own NATS connection.
func newInstance(t *testing.T) *eventbus.Bus {
	t.Helper()
	nc, err := testEnv.ConnectNATS()
	require.NoError(t, err)

	bus := eventbus.New(testEnv.Obs.Logger, nc, testEnv.Config.NATS.SubjectPrefix+t.Name()+".")
	require.NoError(t, bus.Bridge(domainevents.BridgedTopics...))
	t.Cleanup(func() {
		_ = bus.Close()
		nc.Close()
	})
	return bus
}

func subscribe(t *testing.T, bus *eventbus.Bus, topic string) <-chan *message.Message {
	t.Helper()
	ctx, cancel := context.WithCancel(testEnv.Ctx)
	t.Cleanup(cancel)
	ch, err := bus.Subscribe(ctx, topic)
	require.NoError(t, err)
	return ch
}

func receive(t *testing.T, ch <-chan *message.Message, within time.Duration) *message.Message {
	t.Helper()
	select {
	case msg := <-ch:
		msg.Ack()
		return msg
	case <-time.After(within):
		return nil
	}
}

func TestBridge_ForwardsToOtherInstances(t *testing.T) {
	a := newInstance(t)
	b := newInstance(t)

	onA := subscribe(t, a, domainevents.EventDeletedV1)
	onB := subscribe(t, b, domainevents.EventDeletedV1)

	ctx := attr.WithCorrelationID(testEnv.Ctx, "corr-123")
	payload := domainevents.EventDeletedPayloadV1{EventID: "evt-1", OccurredAt: time.Now().UTC().Truncate(time.Second)}
	require.NoError(t, eventbus.PublishPayload(ctx, a, domainevents.EventDeletedV1, payload))

	local := receive(t, onA, 5*time.Second)
	require.NotNil(t, local, "publisher's own subscribers should see the message")

	remote := receive(t, onB, 5*time.Second)
	require.NotNil(t, remote, "other instance should receive the bridged message")
	require.Equal(t, local.UUID, remote.UUID)
	require.Equal(t, "corr-123", remote.Metadata.Get("correlation_id"))

	var got domainevents.EventDeletedPayloadV1
	require.NoError(t, json.Unmarshal(remote.Payload, &got))
	require.Equal(t, payload.EventID, got.EventID)
	require.True(t, payload.OccurredAt.Equal(got.OccurredAt))

	// The publisher must not get its own message back from NATS.
	require.Nil(t, receive(t, onA, 500*time.Millisecond), "message echoed back to its origin")
}

func TestBridge_LocalTopicsStayLocal(t *testing.T) {
	a := newInstance(t)
	b := newInstance(t)

	onB := subscribe(t, b, domainevents.PlayerIGNSyncRequestedV1)

	// Publish forwards every topic to NATS, but b only bridges BridgedTopics.
	require.NoError(t, eventbus.PublishPayload(testEnv.Ctx, a, domainevents.PlayerIGNSyncRequestedV1,
		domainevents.PlayerIGNSyncRequestedPayloadV1{PlayerID: "p1"}))

	require.Nil(t, receive(t, onB, time.Second), "unbridged topic crossed instances")
}
