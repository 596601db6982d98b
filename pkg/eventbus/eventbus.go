// Package eventbus is the in-process Watermill bus modules publish domain
// events on. When a NATS connection is supplied, published messages are also
// forwarded to NATS and messages from other instances are replayed locally.
package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/nats-io/nats.go"
	"github.com/tnt-tag-history/tnt-history/pkg/attr"
)

const (
	headerOrigin      = "Tnt-Origin"
	headerMessageUUID = "Tnt-Message-Uuid"
	metadataPrefix    = "Tnt-Meta-"
)

// EventBus is both a Watermill publisher and subscriber, so it can be handed
// straight to message.Router.AddHandler.
type EventBus interface {
	message.Publisher
	message.Subscriber
}

// Bus implements EventBus on top of a Go channel pub/sub.
type Bus struct {
	pubsub        *gochannel.GoChannel
	nc            *nats.Conn
	subjectPrefix string
	instanceID    string
	logger        *slog.Logger

	mu   sync.Mutex
	subs []*nats.Subscription
}

var _ EventBus = (*Bus)(nil)

// New creates a bus. nc may be nil, in which case the bus is process-local.
func New(logger *slog.Logger, nc *nats.Conn, subjectPrefix string) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{
		pubsub: gochannel.NewGoChannel(gochannel.Config{
			OutputChannelBuffer: 64,
		}, watermill.NewSlogLogger(logger)),
		nc:            nc,
		subjectPrefix: subjectPrefix,
		instanceID:    watermill.NewShortUUID(),
		logger:        logger,
	}
}

// Publish delivers messages to local subscribers and, if configured, to NATS.
func (b *Bus) Publish(topic string, messages ...*message.Message) error {
	if err := b.pubsub.Publish(topic, messages...); err != nil {
		return fmt.Errorf("eventbus publish %s: %w", topic, err)
	}
	if b.nc == nil {
		return nil
	}
	for _, msg := range messages {
		out := nats.NewMsg(b.subjectPrefix + topic)
		out.Data = msg.Payload
		out.Header.Set(headerOrigin, b.instanceID)
		out.Header.Set(headerMessageUUID, msg.UUID)
		for k, v := range msg.Metadata {
			out.Header.Set(metadataPrefix+k, v)
		}
		if err := b.nc.PublishMsg(out); err != nil {
			// Local delivery already happened; remote fan-out is best-effort.
			b.logger.Warn("Failed to forward message to NATS",
				attr.String("topic", topic),
				attr.String("message_uuid", msg.UUID),
				attr.Error(err),
			)
		}
	}
	return nil
}

// Subscribe returns a channel of messages published on topic.
func (b *Bus) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	return b.pubsub.Subscribe(ctx, topic)
}

// Bridge replays messages published by other instances on topics into the
// local bus. It is a no-op without a NATS connection.
func (b *Bus) Bridge(topics ...string) error {
	if b.nc == nil {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, topic := range topics {
		topic := topic
		sub, err := b.nc.Subscribe(b.subjectPrefix+topic, func(m *nats.Msg) {
			if m.Header.Get(headerOrigin) == b.instanceID {
				return
			}
			id := m.Header.Get(headerMessageUUID)
			if id == "" {
				id = watermill.NewUUID()
			}
			msg := message.NewMessage(id, m.Data)
			for k, vals := range m.Header {
				if len(k) > len(metadataPrefix) && k[:len(metadataPrefix)] == metadataPrefix && len(vals) > 0 {
					msg.Metadata.Set(k[len(metadataPrefix):], vals[0])
				}
			}
			if err := b.pubsub.Publish(topic, msg); err != nil {
				b.logger.Error("Failed to replay NATS message", attr.String("topic", topic), attr.Error(err))
			}
		})
		if err != nil {
			return fmt.Errorf("eventbus bridge %s: %w", topic, err)
		}
		b.subs = append(b.subs, sub)
	}
	return nil
}

// Close unsubscribes bridges and closes the local pub/sub.
func (b *Bus) Close() error {
	b.mu.Lock()
	for _, sub := range b.subs {
		_ = sub.Unsubscribe()
	}
	b.subs = nil
	b.mu.Unlock()
	return b.pubsub.Close()
}

// NewMessage marshals payload into a Watermill message, copying the
// correlation id from ctx into metadata.
func NewMessage(ctx context.Context, topic string, payload any) (*message.Message, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", topic, err)
	}
	msg := message.NewMessage(watermill.NewUUID(), data)
	msg.Metadata.Set("topic", topic)
	if id := attr.CorrelationID(ctx); id != "" {
		msg.Metadata.Set("correlation_id", id)
	}
	return msg, nil
}

// PublishPayload is NewMessage followed by Publish.
func PublishPayload(ctx context.Context, bus message.Publisher, topic string, payload any) error {
	msg, err := NewMessage(ctx, topic, payload)
	if err != nil {
		return err
	}
	return bus.Publish(topic, msg)
}
