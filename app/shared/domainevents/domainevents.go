// Package domainevents lists the topics modules publish on the event bus and
// the payload carried by each.
package domainevents

import "time"

const (
	// EventCreatedV1 is published after an event row is written.
	EventCreatedV1 = "event.created.v1"
	// EventUpdatedV1 is published after an event row is replaced.
	EventUpdatedV1 = "event.updated.v1"
	// EventDeletedV1 is published after an event row is removed.
	EventDeletedV1 = "event.deleted.v1"
	// PlayerIGNSyncRequestedV1 asks for a player's name history to be refreshed.
	PlayerIGNSyncRequestedV1 = "player.ign_sync.requested.v1"
)

// EventChangedPayloadV1 is carried by EventCreatedV1 and EventUpdatedV1.
type EventChangedPayloadV1 struct {
	EventID    string    `json:"event_id"`
	Title      string    `json:"title"`
	Category   string    `json:"category"`
	Mentions   []string  `json:"mentions"`
	OccurredAt time.Time `json:"occurred_at"`
}

// EventDeletedPayloadV1 is carried by EventDeletedV1.
type EventDeletedPayloadV1 struct {
	EventID    string    `json:"event_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// PlayerIGNSyncRequestedPayloadV1 is carried by PlayerIGNSyncRequestedV1.
type PlayerIGNSyncRequestedPayloadV1 struct {
	PlayerID string `json:"player_id"`
	UUID     string `json:"uuid"`
}

// BridgedTopics are forwarded between instances when NATS is configured.
// IGN sync requests stay local so only the instance that saved the player runs them.
var BridgedTopics = []string{EventCreatedV1, EventUpdatedV1, EventDeletedV1}
