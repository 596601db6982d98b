package mentionservice

import (
	"context"

	eventdb "github.com/tnt-tag-history/tnt-history/app/modules/event/infrastructure/repositories"
	playerdb "github.com/tnt-tag-history/tnt-history/app/modules/player/infrastructure/repositories"
	"github.com/uptrace/bun"
)

// Service keeps Player.Events in step with the mention tokens of events.
type Service interface {
	OnEventCreated(ctx context.Context, event *eventdb.Event) (*FanOutResult, error)
	OnEventUpdated(ctx context.Context, oldEvent, newEvent *eventdb.Event) (*FanOutResult, error)
	// OnEventDeleted removes the event from every mentioned player, then deletes the event row.
	OnEventDeleted(ctx context.Context, event *eventdb.Event) (*FanOutResult, error)
	CascadePlayerDeleted(ctx context.Context, player *playerdb.Player) (*CascadeResult, error)
	ReconcileAll(ctx context.Context) (*ReconcileReport, error)
}

// EventStore is the part of the event repository the indexer reads and deletes through.
type EventStore interface {
	List(ctx context.Context, db bun.IDB, filter eventdb.ListFilter) ([]*eventdb.Event, error)
	Delete(ctx context.Context, db bun.IDB, id string) error
}

// PlayerStore is the part of the player repository the indexer writes through.
type PlayerStore interface {
	GetByID(ctx context.Context, db bun.IDB, id string) (*playerdb.Player, error)
	List(ctx context.Context, db bun.IDB) ([]*playerdb.Player, error)
	AppendEvent(ctx context.Context, db bun.IDB, playerID, eventID string) error
	RemoveEvent(ctx context.Context, db bun.IDB, playerID, eventID string) error
	SetEvents(ctx context.Context, db bun.IDB, playerID string, eventIDs []string) error
	ClearMainAccount(ctx context.Context, db bun.IDB, playerID string) error
	RemoveAlt(ctx context.Context, db bun.IDB, playerID, altID string) error
}

// FanOutResult records what happened to each player touched by one event change.
type FanOutResult struct {
	EventID   string   `json:"eventId"`
	Appended  []string `json:"appended,omitempty"`
	Removed   []string `json:"removed,omitempty"`
	Unchanged []string `json:"unchanged,omitempty"`
	Skipped   []string `json:"skipped,omitempty"` // player missing or lookup failed
	Failed    []string `json:"failed,omitempty"`
}

// CascadeResult records the alt-account cleanup after a player delete.
type CascadeResult struct {
	PlayerID    string   `json:"playerId"`
	AltsCleared []string `json:"altsCleared,omitempty"`
	MainUpdated string   `json:"mainUpdated,omitempty"`
	Failed      []string `json:"failed,omitempty"`
}

// ReconcileReport summarizes a full rebuild of every player's event list.
type ReconcileReport struct {
	EventsScanned    int `json:"eventsScanned"`
	PlayersUpdated   int `json:"playersUpdated"`
	DanglingMentions int `json:"danglingMentions"`
	Failures         int `json:"failures"`
}
