package eventservice

import (
	"context"
	"io"

	eventdb "github.com/tnt-tag-history/tnt-history/app/modules/event/infrastructure/repositories"
	mentionservice "github.com/tnt-tag-history/tnt-history/app/modules/mention/application"
	"github.com/tnt-tag-history/tnt-history/pkg/results"
)

// Service defines the contract for event authoring and reads.
type Service interface {
	ListEvents(ctx context.Context, filter eventdb.ListFilter) (results.OperationResult[[]*eventdb.Event, error], error)
	GetEvent(ctx context.Context, id string) (results.OperationResult[*eventdb.Event, error], error)
	CreateEvent(ctx context.Context, input EventInput) (results.OperationResult[*eventdb.Event, error], error)
	UpdateEvent(ctx context.Context, id string, input EventInput) (results.OperationResult[*eventdb.Event, error], error)
	DeleteEvent(ctx context.Context, id string) (results.OperationResult[*DeleteOutcome, error], error)
	ListTags(ctx context.Context) (results.OperationResult[[]string, error], error)
	ImportTable(ctx context.Context, title string, r io.Reader) (results.OperationResult[eventdb.Table, error], error)
}

// Indexer is told about every event write so player event lists follow along.
type Indexer interface {
	OnEventCreated(ctx context.Context, event *eventdb.Event) (*mentionservice.FanOutResult, error)
	OnEventUpdated(ctx context.Context, oldEvent, newEvent *eventdb.Event) (*mentionservice.FanOutResult, error)
	OnEventDeleted(ctx context.Context, event *eventdb.Event) (*mentionservice.FanOutResult, error)
}

// EventInput is the authoring payload. Dates are free text resolved by ParseEventDate.
type EventInput struct {
	Title       string           `json:"title"`
	Date        string           `json:"date"`
	EndDate     string           `json:"endDate,omitempty"`
	Category    string           `json:"category"`
	Description string           `json:"description"`
	IsSpecial   bool             `json:"isSpecial"`
	Tags        []string         `json:"tags,omitempty"`
	SideEvents  []SideEventInput `json:"sideEvents,omitempty"`
	Tables      []eventdb.Table  `json:"tables,omitempty"`
}

// SideEventInput is the authoring form of eventdb.SideEvent.
type SideEventInput struct {
	Title       string `json:"title"`
	Date        string `json:"date,omitempty"`
	Description string `json:"description"`
}

// DeleteOutcome reports whether a delete removed anything.
type DeleteOutcome struct {
	EventID string                       `json:"eventId"`
	Deleted bool                         `json:"deleted"`
	FanOut  *mentionservice.FanOutResult `json:"fanOut,omitempty"`
}
