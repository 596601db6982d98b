package eventdb

import (
	"context"

	"github.com/uptrace/bun"
)

// Repository defines the contract for event persistence.
type Repository interface {
	// List returns events matching filter, ordered by date then id.
	List(ctx context.Context, db bun.IDB, filter ListFilter) ([]*Event, error)

	// GetByID returns ErrNotFound when the event does not exist.
	GetByID(ctx context.Context, db bun.IDB, id string) (*Event, error)

	Create(ctx context.Context, db bun.IDB, event *Event) error

	// Update replaces every mutable column of event.
	Update(ctx context.Context, db bun.IDB, event *Event) error

	// Delete returns ErrNotFound when nothing was deleted.
	Delete(ctx context.Context, db bun.IDB, id string) error

	// ListTags returns the distinct tags in use, sorted.
	ListTags(ctx context.Context, db bun.IDB) ([]string, error)
}
