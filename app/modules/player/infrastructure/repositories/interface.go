package playerdb

import (
	"context"

	"github.com/uptrace/bun"
)

// Repository defines the contract for player persistence.
type Repository interface {
	GetByID(ctx context.Context, db bun.IDB, id string) (*Player, error)

	// FindByIGN matches the current name first, then past names. Case-insensitive.
	FindByIGN(ctx context.Context, db bun.IDB, ign string) (*Player, error)

	FindByUUID(ctx context.Context, db bun.IDB, uuid string) (*Player, error)
	List(ctx context.Context, db bun.IDB) ([]*Player, error)
	Create(ctx context.Context, db bun.IDB, player *Player) error

	// Update writes profile columns. The events list is left alone.
	Update(ctx context.Context, db bun.IDB, player *Player) error

	Delete(ctx context.Context, db bun.IDB, id string) error

	// AppendEvent is a no-op when the id is already present.
	AppendEvent(ctx context.Context, db bun.IDB, playerID, eventID string) error
	RemoveEvent(ctx context.Context, db bun.IDB, playerID, eventID string) error
	SetEvents(ctx context.Context, db bun.IDB, playerID string, eventIDs []string) error

	ClearMainAccount(ctx context.Context, db bun.IDB, playerID string) error
	AddAlt(ctx context.Context, db bun.IDB, playerID, altID string) error
	RemoveAlt(ctx context.Context, db bun.IDB, playerID, altID string) error
}
