package categorydb

import (
	"context"

	"github.com/uptrace/bun"
)

// Repository defines the contract for category persistence.
type Repository interface {
	// List returns every category ordered by sort order then name.
	List(ctx context.Context, db bun.IDB) ([]*Category, error)
	Upsert(ctx context.Context, db bun.IDB, category *Category) error
	// Delete returns ErrNotFound when nothing was deleted.
	Delete(ctx context.Context, db bun.IDB, name string) error
}
