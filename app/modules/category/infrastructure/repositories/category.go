package categorydb

import (
	"context"
	"fmt"
	"time"

	"github.com/uptrace/bun"
)

// Impl implements the Repository interface using Bun ORM.
type Impl struct {
	db bun.IDB
}

// NewRepository creates a new category repository.
func NewRepository(db bun.IDB) Repository {
	return &Impl{db: db}
}

func (r *Impl) resolveDB(db bun.IDB) bun.IDB {
	if db == nil {
		return r.db
	}
	return db
}

func (r *Impl) List(ctx context.Context, db bun.IDB) ([]*Category, error) {
	db = r.resolveDB(db)
	var categories []*Category
	if err := db.NewSelect().Model(&categories).Order("c.sort_order ASC", "c.name ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

func (r *Impl) Upsert(ctx context.Context, db bun.IDB, category *Category) error {
	db = r.resolveDB(db)
	category.UpdatedAt = time.Now().UTC()
	_, err := db.NewInsert().
		Model(category).
		On("CONFLICT (name) DO UPDATE").
		Set("label = EXCLUDED.label").
		Set("color = EXCLUDED.color").
		Set("sort_order = EXCLUDED.sort_order").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to upsert category: %w", err)
	}
	return nil
}

func (r *Impl) Delete(ctx context.Context, db bun.IDB, name string) error {
	db = r.resolveDB(db)
	result, err := db.NewDelete().
		Model((*Category)(nil)).
		Where("name = ?", name).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}
