package eventdb

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"
)

// Impl implements the Repository interface using Bun ORM.
type Impl struct {
	db bun.IDB
}

// NewRepository creates a new event repository.
func NewRepository(db bun.IDB) Repository {
	return &Impl{db: db}
}

func (r *Impl) resolveDB(db bun.IDB) bun.IDB {
	if db == nil {
		return r.db
	}
	return db
}

func (r *Impl) List(ctx context.Context, db bun.IDB, filter ListFilter) ([]*Event, error) {
	db = r.resolveDB(db)
	var events []*Event
	q := db.NewSelect().Model(&events)

	if filter.Category != "" {
		q = q.Where("e.category = ?", filter.Category)
	}
	if filter.Tag != "" {
		tag, err := json.Marshal([]string{filter.Tag})
		if err != nil {
			return nil, fmt.Errorf("failed to encode tag filter: %w", err)
		}
		q = q.Where("e.tags @> ?::jsonb", string(tag))
	}
	if filter.SpecialOnly {
		q = q.Where("e.is_special = TRUE")
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		q = q.WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("e.title ILIKE ?", pattern).WhereOr("e.description ILIKE ?", pattern)
		})
	}

	if err := q.Order("e.date ASC", "e.id ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	return events, nil
}

func (r *Impl) GetByID(ctx context.Context, db bun.IDB, id string) (*Event, error) {
	db = r.resolveDB(db)
	event := new(Event)
	err := db.NewSelect().
		Model(event).
		Where("e.id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	return event, nil
}

func (r *Impl) Create(ctx context.Context, db bun.IDB, event *Event) error {
	db = r.resolveDB(db)
	event.normalize()
	now := time.Now().UTC()
	event.CreatedAt = now
	event.UpdatedAt = now
	if _, err := db.NewInsert().Model(event).Exec(ctx); err != nil {
		return fmt.Errorf("failed to create event: %w", err)
	}
	return nil
}

func (r *Impl) Update(ctx context.Context, db bun.IDB, event *Event) error {
	db = r.resolveDB(db)
	event.normalize()
	event.UpdatedAt = time.Now().UTC()
	result, err := db.NewUpdate().
		Model(event).
		ExcludeColumn("id", "created_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update event: %w", err)
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

func (r *Impl) Delete(ctx context.Context, db bun.IDB, id string) error {
	db = r.resolveDB(db)
	result, err := db.NewDelete().
		Model((*Event)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
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

func (r *Impl) ListTags(ctx context.Context, db bun.IDB) ([]string, error) {
	db = r.resolveDB(db)
	var tags []string
	err := db.NewSelect().
		TableExpr("events").
		ColumnExpr("DISTINCT jsonb_array_elements_text(tags) AS tag").
		OrderExpr("tag ASC").
		Scan(ctx, &tags)
	if err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	return tags, nil
}
