package playerdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
)

// Impl implements the Repository interface using Bun ORM.
type Impl struct {
	db bun.IDB
}

// NewRepository creates a new player repository.
func NewRepository(db bun.IDB) Repository {
	return &Impl{db: db}
}

func (r *Impl) resolveDB(db bun.IDB) bun.IDB {
	if db == nil {
		return r.db
	}
	return db
}

func scanOne(ctx context.Context, q *bun.SelectQuery, player *Player, what string) (*Player, error) {
	if err := q.Limit(1).Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get player by %s: %w", what, err)
	}
	return player, nil
}

func (r *Impl) GetByID(ctx context.Context, db bun.IDB, id string) (*Player, error) {
	db = r.resolveDB(db)
	player := new(Player)
	return scanOne(ctx, db.NewSelect().Model(player).Where("p.id = ?", id), player, "id")
}

func (r *Impl) FindByIGN(ctx context.Context, db bun.IDB, ign string) (*Player, error) {
	db = r.resolveDB(db)
	name := strings.ToLower(strings.TrimSpace(ign))
	player := new(Player)
	q := db.NewSelect().
		Model(player).
		Where("lower(p.current_ign) = ?", name).
		WhereOr("EXISTS (SELECT 1 FROM jsonb_array_elements(p.past_igns) AS past WHERE lower(past->>'name') = ?)", name).
		OrderExpr("(lower(p.current_ign) = ?) DESC", name)
	return scanOne(ctx, q, player, "ign")
}

func (r *Impl) FindByUUID(ctx context.Context, db bun.IDB, uuid string) (*Player, error) {
	db = r.resolveDB(db)
	player := new(Player)
	return scanOne(ctx, db.NewSelect().Model(player).Where("p.uuid = ?", uuid), player, "uuid")
}

func (r *Impl) List(ctx context.Context, db bun.IDB) ([]*Player, error) {
	db = r.resolveDB(db)
	var players []*Player
	if err := db.NewSelect().Model(&players).OrderExpr("lower(p.current_ign) ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to list players: %w", err)
	}
	return players, nil
}

func (r *Impl) Create(ctx context.Context, db bun.IDB, player *Player) error {
	db = r.resolveDB(db)
	player.normalize()
	now := time.Now().UTC()
	player.CreatedAt = now
	player.UpdatedAt = now
	if _, err := db.NewInsert().Model(player).Exec(ctx); err != nil {
		return fmt.Errorf("failed to create player: %w", err)
	}
	return nil
}

func (r *Impl) Update(ctx context.Context, db bun.IDB, player *Player) error {
	db = r.resolveDB(db)
	player.normalize()
	player.UpdatedAt = time.Now().UTC()
	result, err := db.NewUpdate().
		Model(player).
		ExcludeColumn("id", "events", "created_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update player: %w", err)
	}
	return expectRow(result)
}

func (r *Impl) Delete(ctx context.Context, db bun.IDB, id string) error {
	db = r.resolveDB(db)
	result, err := db.NewDelete().
		Model((*Player)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete player: %w", err)
	}
	return expectRow(result)
}

func (r *Impl) AppendEvent(ctx context.Context, db bun.IDB, playerID, eventID string) error {
	db = r.resolveDB(db)
	_, err := db.NewUpdate().
		Model((*Player)(nil)).
		Set("events = array_append(events, ?::text)", eventID).
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", playerID).
		Where("NOT (?::text = ANY(events))", eventID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to append event to player: %w", err)
	}
	return nil
}

func (r *Impl) RemoveEvent(ctx context.Context, db bun.IDB, playerID, eventID string) error {
	db = r.resolveDB(db)
	_, err := db.NewUpdate().
		Model((*Player)(nil)).
		Set("events = array_remove(events, ?::text)", eventID).
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", playerID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to remove event from player: %w", err)
	}
	return nil
}

func (r *Impl) SetEvents(ctx context.Context, db bun.IDB, playerID string, eventIDs []string) error {
	db = r.resolveDB(db)
	if eventIDs == nil {
		eventIDs = []string{}
	}
	result, err := db.NewUpdate().
		Model((*Player)(nil)).
		Set("events = ?", pgdialect.Array(eventIDs)).
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", playerID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to set player events: %w", err)
	}
	return expectRow(result)
}

func (r *Impl) ClearMainAccount(ctx context.Context, db bun.IDB, playerID string) error {
	db = r.resolveDB(db)
	_, err := db.NewUpdate().
		Model((*Player)(nil)).
		Set("main_account = NULL").
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", playerID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to clear main account: %w", err)
	}
	return nil
}

func (r *Impl) AddAlt(ctx context.Context, db bun.IDB, playerID, altID string) error {
	db = r.resolveDB(db)
	_, err := db.NewUpdate().
		Model((*Player)(nil)).
		Set("alt_accounts = array_append(alt_accounts, ?::text)", altID).
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", playerID).
		Where("NOT (?::text = ANY(alt_accounts))", altID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to add alt account: %w", err)
	}
	return nil
}

func (r *Impl) RemoveAlt(ctx context.Context, db bun.IDB, playerID, altID string) error {
	db = r.resolveDB(db)
	_, err := db.NewUpdate().
		Model((*Player)(nil)).
		Set("alt_accounts = array_remove(alt_accounts, ?::text)", altID).
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", playerID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to remove alt account: %w", err)
	}
	return nil
}

func expectRow(result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}
