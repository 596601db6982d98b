package playermigrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Creating players table...")

		_, err := db.ExecContext(ctx, `
			CREATE TABLE IF NOT EXISTS players (
				id TEXT PRIMARY KEY,
				current_ign TEXT NOT NULL,
				uuid TEXT UNIQUE,
				past_igns JSONB NOT NULL DEFAULT '[]'::jsonb,
				events TEXT[] NOT NULL DEFAULT '{}',
				role TEXT NOT NULL DEFAULT '',
				main_account TEXT,
				alt_accounts TEXT[] NOT NULL DEFAULT '{}',
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			);
			CREATE INDEX IF NOT EXISTS idx_players_current_ign ON players(lower(current_ign));
			CREATE INDEX IF NOT EXISTS idx_players_events ON players USING GIN (events);
		`)
		if err != nil {
			return fmt.Errorf("failed to create players table: %w", err)
		}
		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Dropping players table...")
		if _, err := db.ExecContext(ctx, `DROP TABLE IF EXISTS players;`); err != nil {
			return fmt.Errorf("failed to drop players table: %w", err)
		}
		return nil
	})
}
