package eventmigrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Creating events table...")

		_, err := db.ExecContext(ctx, `
			CREATE TABLE IF NOT EXISTS events (
				id TEXT PRIMARY KEY,
				title TEXT NOT NULL,
				date TIMESTAMPTZ NOT NULL,
				end_date TIMESTAMPTZ,
				category TEXT NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				is_special BOOLEAN NOT NULL DEFAULT FALSE,
				tags JSONB NOT NULL DEFAULT '[]'::jsonb,
				side_events JSONB NOT NULL DEFAULT '[]'::jsonb,
				tables JSONB NOT NULL DEFAULT '[]'::jsonb,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			);
			CREATE INDEX IF NOT EXISTS idx_events_date ON events(date, id);
			CREATE INDEX IF NOT EXISTS idx_events_category ON events(category);
			CREATE INDEX IF NOT EXISTS idx_events_tags ON events USING GIN (tags);
		`)
		if err != nil {
			return fmt.Errorf("failed to create events table: %w", err)
		}
		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Dropping events table...")
		if _, err := db.ExecContext(ctx, `DROP TABLE IF EXISTS events;`); err != nil {
			return fmt.Errorf("failed to drop events table: %w", err)
		}
		return nil
	})
}
