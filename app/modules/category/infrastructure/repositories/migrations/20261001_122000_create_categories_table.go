package categorymigrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Creating categories table...")

		_, err := db.ExecContext(ctx, `
			CREATE TABLE IF NOT EXISTS categories (
				name TEXT PRIMARY KEY,
				label TEXT NOT NULL,
				color TEXT NOT NULL DEFAULT '#888888',
				sort_order INTEGER NOT NULL DEFAULT 0,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			);
			INSERT INTO categories (name, label, color, sort_order) VALUES
				('tournament', 'Tournament', '#e0a100', 10),
				('update', 'Game Update', '#2f80ed', 20),
				('community', 'Community', '#27ae60', 30),
				('record', 'Record', '#c0392b', 40)
			ON CONFLICT (name) DO NOTHING;
		`)
		if err != nil {
			return fmt.Errorf("failed to create categories table: %w", err)
		}
		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Dropping categories table...")
		if _, err := db.ExecContext(ctx, `DROP TABLE IF EXISTS categories;`); err != nil {
			return fmt.Errorf("failed to drop categories table: %w", err)
		}
		return nil
	})
}
