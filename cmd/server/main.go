package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/tnt-tag-history/tnt-history/app"
	"github.com/tnt-tag-history/tnt-history/app/modules/mention"
	"github.com/tnt-tag-history/tnt-history/config"
	"github.com/tnt-tag-history/tnt-history/pkg/bundb"
	"github.com/tnt-tag-history/tnt-history/pkg/observability"
	"github.com/urfave/cli/v2"
)

func main() {
	cliApp := &cli.App{
		Name:  "tnt-history",
		Usage: "TNT Tag history API",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Value: "config.yaml", Usage: "path to the configuration file", EnvVars: []string{"CONFIG_FILE"}},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the HTTP API, event consumers and job queue",
				Action: serve,
			},
			{
				Name:   "reconcile",
				Usage:  "rebuild every player's event list from event descriptions and exit",
				Action: reconcile,
			},
			{
				Name:  "check-config",
				Usage: "load and validate the configuration",
				Action: func(c *cli.Context) error {
					_, err := loadConfig(c)
					if err == nil {
						fmt.Println("configuration OK")
					}
					return err
				},
			},
		},
		DefaultCommand: "serve",
	}

	if err := cliApp.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.LoadConfig(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func serve(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.NewApp(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize app: %w", err)
	}
	return application.Run(ctx)
}

// reconcile runs without the job queue or message router so it can be used
// against a database while the server is down.
func reconcile(c *cli.Context) error {
	cfg, err := config.LoadConfig(c.String("config"))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := bundb.Open(ctx, cfg.Postgres.DSN)
	if err != nil {
		return err
	}
	defer db.Close()

	obs := observability.NewNoop()
	m, err := mention.NewMentionModule(ctx, cfg, obs, db, false)
	if err != nil {
		return err
	}

	report, err := m.Service.ReconcileAll(ctx)
	if err != nil {
		return fmt.Errorf("reconcile failed: %w", err)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
