package testutils

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/nats-io/nats.go"
	tcnats "github.com/testcontainers/testcontainers-go/modules/nats"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/tnt-tag-history/tnt-history/config"
	"github.com/tnt-tag-history/tnt-history/integration_tests/containers"
	"github.com/tnt-tag-history/tnt-history/pkg/bundb"
	"github.com/tnt-tag-history/tnt-history/pkg/observability"
	"github.com/uptrace/bun"
)

// TestEnvironment holds the containers and connections shared by an integration package.
type TestEnvironment struct {
	Ctx           context.Context
	CancelContext context.CancelFunc
	PgContainer   *postgres.PostgresContainer
	NatsContainer *tcnats.NATSContainer
	PgConnStr     string
	NatsURL       string
	DB            *bun.DB
	Config        *config.Config
	Obs           observability.Observability
}

// Options selects optional infrastructure. Postgres is always started.
type Options struct {
	WithNATS bool
}

// NewTestEnvironment starts the containers, opens the database and runs every migration.
func NewTestEnvironment(opts Options) (*TestEnvironment, error) {
	ctx, cancel := context.WithCancel(context.Background())
	env := &TestEnvironment{
		Ctx:           ctx,
		CancelContext: cancel,
		Obs:           observability.NewNoop(),
	}

	pgContainer, connStr, err := containers.SetupPostgresContainer(ctx)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to setup postgres container: %w", err)
	}
	env.PgContainer = pgContainer
	env.PgConnStr = connStr

	sqldb, err := sql.Open("pgx", connStr)
	if err != nil {
		env.Cleanup()
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	sqldb.SetMaxOpenConns(10)
	sqldb.SetConnMaxLifetime(5 * time.Minute)
	env.DB = bundb.FromSQL(sqldb)

	if err := env.DB.PingContext(ctx); err != nil {
		env.Cleanup()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := RunMigrations(ctx, env.DB, connStr); err != nil {
		env.Cleanup()
		return nil, err
	}

	if opts.WithNATS {
		natsContainer, natsURL, err := containers.SetupNatsContainer(ctx)
		if err != nil {
			env.Cleanup()
			return nil, fmt.Errorf("failed to setup nats container: %w", err)
		}
		env.NatsContainer = natsContainer
		env.NatsURL = natsURL
	}

	env.Config = &config.Config{
		Postgres: config.PostgresConfig{DSN: connStr},
		NATS:     config.NATSConfig{URL: env.NatsURL, SubjectPrefix: "tnt.test."},
		Jobs:     config.JobsConfig{ReconcileInterval: 0},
	}

	return env, nil
}

// ConnectNATS dials the environment's NATS server. Callers close the connection.
func (env *TestEnvironment) ConnectNATS() (*nats.Conn, error) {
	if env.NatsURL == "" {
		return nil, fmt.Errorf("test environment started without NATS")
	}
	nc, err := nats.Connect(env.NatsURL, nats.Name("tnt-history-integration"), nats.Timeout(10*time.Second))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return nc, nil
}

// Reset empties application tables between tests.
func (env *TestEnvironment) Reset(ctx context.Context) error {
	return CleanupDatabase(ctx, env.DB)
}

// Cleanup closes connections and terminates containers.
func (env *TestEnvironment) Cleanup() {
	if env.DB != nil {
		if err := env.DB.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}
	// Terminate with a fresh context: env.Ctx may already be cancelled.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if env.NatsContainer != nil {
		if err := env.NatsContainer.Terminate(ctx); err != nil {
			log.Printf("Error terminating NATS container: %v", err)
		}
	}
	if env.PgContainer != nil {
		if err := env.PgContainer.Terminate(ctx); err != nil {
			log.Printf("Error terminating Postgres container: %v", err)
		}
	}
	if env.CancelContext != nil {
		env.CancelContext()
	}
}
