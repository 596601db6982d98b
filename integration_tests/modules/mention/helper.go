package mentionintegrationtests

import (
	"context"
	"testing"

	eventservice "github.com/tnt-tag-history/tnt-history/app/modules/event/application"
	eventdb "github.com/tnt-tag-history/tnt-history/app/modules/event/infrastructure/repositories"
	mentionservice "github.com/tnt-tag-history/tnt-history/app/modules/mention/application"
	playerservice "github.com/tnt-tag-history/tnt-history/app/modules/player/application"
	playerdb "github.com/tnt-tag-history/tnt-history/app/modules/player/infrastructure/repositories"
	"github.com/tnt-tag-history/tnt-history/integration_tests/testutils"
	"github.com/uptrace/bun"
)

// testEnv is the shared test environment managed by TestMain.
var testEnv *testutils.TestEnvironment

// TestDeps holds the services under test, all backed by the shared database.
type TestDeps struct {
	Ctx     context.Context
	BunDB   *bun.DB
	Players playerdb.Repository
	Mention *mentionservice.MentionService
	Events  *eventservice.EventService
	Player  *playerservice.PlayerService
	Gen     *testutils.TestDataGenerator
}

// SetupTestMentionService resets the database and wires the event and
// player services to a real MentionService.
func SetupTestMentionService(t *testing.T) TestDeps {
	t.Helper()

	ctx := testEnv.Ctx
	if err := testEnv.Reset(ctx); err != nil {
		t.Fatalf("failed to reset database: %v", err)
	}

	obs := testEnv.Obs
	db := testEnv.DB
	eventRepo := eventdb.NewRepository(db)
	playerRepo := playerdb.NewRepository(db)

	mention := mentionservice.NewMentionService(eventRepo, playerRepo, obs.Logger, obs.Metrics, obs.Tracer, db)
	events := eventservice.NewEventService(eventRepo, mention, nil, obs.Logger, obs.Metrics, obs.Tracer, db)
	player := playerservice.NewPlayerService(playerservice.Deps{
		Repo:    playerRepo,
		Cascade: mention,
	}, obs.Logger, obs.Metrics, obs.Tracer, db)

	return TestDeps{
		Ctx:     ctx,
		BunDB:   db,
		Players: playerRepo,
		Mention: mention,
		Events:  events,
		Player:  player,
		Gen:     testutils.NewTestDataGenerator(42),
	}
}

func (d TestDeps) createPlayer(t *testing.T, id string) *playerdb.Player {
	t.Helper()
	result, err := d.Player.CreatePlayer(d.Ctx, d.Gen.PlayerInput(id))
	if err != nil {
		t.Fatalf("CreatePlayer(%s) error: %v", id, err)
	}
	if result.Success == nil {
		t.Fatalf("CreatePlayer(%s) failed: %v", id, *result.Failure)
	}
	return *result.Success
}

func (d TestDeps) createEvent(t *testing.T, input eventservice.EventInput) *eventdb.Event {
	t.Helper()
	result, err := d.Events.CreateEvent(d.Ctx, input)
	if err != nil {
		t.Fatalf("CreateEvent error: %v", err)
	}
	if result.Success == nil {
		t.Fatalf("CreateEvent failed: %v", *result.Failure)
	}
	return *result.Success
}

func (d TestDeps) playerEvents(t *testing.T, id string) []string {
	t.Helper()
	p, err := d.Players.GetByID(d.Ctx, d.BunDB, id)
	if err != nil {
		t.Fatalf("GetByID(%s) error: %v", id, err)
	}
	return p.Events
}
