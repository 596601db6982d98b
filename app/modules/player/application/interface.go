package playerservice

import (
	"context"
	"time"

	eventdb "github.com/tnt-tag-history/tnt-history/app/modules/event/infrastructure/repositories"
	mentionservice "github.com/tnt-tag-history/tnt-history/app/modules/mention/application"
	playeridentity "github.com/tnt-tag-history/tnt-history/app/modules/player/infrastructure/identity"
	playerdb "github.com/tnt-tag-history/tnt-history/app/modules/player/infrastructure/repositories"
	playerstats "github.com/tnt-tag-history/tnt-history/app/modules/player/infrastructure/stats"
	"github.com/tnt-tag-history/tnt-history/pkg/results"
	"github.com/uptrace/bun"
)

// Service defines the contract for player operations.
type Service interface {
	GetPlayer(ctx context.Context, id string) (results.OperationResult[*playerdb.Player, error], error)
	ListPlayers(ctx context.Context) (results.OperationResult[[]*playerdb.Player, error], error)
	LookupProfile(ctx context.Context, query string) (results.OperationResult[*Profile, error], error)
	CreatePlayer(ctx context.Context, input PlayerInput) (results.OperationResult[*playerdb.Player, error], error)
	UpdatePlayer(ctx context.Context, id string, input PlayerInput) (results.OperationResult[*playerdb.Player, error], error)
	DeletePlayer(ctx context.Context, id string) (results.OperationResult[*mentionservice.CascadeResult, error], error)
	SyncIGNHistory(ctx context.Context, id string) (results.OperationResult[*playerdb.Player, error], error)
	ActivityChart(ctx context.Context, id string) (results.OperationResult[[]byte, error], error)
}

// EventReader resolves the events a player is mentioned in.
type EventReader interface {
	GetByID(ctx context.Context, db bun.IDB, id string) (*eventdb.Event, error)
}

// IdentityClient resolves Minecraft accounts.
type IdentityClient interface {
	ProfileByName(ctx context.Context, name string) (*playeridentity.Profile, error)
	ProfileByUUID(ctx context.Context, uuid string) (*playeridentity.Profile, error)
}

// StatsClient fetches game stats.
type StatsClient interface {
	Enabled() bool
	TNTGames(ctx context.Context, uuid string) (*playerstats.TNTStats, error)
}

// Cascader detaches a deleted player from its linked accounts.
type Cascader interface {
	CascadePlayerDeleted(ctx context.Context, player *playerdb.Player) (*mentionservice.CascadeResult, error)
}

// PlayerInput is the authoring payload for a curated player.
type PlayerInput struct {
	ID          string             `json:"id,omitempty"`
	CurrentIGN  string             `json:"currentIgn"`
	UUID        string             `json:"uuid,omitempty"`
	Role        string             `json:"role,omitempty"`
	MainAccount string             `json:"mainAccount,omitempty"`
	PastIGNs    []playerdb.PastIGN `json:"pastIgns,omitempty"`
}

// Profile is the public view of a looked-up player. Player is nil when the
// account is known to the identity service but not curated here.
type Profile struct {
	Player    *playerdb.Player      `json:"player,omitempty"`
	UUID      string                `json:"uuid"`
	Name      string                `json:"name"`
	AvatarURL string                `json:"avatarUrl"`
	Stats     *playerstats.TNTStats `json:"stats,omitempty"`
	Events    []EventSummary        `json:"events"`
	PastIGNs  []playerdb.PastIGN    `json:"pastIgns"`
}

// EventSummary is an event a player is mentioned in.
type EventSummary struct {
	ID    string    `json:"id"`
	Title string    `json:"title"`
	Date  time.Time `json:"date"`
}
