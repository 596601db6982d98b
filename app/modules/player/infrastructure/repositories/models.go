package playerdb

import (
	"slices"
	"time"

	"github.com/uptrace/bun"
)

// Player is a curated player record.
type Player struct {
	bun.BaseModel `bun:"table:players,alias:p"`
	ID            string    `bun:"id,pk" json:"id"`
	CurrentIGN    string    `bun:"current_ign,notnull" json:"currentIgn"`
	UUID          string    `bun:"uuid,nullzero" json:"uuid"` // Minecraft UUID, undashed lowercase
	PastIGNs      []PastIGN `bun:"past_igns,type:jsonb,notnull" json:"pastIgns"`
	// Events is owned by the mention indexer. Update never writes it.
	Events      []string  `bun:"events,array,notnull" json:"events"`
	Role        string    `bun:"role,notnull" json:"role"`
	MainAccount *string   `bun:"main_account,nullzero" json:"mainAccount,omitempty"`
	AltAccounts []string  `bun:"alt_accounts,array,notnull" json:"altAccounts"`
	CreatedAt   time.Time `bun:"created_at,notnull,default:current_timestamp" json:"createdAt"`
	UpdatedAt   time.Time `bun:"updated_at,notnull,default:current_timestamp" json:"updatedAt"`
}

// PastIGN is a previous in-game name. Number orders the history, 1 being the oldest.
type PastIGN struct {
	Name   string `json:"name"`
	Hidden bool   `json:"hidden"`
	Number int    `json:"number"`
}

// HasEvent reports whether eventID is in the player's event list.
func (p *Player) HasEvent(eventID string) bool {
	return slices.Contains(p.Events, eventID)
}

func (p *Player) normalize() {
	if p.PastIGNs == nil {
		p.PastIGNs = []PastIGN{}
	}
	if p.Events == nil {
		p.Events = []string{}
	}
	if p.AltAccounts == nil {
		p.AltAccounts = []string{}
	}
}
