package eventdb

import (
	"encoding/json"
	"time"

	"github.com/uptrace/bun"
)

// Event is one entry on the public timeline.
type Event struct {
	bun.BaseModel `bun:"table:events,alias:e"`
	ID            string      `bun:"id,pk" json:"id"`
	Title         string      `bun:"title,notnull" json:"title"`
	Date          time.Time   `bun:"date,notnull" json:"date"`
	EndDate       *time.Time  `bun:"end_date,nullzero" json:"endDate,omitempty"`
	Category      string      `bun:"category,notnull" json:"category"`
	Description   string      `bun:"description,notnull" json:"description"` // rich text carrying <name:playerId> tokens
	IsSpecial     bool        `bun:"is_special,notnull" json:"isSpecial"`
	Tags          []string    `bun:"tags,type:jsonb,notnull" json:"tags"`
	SideEvents    []SideEvent `bun:"side_events,type:jsonb,notnull" json:"sideEvents"`
	Tables        []Table     `bun:"tables,type:jsonb,notnull" json:"tables"`
	CreatedAt     time.Time   `bun:"created_at,notnull,default:current_timestamp" json:"createdAt"`
	UpdatedAt     time.Time   `bun:"updated_at,notnull,default:current_timestamp" json:"updatedAt"`
}

// SideEvent is a smaller happening attached to an event.
type SideEvent struct {
	Title       string     `json:"title"`
	Date        *time.Time `json:"date,omitempty"`
	Description string     `json:"description"`
}

// Table is a titled grid of cells shown under an event.
type Table struct {
	Title   string     `json:"title"`
	Headers []string   `json:"headers"`
	Rows    [][]string `json:"rows"`
}

// ListFilter narrows List. Zero values match everything.
type ListFilter struct {
	Category    string
	Tag         string
	SpecialOnly bool
	Search      string
}

// Record returns the event as a generic field map, the shape stored
// documents are scanned in.
func (e *Event) Record() map[string]any {
	if e == nil {
		return nil
	}
	data, err := json.Marshal(e)
	if err != nil {
		return nil
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil
	}
	return out
}

// normalize replaces nil slices so JSONB columns hold arrays rather than null.
func (e *Event) normalize() {
	if e.Tags == nil {
		e.Tags = []string{}
	}
	if e.SideEvents == nil {
		e.SideEvents = []SideEvent{}
	}
	if e.Tables == nil {
		e.Tables = []Table{}
	}
}
