package categorydb

import (
	"time"

	"github.com/uptrace/bun"
)

// Category groups events on the timeline and drives their color.
type Category struct {
	bun.BaseModel `bun:"table:categories,alias:c"`
	Name          string    `bun:"name,pk" json:"name"`
	Label         string    `bun:"label,notnull" json:"label"`
	Color         string    `bun:"color,notnull" json:"color"`
	SortOrder     int       `bun:"sort_order,notnull" json:"sortOrder"`
	UpdatedAt     time.Time `bun:"updated_at,notnull,default:current_timestamp" json:"updatedAt"`
}
