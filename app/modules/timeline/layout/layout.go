// Package layout places dated events on a vertical time axis split into
// lanes, so that boxes close in time never share a lane.
package layout

import (
	"math"
	"sort"
	"time"
)

const (
	// DefaultSpacing is the pixels-per-year scale overrides are normalized to.
	DefaultSpacing = 600.0
	// BasePixelOffset is the position of EpochStart.
	BasePixelOffset = 40.0
	// EventBoxHeight is the rendered height of one event box.
	EventBoxHeight = 48.0
	// CollisionThreshold is the minimum distance between two boxes in one lane.
	CollisionThreshold = 60.0
	// MaxManualColumn is the rightmost lane a drag can target.
	MaxManualColumn = 19
	CanvasMargin    = 200.0
	MinCanvasHeight = 800.0
)

// EpochStart is the top of the time axis.
var EpochStart = time.Date(2014, time.January, 1, 0, 0, 0, 0, time.UTC)

// Item is the part of an event the layout needs.
type Item struct {
	ID      string
	Date    time.Time
	EndDate *time.Time
}

// Override is a lane and position chosen by dragging. Position is stored at
// ReferenceScale so the placement survives zooming.
type Override struct {
	Column         int     `json:"column"`
	Position       float64 `json:"position"`
	ReferenceScale float64 `json:"referenceScale"`
}

// Overrides maps event id to its manual placement.
type Overrides map[string]Override

// NewOverride records a drag to targetColumn at positionAtDragTime, measured
// at scale. The column is clamped to [0, MaxManualColumn].
func NewOverride(targetColumn int, positionAtDragTime, scale float64) Override {
	scale = normalizeScale(scale)
	return Override{
		Column:         clampColumn(targetColumn),
		Position:       positionAtDragTime * DefaultSpacing / scale,
		ReferenceScale: DefaultSpacing,
	}
}

// PositionAt returns the override's pixel position at scale.
func (o Override) PositionAt(scale float64) float64 {
	ref := o.ReferenceScale
	if ref <= 0 {
		ref = DefaultSpacing
	}
	return o.Position * normalizeScale(scale) / ref
}

// Position is one placed event.
type Position struct {
	Item          Item    `json:"-"`
	EventID       string  `json:"eventId"`
	PixelPosition float64 `json:"pixelPosition"`
	Column        int     `json:"column"`
	Manual        bool    `json:"manual"`
}

// Marker is a month tick on the axis. Major marks January.
type Marker struct {
	Time     time.Time `json:"time"`
	Label    string    `json:"label"`
	Position float64   `json:"position"`
	Major    bool      `json:"major"`
}

// Layout is the result of AssignPositions.
type Layout struct {
	Scale     float64    `json:"scale"`
	Positions []Position `json:"positions"`
	Markers   []Marker   `json:"markers"`
	Height    float64    `json:"height"`
	Columns   int        `json:"columns"`
}

// AssignPositions places items in date order. Items with an override keep
// their lane and rescaled position. Every other item takes the leftmost lane
// with no already placed box closer than CollisionThreshold. Placement is a
// single greedy pass and never revisits earlier items.
func AssignPositions(items []Item, scale float64, overrides Overrides) Layout {
	scale = normalizeScale(scale)

	sorted := make([]Item, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].Date.Equal(sorted[j].Date) {
			return sorted[i].Date.Before(sorted[j].Date)
		}
		return sorted[i].ID < sorted[j].ID
	})

	occupied := map[int][]float64{}
	positions := make([]Position, 0, len(sorted))
	columns := 0

	for _, item := range sorted {
		var pos Position
		if o, ok := overrides[item.ID]; ok {
			pos = Position{
				Item:          item,
				EventID:       item.ID,
				PixelPosition: o.PositionAt(scale),
				Column:        o.Column,
				Manual:        true,
			}
		} else {
			pixel := NaturalPosition(item, scale)
			column := 0
			for !laneFree(occupied[column], pixel) {
				column++
			}
			pos = Position{Item: item, EventID: item.ID, PixelPosition: pixel, Column: column}
		}

		occupied[pos.Column] = append(occupied[pos.Column], pos.PixelPosition)
		if pos.Column+1 > columns {
			columns = pos.Column + 1
		}
		positions = append(positions, pos)
	}

	markers := Markers(sorted, scale)
	return Layout{
		Scale:     scale,
		Positions: positions,
		Markers:   markers,
		Height:    canvasHeight(markers, scale),
		Columns:   columns,
	}
}

// NaturalPosition is the pixel position implied by the item's dates alone.
// A spanning item is centered on the midpoint of its span.
func NaturalPosition(item Item, scale float64) float64 {
	scale = normalizeScale(scale)
	start := datePosition(item.Date, scale)
	if item.EndDate == nil {
		return start
	}
	end := datePosition(*item.EndDate, scale)
	return (start+end)/2 - EventBoxHeight/2
}

func datePosition(t time.Time, scale float64) float64 {
	t = t.UTC()
	monthSpacing := scale / 12
	months := monthsBetween(EpochStart, t)
	dayFraction := float64(t.Day()-1) / float64(daysInMonth(t))
	return BasePixelOffset + (float64(months)+dayFraction)*monthSpacing
}

func monthsBetween(from, to time.Time) int {
	return (to.Year()-from.Year())*12 + int(to.Month()) - int(from.Month())
}

func daysInMonth(t time.Time) int {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// Markers returns one marker per month from EpochStart, or the first item if
// earlier, through the month of the latest start or end date.
func Markers(items []Item, scale float64) []Marker {
	scale = normalizeScale(scale)
	first := EpochStart
	last := EpochStart
	for _, item := range items {
		if d := item.Date.UTC(); d.Before(first) {
			first = d
		}
		if d := item.Date.UTC(); d.After(last) {
			last = d
		}
		if item.EndDate != nil && item.EndDate.UTC().After(last) {
			last = item.EndDate.UTC()
		}
	}

	first = time.Date(first.Year(), first.Month(), 1, 0, 0, 0, 0, time.UTC)
	last = time.Date(last.Year(), last.Month(), 1, 0, 0, 0, 0, time.UTC)

	var markers []Marker
	for m := first; !m.After(last); m = m.AddDate(0, 1, 0) {
		label := m.Format("Jan")
		if m.Month() == time.January {
			label = m.Format("2006")
		}
		markers = append(markers, Marker{
			Time:     m,
			Label:    label,
			Position: datePosition(m, scale),
			Major:    m.Month() == time.January,
		})
	}
	return markers
}

func canvasHeight(markers []Marker, scale float64) float64 {
	if len(markers) == 0 {
		return MinCanvasHeight
	}
	h := markers[len(markers)-1].Position + scale/12 + CanvasMargin
	return math.Max(h, MinCanvasHeight)
}

func laneFree(lane []float64, pixel float64) bool {
	for _, p := range lane {
		if math.Abs(p-pixel) < CollisionThreshold {
			return false
		}
	}
	return true
}

func clampColumn(c int) int {
	if c < 0 {
		return 0
	}
	if c > MaxManualColumn {
		return MaxManualColumn
	}
	return c
}

func normalizeScale(scale float64) float64 {
	if scale <= 0 || math.IsNaN(scale) || math.IsInf(scale, 0) {
		return DefaultSpacing
	}
	return scale
}
