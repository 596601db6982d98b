// Package timelineservice builds the laid-out timeline for a viewer session.
package timelineservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	eventdb "github.com/tnt-tag-history/tnt-history/app/modules/event/infrastructure/repositories"
	"github.com/tnt-tag-history/tnt-history/app/modules/timeline/layout"
	timelinesessions "github.com/tnt-tag-history/tnt-history/app/modules/timeline/sessions"
	"github.com/tnt-tag-history/tnt-history/pkg/attr"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var (
	ErrEventNotFound = errors.New("event not found")
	ErrInvalidDrag   = errors.New("drag needs an event id and a finite position")
)

// EventSource is the slice of the event store the timeline reads.
type EventSource interface {
	List(ctx context.Context, db bun.IDB, filter eventdb.ListFilter) ([]*eventdb.Event, error)
	GetByID(ctx context.Context, db bun.IDB, id string) (*eventdb.Event, error)
}

// Entry is a placed event with the fields a timeline box renders.
type Entry struct {
	layout.Position
	Title     string     `json:"title"`
	Category  string     `json:"category"`
	IsSpecial bool       `json:"isSpecial"`
	Date      time.Time  `json:"date"`
	EndDate   *time.Time `json:"endDate,omitempty"`
}

// View is the timeline as served to the browser.
type View struct {
	Scale   float64         `json:"scale"`
	Height  float64         `json:"height"`
	Columns int             `json:"columns"`
	Markers []layout.Marker `json:"markers"`
	Entries []Entry         `json:"entries"`
}

// DragRequest moves one event box to a lane and position measured at Scale.
type DragRequest struct {
	EventID            string  `json:"eventId"`
	NewColumn          int     `json:"newColumn"`
	PositionAtDragTime float64 `json:"positionAtDragTime"`
	Scale              float64 `json:"scale"`
}

// TimelineService joins stored events with per-session overrides.
type TimelineService struct {
	events   EventSource
	sessions *timelinesessions.Store
	logger   *slog.Logger
	tracer   trace.Tracer
	db       *bun.DB
}

// NewTimelineService creates a TimelineService.
func NewTimelineService(events EventSource, sessions *timelinesessions.Store, logger *slog.Logger, tracer trace.Tracer, db *bun.DB) *TimelineService {
	if logger == nil {
		logger = slog.Default()
	}
	return &TimelineService{events: events, sessions: sessions, logger: logger, tracer: tracer, db: db}
}

func (s *TimelineService) start(ctx context.Context, op, sessionID string) (context.Context, trace.Span) {
	if s.tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return s.tracer.Start(ctx, "TimelineService."+op, trace.WithAttributes(attribute.String("session", sessionID)))
}

// Build lays out the events matching filter at scale using the session's overrides.
func (s *TimelineService) Build(ctx context.Context, sessionID string, scale float64, filter eventdb.ListFilter) (*View, error) {
	ctx, span := s.start(ctx, "Build", sessionID)
	defer span.End()

	events, err := s.events.List(ctx, s.db, filter)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	items := make([]layout.Item, 0, len(events))
	byID := make(map[string]*eventdb.Event, len(events))
	for _, e := range events {
		items = append(items, layout.Item{ID: e.ID, Date: e.Date, EndDate: e.EndDate})
		byID[e.ID] = e
	}

	l := layout.AssignPositions(items, scale, s.sessions.Overrides(sessionID))
	view := &View{
		Scale:   l.Scale,
		Height:  l.Height,
		Columns: l.Columns,
		Markers: l.Markers,
		Entries: make([]Entry, 0, len(l.Positions)),
	}
	for _, p := range l.Positions {
		e := byID[p.EventID]
		view.Entries = append(view.Entries, Entry{
			Position:  p,
			Title:     e.Title,
			Category:  e.Category,
			IsSpecial: e.IsSpecial,
			Date:      e.Date,
			EndDate:   e.EndDate,
		})
	}
	return view, nil
}

// Drag stores a manual placement after checking the event exists.
func (s *TimelineService) Drag(ctx context.Context, sessionID string, req DragRequest) (layout.Override, error) {
	ctx, span := s.start(ctx, "Drag", sessionID)
	defer span.End()

	if req.EventID == "" || math.IsNaN(req.PositionAtDragTime) || math.IsInf(req.PositionAtDragTime, 0) {
		return layout.Override{}, ErrInvalidDrag
	}
	if _, err := s.events.GetByID(ctx, s.db, req.EventID); err != nil {
		if errors.Is(err, eventdb.ErrNotFound) {
			return layout.Override{}, ErrEventNotFound
		}
		span.RecordError(err)
		return layout.Override{}, fmt.Errorf("failed to load event: %w", err)
	}

	o := s.sessions.Drag(sessionID, req.EventID, req.NewColumn, req.PositionAtDragTime, req.Scale)
	s.logger.DebugContext(ctx, "Timeline override stored",
		attr.ExtractCorrelationID(ctx),
		attr.EventID(req.EventID),
		attr.Int("column", o.Column),
	)
	return o, nil
}

// Reset clears the session's overrides.
func (s *TimelineService) Reset(ctx context.Context, sessionID string) {
	_, span := s.start(ctx, "Reset", sessionID)
	defer span.End()
	s.sessions.Reset(sessionID)
}

// PruneEvent drops a deleted event's overrides from every session.
func (s *TimelineService) PruneEvent(ctx context.Context, eventID string) int {
	n := s.sessions.PruneEvent(eventID)
	if n > 0 {
		s.logger.InfoContext(ctx, "Pruned timeline overrides",
			attr.ExtractCorrelationID(ctx),
			attr.EventID(eventID),
			attr.Int("sessions", n),
		)
	}
	return n
}
