package timelinehandlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	eventdb "github.com/tnt-tag-history/tnt-history/app/modules/event/infrastructure/repositories"
	timelineservice "github.com/tnt-tag-history/tnt-history/app/modules/timeline/application"
	"github.com/tnt-tag-history/tnt-history/app/modules/timeline/layout"
	"github.com/tnt-tag-history/tnt-history/app/shared/domainevents"
	"github.com/tnt-tag-history/tnt-history/pkg/attr"
	"github.com/tnt-tag-history/tnt-history/pkg/httpjson"
	"go.opentelemetry.io/otel/trace"
)

// SessionCookie carries the viewer's timeline session id.
const SessionCookie = "timeline_session"

const sessionCookieMaxAge = 30 * 24 * time.Hour

// Service is the timeline behavior the handlers need.
type Service interface {
	Build(ctx context.Context, sessionID string, scale float64, filter eventdb.ListFilter) (*timelineservice.View, error)
	Drag(ctx context.Context, sessionID string, req timelineservice.DragRequest) (layout.Override, error)
	Reset(ctx context.Context, sessionID string)
	PruneEvent(ctx context.Context, eventID string) int
}

// TimelineHandlers serves the timeline endpoints and consumes event deletions.
type TimelineHandlers struct {
	service       Service
	logger        *slog.Logger
	tracer        trace.Tracer
	secureCookies bool
}

// NewTimelineHandlers creates the handlers.
func NewTimelineHandlers(service Service, logger *slog.Logger, tracer trace.Tracer, secureCookies bool) *TimelineHandlers {
	return &TimelineHandlers{service: service, logger: logger, tracer: tracer, secureCookies: secureCookies}
}

// Routes registers the public timeline endpoints.
func (h *TimelineHandlers) Routes(r chi.Router) {
	r.Get("/api/timeline", h.HandleTimeline)
	r.Post("/api/timeline/drag", h.HandleDrag)
	r.Post("/api/timeline/reset", h.HandleReset)
}

func (h *TimelineHandlers) HandleTimeline(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "TimelineHandlers.HandleTimeline")
	defer span.End()

	q := r.URL.Query()
	scale := layout.DefaultSpacing
	if raw := q.Get("scale"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil || parsed <= 0 {
			httpjson.Error(w, http.StatusBadRequest, "scale must be a positive number")
			return
		}
		scale = parsed
	}
	special, _ := strconv.ParseBool(q.Get("special"))
	filter := eventdb.ListFilter{
		Category:    q.Get("category"),
		Tag:         q.Get("tag"),
		SpecialOnly: special,
	}

	view, err := h.service.Build(ctx, h.session(w, r), scale, filter)
	if err != nil {
		h.logger.ErrorContext(ctx, "Timeline build failed", attr.ExtractCorrelationID(ctx), attr.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	httpjson.Write(w, http.StatusOK, view)
}

func (h *TimelineHandlers) HandleDrag(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "TimelineHandlers.HandleDrag")
	defer span.End()

	var req timelineservice.DragRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	override, err := h.service.Drag(ctx, h.session(w, r), req)
	switch {
	case errors.Is(err, timelineservice.ErrEventNotFound):
		httpjson.Error(w, http.StatusNotFound, err.Error())
	case errors.Is(err, timelineservice.ErrInvalidDrag):
		httpjson.Error(w, http.StatusBadRequest, err.Error())
	case err != nil:
		h.logger.ErrorContext(ctx, "Timeline drag failed", attr.ExtractCorrelationID(ctx), attr.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "internal error")
	default:
		httpjson.Write(w, http.StatusOK, override)
	}
}

func (h *TimelineHandlers) HandleReset(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "TimelineHandlers.HandleReset")
	defer span.End()

	h.service.Reset(ctx, h.session(w, r))
	w.WriteHeader(http.StatusNoContent)
}

// HandleEventDeleted drops overrides for an event removed on any instance.
func (h *TimelineHandlers) HandleEventDeleted(ctx context.Context, payload *domainevents.EventDeletedPayloadV1) error {
	if payload == nil || payload.EventID == "" {
		return nil
	}
	h.service.PruneEvent(ctx, payload.EventID)
	return nil
}

// session returns the request's session id, issuing a new cookie when absent.
func (h *TimelineHandlers) session(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(SessionCookie); err == nil {
		if _, err := uuid.Parse(c.Value); err == nil {
			return c.Value
		}
	}
	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    id,
		Path:     "/",
		MaxAge:   int(sessionCookieMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}
