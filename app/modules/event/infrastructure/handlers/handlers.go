package eventhandlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	eventservice "github.com/tnt-tag-history/tnt-history/app/modules/event/application"
	eventdb "github.com/tnt-tag-history/tnt-history/app/modules/event/infrastructure/repositories"
	"github.com/tnt-tag-history/tnt-history/pkg/attr"
	"github.com/tnt-tag-history/tnt-history/pkg/httpjson"
	"github.com/tnt-tag-history/tnt-history/pkg/results"
	"go.opentelemetry.io/otel/trace"
)

// maxUploadBytes bounds xlsx uploads.
const maxUploadBytes = 8 << 20

// CategoryChecker reports whether a category name is known.
type CategoryChecker interface {
	Exists(ctx context.Context, name string) (bool, error)
}

// EventHandlers serves the event endpoints.
type EventHandlers struct {
	service    eventservice.Service
	categories CategoryChecker
	logger     *slog.Logger
	tracer     trace.Tracer
}

// NewEventHandlers creates the handlers. categories may be nil, which skips category validation.
func NewEventHandlers(service eventservice.Service, categories CategoryChecker, logger *slog.Logger, tracer trace.Tracer) *EventHandlers {
	return &EventHandlers{service: service, categories: categories, logger: logger, tracer: tracer}
}

// Routes registers the public read endpoints.
func (h *EventHandlers) Routes(r chi.Router) {
	r.Get("/api/events", h.HandleList)
	r.Get("/api/events/{id}", h.HandleGet)
	r.Get("/api/tags", h.HandleTags)
}

// AdminRoutes registers the authoring endpoints on a router already guarded by admin auth.
func (h *EventHandlers) AdminRoutes(r chi.Router) {
	r.Post("/api/admin/events", h.HandleCreate)
	r.Post("/api/admin/events/tables/import", h.HandleImportTable)
	r.Put("/api/admin/events/{id}", h.HandleUpdate)
	r.Delete("/api/admin/events/{id}", h.HandleDelete)
}

func (h *EventHandlers) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "EventHandlers.HandleList")
	defer span.End()

	q := r.URL.Query()
	special, _ := strconv.ParseBool(q.Get("special"))
	filter := eventdb.ListFilter{
		Category:    q.Get("category"),
		Tag:         q.Get("tag"),
		SpecialOnly: special,
		Search:      q.Get("q"),
	}

	result, err := h.service.ListEvents(ctx, filter)
	writeResult(ctx, h.logger, w, http.StatusOK, result, err)
}

func (h *EventHandlers) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "EventHandlers.HandleGet")
	defer span.End()

	result, err := h.service.GetEvent(ctx, chi.URLParam(r, "id"))
	writeResult(ctx, h.logger, w, http.StatusOK, result, err)
}

func (h *EventHandlers) HandleTags(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "EventHandlers.HandleTags")
	defer span.End()

	result, err := h.service.ListTags(ctx)
	writeResult(ctx, h.logger, w, http.StatusOK, result, err)
}

func (h *EventHandlers) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "EventHandlers.HandleCreate")
	defer span.End()

	var input eventservice.EventInput
	if err := httpjson.Decode(r, &input); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !h.checkCategory(ctx, w, input.Category) {
		return
	}

	result, err := h.service.CreateEvent(ctx, input)
	writeResult(ctx, h.logger, w, http.StatusCreated, result, err)
}

func (h *EventHandlers) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "EventHandlers.HandleUpdate")
	defer span.End()

	var input eventservice.EventInput
	if err := httpjson.Decode(r, &input); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !h.checkCategory(ctx, w, input.Category) {
		return
	}

	result, err := h.service.UpdateEvent(ctx, chi.URLParam(r, "id"), input)
	writeResult(ctx, h.logger, w, http.StatusOK, result, err)
}

func (h *EventHandlers) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "EventHandlers.HandleDelete")
	defer span.End()

	result, err := h.service.DeleteEvent(ctx, chi.URLParam(r, "id"))
	writeResult(ctx, h.logger, w, http.StatusOK, result, err)
}

// HandleImportTable accepts a multipart upload with a "file" part and an optional "title" field.
func (h *EventHandlers) HandleImportTable(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "EventHandlers.HandleImportTable")
	defer span.End()

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "expected a multipart upload")
		return
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "missing file")
		return
	}
	defer file.Close()

	result, err := h.service.ImportTable(ctx, r.FormValue("title"), file)
	writeResult(ctx, h.logger, w, http.StatusOK, result, err)
}

// checkCategory writes a 400 and returns false when the category is unknown.
func (h *EventHandlers) checkCategory(ctx context.Context, w http.ResponseWriter, name string) bool {
	if h.categories == nil || name == "" {
		return true
	}
	ok, err := h.categories.Exists(ctx, name)
	if err != nil {
		h.logger.ErrorContext(ctx, "Category lookup failed", attr.ExtractCorrelationID(ctx), attr.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "internal error")
		return false
	}
	if !ok {
		httpjson.Error(w, http.StatusBadRequest, "unknown category: "+name)
		return false
	}
	return true
}

// writeResult maps a service result onto a response.
func writeResult[S any](ctx context.Context, logger *slog.Logger, w http.ResponseWriter, status int, result results.OperationResult[S, error], err error) {
	if err != nil {
		logger.ErrorContext(ctx, "Event request failed", attr.ExtractCorrelationID(ctx), attr.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	if result.IsFailure() {
		failure := *result.Failure
		if errors.Is(failure, eventservice.ErrEventNotFound) {
			httpjson.Error(w, http.StatusNotFound, failure.Error())
			return
		}
		httpjson.Error(w, http.StatusBadRequest, failure.Error())
		return
	}
	httpjson.Write(w, status, *result.Success)
}
