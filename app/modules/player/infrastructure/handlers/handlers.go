package playerhandlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	playerservice "github.com/tnt-tag-history/tnt-history/app/modules/player/application"
	"github.com/tnt-tag-history/tnt-history/app/shared/domainevents"
	"github.com/tnt-tag-history/tnt-history/pkg/attr"
	"github.com/tnt-tag-history/tnt-history/pkg/httpjson"
	"github.com/tnt-tag-history/tnt-history/pkg/results"
	"go.opentelemetry.io/otel/trace"
)

// PlayerHandlers serves the player HTTP endpoints and consumes IGN sync requests.
type PlayerHandlers struct {
	service playerservice.Service
	logger  *slog.Logger
	tracer  trace.Tracer
}

func NewPlayerHandlers(service playerservice.Service, logger *slog.Logger, tracer trace.Tracer) *PlayerHandlers {
	return &PlayerHandlers{service: service, logger: logger, tracer: tracer}
}

func (h *PlayerHandlers) Routes(r chi.Router) {
	r.Get("/api/players/lookup", h.HandleLookup)
	r.Get("/api/players/{id}", h.HandleGet)
	r.Get("/api/players/{id}/activity.png", h.HandleActivityChart)
}

func (h *PlayerHandlers) AdminRoutes(r chi.Router) {
	r.Get("/api/admin/players", h.HandleList)
	r.Post("/api/admin/players", h.HandleCreate)
	r.Put("/api/admin/players/{id}", h.HandleUpdate)
	r.Delete("/api/admin/players/{id}", h.HandleDelete)
	r.Post("/api/admin/players/{id}/sync-igns", h.HandleSyncIGNs)
}

func (h *PlayerHandlers) HandleLookup(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "PlayerHandlers.HandleLookup")
	defer span.End()

	q := r.URL.Query().Get("q")
	if q == "" {
		httpjson.Error(w, http.StatusBadRequest, "missing q")
		return
	}
	result, err := h.service.LookupProfile(ctx, q)
	writeResult(ctx, h.logger, w, http.StatusOK, result, err)
}

func (h *PlayerHandlers) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "PlayerHandlers.HandleGet")
	defer span.End()

	result, err := h.service.GetPlayer(ctx, chi.URLParam(r, "id"))
	writeResult(ctx, h.logger, w, http.StatusOK, result, err)
}

func (h *PlayerHandlers) HandleActivityChart(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "PlayerHandlers.HandleActivityChart")
	defer span.End()

	result, err := h.service.ActivityChart(ctx, chi.URLParam(r, "id"))
	if err != nil || result.IsFailure() {
		writeResult(ctx, h.logger, w, http.StatusOK, result, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=300")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(*result.Success)
}

func (h *PlayerHandlers) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "PlayerHandlers.HandleList")
	defer span.End()

	result, err := h.service.ListPlayers(ctx)
	writeResult(ctx, h.logger, w, http.StatusOK, result, err)
}

func (h *PlayerHandlers) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "PlayerHandlers.HandleCreate")
	defer span.End()

	var input playerservice.PlayerInput
	if err := httpjson.Decode(r, &input); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	result, err := h.service.CreatePlayer(ctx, input)
	writeResult(ctx, h.logger, w, http.StatusCreated, result, err)
}

func (h *PlayerHandlers) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "PlayerHandlers.HandleUpdate")
	defer span.End()

	var input playerservice.PlayerInput
	if err := httpjson.Decode(r, &input); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	result, err := h.service.UpdatePlayer(ctx, chi.URLParam(r, "id"), input)
	writeResult(ctx, h.logger, w, http.StatusOK, result, err)
}

func (h *PlayerHandlers) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "PlayerHandlers.HandleDelete")
	defer span.End()

	result, err := h.service.DeletePlayer(ctx, chi.URLParam(r, "id"))
	writeResult(ctx, h.logger, w, http.StatusOK, result, err)
}

func (h *PlayerHandlers) HandleSyncIGNs(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "PlayerHandlers.HandleSyncIGNs")
	defer span.End()

	result, err := h.service.SyncIGNHistory(ctx, chi.URLParam(r, "id"))
	writeResult(ctx, h.logger, w, http.StatusOK, result, err)
}

// HandleIGNSyncRequested consumes PlayerIGNSyncRequestedV1. Domain failures
// are logged and acknowledged; only infrastructure errors cause a retry.
func (h *PlayerHandlers) HandleIGNSyncRequested(ctx context.Context, payload *domainevents.PlayerIGNSyncRequestedPayloadV1) error {
	result, err := h.service.SyncIGNHistory(ctx, payload.PlayerID)
	if err != nil {
		return err
	}
	if result.IsFailure() {
		h.logger.WarnContext(ctx, "IGN sync skipped",
			attr.ExtractCorrelationID(ctx),
			attr.PlayerID(payload.PlayerID),
			attr.Error(*result.Failure),
		)
	}
	return nil
}

// writeResult maps a service result onto a JSON response.
func writeResult[S any](ctx context.Context, logger *slog.Logger, w http.ResponseWriter, status int, result results.OperationResult[S, error], err error) {
	if err != nil {
		logger.ErrorContext(ctx, "Player request failed", attr.ExtractCorrelationID(ctx), attr.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	if result.IsFailure() {
		failure := *result.Failure
		httpjson.Error(w, failureStatus(failure), failure.Error())
		return
	}
	httpjson.Write(w, status, *result.Success)
}

func failureStatus(err error) int {
	switch {
	case errors.Is(err, playerservice.ErrPlayerNotFound):
		return http.StatusNotFound
	case errors.Is(err, playerservice.ErrDuplicatePlayer):
		return http.StatusConflict
	case errors.Is(err, playerservice.ErrIdentityUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusBadRequest
	}
}
