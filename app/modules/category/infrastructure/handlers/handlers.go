package categoryhandlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	categoryservice "github.com/tnt-tag-history/tnt-history/app/modules/category/application"
	categorydb "github.com/tnt-tag-history/tnt-history/app/modules/category/infrastructure/repositories"
	"github.com/tnt-tag-history/tnt-history/pkg/attr"
	"github.com/tnt-tag-history/tnt-history/pkg/httpjson"
)

// Service is what the handlers need from the category service.
type Service interface {
	NewCache() *categoryservice.Cache
	Upsert(ctx context.Context, category *categorydb.Category) error
	Delete(ctx context.Context, name string) error
}

// CategoryHandlers serves the category endpoints.
type CategoryHandlers struct {
	service Service
	logger  *slog.Logger
}

func NewCategoryHandlers(service Service, logger *slog.Logger) *CategoryHandlers {
	return &CategoryHandlers{service: service, logger: logger}
}

// CacheMiddleware attaches a fresh category cache to every request so all
// category reads within one request see the same snapshot.
func (h *CategoryHandlers) CacheMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := categoryservice.WithCache(r.Context(), h.service.NewCache())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *CategoryHandlers) Routes(r chi.Router) {
	r.Get("/api/categories", h.HandleList)
}

func (h *CategoryHandlers) AdminRoutes(r chi.Router) {
	r.Put("/api/admin/categories/{name}", h.HandleUpsert)
	r.Delete("/api/admin/categories/{name}", h.HandleDelete)
}

func (h *CategoryHandlers) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	cache, ok := categoryservice.CacheFromContext(ctx)
	if !ok {
		cache = h.service.NewCache()
	}
	list, err := cache.Get(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to list categories", attr.ExtractCorrelationID(ctx), attr.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	httpjson.Write(w, http.StatusOK, list)
}

type upsertRequest struct {
	Label     string `json:"label"`
	Color     string `json:"color"`
	SortOrder int    `json:"sortOrder"`
}

func (h *CategoryHandlers) HandleUpsert(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req upsertRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	category := &categorydb.Category{
		Name:      chi.URLParam(r, "name"),
		Label:     req.Label,
		Color:     req.Color,
		SortOrder: req.SortOrder,
	}
	if err := h.service.Upsert(ctx, category); err != nil {
		if errors.Is(err, categoryservice.ErrInvalidName) || errors.Is(err, categoryservice.ErrInvalidColor) {
			httpjson.Error(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.ErrorContext(ctx, "Failed to save category", attr.ExtractCorrelationID(ctx), attr.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	httpjson.Write(w, http.StatusOK, category)
}

func (h *CategoryHandlers) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.service.Delete(ctx, chi.URLParam(r, "name")); err != nil {
		if errors.Is(err, categoryservice.ErrCategoryMissing) {
			httpjson.Error(w, http.StatusNotFound, err.Error())
			return
		}
		h.logger.ErrorContext(ctx, "Failed to delete category", attr.ExtractCorrelationID(ctx), attr.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
