package mentionhandlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	mentionservice "github.com/tnt-tag-history/tnt-history/app/modules/mention/application"
	mentionqueue "github.com/tnt-tag-history/tnt-history/app/modules/mention/infrastructure/queue"
	"github.com/tnt-tag-history/tnt-history/pkg/attr"
	"github.com/tnt-tag-history/tnt-history/pkg/httpjson"
	"go.opentelemetry.io/otel/trace"
)

// Reconciler runs a synchronous rebuild.
type Reconciler interface {
	ReconcileAll(ctx context.Context) (*mentionservice.ReconcileReport, error)
}

// Enqueuer schedules an asynchronous rebuild.
type Enqueuer interface {
	EnqueueReconcile(ctx context.Context, reason string) (*mentionqueue.JobInfo, error)
}

// MentionHandlers serves the admin mention endpoints.
type MentionHandlers struct {
	service Reconciler
	queue   Enqueuer
	logger  *slog.Logger
	tracer  trace.Tracer
}

// NewMentionHandlers creates the handlers. queue may be nil, in which case the
// async endpoint answers 503.
func NewMentionHandlers(service Reconciler, queue Enqueuer, logger *slog.Logger, tracer trace.Tracer) *MentionHandlers {
	return &MentionHandlers{service: service, queue: queue, logger: logger, tracer: tracer}
}

// AdminRoutes registers the handlers on a router already guarded by admin auth.
func (h *MentionHandlers) AdminRoutes(r chi.Router) {
	r.Post("/api/admin/mentions/reconcile", h.HandleReconcile)
	r.Post("/api/admin/mentions/reconcile/async", h.HandleReconcileAsync)
}

func (h *MentionHandlers) HandleReconcile(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "MentionHandlers.HandleReconcile")
	defer span.End()

	report, err := h.service.ReconcileAll(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "Reconcile request failed", attr.ExtractCorrelationID(ctx), attr.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "reconcile failed")
		return
	}
	httpjson.Write(w, http.StatusOK, report)
}

func (h *MentionHandlers) HandleReconcileAsync(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "MentionHandlers.HandleReconcileAsync")
	defer span.End()

	if h.queue == nil {
		httpjson.Error(w, http.StatusServiceUnavailable, "job queue is not configured")
		return
	}

	job, err := h.queue.EnqueueReconcile(ctx, "admin")
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to enqueue reconcile", attr.ExtractCorrelationID(ctx), attr.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not enqueue reconcile")
		return
	}
	httpjson.Write(w, http.StatusAccepted, job)
}
