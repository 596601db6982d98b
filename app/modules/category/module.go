package category

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	categoryservice "github.com/tnt-tag-history/tnt-history/app/modules/category/application"
	categoryhandlers "github.com/tnt-tag-history/tnt-history/app/modules/category/infrastructure/handlers"
	categorydb "github.com/tnt-tag-history/tnt-history/app/modules/category/infrastructure/repositories"
	"github.com/tnt-tag-history/tnt-history/pkg/observability"
	"github.com/uptrace/bun"
)

// Module represents the category module.
type Module struct {
	Service  *categoryservice.CategoryService
	Handlers *categoryhandlers.CategoryHandlers
}

// NewCategoryModule creates and initializes a new category module.
func NewCategoryModule(ctx context.Context, obs observability.Observability, db *bun.DB) *Module {
	obs.Logger.InfoContext(ctx, "category.NewCategoryModule initializing")

	service := categoryservice.NewCategoryService(categorydb.NewRepository(db), obs.Logger, obs.Tracer, db)
	return &Module{
		Service:  service,
		Handlers: categoryhandlers.NewCategoryHandlers(service, obs.Logger),
	}
}

// Middleware attaches a per-request category cache. Install it on the root router.
func (m *Module) Middleware() func(http.Handler) http.Handler {
	return m.Handlers.CacheMiddleware
}

// RegisterRoutes mounts the public and admin endpoints.
func (m *Module) RegisterRoutes(public, admin chi.Router) {
	m.Handlers.Routes(public)
	m.Handlers.AdminRoutes(admin)
}
