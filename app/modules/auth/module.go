package auth

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	authservice "github.com/tnt-tag-history/tnt-history/app/modules/auth/application"
	authdiscord "github.com/tnt-tag-history/tnt-history/app/modules/auth/infrastructure/discord"
	authhandlers "github.com/tnt-tag-history/tnt-history/app/modules/auth/infrastructure/handlers"
	authjwt "github.com/tnt-tag-history/tnt-history/app/modules/auth/infrastructure/jwt"
	"github.com/tnt-tag-history/tnt-history/config"
	"github.com/tnt-tag-history/tnt-history/pkg/observability"
	"golang.org/x/time/rate"
)

// Module represents the admin auth module.
type Module struct {
	Service  authservice.Service
	Handlers *authhandlers.AuthHandlers
	limiter  *authhandlers.IPRateLimiter
	origins  []string
}

// NewModule creates a new auth module.
func NewModule(ctx context.Context, cfg *config.Config, obs observability.Observability) *Module {
	logger := obs.Logger
	logger.InfoContext(ctx, "Initializing auth module")

	jwtProvider := authjwt.NewProvider(cfg.JWT.Secret)
	oauth := authdiscord.NewClient(cfg.OAuth.ClientID, cfg.OAuth.ClientSecret, cfg.OAuth.RedirectURL)

	service := authservice.NewService(jwtProvider, oauth, authservice.Config{
		AdminIDs:   cfg.OAuth.AdminIDs,
		DefaultTTL: cfg.JWT.DefaultTTL,
	}, logger, obs.Tracer)

	handlers := authhandlers.NewAuthHandlers(service, logger, obs.Tracer, cfg.HTTP.SecureCookies, cfg.OAuth.PostLoginURL)

	return &Module{
		Service:  service,
		Handlers: handlers,
		limiter:  authhandlers.NewIPRateLimiter(rate.Limit(cfg.HTTP.RequestsPerSecond), cfg.HTTP.Burst),
		origins:  cfg.HTTP.AllowedOrigins,
	}
}

// RegisterRoutes mounts the login endpoints behind the rate limiter.
func (m *Module) RegisterRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(m.RateLimit())
		m.Handlers.Routes(r)
	})
}

// CORS allows the configured browser origins.
func (m *Module) CORS() func(http.Handler) http.Handler {
	return authhandlers.CORSMiddleware(m.origins)
}

// RateLimit throttles by client IP.
func (m *Module) RateLimit() func(http.Handler) http.Handler {
	return authhandlers.RateLimitMiddleware(m.limiter)
}

// RequireAdmin guards the admin API.
func (m *Module) RequireAdmin(next http.Handler) http.Handler {
	return m.Handlers.RequireAdmin(next)
}
