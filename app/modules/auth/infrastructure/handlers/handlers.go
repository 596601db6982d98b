package authhandlers

import (
	"crypto/subtle"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	authservice "github.com/tnt-tag-history/tnt-history/app/modules/auth/application"
	authdomain "github.com/tnt-tag-history/tnt-history/app/modules/auth/domain"
	"github.com/tnt-tag-history/tnt-history/pkg/attr"
	"github.com/tnt-tag-history/tnt-history/pkg/httpjson"
	"go.opentelemetry.io/otel/trace"
)

const (
	SessionCookie = "tnt_admin_session"
	StateCookie   = "tnt_oauth_state"

	stateTTL = 10 * time.Minute
)

// AuthHandlers serves the admin login flow and guards admin routes.
type AuthHandlers struct {
	service       authservice.Service
	logger        *slog.Logger
	tracer        trace.Tracer
	secureCookies bool
	postLoginURL  string
}

// NewAuthHandlers creates a new AuthHandlers instance. postLoginURL
// defaults to "/".
func NewAuthHandlers(
	service authservice.Service,
	logger *slog.Logger,
	tracer trace.Tracer,
	secureCookies bool,
	postLoginURL string,
) *AuthHandlers {
	if postLoginURL == "" {
		postLoginURL = "/"
	}
	return &AuthHandlers{
		service:       service,
		logger:        logger,
		tracer:        tracer,
		secureCookies: secureCookies,
		postLoginURL:  postLoginURL,
	}
}

// Routes registers the login endpoints.
func (h *AuthHandlers) Routes(r chi.Router) {
	r.Get("/api/auth/login", h.HandleLogin)
	r.Get("/api/auth/callback", h.HandleCallback)
	r.Post("/api/auth/logout", h.HandleLogout)
	r.Get("/api/auth/me", h.HandleMe)
}

// HandleLogin redirects to Discord with a fresh state bound to a cookie.
func (h *AuthHandlers) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "AuthHandlers.HandleLogin")
	defer span.End()

	state, err := authservice.NewState()
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to create oauth state", attr.ExtractCorrelationID(ctx), attr.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	h.setCookie(w, StateCookie, state, stateTTL)
	http.Redirect(w, r, h.service.LoginURL(state), http.StatusFound)
}

// HandleCallback finishes the OAuth2 flow and sets the session cookie.
func (h *AuthHandlers) HandleCallback(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "AuthHandlers.HandleCallback")
	defer span.End()

	q := r.URL.Query()
	cookie, err := r.Cookie(StateCookie)
	if err != nil || cookie.Value == "" || subtle.ConstantTimeCompare([]byte(cookie.Value), []byte(q.Get("state"))) != 1 {
		httpjson.Error(w, http.StatusBadRequest, "invalid oauth state")
		return
	}
	h.clearCookie(w, StateCookie)

	result, err := h.service.CompleteLogin(ctx, q.Get("code"))
	if err != nil {
		h.logger.ErrorContext(ctx, "Login failed", attr.ExtractCorrelationID(ctx), attr.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	if result.IsFailure() {
		failure := *result.Failure
		status := http.StatusUnauthorized
		if errors.Is(failure, authservice.ErrNotAdmin) {
			status = http.StatusForbidden
		}
		httpjson.Error(w, status, failure.Error())
		return
	}

	session := *result.Success
	h.setCookie(w, SessionCookie, session.Token, time.Until(session.Claims.ExpiresAt))
	http.Redirect(w, r, h.postLoginURL, http.StatusFound)
}

// HandleLogout clears the session cookie. Tokens are stateless and simply expire.
func (h *AuthHandlers) HandleLogout(w http.ResponseWriter, r *http.Request) {
	_, span := h.tracer.Start(r.Context(), "AuthHandlers.HandleLogout")
	defer span.End()

	h.clearCookie(w, SessionCookie)
	w.WriteHeader(http.StatusNoContent)
}

// HandleMe returns the caller's claims.
func (h *AuthHandlers) HandleMe(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "AuthHandlers.HandleMe")
	defer span.End()

	claims, err := h.service.ValidateToken(ctx, tokenFromRequest(r))
	if err != nil {
		httpjson.Error(w, http.StatusUnauthorized, err.Error())
		return
	}
	httpjson.Write(w, http.StatusOK, claims)
}

// RequireAdmin rejects requests without a valid admin token and stores the
// claims on the context for downstream handlers.
func (h *AuthHandlers) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		claims, err := h.service.ValidateToken(ctx, tokenFromRequest(r))
		if err != nil {
			httpjson.Error(w, http.StatusUnauthorized, err.Error())
			return
		}
		if !claims.IsAdmin() {
			h.logger.WarnContext(ctx, "Admin route denied",
				attr.ExtractCorrelationID(ctx),
				attr.String("discord_id", claims.UserID),
				attr.String("path", r.URL.Path),
			)
			httpjson.Error(w, http.StatusForbidden, authservice.ErrNotAdmin.Error())
			return
		}
		next.ServeHTTP(w, r.WithContext(authdomain.WithClaims(ctx, claims)))
	})
}

// tokenFromRequest prefers a bearer token over the session cookie.
func tokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	if c, err := r.Cookie(SessionCookie); err == nil {
		return c.Value
	}
	return ""
}

func (h *AuthHandlers) setCookie(w http.ResponseWriter, name, value string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandlers) clearCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}
