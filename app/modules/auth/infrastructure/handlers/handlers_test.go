package authhandlers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	authservice "github.com/tnt-tag-history/tnt-history/app/modules/auth/application"
	authdomain "github.com/tnt-tag-history/tnt-history/app/modules/auth/domain"
	"github.com/tnt-tag-history/tnt-history/pkg/results"
	"go.opentelemetry.io/otel/trace/noop"
)

func newHandlers(svc authservice.Service) *AuthHandlers {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewAuthHandlers(svc, logger, noop.NewTracerProvider().Tracer("test"), true, "/admin")
}

func serve(h *AuthHandlers, req *http.Request) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	h.Routes(r)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func cookieNamed(rr *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rr.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func adminClaims() *authdomain.Claims {
	return &authdomain.Claims{UserID: "1", Username: "admin", Role: authdomain.RoleAdmin, ExpiresAt: time.Now().Add(time.Hour)}
}

func TestHandleLogin(t *testing.T) {
	svc := &FakeService{}
	rr := serve(newHandlers(svc), httptest.NewRequest(http.MethodGet, "/api/auth/login", nil))

	require.Equal(t, http.StatusFound, rr.Code)
	state := cookieNamed(rr, StateCookie)
	require.NotNil(t, state)
	assert.True(t, state.Secure)
	assert.True(t, state.HttpOnly)
	assert.Equal(t, "https://discord.test/authorize?state="+state.Value, rr.Header().Get("Location"))
}

func TestHandleCallback(t *testing.T) {
	success := func(ctx context.Context, code string) (results.OperationResult[*authservice.Session, error], error) {
		return results.SuccessResult[*authservice.Session, error](&authservice.Session{Token: "signed", Claims: adminClaims()}), nil
	}

	tests := []struct {
		name        string
		cookieState string
		queryState  string
		complete    func(ctx context.Context, code string) (results.OperationResult[*authservice.Session, error], error)
		wantStatus  int
		wantSession bool
	}{
		{name: "success", cookieState: "s1", queryState: "s1", complete: success, wantStatus: http.StatusFound, wantSession: true},
		{name: "state mismatch", cookieState: "s1", queryState: "s2", complete: success, wantStatus: http.StatusBadRequest},
		{name: "no state cookie", queryState: "s1", complete: success, wantStatus: http.StatusBadRequest},
		{
			name: "not an admin", cookieState: "s1", queryState: "s1", wantStatus: http.StatusForbidden,
			complete: func(ctx context.Context, code string) (results.OperationResult[*authservice.Session, error], error) {
				return results.FailureResult[*authservice.Session, error](authservice.ErrNotAdmin), nil
			},
		},
		{name: "discord rejects code", cookieState: "s1", queryState: "s1", wantStatus: http.StatusUnauthorized},
		{
			name: "token signing error", cookieState: "s1", queryState: "s1", wantStatus: http.StatusInternalServerError,
			complete: func(ctx context.Context, code string) (results.OperationResult[*authservice.Session, error], error) {
				return results.OperationResult[*authservice.Session, error]{}, errors.New("boom")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &FakeService{CompleteLoginFunc: tt.complete}
			req := httptest.NewRequest(http.MethodGet, "/api/auth/callback?code=abc&state="+tt.queryState, nil)
			if tt.cookieState != "" {
				req.AddCookie(&http.Cookie{Name: StateCookie, Value: tt.cookieState})
			}
			rr := serve(newHandlers(svc), req)

			assert.Equal(t, tt.wantStatus, rr.Code)
			session := cookieNamed(rr, SessionCookie)
			if tt.wantSession {
				require.NotNil(t, session)
				assert.Equal(t, "signed", session.Value)
				assert.Equal(t, "/admin", rr.Header().Get("Location"))
			} else {
				assert.Nil(t, session)
			}
		})
	}
}

func TestHandleLogoutAndMe(t *testing.T) {
	svc := &FakeService{
		ValidateTokenFunc: func(ctx context.Context, token string) (*authdomain.Claims, error) {
			if token != "good" {
				return nil, authservice.ErrInvalidToken
			}
			return adminClaims(), nil
		},
	}
	h := newHandlers(svc)

	rr := serve(h, httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil))
	assert.Equal(t, http.StatusNoContent, rr.Code)
	cleared := cookieNamed(rr, SessionCookie)
	require.NotNil(t, cleared)
	assert.Equal(t, -1, cleared.MaxAge)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "good"})
	rr = serve(h, req)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"role":"admin"`)

	rr = serve(h, httptest.NewRequest(http.MethodGet, "/api/auth/me", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestRequireAdmin(t *testing.T) {
	viewer := adminClaims()
	viewer.Role = authdomain.RoleViewer

	svc := &FakeService{
		ValidateTokenFunc: func(ctx context.Context, token string) (*authdomain.Claims, error) {
			switch token {
			case "admin":
				return adminClaims(), nil
			case "viewer":
				return viewer, nil
			case "":
				return nil, authservice.ErrMissingToken
			default:
				return nil, authservice.ErrInvalidToken
			}
		},
	}
	h := newHandlers(svc)

	var seen *authdomain.Claims
	protected := h.RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = authdomain.ClaimsFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name       string
		setup      func(r *http.Request)
		wantStatus int
	}{
		{name: "bearer admin", setup: func(r *http.Request) { r.Header.Set("Authorization", "Bearer admin") }, wantStatus: http.StatusOK},
		{name: "cookie admin", setup: func(r *http.Request) { r.AddCookie(&http.Cookie{Name: SessionCookie, Value: "admin"}) }, wantStatus: http.StatusOK},
		{name: "viewer", setup: func(r *http.Request) { r.Header.Set("Authorization", "Bearer viewer") }, wantStatus: http.StatusForbidden},
		{name: "anonymous", setup: func(r *http.Request) {}, wantStatus: http.StatusUnauthorized},
		{name: "bad token", setup: func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") }, wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = nil
			req := httptest.NewRequest(http.MethodDelete, "/api/admin/events/1", strings.NewReader(""))
			tt.setup(req)
			rr := httptest.NewRecorder()
			protected.ServeHTTP(rr, req)

			assert.Equal(t, tt.wantStatus, rr.Code)
			if tt.wantStatus == http.StatusOK {
				require.NotNil(t, seen)
				assert.Equal(t, "1", seen.UserID)
			} else {
				assert.Nil(t, seen)
			}
		})
	}
}
