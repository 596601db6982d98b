package categoryhandlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	categoryservice "github.com/tnt-tag-history/tnt-history/app/modules/category/application"
	categorydb "github.com/tnt-tag-history/tnt-history/app/modules/category/infrastructure/repositories"
	"github.com/uptrace/bun"
)

type listRepo struct {
	lists int
	categorydb.Repository
}

func (l *listRepo) List(ctx context.Context, db bun.IDB) ([]*categorydb.Category, error) {
	l.lists++
	return []*categorydb.Category{{Name: "tournament", Label: "Tournament"}}, nil
}

type fakeService struct {
	repo      *listRepo
	upserted  *categorydb.Category
	upsertErr error
	deleteErr error
}

func (f *fakeService) NewCache() *categoryservice.Cache {
	return categoryservice.NewCache(f.repo, nil)
}

func (f *fakeService) Upsert(ctx context.Context, category *categorydb.Category) error {
	f.upserted = category
	return f.upsertErr
}

func (f *fakeService) Delete(ctx context.Context, name string) error {
	return f.deleteErr
}

func newRouter(svc *fakeService) http.Handler {
	h := NewCategoryHandlers(svc, slog.New(slog.NewTextHandler(io.Discard, nil)))
	r := chi.NewRouter()
	r.Use(h.CacheMiddleware)
	h.Routes(r)
	h.AdminRoutes(r)
	return r
}

func TestHandleList(t *testing.T) {
	svc := &fakeService{repo: &listRepo{}}
	rec := httptest.NewRecorder()
	newRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/categories", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var got []categorydb.Category
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "tournament", got[0].Name)
	assert.Equal(t, 1, svc.repo.lists)
}

func TestHandleUpsert(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{name: "saved", wantStatus: http.StatusOK},
		{name: "invalid", err: categoryservice.ErrInvalidColor, wantStatus: http.StatusBadRequest},
		{name: "db error", err: errors.New("db down"), wantStatus: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeService{repo: &listRepo{}, upsertErr: tt.err}
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPut, "/api/admin/categories/record", strings.NewReader(`{"label":"Record","color":"#c0392b","sortOrder":4}`))
			newRouter(svc).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			require.NotNil(t, svc.upserted)
			assert.Equal(t, "record", svc.upserted.Name)
			assert.Equal(t, 4, svc.upserted.SortOrder)
		})
	}
}

func TestHandleDelete(t *testing.T) {
	rec := httptest.NewRecorder()
	newRouter(&fakeService{repo: &listRepo{}}).ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/admin/categories/record", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	newRouter(&fakeService{repo: &listRepo{}, deleteErr: categoryservice.ErrCategoryMissing}).
		ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/admin/categories/record", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
