package eventhandlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	eventservice "github.com/tnt-tag-history/tnt-history/app/modules/event/application"
	eventdb "github.com/tnt-tag-history/tnt-history/app/modules/event/infrastructure/repositories"
	"github.com/tnt-tag-history/tnt-history/pkg/results"
	"go.opentelemetry.io/otel/trace/noop"
)

type fakeService struct {
	lastFilter eventdb.ListFilter
	lastInput  eventservice.EventInput
	lastTitle  string

	getResult    results.OperationResult[*eventdb.Event, error]
	createResult results.OperationResult[*eventdb.Event, error]
	createErr    error
	deleteResult results.OperationResult[*eventservice.DeleteOutcome, error]
}

func (f *fakeService) ListEvents(ctx context.Context, filter eventdb.ListFilter) (results.OperationResult[[]*eventdb.Event, error], error) {
	f.lastFilter = filter
	return results.SuccessResult[[]*eventdb.Event, error]([]*eventdb.Event{{ID: "e1"}}), nil
}

func (f *fakeService) GetEvent(ctx context.Context, id string) (results.OperationResult[*eventdb.Event, error], error) {
	return f.getResult, nil
}

func (f *fakeService) CreateEvent(ctx context.Context, input eventservice.EventInput) (results.OperationResult[*eventdb.Event, error], error) {
	f.lastInput = input
	return f.createResult, f.createErr
}

func (f *fakeService) UpdateEvent(ctx context.Context, id string, input eventservice.EventInput) (results.OperationResult[*eventdb.Event, error], error) {
	f.lastInput = input
	return results.SuccessResult[*eventdb.Event, error](&eventdb.Event{ID: id, Title: input.Title}), nil
}

func (f *fakeService) DeleteEvent(ctx context.Context, id string) (results.OperationResult[*eventservice.DeleteOutcome, error], error) {
	return f.deleteResult, nil
}

func (f *fakeService) ListTags(ctx context.Context) (results.OperationResult[[]string, error], error) {
	return results.SuccessResult[[]string, error]([]string{"bow"}), nil
}

func (f *fakeService) ImportTable(ctx context.Context, title string, r io.Reader) (results.OperationResult[eventdb.Table, error], error) {
	f.lastTitle = title
	body, _ := io.ReadAll(r)
	return results.SuccessResult[eventdb.Table, error](eventdb.Table{Title: title, Headers: []string{string(body)}}), nil
}

type fakeCategories map[string]bool

func (f fakeCategories) Exists(ctx context.Context, name string) (bool, error) {
	if name == "broken" {
		return false, errors.New("db down")
	}
	return f[name], nil
}

func newRouter(svc eventservice.Service, categories CategoryChecker) http.Handler {
	h := NewEventHandlers(svc, categories, slog.New(slog.NewTextHandler(io.Discard, nil)), noop.NewTracerProvider().Tracer("test"))
	r := chi.NewRouter()
	h.Routes(r)
	h.AdminRoutes(r)
	return r
}

func TestHandleList(t *testing.T) {
	svc := &fakeService{}
	rec := httptest.NewRecorder()
	newRouter(svc, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/events?category=tournament&tag=bow&special=true&q=final", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, eventdb.ListFilter{Category: "tournament", Tag: "bow", SpecialOnly: true, Search: "final"}, svc.lastFilter)

	var events []eventdb.Event
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &events))
	assert.Len(t, events, 1)
}

func TestHandleGet(t *testing.T) {
	tests := []struct {
		name       string
		result     results.OperationResult[*eventdb.Event, error]
		wantStatus int
	}{
		{name: "found", result: results.SuccessResult[*eventdb.Event, error](&eventdb.Event{ID: "e1"}), wantStatus: http.StatusOK},
		{name: "not found", result: results.FailureResult[*eventdb.Event, error](eventservice.ErrEventNotFound), wantStatus: http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			newRouter(&fakeService{getResult: tt.result}, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/events/e1", nil))
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestHandleCreate(t *testing.T) {
	created := results.SuccessResult[*eventdb.Event, error](&eventdb.Event{ID: "new"})

	tests := []struct {
		name       string
		body       string
		svc        *fakeService
		wantStatus int
	}{
		{
			name:       "created",
			body:       `{"title":"t","date":"2019-01-01","category":"tournament"}`,
			svc:        &fakeService{createResult: created},
			wantStatus: http.StatusCreated,
		},
		{
			name:       "unknown category rejected before the service",
			body:       `{"title":"t","date":"2019-01-01","category":"made-up"}`,
			svc:        &fakeService{createResult: created},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "category lookup error",
			body:       `{"title":"t","date":"2019-01-01","category":"broken"}`,
			svc:        &fakeService{createResult: created},
			wantStatus: http.StatusInternalServerError,
		},
		{
			name:       "unknown field",
			body:       `{"title":"t","colour":"red"}`,
			svc:        &fakeService{createResult: created},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "validation failure",
			body:       `{"title":"","date":"2019-01-01","category":"tournament"}`,
			svc:        &fakeService{createResult: results.FailureResult[*eventdb.Event, error](eventservice.ErrInvalidTitle)},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "infrastructure error",
			body:       `{"title":"t","date":"2019-01-01","category":"tournament"}`,
			svc:        &fakeService{createErr: errors.New("db down")},
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/admin/events", strings.NewReader(tt.body))
			newRouter(tt.svc, fakeCategories{"tournament": true}).ServeHTTP(rec, req)
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestHandleDeleteMissingIsOK(t *testing.T) {
	svc := &fakeService{deleteResult: results.SuccessResult[*eventservice.DeleteOutcome, error](&eventservice.DeleteOutcome{EventID: "gone"})}
	rec := httptest.NewRecorder()
	newRouter(svc, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/admin/events/gone", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"eventId":"gone","deleted":false}`, rec.Body.String())
}

func TestHandleImportTable(t *testing.T) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("title", "Finals"))
	part, err := mw.CreateFormFile("file", "finals.xlsx")
	require.NoError(t, err)
	_, err = part.Write([]byte("xlsx-bytes"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	svc := &fakeService{}
	req := httptest.NewRequest(http.MethodPost, "/api/admin/events/tables/import", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	newRouter(svc, nil).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Finals", svc.lastTitle)
	assert.Contains(t, rec.Body.String(), "xlsx-bytes")

	rec = httptest.NewRecorder()
	newRouter(svc, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/admin/events/tables/import", strings.NewReader("nope")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
