package web

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestParseID(t *testing.T) {
	tests := []struct {
		name       string
		id         string
		wantID     int64
		wantOK     bool
		wantStatus int
	}{
		{name: "valid", id: "42", wantID: 42, wantOK: true, wantStatus: http.StatusOK},
		{name: "zero", id: "0", wantStatus: http.StatusBadRequest},
		{name: "negative", id: "-3", wantStatus: http.StatusBadRequest},
		{name: "not a number", id: "abc", wantStatus: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/items/"+tt.id, nil)
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("id", tt.id)
			r = r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
			w := httptest.NewRecorder()

			id, ok := ParseID(w, r, discard)

			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantID, id)
			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

type testItem struct {
	ProductID int64  `json:"productId" validate:"required,gte=1"`
	Quantity  *int32 `json:"quantity" validate:"required,gte=1"`
}

type testRequest struct {
	Name  *string    `json:"name" validate:"required,min=5"`
	Items []testItem `json:"items" validate:"required,min=1,unique=ProductID,dive"`
}

func ptr[T any](v T) *T { return &v }

func TestValidationErrors(t *testing.T) {
	v := NewValidator()
	tests := []struct {
		name       string
		req        testRequest
		wantStatus int
		wantFields []string
	}{
		{
			name:       "missing name is a bad request",
			req:        testRequest{Items: []testItem{{ProductID: 1, Quantity: ptr(int32(1))}}},
			wantStatus: http.StatusBadRequest,
			wantFields: []string{"name"},
		},
		{
			name:       "short name is unprocessable",
			req:        testRequest{Name: ptr("rice"), Items: []testItem{{ProductID: 1, Quantity: ptr(int32(1))}}},
			wantStatus: http.StatusUnprocessableEntity,
			wantFields: []string{"name"},
		},
		{
			name:       "zero quantity is unprocessable",
			req:        testRequest{Name: ptr("Martelo"), Items: []testItem{{ProductID: 1, Quantity: ptr(int32(0))}}},
			wantStatus: http.StatusUnprocessableEntity,
			wantFields: []string{"items[0].quantity"},
		},
		{
			name:       "missing quantity is a bad request",
			req:        testRequest{Name: ptr("Martelo"), Items: []testItem{{ProductID: 1}}},
			wantStatus: http.StatusBadRequest,
			wantFields: []string{"items[0].quantity"},
		},
		{
			name: "duplicate product ids are unprocessable",
			req: testRequest{Name: ptr("Martelo"), Items: []testItem{
				{ProductID: 1, Quantity: ptr(int32(1))},
				{ProductID: 1, Quantity: ptr(int32(2))},
			}},
			wantStatus: http.StatusUnprocessableEntity,
			wantFields: []string{"items"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Struct(tt.req)
			require.Error(t, err)

			status, fields := ValidationErrors(err)

			assert.Equal(t, tt.wantStatus, status)
			for _, f := range tt.wantFields {
				assert.Contains(t, fields, f)
			}
		})
	}
}

func TestRespondValidationError_Body(t *testing.T) {
	err := NewValidator().Struct(testRequest{Name: ptr("abc"), Items: []testItem{{ProductID: 1, Quantity: ptr(int32(1))}}})
	w := httptest.NewRecorder()

	RespondValidationError(w, discard, err)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	var body map[string]map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, `"name" length must be at least 5 characters long`, body["validation_errors"]["name"])
}

func TestDecodeJSON(t *testing.T) {
	var dst map[string]any

	w := httptest.NewRecorder()
	ok := DecodeJSON(w, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{bad")), discard, &dst)
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	ok = DecodeJSON(w, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"a":1}`)), discard, &dst)
	assert.True(t, ok)
	assert.Equal(t, float64(1), dst["a"])

	w = httptest.NewRecorder()
	big := `{"a":"` + strings.Repeat("x", MaxBodyBytes) + `"}`
	ok = DecodeJSON(w, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(big)), discard, &dst)
	assert.False(t, ok)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestRequestIDInjector(t *testing.T) {
	var seen string
	h := RequestIDInjector(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = middleware.GetReqID(r.Context())
	}))

	t.Run("generates an id", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.NotEmpty(t, seen)
		assert.Equal(t, seen, w.Header().Get(middleware.RequestIDHeader))
	})

	t.Run("keeps an incoming id", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set(middleware.RequestIDHeader, "incoming-id")
		h.ServeHTTP(httptest.NewRecorder(), r)
		assert.Equal(t, "incoming-id", seen)
	})
}

func TestRecoverer(t *testing.T) {
	h := Recoverer(discard)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	w := httptest.NewRecorder()

	require.NotPanics(t, func() { h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil)) })
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Internal server error"}`, w.Body.String())
}

func TestStructuredLogger(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		wantLevel string
	}{
		{name: "success", status: http.StatusCreated, wantLevel: "INFO"},
		{name: "client error", status: http.StatusNotFound, wantLevel: "WARN"},
		{name: "server error", status: http.StatusBadGateway, wantLevel: "ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// given
			var buf strings.Builder
			logger := slog.New(slog.NewJSONHandler(&buf, nil))
			h := StructuredLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
			}))

			// when
			h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/sales", nil))

			// then
			var entry map[string]any
			require.NoError(t, json.Unmarshal([]byte(buf.String()), &entry))
			assert.Equal(t, tt.wantLevel, entry["level"])
			assert.Equal(t, float64(tt.status), entry["status"])
			assert.Equal(t, "/api/v1/sales", entry["path"])
		})
	}
}
