package trace

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cpitracker/internal/log"
)

type observed struct {
	route  string
	method string
	status int
}

func newRouter(t *testing.T, buf *bytes.Buffer, calls *[]observed) http.Handler {
	t.Helper()
	logger := log.New(log.Config{Level: slog.LevelDebug, Format: "json", Output: buf})
	mw := NewMiddleware(logger, func(*http.Request) string { return "203.0.113.7" },
		func(route, method string, status int, _ time.Duration) {
			*calls = append(*calls, observed{route, method, status})
		})

	r := chi.NewRouter()
	r.Use(mw.Middleware)
	r.Get("/country/{name}", func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, GetRequestID(r.Context()))
		log.FromContext(r.Context()).Info("handled")
		w.WriteHeader(http.StatusTeapot)
	})
	r.Get("/ok", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	return r
}

func TestMiddlewareAssignsRequestID(t *testing.T) {
	var buf bytes.Buffer
	var calls []observed
	h := newRouter(t, &buf, &calls)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ok", nil))

	id := rec.Header().Get(HeaderRequestID)
	_, err := uuid.Parse(id)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), id)
	assert.Contains(t, buf.String(), "HTTP request completed")
}

func TestMiddlewareKeepsValidIncomingID(t *testing.T) {
	var buf bytes.Buffer
	var calls []observed
	h := newRouter(t, &buf, &calls)

	incoming := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	req.Header.Set(HeaderRequestID, incoming)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, incoming, rec.Header().Get(HeaderRequestID))

	req = httptest.NewRequest(http.MethodGet, "/ok", nil)
	req.Header.Set(HeaderRequestID, "not-a-uuid\nspoofed")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.NotEqual(t, "not-a-uuid\nspoofed", rec.Header().Get(HeaderRequestID))
}

func TestMiddlewareObservesRoutePattern(t *testing.T) {
	var buf bytes.Buffer
	var calls []observed
	h := newRouter(t, &buf, &calls)

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/country/Brazil", nil))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ok", nil))

	require.Len(t, calls, 2)
	assert.Equal(t, observed{"/country/{name}", http.MethodGet, http.StatusTeapot}, calls[0])
	assert.Equal(t, observed{"/ok", http.MethodGet, http.StatusOK}, calls[1])
	assert.Contains(t, buf.String(), `"msg":"handled"`)
}

func TestRoutePatternWithoutRouter(t *testing.T) {
	assert.Equal(t, unmatchedRoute, RoutePattern(httptest.NewRequest(http.MethodGet, "/", nil)))
}
