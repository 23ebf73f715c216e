package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/chemtemplates/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/chemtemplates/internal/testutil"
)

func statusHandler(code int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(code)
		_, _ = w.Write([]byte("{}"))
	})
}

func TestRequestLogging_Levels(t *testing.T) {
	tests := []struct {
		code  int
		level string
		msg   string
	}{
		{http.StatusOK, "info", "HTTP request completed"},
		{http.StatusNotFound, "warn", "HTTP request completed with client error"},
		{http.StatusBadGateway, "error", "HTTP request completed with server error"},
	}
	for _, tt := range tests {
		log := testutil.NewMockLogger()
		h := RequestLogging(log, DefaultLoggingConfig())(statusHandler(tt.code))

		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/templates?limit=5", nil))

		require.True(t, log.HasMessage(tt.level, tt.msg), "status %d", tt.code)
		entry := log.MessagesAt(tt.level)[0]
		path, _ := entry.Field("path")
		assert.Equal(t, "/api/v1/templates?limit=5", path)
		status, _ := entry.Field("status")
		assert.Equal(t, tt.code, status)
	}
}

func TestRequestLogging_SlowAndSkipped(t *testing.T) {
	log := testutil.NewMockLogger()
	slow := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(5 * time.Millisecond)
	})
	h := RequestLogging(log, LoggingConfig{SkipPaths: []string{"/healthz"}, SlowThreshold: time.Millisecond})(slow)

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Empty(t, log.GetMessages())

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/filters/descriptions", nil))
	assert.True(t, log.HasMessage("warn", "HTTP request completed (slow)"))
}

func TestRequestID_PropagatesToLogs(t *testing.T) {
	log := testutil.NewMockLogger()
	var h http.Handler = RequestLogging(log, DefaultLoggingConfig())(statusHandler(http.StatusOK))
	h = RequestID(h)
	h = chimw.RequestID(h)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/v1/templates/base", nil)
	r.Header.Set(chimw.RequestIDHeader, "req-42")
	h.ServeHTTP(w, r)

	assert.Equal(t, "req-42", w.Header().Get(chimw.RequestIDHeader))
	id, ok := log.GetMessages()[0].Field("request_id")
	require.True(t, ok)
	assert.Equal(t, "req-42", id)
}

func TestMetrics_LabelsByRoutePattern(t *testing.T) {
	collector, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{Namespace: "test"}, nil)
	require.NoError(t, err)
	metrics := prometheus.NewAppMetrics(collector)

	r := chi.NewRouter()
	r.Use(Metrics(metrics))
	r.Get("/api/v1/templates/{id}", statusHandler(http.StatusOK).ServeHTTP)

	for _, id := range []string{"a", "b"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/templates/"+id, nil))
	}

	w := httptest.NewRecorder()
	collector.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := w.Body.String()
	assert.Contains(t, body, `path="/api/v1/templates/{id}"`)
	assert.NotContains(t, body, `path="/api/v1/templates/a"`)
}

func TestMetrics_NilIsPassThrough(t *testing.T) {
	w := httptest.NewRecorder()
	Metrics(nil)(statusHandler(http.StatusTeapot)).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTeapot, w.Code)
}

//Personal.AI order the ending
