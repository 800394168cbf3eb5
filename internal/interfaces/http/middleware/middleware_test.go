package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/turtacn/PatentCliff/internal/infrastructure/monitoring/logging"
	prom "github.com/turtacn/PatentCliff/internal/infrastructure/monitoring/prometheus"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(r *gin.Engine, method, path string, body io.Reader, hdr map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequestID_GeneratesAndPropagates(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	var fromCtx string
	r.GET("/x", func(c *gin.Context) {
		fromCtx = logging.RequestIDFrom(c.Request.Context())
		c.String(http.StatusOK, GetRequestID(c))
	})

	w := serve(r, http.MethodGet, "/x", nil, nil)
	id := w.Header().Get(RequestIDHeader)
	require.NotEmpty(t, id)
	assert.Equal(t, id, w.Body.String())
	assert.Equal(t, id, fromCtx)

	w = serve(r, http.MethodGet, "/x", nil, map[string]string{RequestIDHeader: "abc-123"})
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
}

func TestRateLimiter_RejectsOverBurst(t *testing.T) {
	rl := NewRateLimiter(RateLimitConfig{RequestsPerSecond: 1, Burst: 2, SkipPaths: []string{"/healthz"}})
	frozen := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return frozen }

	r := gin.New()
	r.Use(rl.Middleware())
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusNoContent, serve(r, http.MethodGet, "/x", nil, nil).Code)
	w := serve(r, http.MethodGet, "/x", nil, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))

	w = serve(r, http.MethodGet, "/x", nil, nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))
	assert.Contains(t, w.Body.String(), "COMMON_007")

	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/healthz", nil, nil).Code)
	assert.Equal(t, 1, rl.Visitors())
}

func TestRateLimiter_EvictsIdleVisitors(t *testing.T) {
	rl := NewRateLimiter(RateLimitConfig{RequestsPerSecond: 5, IdleTTL: time.Minute})
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	rl.visitor("10.0.0.1")
	rl.visitor("10.0.0.2")
	assert.Equal(t, 2, rl.Visitors())

	now = now.Add(2 * time.Minute)
	rl.visitor("10.0.0.3")
	assert.Equal(t, 1, rl.Visitors())
}

func TestRateLimiter_DisabledPassesThrough(t *testing.T) {
	r := gin.New()
	r.Use(NewRateLimiter(RateLimitConfig{}).Middleware())
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })
	for i := 0; i < 5; i++ {
		w := serve(r, http.MethodGet, "/x", nil, nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Header().Get("X-RateLimit-Limit"))
	}
}

func TestRecovery_ReturnsStandardBody(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	r := gin.New()
	r.Use(Recovery(logging.NewLoggerFromCore(core)))
	r.GET("/boom", func(c *gin.Context) { panic("kaboom") })

	w := serve(r, http.MethodGet, "/boom", nil, nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"code":"COMMON_001","message":"internal server error"}`, w.Body.String())
	require.Equal(t, 1, logs.FilterMessage("panic in HTTP handler").Len())
}

func TestBodyLimit_RejectsLargeBody(t *testing.T) {
	r := gin.New()
	r.Use(BodyLimit(8))
	r.POST("/x", func(c *gin.Context) {
		if _, err := io.ReadAll(c.Request.Body); err != nil {
			c.Status(http.StatusRequestEntityTooLarge)
			return
		}
		c.Status(http.StatusOK)
	})

	assert.Equal(t, http.StatusOK, serve(r, http.MethodPost, "/x", strings.NewReader("small"), nil).Code)
	assert.Equal(t, http.StatusRequestEntityTooLarge, serve(r, http.MethodPost, "/x", strings.NewReader("much too large"), nil).Code)
}

func TestTimeout_SetsDeadline(t *testing.T) {
	r := gin.New()
	r.Use(Timeout(time.Minute))
	r.GET("/x", func(c *gin.Context) {
		_, ok := c.Request.Context().Deadline()
		assert.True(t, ok)
		c.Status(http.StatusOK)
	})
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/x", nil, nil).Code)
}

func TestRequestLogging_LevelByStatus(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	r := gin.New()
	r.Use(RequestID(), RequestLogging(logging.NewLoggerFromCore(core), DefaultLoggingConfig()))
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/bad", func(c *gin.Context) { c.Status(http.StatusBadRequest) })
	r.GET("/fail", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })
	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })

	serve(r, http.MethodGet, "/ok", nil, nil)
	serve(r, http.MethodGet, "/bad", nil, nil)
	serve(r, http.MethodGet, "/fail", nil, nil)
	serve(r, http.MethodGet, "/healthz", nil, nil)

	entries := logs.All()
	require.Len(t, entries, 3)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, zapcore.ErrorLevel, entries[2].Level)
	assert.NotEmpty(t, entries[0].ContextMap()["request_id"])
}

func TestCORS_AllowsConfiguredOrigin(t *testing.T) {
	r := gin.New()
	r.Use(CORS([]string{"https://app.example.com"}))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := serve(r, http.MethodGet, "/x", nil, map[string]string{"Origin": "https://app.example.com"})
	assert.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))

	w = serve(r, http.MethodGet, "/x", nil, map[string]string{"Origin": "https://evil.example.com"})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestMetrics_RecordsByRoute(t *testing.T) {
	collector, err := prom.NewMetricsCollector(prom.CollectorConfig{Namespace: "test"}, logging.NewNopLogger())
	require.NoError(t, err)
	m := prom.NewConsolidationMetrics(collector)

	r := gin.New()
	r.Use(Metrics(m))
	r.GET("/runs/:id", func(c *gin.Context) { c.Status(http.StatusOK) })
	serve(r, http.MethodGet, "/runs/abc", nil, nil)
	serve(r, http.MethodGet, "/runs/def", nil, nil)

	families, err := collector.Registry().Gather()
	require.NoError(t, err)
	var found bool
	for _, f := range families {
		if f.GetName() == "test_http_requests_total" {
			require.Len(t, f.GetMetric(), 1)
			assert.Equal(t, 2.0, f.GetMetric()[0].GetCounter().GetValue())
			found = true
		}
	}
	assert.True(t, found)
}

//Personal.AI order the ending
