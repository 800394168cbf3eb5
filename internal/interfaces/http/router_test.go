package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/turtacn/PatentCliff/internal/application/consolidation"
	"github.com/turtacn/PatentCliff/internal/application/reporting"
	"github.com/turtacn/PatentCliff/internal/config"
	"github.com/turtacn/PatentCliff/internal/domain/cliff"
	"github.com/turtacn/PatentCliff/internal/domain/family"
	"github.com/turtacn/PatentCliff/internal/infrastructure/monitoring/logging"
	prom "github.com/turtacn/PatentCliff/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/PatentCliff/internal/interfaces/http/handlers"
	"github.com/turtacn/PatentCliff/internal/interfaces/http/middleware"
	"github.com/turtacn/PatentCliff/internal/testutil"
)

type RouterTestSuite struct {
	suite.Suite
	router    *gin.Engine
	collector prom.MetricsCollector
}

func (s *RouterTestSuite) SetupTest() {
	collector, err := prom.NewMetricsCollector(prom.CollectorConfig{Namespace: "patentcliff"}, nil)
	s.Require().NoError(err)
	s.collector = collector
	metrics := prom.NewConsolidationMetrics(collector)

	svc := consolidation.NewService(consolidation.Config{
		Family: family.DefaultOptions(),
		Cliff:  cliff.DefaultOptions(),
	}, consolidation.Deps{Metrics: metrics, Clock: testutil.FixedClock})
	gen, err := reporting.NewGenerator(nil)
	s.Require().NoError(err)

	srv := config.Default().Server
	srv.Mode = gin.TestMode
	srv.RateLimit = 1
	srv.RateBurst = 3
	srv.MaxBodySize = 64 << 10

	s.router = NewRouter(RouterConfig{
		Server:               srv,
		ConsolidationHandler: handlers.NewConsolidationHandler(svc, gen, nil),
		HealthHandler:        handlers.NewHealthHandler("test"),
		Logger:               logging.NewNopLogger(),
		Metrics:              metrics,
		MetricsHandler:       collector.Handler(),
	})
}

func (s *RouterTestSuite) do(method, path string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *RouterTestSuite) TestProbesAndMetrics() {
	s.Equal(http.StatusOK, s.do(http.MethodGet, "/healthz", nil).Code)
	s.Equal(http.StatusOK, s.do(http.MethodGet, "/readyz", nil).Code)

	body, _ := json.Marshal(map[string]any{"records": testutil.ScenarioRecords()})
	s.Require().Equal(http.StatusOK, s.do(http.MethodPost, "/api/v1/consolidations", body).Code)

	w := s.do(http.MethodGet, "/metrics", nil)
	s.Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), "patentcliff_runs_total")
	s.Contains(w.Body.String(), `path="/api/v1/consolidations"`)
}

func (s *RouterTestSuite) TestRequestIDHeader() {
	w := s.do(http.MethodGet, "/healthz", nil)
	s.NotEmpty(w.Header().Get(middleware.RequestIDHeader))
}

func (s *RouterTestSuite) TestUnknownRoute() {
	w := s.do(http.MethodGet, "/api/v2/nothing", nil)
	s.Equal(http.StatusNotFound, w.Code)
	s.Contains(w.Body.String(), "route not found")
}

func (s *RouterTestSuite) TestWrongMethod() {
	w := s.do(http.MethodDelete, "/api/v1/cliff", nil)
	s.Equal(http.StatusMethodNotAllowed, w.Code)
}

func (s *RouterTestSuite) TestRateLimitAppliesToAPIOnly() {
	body, _ := json.Marshal(map[string]any{"records": []any{}})
	codes := make([]int, 0, 5)
	for i := 0; i < 5; i++ {
		codes = append(codes, s.do(http.MethodPost, "/api/v1/cliff", body).Code)
	}
	s.Contains(codes, http.StatusTooManyRequests)
	s.Equal(http.StatusOK, codes[0])

	for i := 0; i < 5; i++ {
		s.Equal(http.StatusOK, s.do(http.MethodGet, "/healthz", nil).Code)
	}
}

func (s *RouterTestSuite) TestBodyLimit() {
	big := bytes.Repeat([]byte(" "), 70<<10)
	body := append([]byte(`{"records":[]`), big...)
	body = append(body, '}')
	w := s.do(http.MethodPost, "/api/v1/consolidations", body)
	s.Equal(http.StatusRequestEntityTooLarge, w.Code)
}

func TestRouterTestSuite(t *testing.T) {
	suite.Run(t, new(RouterTestSuite))
}

func TestServer_ServeAndStop(t *testing.T) {
	r := NewRouter(RouterConfig{
		Server:        config.ServerConfig{Mode: gin.TestMode},
		HealthHandler: handlers.NewHealthHandler("test"),
	})
	srv := NewServer(config.ServerConfig{Host: "127.0.0.1", Port: 0, ShutdownTimeout: time.Second}, r, nil)
	assert.Equal(t, "127.0.0.1:0", srv.Addr())

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	done := make(chan error, 1)
	go func() { done <- srv.Serve(l) }()

	resp, err := http.Get("http://" + l.Addr().String() + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, srv.Stop(context.Background()))
	assert.NoError(t, <-done)
}

//Personal.AI order the ending
