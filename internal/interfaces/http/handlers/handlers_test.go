package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/turtacn/PatentCliff/internal/application/consolidation"
	"github.com/turtacn/PatentCliff/internal/application/reporting"
	"github.com/turtacn/PatentCliff/internal/domain/cliff"
	domainCons "github.com/turtacn/PatentCliff/internal/domain/consolidation"
	"github.com/turtacn/PatentCliff/internal/domain/family"
	"github.com/turtacn/PatentCliff/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/PatentCliff/internal/testutil"
	"github.com/turtacn/PatentCliff/pkg/errors"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type mockService struct{ mock.Mock }

func (m *mockService) Consolidate(ctx context.Context, req *consolidation.Request) (*domainCons.Output, error) {
	args := m.Called(ctx, req)
	out, _ := args.Get(0).(*domainCons.Output)
	return out, args.Error(1)
}

func (m *mockService) Cliff(ctx context.Context, req *consolidation.Request) (*cliff.Result, error) {
	args := m.Called(ctx, req)
	out, _ := args.Get(0).(*cliff.Result)
	return out, args.Error(1)
}

func (m *mockService) GetRun(ctx context.Context, id string) (*domainCons.Run, error) {
	args := m.Called(ctx, id)
	out, _ := args.Get(0).(*domainCons.Run)
	return out, args.Error(1)
}

func (m *mockService) ListRuns(ctx context.Context, limit int) ([]*domainCons.Run, error) {
	args := m.Called(ctx, limit)
	out, _ := args.Get(0).([]*domainCons.Run)
	return out, args.Error(1)
}

func (m *mockService) GetOutput(ctx context.Context, runID string) (*domainCons.Output, error) {
	args := m.Called(ctx, runID)
	out, _ := args.Get(0).(*domainCons.Output)
	return out, args.Error(1)
}

func (m *mockService) PurgeRuns(ctx context.Context, before time.Time) (int64, error) {
	args := m.Called(ctx, before)
	return args.Get(0).(int64), args.Error(1)
}

// ─────────────────────────────────────────────────────────────────────────────
// Consolidation endpoints against the real pipeline
// ─────────────────────────────────────────────────────────────────────────────

type PipelineHandlerSuite struct {
	suite.Suite
	router *gin.Engine
}

func (s *PipelineHandlerSuite) SetupTest() {
	svc := consolidation.NewService(consolidation.Config{
		Family:  family.DefaultOptions(),
		Cliff:   cliff.DefaultOptions(),
		Version: "test",
	}, consolidation.Deps{
		Clock: testutil.FixedClock,
		NewID: func() string { return "run-1" },
	})
	gen, err := reporting.NewGenerator(logging.NewNopLogger())
	s.Require().NoError(err)

	s.router = gin.New()
	NewConsolidationHandler(svc, gen, nil).RegisterRoutes(s.router.Group("/api/v1"))
}

func (s *PipelineHandlerSuite) post(path string, body any) *httptest.ResponseRecorder {
	data, err := json.Marshal(body)
	s.Require().NoError(err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *PipelineHandlerSuite) TestConsolidate_ReturnsWOTree() {
	w := s.post("/api/v1/consolidations", map[string]any{
		"query":   "semaglutide",
		"records": testutil.ScenarioRecords(),
	})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	s.Equal("run-1", w.Header().Get(RunIDHeader))

	var out domainCons.Output
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &out))
	s.Equal("semaglutide", out.Metadata.Query)
	s.True(out.Metadata.Complete)
	s.Require().Len(out.ConsolidatedPatents, 1)
	s.Equal("WO2013084138", out.ConsolidatedPatents[0].WONumber)
	s.Contains(out.ConsolidatedPatents[0].NationalPatents, "BR")
}

func (s *PipelineHandlerSuite) TestCliff_ReturnsTimeline() {
	w := s.post("/api/v1/cliff", map[string]any{"records": testutil.ScenarioRecords()})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	var res cliff.Result
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &res))
	s.True(res.Complete)
	s.Equal(1, res.Summary.TotalFamilies)
}

func (s *PipelineHandlerSuite) TestConsolidate_MissingRecords() {
	w := s.post("/api/v1/consolidations", map[string]any{"query": "x"})
	s.Equal(http.StatusBadRequest, w.Code)
	var resp ErrorResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Equal(string(errors.ErrCodeValidation), resp.Code)
	s.Contains(resp.Message, "Records")
}

func (s *PipelineHandlerSuite) TestConsolidate_OptionsOutOfRange() {
	w := s.post("/api/v1/consolidations", map[string]any{
		"records": testutil.ScenarioRecords(),
		"options": map[string]any{"max_years": 99},
	})
	s.Equal(http.StatusBadRequest, w.Code)
	s.Contains(w.Body.String(), "MaxYears failed max=50")
}

func (s *PipelineHandlerSuite) TestConsolidate_NotAnArray() {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/consolidations", strings.NewReader(`{"records": {"a": 1}}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	s.Equal(http.StatusBadRequest, w.Code)
	s.Contains(w.Body.String(), string(errors.ErrCodeBadRequest))
}

func (s *PipelineHandlerSuite) TestConsolidate_NullRecordIsInvalidInput() {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/consolidations", strings.NewReader(`{"records": [null]}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	s.Equal(http.StatusBadRequest, w.Code)
	s.Contains(w.Body.String(), string(errors.ErrCodeConsolidationInvalidInput))
}

func (s *PipelineHandlerSuite) TestRuns_DisabledHistory() {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/consolidations", nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	s.Equal(http.StatusServiceUnavailable, w.Code)
	s.Contains(w.Body.String(), "run history is disabled")
}

func TestPipelineHandlerSuite(t *testing.T) {
	suite.Run(t, new(PipelineHandlerSuite))
}

// ─────────────────────────────────────────────────────────────────────────────
// Run history endpoints against a mocked service
// ─────────────────────────────────────────────────────────────────────────────

func newMockRouter(svc consolidation.Service, gen reporting.Generator) *gin.Engine {
	r := gin.New()
	NewConsolidationHandler(svc, gen, nil).RegisterRoutes(r.Group("/api/v1"))
	return r
}

func get(r *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestGetRun(t *testing.T) {
	svc := new(mockService)
	svc.On("GetRun", mock.Anything, "run-1").Return(&domainCons.Run{ID: "run-1", Status: domainCons.RunComplete}, nil)
	svc.On("GetRun", mock.Anything, "nope").Return(nil, errors.New(errors.ErrCodeConsolidationRunNotFound, "run not found").WithDetail("nope"))
	r := newMockRouter(svc, nil)

	w := get(r, "/api/v1/consolidations/run-1")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"complete"`)

	w = get(r, "/api/v1/consolidations/nope")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"code":"CONS_003","message":"run not found: nope"}`, w.Body.String())
}

func TestListRuns_Limit(t *testing.T) {
	svc := new(mockService)
	svc.On("ListRuns", mock.Anything, consolidation.DefaultListLimit).Return([]*domainCons.Run{{ID: "a"}}, nil).Once()
	svc.On("ListRuns", mock.Anything, consolidation.MaxListLimit).Return([]*domainCons.Run{}, nil).Once()
	r := newMockRouter(svc, nil)

	w := get(r, "/api/v1/consolidations")
	require.Equal(t, http.StatusOK, w.Code)
	var resp ListRunsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, consolidation.DefaultListLimit, resp.Limit)
	assert.Len(t, resp.Runs, 1)

	w = get(r, "/api/v1/consolidations?limit=1000")
	require.Equal(t, http.StatusOK, w.Code)

	w = get(r, "/api/v1/consolidations?limit=abc")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	svc.AssertExpectations(t)
}

func TestReport_RendersArchivedOutput(t *testing.T) {
	out := &domainCons.Output{Metadata: domainCons.Metadata{RunID: "run-1", Query: "semaglutide", Complete: true}}
	svc := new(mockService)
	svc.On("GetOutput", mock.Anything, "run-1").Return(out, nil)
	gen, err := reporting.NewGenerator(nil)
	require.NoError(t, err)
	r := newMockRouter(svc, gen)

	w := get(r, "/api/v1/consolidations/run-1/report?format=html")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, reporting.FormatHTML.ContentType(), w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), "<html")

	w = get(r, "/api/v1/consolidations/run-1/report")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, reporting.FormatMarkdown.ContentType(), w.Header().Get("Content-Type"))

	w = get(r, "/api/v1/consolidations/run-1/report?format=pdf")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), string(errors.ErrCodeReportFormatUnsupported))
}

func TestReport_Disabled(t *testing.T) {
	w := get(newMockRouter(new(mockService), nil), "/api/v1/consolidations/run-1/report")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestWriteAppError_MasksServerErrors(t *testing.T) {
	svc := new(mockService)
	svc.On("GetRun", mock.Anything, "db").Return(nil, errors.Wrap(fmt.Errorf("dial tcp: refused"), errors.ErrCodeDatabaseError, "query failed"))
	svc.On("GetRun", mock.Anything, "plain").Return(nil, fmt.Errorf("boom"))
	r := newMockRouter(svc, nil)

	w := get(r, "/api/v1/consolidations/db")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "refused")
	assert.Contains(t, w.Body.String(), string(errors.ErrCodeDatabaseError))

	w = get(r, "/api/v1/consolidations/plain")
	assert.JSONEq(t, `{"code":"COMMON_001","message":"internal server error"}`, w.Body.String())
}

// ─────────────────────────────────────────────────────────────────────────────
// Health
// ─────────────────────────────────────────────────────────────────────────────

func TestHealthHandler(t *testing.T) {
	ok := CheckFunc{Component: "redis", Fn: func(context.Context) error { return nil }}
	bad := CheckFunc{Component: "postgres", Fn: func(context.Context) error { return fmt.Errorf("connection refused") }}

	r := gin.New()
	NewHealthHandler("1.0.0", ok).RegisterRoutes(r)
	w := get(r, "/healthz")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"version":"1.0.0"`)

	w = get(r, "/readyz")
	require.Equal(t, http.StatusOK, w.Code)
	var ready ReadinessResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ready))
	assert.Equal(t, "ready", ready.Status)
	assert.Equal(t, "healthy", ready.Components["redis"].Status)

	r = gin.New()
	NewHealthHandler("1.0.0", ok, bad).RegisterRoutes(r)
	w = get(r, "/readyz")
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ready))
	assert.Equal(t, "not_ready", ready.Status)
	assert.Equal(t, "connection refused", ready.Components["postgres"].Error)
}

func TestHealthHandler_NoCheckers(t *testing.T) {
	r := gin.New()
	NewHealthHandler("dev").RegisterRoutes(r)
	w := get(r, "/readyz")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ready"}`, w.Body.String())
}

//Personal.AI order the ending
