package consolidation

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/turtacn/PatentCliff/internal/domain/cliff"
	domainCons "github.com/turtacn/PatentCliff/internal/domain/consolidation"
	"github.com/turtacn/PatentCliff/internal/domain/family"
	redisclient "github.com/turtacn/PatentCliff/internal/infrastructure/database/redis"
	"github.com/turtacn/PatentCliff/internal/infrastructure/monitoring/logging"
	prom "github.com/turtacn/PatentCliff/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/PatentCliff/internal/testutil"
	"github.com/turtacn/PatentCliff/pkg/errors"
)

// ─────────────────────────────────────────────────────────────────────────────
// Mocks
// ─────────────────────────────────────────────────────────────────────────────

type mockRuns struct{ mock.Mock }

func (m *mockRuns) Save(ctx context.Context, run *domainCons.Run) error {
	return m.Called(ctx, run).Error(0)
}

func (m *mockRuns) Get(ctx context.Context, id string) (*domainCons.Run, error) {
	args := m.Called(ctx, id)
	r, _ := args.Get(0).(*domainCons.Run)
	return r, args.Error(1)
}

func (m *mockRuns) List(ctx context.Context, limit int) ([]*domainCons.Run, error) {
	args := m.Called(ctx, limit)
	r, _ := args.Get(0).([]*domainCons.Run)
	return r, args.Error(1)
}

func (m *mockRuns) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

type mockArchive struct{ mock.Mock }

func (m *mockArchive) PutInput(ctx context.Context, runID string, data []byte) (string, error) {
	args := m.Called(ctx, runID, data)
	return args.String(0), args.Error(1)
}

func (m *mockArchive) PutOutput(ctx context.Context, runID string, data []byte) (string, error) {
	args := m.Called(ctx, runID, data)
	return args.String(0), args.Error(1)
}

func (m *mockArchive) Get(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	b, _ := args.Get(0).([]byte)
	return b, args.Error(1)
}

type mockGraph struct{ mock.Mock }

func (m *mockGraph) SaveFamilies(ctx context.Context, runID string, families []*family.Family) error {
	return m.Called(ctx, runID, families).Error(0)
}

func (m *mockGraph) FamiliesForPatent(ctx context.Context, pn string) ([]family.Summary, error) {
	args := m.Called(ctx, pn)
	r, _ := args.Get(0).([]family.Summary)
	return r, args.Error(1)
}

type mockIndexer struct{ mock.Mock }

func (m *mockIndexer) IndexEntries(ctx context.Context, runID string, entries []domainCons.WOEntry) error {
	return m.Called(ctx, runID, entries).Error(0)
}

type mockPublisher struct{ mock.Mock }

func (m *mockPublisher) PublishCompleted(ctx context.Context, event domainCons.CompletedEvent) error {
	return m.Called(ctx, event).Error(0)
}

// memoryCache is a map-backed ResultCache; err, when set, is returned
// without computing.
type memoryCache struct {
	mu    sync.Mutex
	items map[string]*domainCons.Output
	err   error
}

func (c *memoryCache) GetOrCompute(ctx context.Context, key string, compute func(context.Context) (*domainCons.Output, error)) (*domainCons.Output, bool, error) {
	if c.err != nil {
		return nil, false, c.err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if out, ok := c.items[key]; ok {
		return out, true, nil
	}
	out, err := compute(ctx)
	if err != nil {
		return nil, false, err
	}
	if out.Metadata.Complete {
		c.items[key] = out
	}
	return out, false, nil
}

// sequentialIDs returns run-1, run-2, ...
func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("run-%d", n)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Suite
// ─────────────────────────────────────────────────────────────────────────────

type ServiceTestSuite struct {
	suite.Suite
	ctx       context.Context
	logger    *testutil.MockLogger
	collector prom.MetricsCollector
	metrics   *prom.ConsolidationMetrics
	svc       Service
}

func (s *ServiceTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.logger = testutil.NewMockLogger()
	c, err := prom.NewMetricsCollector(prom.CollectorConfig{Namespace: "pc"}, nil)
	s.Require().NoError(err)
	s.collector = c
	s.metrics = prom.NewConsolidationMetrics(c)
	s.svc = s.newService(Config{Version: "test"}, Deps{})
}

func (s *ServiceTestSuite) newService(cfg Config, deps Deps) Service {
	deps.Logger = s.logger
	deps.Metrics = s.metrics
	if deps.Clock == nil {
		deps.Clock = testutil.FixedClock
	}
	if deps.NewID == nil {
		deps.NewID = sequentialIDs()
	}
	return NewService(cfg, deps)
}

func (s *ServiceTestSuite) scrape() string {
	w := httptest.NewRecorder()
	s.collector.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	return w.Body.String()
}

func TestServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ServiceTestSuite))
}

func (s *ServiceTestSuite) TestConsolidate_Scenario() {
	out, err := s.svc.Consolidate(s.ctx, &Request{Query: "semaglutide", Records: testutil.ScenarioRecords()})
	s.Require().NoError(err)

	s.Equal("run-1", out.Metadata.RunID)
	s.Equal("semaglutide", out.Metadata.Query)
	s.Equal("test", out.Metadata.Version)
	s.Equal(2, out.Metadata.RecordsReceived)
	s.Zero(out.Metadata.RecordsRejected)
	s.True(out.Metadata.Complete)

	s.Require().Len(out.ConsolidatedPatents, 1)
	e := out.ConsolidatedPatents[0]
	s.Equal("WO2013084138", e.WONumber)
	s.Require().Len(e.NationalPatents["BR"], 1)
	s.Equal("2033-01-10", e.NationalPatents["BR"][0].Dates.ExpirationDate)
	s.Empty(out.WOPatentsWithoutNationals)
	s.Empty(out.PatentsWithoutWO)

	s.Require().NotNil(out.Cliff)
	s.Equal("2033-01-10", out.Cliff.Summary.EarliestExpiration)
	s.Equal(1, out.Cliff.Summary.TotalFamilies)
	s.Equal(cliff.RiskLow, out.PatentCliffSummary.RiskLevel)

	msg, ok := s.logger.Find("info", "consolidation finished")
	s.Require().True(ok)
	runID, _ := msg.Field(logging.FieldRunID)
	s.Equal("run-1", runID)
	component, _ := msg.Field(logging.FieldComponent)
	s.Equal("consolidation", component)

	metrics := s.scrape()
	s.Contains(metrics, `pc_runs_total{status="complete"} 1`)
	s.Contains(metrics, `pc_records_ingested_total{source="EPO"} 1`)
	s.Contains(metrics, `pc_records_ingested_total{source="INPI"} 1`)
	s.Contains(metrics, "pc_families_total 1")
}

func (s *ServiceTestSuite) TestConsolidate_MixedSourcesAndRejection() {
	out, err := s.svc.Consolidate(s.ctx, &Request{Records: testutil.MixedRecords()})
	s.Require().NoError(err)

	s.Equal(5, out.Metadata.RecordsReceived)
	s.Equal(1, out.Metadata.RecordsRejected)
	s.Require().Len(out.Rejected, 1)
	s.Equal(4, out.Rejected[0].Index)
	s.Equal("Google Patents", out.Rejected[0].Source)

	s.Require().Len(out.ConsolidatedPatents, 1)
	br := out.ConsolidatedPatents[0].NationalPatents["BR"]
	s.Require().Len(br, 1)
	s.Equal([]string{"INPI", "Google Patents"}, br[0].Sources)
	s.Equal([]string{"Acme Pharma"}, br[0].Bibliographic.Assignees)
	s.Equal("Dannemann Siemsen", br[0].Exclusive.Attorney)

	s.Require().Len(out.PatentsWithoutWO, 1)
	s.Equal("US", out.PatentsWithoutWO[0].Jurisdiction)

	msg, ok := s.logger.Find("warn", "records rejected")
	s.Require().True(ok)
	count, _ := msg.Field("count")
	s.Equal(1, count)
	s.Contains(s.scrape(), `pc_records_rejected_total{source="Google Patents"} 1`)
}

func (s *ServiceTestSuite) TestConsolidate_Validation() {
	cases := []struct {
		name string
		req  *Request
		code errors.ErrorCode
	}{
		{"nil request", nil, errors.ErrCodeConsolidationInvalidInput},
		{"missing records", &Request{Query: "q"}, errors.ErrCodeConsolidationInvalidInput},
		{"null element", &Request{Records: []map[string]any{{"publication_number": "US1"}, nil}}, errors.ErrCodeConsolidationInvalidInput},
		{"empty precedence entry", &Request{Records: []map[string]any{}, Options: &RequestOptions{Precedence: []string{"EPO", ""}}}, errors.ErrCodeConsolidationOptions},
	}
	for _, tc := range cases {
		_, err := s.svc.Consolidate(s.ctx, tc.req)
		s.Require().Error(err, tc.name)
		s.True(errors.IsCode(err, tc.code), tc.name)
	}
}

func (s *ServiceTestSuite) TestConsolidate_EmptyBatch() {
	out, err := s.svc.Consolidate(s.ctx, &Request{Records: []map[string]any{}})
	s.Require().NoError(err)
	s.Empty(out.ConsolidatedPatents)
	s.True(out.Metadata.Complete)
	s.Nil(out.PatentCliffSummary.YearsUntilCliff)
}

func (s *ServiceTestSuite) TestConsolidate_MaxRecords() {
	svc := s.newService(Config{MaxRecords: 1}, Deps{})
	_, err := svc.Consolidate(s.ctx, &Request{Records: testutil.ScenarioRecords()})
	s.True(errors.IsCode(err, errors.ErrCodeConsolidationInvalidInput))
}

func (s *ServiceTestSuite) TestConsolidate_BudgetExhausted() {
	t := testutil.FixedNow
	var mu sync.Mutex
	stepping := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(time.Minute)
		return t
	}
	runs := new(mockRuns)
	runs.On("Save", mock.Anything, mock.MatchedBy(func(r *domainCons.Run) bool {
		return r.Status == domainCons.RunPartial && !r.Complete
	})).Return(nil).Once()

	svc := s.newService(Config{}, Deps{Clock: stepping, Runs: runs})
	out, err := svc.Consolidate(s.ctx, &Request{Records: testutil.ScenarioRecords()})
	s.Require().NoError(err)

	s.False(out.Metadata.Complete)
	s.False(out.Cliff.Complete)
	// the tree is still built from every record
	s.Len(out.ConsolidatedPatents, 1)
	s.True(s.logger.HasMessage("warn", "analysis budget exhausted"))
	s.Contains(s.scrape(), "pc_budget_exhausted_total 1")
	runs.AssertExpectations(s.T())
}

func (s *ServiceTestSuite) TestConsolidate_RequestOptionsOverride() {
	records := []map[string]any{
		{"publication_number": "US1", "title": "A sufficiently long shared title for matching", "expiration_date": "2030-01-01"},
		{"publication_number": "EP1", "title": "A sufficiently long shared title for matching", "expiration_date": "2031-01-01"},
	}

	out, err := s.svc.Consolidate(s.ctx, &Request{Records: records})
	s.Require().NoError(err)
	s.Equal(1, out.Cliff.Summary.TotalFamilies)

	out, err = s.svc.Consolidate(s.ctx, &Request{Records: records, Options: &RequestOptions{DisableTitleMatch: true}})
	s.Require().NoError(err)
	s.Equal(2, out.Cliff.Summary.TotalFamilies)
}

func (s *ServiceTestSuite) TestConsolidate_SideEffects() {
	runs, archive, graph, indexer, publisher := new(mockRuns), new(mockArchive), new(mockGraph), new(mockIndexer), new(mockPublisher)
	archive.On("PutInput", mock.Anything, "run-1", mock.Anything).Return("runs/run-1/input.json", nil)
	archive.On("PutOutput", mock.Anything, "run-1", mock.MatchedBy(func(b []byte) bool {
		var out domainCons.Output
		return json.Unmarshal(b, &out) == nil && out.Metadata.RunID == "run-1"
	})).Return("runs/run-1/output.json", nil)
	graph.On("SaveFamilies", mock.Anything, "run-1", mock.MatchedBy(func(f []*family.Family) bool { return len(f) == 1 })).Return(nil)
	indexer.On("IndexEntries", mock.Anything, "run-1", mock.MatchedBy(func(e []domainCons.WOEntry) bool { return len(e) == 1 })).Return(nil)
	runs.On("Save", mock.Anything, mock.MatchedBy(func(r *domainCons.Run) bool {
		return r.ID == "run-1" && r.InputKey == "runs/run-1/input.json" && r.OutputKey == "runs/run-1/output.json" &&
			r.Families == 1 && r.WOEntries == 1 && r.NationalPatents == 1 && r.Status == domainCons.RunComplete &&
			r.EarliestExpiration == "2033-01-10" && r.InputDigest != ""
	})).Return(nil)
	publisher.On("PublishCompleted", mock.Anything, mock.MatchedBy(func(e domainCons.CompletedEvent) bool {
		return e.RunID == "run-1" && e.OutputKey == "runs/run-1/output.json" && e.Complete
	})).Return(nil)

	svc := s.newService(Config{}, Deps{Runs: runs, Archive: archive, Graph: graph, Indexer: indexer, Publisher: publisher})
	_, err := svc.Consolidate(s.ctx, &Request{Records: testutil.ScenarioRecords()})
	s.Require().NoError(err)

	for _, m := range []interface{ AssertExpectations(mock.TestingT) bool }{runs, archive, graph, indexer, publisher} {
		m.AssertExpectations(s.T())
	}
	s.Contains(s.scrape(), `pc_events_total{result="ok",topic="consolidation.completed"} 1`)
}

func (s *ServiceTestSuite) TestConsolidate_SideEffectFailuresAreLogged() {
	boom := errors.New(errors.ErrCodeStorageError, "bucket unavailable")
	archive, graph, publisher := new(mockArchive), new(mockGraph), new(mockPublisher)
	archive.On("PutInput", mock.Anything, mock.Anything, mock.Anything).Return("", boom)
	archive.On("PutOutput", mock.Anything, mock.Anything, mock.Anything).Return("", boom)
	graph.On("SaveFamilies", mock.Anything, mock.Anything, mock.Anything).Return(errors.New(errors.ErrCodeGraphError, "neo4j down"))
	publisher.On("PublishCompleted", mock.Anything, mock.Anything).Return(errors.New(errors.ErrCodeMessagingError, "broker down"))

	svc := s.newService(Config{}, Deps{Archive: archive, Graph: graph, Publisher: publisher})
	out, err := svc.Consolidate(s.ctx, &Request{Records: testutil.ScenarioRecords()})
	s.Require().NoError(err)
	s.NotNil(out)

	s.True(s.logger.HasMessage("warn", "archive write failed"))
	s.True(s.logger.HasMessage("warn", "family graph update failed"))
	s.True(s.logger.HasMessage("warn", "completion event not published"))
	s.Contains(s.scrape(), `pc_events_total{result="error",topic="consolidation.completed"} 1`)
}

func (s *ServiceTestSuite) TestConsolidate_Cache() {
	cache := &memoryCache{items: make(map[string]*domainCons.Output)}
	svc := s.newService(Config{}, Deps{Cache: cache})
	req := &Request{Records: testutil.ScenarioRecords()}

	first, err := svc.Consolidate(s.ctx, req)
	s.Require().NoError(err)
	second, err := svc.Consolidate(s.ctx, req)
	s.Require().NoError(err)

	s.Same(first, second)
	s.Equal("run-1", second.Metadata.RunID)
	s.True(s.logger.HasMessage("info", "consolidation served from cache"))

	metrics := s.scrape()
	s.Contains(metrics, "pc_cache_hits_total 1")
	s.Contains(metrics, "pc_cache_misses_total 1")
	s.Contains(metrics, `pc_runs_total{status="cached"} 1`)
}

func (s *ServiceTestSuite) TestConsolidate_PartialResultIsRecomputed() {
	mr := miniredis.RunT(s.T())
	client, err := redisclient.NewClient(&redisclient.RedisConfig{Mode: "standalone", Addr: mr.Addr()}, nil)
	s.Require().NoError(err)
	defer client.Close()
	cache := redisclient.NewResultCache(client, nil)

	t := testutil.FixedNow
	var mu sync.Mutex
	stepping := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(time.Minute)
		return t
	}
	req := &Request{Records: testutil.ScenarioRecords()}

	slow := s.newService(Config{}, Deps{Clock: stepping, Cache: cache})
	partial, err := slow.Consolidate(s.ctx, req)
	s.Require().NoError(err)
	s.False(partial.Metadata.Complete)
	s.Empty(mr.Keys())

	healthy := s.newService(Config{}, Deps{Cache: cache, NewID: func() string { return "run-healthy" }})
	out, err := healthy.Consolidate(s.ctx, req)
	s.Require().NoError(err)
	s.True(out.Metadata.Complete)
	s.Equal("run-healthy", out.Metadata.RunID)
	s.NotEmpty(out.Cliff.Timeline)
	s.Len(mr.Keys(), 1)

	again, err := healthy.Consolidate(s.ctx, req)
	s.Require().NoError(err)
	s.Equal("run-healthy", again.Metadata.RunID)
	s.True(s.logger.HasMessage("info", "consolidation served from cache"))
}

func (s *ServiceTestSuite) TestConsolidate_CacheKeyFollowsDay() {
	cache := &memoryCache{items: make(map[string]*domainCons.Output)}
	now := testutil.FixedNow
	svc := s.newService(Config{}, Deps{Cache: cache, Clock: func() time.Time { return now }})
	req := &Request{Records: testutil.ScenarioRecords()}

	first, err := svc.Consolidate(s.ctx, req)
	s.Require().NoError(err)
	now = now.Add(24 * time.Hour)
	second, err := svc.Consolidate(s.ctx, req)
	s.Require().NoError(err)

	s.NotEqual(first.Metadata.RunID, second.Metadata.RunID)
	s.Len(cache.items, 2)
}

func (s *ServiceTestSuite) TestConsolidate_CacheFailureFallsBack() {
	cache := &memoryCache{err: errors.New(errors.ErrCodeCacheError, "redis down")}
	svc := s.newService(Config{}, Deps{Cache: cache})

	out, err := svc.Consolidate(s.ctx, &Request{Records: testutil.ScenarioRecords()})
	s.Require().NoError(err)
	s.Len(out.ConsolidatedPatents, 1)
	s.True(s.logger.HasMessage("warn", "result cache unavailable"))
}

func (s *ServiceTestSuite) TestConsolidate_Cancelled() {
	ctx, cancel := context.WithCancel(s.ctx)
	cancel()

	_, err := s.svc.Consolidate(ctx, &Request{Records: testutil.ScenarioRecords()})
	s.True(errors.IsCode(err, errors.ErrCodeTimeout))
}

func (s *ServiceTestSuite) TestCliff() {
	res, err := s.svc.Cliff(s.ctx, &Request{Records: testutil.MixedRecords(), Options: &RequestOptions{MaxYears: 5}})
	s.Require().NoError(err)

	s.True(res.Complete)
	s.Equal(4, res.RecordsTotal)
	s.Equal(3, res.Summary.TotalFamilies)
	s.Equal("2031-05-02", res.Summary.EarliestExpiration)
	s.Equal("2033-01-10", res.Summary.LatestExpiration)
	s.True(s.logger.HasMessage("info", "cliff analysis finished"))
}

func (s *ServiceTestSuite) TestRunHistory() {
	runs := new(mockRuns)
	want := &domainCons.Run{ID: "run-9"}
	runs.On("Get", mock.Anything, "run-9").Return(want, nil)
	runs.On("Get", mock.Anything, "nope").Return(nil, errors.New(errors.ErrCodeConsolidationRunNotFound, "run not found"))
	runs.On("List", mock.Anything, DefaultListLimit).Return([]*domainCons.Run{want}, nil)
	runs.On("List", mock.Anything, MaxListLimit).Return([]*domainCons.Run{}, nil)
	runs.On("PurgeBefore", mock.Anything, testutil.FixedNow).Return(int64(3), nil)

	svc := s.newService(Config{}, Deps{Runs: runs})

	got, err := svc.GetRun(s.ctx, "run-9")
	s.Require().NoError(err)
	s.Same(want, got)

	_, err = svc.GetRun(s.ctx, "nope")
	s.True(errors.IsNotFound(err))

	_, err = svc.GetRun(s.ctx, "")
	s.True(errors.IsCode(err, errors.ErrCodeConsolidationInvalidInput))

	list, err := svc.ListRuns(s.ctx, 0)
	s.Require().NoError(err)
	s.Len(list, 1)
	_, err = svc.ListRuns(s.ctx, 1000)
	s.Require().NoError(err)

	n, err := svc.PurgeRuns(s.ctx, testutil.FixedNow)
	s.Require().NoError(err)
	s.Equal(int64(3), n)
	s.True(s.logger.HasMessage("info", "run history purged"))
	runs.AssertExpectations(s.T())
}

func (s *ServiceTestSuite) TestGetOutput() {
	runs, archive := new(mockRuns), new(mockArchive)
	stored := domainCons.Output{Metadata: domainCons.Metadata{RunID: "run-9", Query: "q"}}
	data, _ := json.Marshal(stored)
	runs.On("Get", mock.Anything, "run-9").Return(&domainCons.Run{ID: "run-9", OutputKey: "runs/run-9/output.json"}, nil)
	runs.On("Get", mock.Anything, "bare").Return(&domainCons.Run{ID: "bare"}, nil)
	runs.On("Get", mock.Anything, "bad").Return(&domainCons.Run{ID: "bad", OutputKey: "runs/bad/output.json"}, nil)
	archive.On("Get", mock.Anything, "runs/run-9/output.json").Return(data, nil)
	archive.On("Get", mock.Anything, "runs/bad/output.json").Return([]byte("{"), nil)

	svc := s.newService(Config{}, Deps{Runs: runs, Archive: archive})

	out, err := svc.GetOutput(s.ctx, "run-9")
	s.Require().NoError(err)
	s.Equal("q", out.Metadata.Query)

	_, err = svc.GetOutput(s.ctx, "bare")
	s.True(errors.IsNotFound(err))

	_, err = svc.GetOutput(s.ctx, "bad")
	s.True(errors.IsCode(err, errors.ErrCodeSerialization))
}

func (s *ServiceTestSuite) TestDisabledAdapters() {
	_, err := s.svc.GetRun(s.ctx, "x")
	s.True(errors.IsCode(err, errors.ErrCodeFeatureDisabled))
	_, err = s.svc.ListRuns(s.ctx, 1)
	s.True(errors.IsCode(err, errors.ErrCodeFeatureDisabled))
	_, err = s.svc.GetOutput(s.ctx, "x")
	s.True(errors.IsCode(err, errors.ErrCodeFeatureDisabled))
	_, err = s.svc.PurgeRuns(s.ctx, testutil.FixedNow)
	s.True(errors.IsCode(err, errors.ErrCodeFeatureDisabled))
}

func TestDigest(t *testing.T) {
	t.Parallel()

	a := []map[string]any{{"publication_number": "US1", "source": "EPO"}}
	b := []map[string]any{{"source": "EPO", "publication_number": "US1"}}

	da, err := Digest(a, pipeline{Precedence: []string{"EPO"}})
	require.NoError(t, err)
	db, err := Digest(b, pipeline{Precedence: []string{"EPO"}})
	require.NoError(t, err)
	assert.Equal(t, da, db)
	assert.Len(t, da, 64)

	dc, err := Digest(a, pipeline{Precedence: []string{"INPI"}})
	require.NoError(t, err)
	assert.NotEqual(t, da, dc)

	_, err = Digest([]map[string]any{{"bad": make(chan int)}}, nil)
	assert.True(t, errors.IsCode(err, errors.ErrCodeSerialization))
}

//Personal.AI order the ending
