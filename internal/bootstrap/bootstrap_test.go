package bootstrap

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/PatentCliff/internal/application/consolidation"
	"github.com/turtacn/PatentCliff/internal/config"
	"github.com/turtacn/PatentCliff/internal/domain/cliff"
	"github.com/turtacn/PatentCliff/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/PatentCliff/internal/testutil"
	"github.com/turtacn/PatentCliff/pkg/errors"
)

func TestServiceConfig_MapsConsolidationSection(t *testing.T) {
	cfg := config.Default().Consolidation
	cfg.DisableTitleMatch = true
	cfg.MaxYears = 7

	sc := ServiceConfig(cfg)
	assert.Equal(t, config.DefaultPrecedence, sc.Precedence)
	assert.True(t, sc.Family.DisableTitleMatch)
	assert.Equal(t, 50, sc.Family.TitlePrefixLength)
	assert.Equal(t, 7, sc.Cliff.MaxYears)
	assert.Equal(t, 30*time.Second, sc.Cliff.Budget)
	assert.Equal(t, cliff.DefaultTermYears, sc.Cliff.TermYears)
	assert.Equal(t, 50000, sc.MaxRecords)
	assert.Equal(t, config.Version, sc.Version)
}

func TestRetentionDays(t *testing.T) {
	assert.Equal(t, 0, retentionDays(0))
	assert.Equal(t, 1, retentionDays(time.Hour))
	assert.Equal(t, 90, retentionDays(config.DefaultRetentionPeriod))
}

func TestRedisConfig(t *testing.T) {
	rc := RedisConfig(config.RedisConfig{Addr: "cache:6379", DB: 2, PoolSize: 8})
	assert.Equal(t, "cache:6379", rc.Addr)
	assert.Equal(t, 2, rc.DB)
	assert.Equal(t, 8, rc.PoolSize)
}

func TestNewLogger(t *testing.T) {
	l, err := NewLogger(config.LogConfig{Level: "debug", Format: "console", Output: "stderr"})
	require.NoError(t, err)
	assert.NotNil(t, l)

	_, err = NewLogger(config.LogConfig{Level: "loud"})
	assert.Error(t, err)
}

func TestNew_AllAdaptersDisabled(t *testing.T) {
	cfg := config.Default()
	app, err := New(context.Background(), cfg, logging.NewNopLogger())
	require.NoError(t, err)
	defer app.Close(context.Background())

	assert.Nil(t, app.Collector)
	assert.Nil(t, app.Producer)
	assert.Nil(t, app.Redis)
	assert.Empty(t, app.Checks)
	require.NotNil(t, app.Reports)

	out, err := app.Service.Consolidate(context.Background(), &consolidation.Request{Records: testutil.ScenarioRecords()})
	require.NoError(t, err)
	assert.Equal(t, 1, out.Statistics.TotalWOPatents)

	_, err = app.Service.ListRuns(context.Background(), 10)
	assert.True(t, errors.IsCode(err, errors.ErrCodeFeatureDisabled))
}

func TestNew_MetricsEnabled(t *testing.T) {
	cfg := config.Default()
	cfg.Metrics.Enabled = true
	app, err := New(context.Background(), cfg, nil)
	require.NoError(t, err)
	defer app.Close(context.Background())

	require.NotNil(t, app.Collector)
	require.NotNil(t, app.Metrics)
	_, err = app.Service.Cliff(context.Background(), &consolidation.Request{Records: testutil.ScenarioRecords()})
	require.NoError(t, err)
	families, err := app.Collector.Registry().Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestNew_UnreachableRedisFailsStartup(t *testing.T) {
	cfg := config.Default()
	cfg.Redis.Enabled = true
	cfg.Redis.Addr = "127.0.0.1:1"
	cfg.Redis.DialTimeout = 200 * time.Millisecond

	app, err := New(context.Background(), cfg, nil)
	assert.Nil(t, app)
	assert.True(t, errors.IsCode(err, errors.ErrCodeCacheError), "got %v", err)
}

func TestNew_FailureClosesOpenedAdapters(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := config.Default()
	cfg.Redis.Enabled = true
	cfg.Redis.Addr = mr.Addr()
	cfg.Neo4j.Enabled = true
	cfg.Neo4j.URI = "bolt://127.0.0.1:1"
	cfg.Neo4j.ConnectionTimeout = 200 * time.Millisecond

	app, err := New(context.Background(), cfg, logging.NewNopLogger())
	assert.Nil(t, app)
	assert.True(t, errors.IsCode(err, errors.ErrCodeGraphError), "got %v", err)
	// The redis client connected first and must have been released.
	assert.Eventually(t, func() bool { return mr.CurrentConnectionCount() == 0 }, 2*time.Second, 20*time.Millisecond)
}

func TestApp_CloseReverseOrder(t *testing.T) {
	var order []string
	app := &App{Logger: logging.NewNopLogger()}
	app.onClose(func(context.Context) error { order = append(order, "first"); return nil })
	app.onClose(func(context.Context) error { order = append(order, "second"); return fmt.Errorf("boom") })

	err := app.Close(context.Background())
	assert.EqualError(t, err, "boom")
	assert.Equal(t, []string{"second", "first"}, order)
	assert.NoError(t, app.Close(context.Background()))
}

func TestHealthCheck(t *testing.T) {
	hc := HealthCheck{Component: "x", Fn: func(context.Context) error { return nil }}
	assert.Equal(t, "x", hc.Name())
	assert.NoError(t, hc.Check(context.Background()))
}

//Personal.AI order the ending
