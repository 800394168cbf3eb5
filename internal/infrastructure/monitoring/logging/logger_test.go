package logging

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	apperrors "github.com/turtacn/PatentCliff/pkg/errors"
)

func newBufferLogger(t *testing.T) (Logger, *zaptest.Buffer) {
	t.Helper()
	buf := &zaptest.Buffer{}
	enc := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	return &zapLogger{z: zap.New(zapcore.NewCore(enc, buf, zapcore.DebugLevel))}, buf
}

func TestNewLogger(t *testing.T) {
	for _, format := range []string{"json", "console", ""} {
		l, err := NewLogger(LogConfig{Level: LevelDebug, Format: format, OutputPaths: []string{"stdout"}})
		require.NoError(t, err, format)
		assert.NotNil(t, l)
	}
}

func TestNewLogger_EmptyOutputPaths(t *testing.T) {
	l, err := NewLogger(LogConfig{OutputPaths: []string{}})
	assert.Error(t, err)
	assert.Nil(t, l)
}

func TestNewLogger_UnknownLevelFallsBackToInfo(t *testing.T) {
	l, err := NewLogger(LogConfig{Level: "chatty"})
	require.NoError(t, err)
	assert.NotNil(t, l)
}

func TestConvenienceConstructors(t *testing.T) {
	assert.NotNil(t, NewDefaultLogger())
	assert.NotNil(t, NewDevelopmentLogger())
}

func TestNewConsoleLogger(t *testing.T) {
	var buf bytes.Buffer
	l := NewConsoleLogger(&buf, LevelWarn)
	l.Info("hidden")
	l.Warn("input skipped", String("file", "a.json"))

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "input skipped")
	assert.Contains(t, out, "a.json")
}

func TestNopLogger(t *testing.T) {
	l := NewNopLogger()
	l.Debug("m")
	l.Info("m")
	l.Warn("m")
	l.Error("m")
	l.Fatal("m")
	assert.Equal(t, l, l.With(String("k", "v")))
	assert.Equal(t, l, l.WithContext(context.Background()))
	assert.Equal(t, l, l.WithError(errors.New("boom")))
	assert.Equal(t, l, l.Named("x"))
	assert.NoError(t, l.Sync())
}

func TestZapLogger_Levels(t *testing.T) {
	l, buf := newBufferLogger(t)

	l.Debug("d")
	l.Info("i")
	l.Warn("w")
	l.Error("e")

	out := buf.String()
	for _, lvl := range []string{"debug", "info", "warn", "error"} {
		assert.Contains(t, out, `"level":"`+lvl+`"`)
	}
}

func TestZapLogger_FieldTypes(t *testing.T) {
	l, buf := newBufferLogger(t)

	l.Info("run finished",
		String("query", "semaglutide"),
		Strings("sources", []string{"EPO", "INPI"}),
		Int("families", 3),
		Int64("records", 12),
		Float64("years", 9.0),
		Bool("complete", true),
		Duration("elapsed", 2*time.Second),
		Any("opts", map[string]int{"max_years": 20}),
	)

	out := buf.String()
	assert.Contains(t, out, `"query":"semaglutide"`)
	assert.Contains(t, out, `"sources":["EPO","INPI"]`)
	assert.Contains(t, out, `"families":3`)
	assert.Contains(t, out, `"complete":true`)
	assert.Contains(t, out, `"max_years":20`)
}

func TestZapLogger_WithContext(t *testing.T) {
	l, buf := newBufferLogger(t)
	ctx := WithRunID(WithRequestID(context.Background(), "req-1"), "run-9")

	l.WithContext(ctx).Info("m")

	assert.Contains(t, buf.String(), `"request_id":"req-1"`)
	assert.Contains(t, buf.String(), `"run_id":"run-9"`)
	assert.Same(t, l, l.WithContext(context.Background()))
}

func TestZapLogger_WithError(t *testing.T) {
	l, buf := newBufferLogger(t)

	l.WithError(apperrors.New(apperrors.ErrCodeConsolidationRunNotFound, "run not found")).Error("lookup")
	assert.Contains(t, buf.String(), `"error_code":"CONS_003"`)
	assert.Contains(t, buf.String(), `"error":"[CONS_003] run not found"`)

	buf.Reset()
	l.WithError(nil).Info("m")
	assert.NotContains(t, buf.String(), `"error"`)
}

func TestObservedLogger(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	l := NewLoggerFromCore(core).Named("consolidation")

	l.Debug("hidden")
	l.Warn("records rejected", Int("count", 2))

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "records rejected", entry.Message)
	assert.Equal(t, "consolidation", entry.LoggerName)
	assert.Equal(t, int64(2), entry.ContextMap()["count"])
}

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{"debug": LevelDebug, "INFO": LevelInfo, "": LevelInfo, "warning": LevelWarn, "Error": LevelError}
	for in, want := range cases {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	_, err := ParseLevel("verbose")
	assert.Error(t, err)
	assert.Equal(t, "info", LevelInfo.String())
}

func TestLogStage(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewLoggerFromCore(core)

	LogStage(l, "cluster", time.Now())
	LogStage(l, "merge", time.Now().Add(-2*SlowStageThreshold))

	require.Equal(t, 2, logs.Len())
	assert.Equal(t, zapcore.DebugLevel, logs.All()[0].Level)
	assert.Equal(t, "cluster", logs.All()[0].ContextMap()["stage"])
	assert.Equal(t, zapcore.WarnLevel, logs.All()[1].Level)
}

func TestDefaultLogger(t *testing.T) {
	orig := Default()
	defer SetDefault(orig)

	l := NewNopLogger()
	SetDefault(l)
	assert.Equal(t, l, Default())

	SetDefault(nil)
	assert.Equal(t, l, Default())
}

func TestErrField(t *testing.T) {
	assert.Equal(t, "<nil>", Err(nil).Value)
	assert.Equal(t, "boom", Err(errors.New("boom")).Value)
}

//Personal.AI order the ending
