// Package testutil holds helpers shared by PatentCliff tests.
package testutil

import (
	"context"
	"sync"

	"github.com/turtacn/PatentCliff/internal/infrastructure/monitoring/logging"
)

// LogMessage is one captured log call.
type LogMessage struct {
	Level   string
	Message string
	Fields  []logging.Field
}

// Field returns the value logged under key, and whether it was present.
func (m LogMessage) Field(key string) (interface{}, bool) {
	for i := len(m.Fields) - 1; i >= 0; i-- {
		if m.Fields[i].Key == key {
			return m.Fields[i].Value, true
		}
	}
	return nil, false
}

type sink struct {
	mu       sync.Mutex
	messages []LogMessage
}

// MockLogger records every call.  Children created by With, WithContext,
// WithError and Named write to the same record, prefixed with their fields.
type MockLogger struct {
	sink   *sink
	fields []logging.Field
}

// NewMockLogger returns an empty MockLogger.
func NewMockLogger() *MockLogger {
	return &MockLogger{sink: &sink{}}
}

func (m *MockLogger) log(level, msg string, fields []logging.Field) {
	all := make([]logging.Field, 0, len(m.fields)+len(fields))
	all = append(all, m.fields...)
	all = append(all, fields...)
	m.sink.mu.Lock()
	m.sink.messages = append(m.sink.messages, LogMessage{Level: level, Message: msg, Fields: all})
	m.sink.mu.Unlock()
}

func (m *MockLogger) Debug(msg string, fields ...logging.Field) { m.log("debug", msg, fields) }
func (m *MockLogger) Info(msg string, fields ...logging.Field)  { m.log("info", msg, fields) }
func (m *MockLogger) Warn(msg string, fields ...logging.Field)  { m.log("warn", msg, fields) }
func (m *MockLogger) Error(msg string, fields ...logging.Field) { m.log("error", msg, fields) }
func (m *MockLogger) Fatal(msg string, fields ...logging.Field) { m.log("fatal", msg, fields) }

func (m *MockLogger) With(fields ...logging.Field) logging.Logger {
	child := &MockLogger{sink: m.sink}
	child.fields = append(append(child.fields, m.fields...), fields...)
	return child
}

func (m *MockLogger) WithContext(ctx context.Context) logging.Logger {
	var fields []logging.Field
	if id := logging.RequestIDFrom(ctx); id != "" {
		fields = append(fields, logging.String(logging.FieldRequestID, id))
	}
	if id := logging.RunIDFrom(ctx); id != "" {
		fields = append(fields, logging.String(logging.FieldRunID, id))
	}
	return m.With(fields...)
}

func (m *MockLogger) WithError(err error) logging.Logger {
	if err == nil {
		return m
	}
	return m.With(logging.Err(err))
}

func (m *MockLogger) Named(name string) logging.Logger {
	return m.With(logging.String(logging.FieldComponent, name))
}

func (m *MockLogger) Sync() error { return nil }

// GetMessages returns a copy of the captured calls.
func (m *MockLogger) GetMessages() []LogMessage {
	m.sink.mu.Lock()
	defer m.sink.mu.Unlock()
	return append([]LogMessage(nil), m.sink.messages...)
}

// Clear drops the captured calls.
func (m *MockLogger) Clear() {
	m.sink.mu.Lock()
	m.sink.messages = nil
	m.sink.mu.Unlock()
}

// HasMessage reports whether msg was logged at level.
func (m *MockLogger) HasMessage(level, msg string) bool {
	_, ok := m.Find(level, msg)
	return ok
}

// Find returns the first call logged at level with msg.
func (m *MockLogger) Find(level, msg string) (LogMessage, bool) {
	for _, l := range m.GetMessages() {
		if l.Level == level && l.Message == msg {
			return l, true
		}
	}
	return LogMessage{}, false
}

// Count returns the number of calls logged at level.
func (m *MockLogger) Count(level string) int {
	n := 0
	for _, l := range m.GetMessages() {
		if l.Level == level {
			n++
		}
	}
	return n
}

//Personal.AI order the ending
