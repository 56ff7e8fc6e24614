package logger

import (
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// TestLogger captures log messages so tests can assert on them.
type TestLogger struct {
	mu       sync.Mutex
	messages []LogMessage
}

// LogMessage is one captured log entry.
type LogMessage struct {
	Level   string
	Message string
	Fields  map[string]interface{}
}

// NewTestLogger creates a capturing logger for tests.
func NewTestLogger() *TestLogger {
	return &TestLogger{}
}

func (l *TestLogger) record(level, msg string, fields map[string]interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, LogMessage{Level: level, Message: msg, Fields: fields})
}

func (l *TestLogger) Debug(msg string) { l.record("DEBUG", msg, nil) }
func (l *TestLogger) Info(msg string)  { l.record("INFO", msg, nil) }
func (l *TestLogger) Warn(msg string)  { l.record("WARN", msg, nil) }
func (l *TestLogger) Error(msg string) { l.record("ERROR", msg, nil) }
func (l *TestLogger) Fatal(msg string) { l.record("FATAL", msg, nil) }

func (l *TestLogger) DebugWithFields(msg string, fields map[string]interface{}) {
	l.record("DEBUG", msg, fields)
}
func (l *TestLogger) InfoWithFields(msg string, fields map[string]interface{}) {
	l.record("INFO", msg, fields)
}
func (l *TestLogger) WarnWithFields(msg string, fields map[string]interface{}) {
	l.record("WARN", msg, fields)
}
func (l *TestLogger) ErrorWithFields(msg string, fields map[string]interface{}) {
	l.record("ERROR", msg, fields)
}
func (l *TestLogger) FatalWithFields(msg string, fields map[string]interface{}) {
	l.record("FATAL", msg, fields)
}

func (l *TestLogger) WithField(key string, value interface{}) Logger {
	return &testChild{parent: l, fields: map[string]interface{}{key: value}}
}

func (l *TestLogger) WithFields(fields map[string]interface{}) Logger {
	return &testChild{parent: l, fields: fields}
}

func (l *TestLogger) WithError(err error) Logger {
	if err == nil {
		return l
	}
	return l.WithField("error", err.Error())
}

func (l *TestLogger) GetZerolog() *zerolog.Logger { return &nopZerolog }

// Messages returns a copy of all captured entries.
func (l *TestLogger) Messages() []LogMessage {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]LogMessage, len(l.messages))
	copy(out, l.messages)
	return out
}

// MessagesByLevel returns captured entries with the given level.
func (l *TestLogger) MessagesByLevel(level string) []LogMessage {
	var out []LogMessage
	for _, m := range l.Messages() {
		if m.Level == level {
			out = append(out, m)
		}
	}
	return out
}

// HasMessage reports whether any entry's message contains text.
func (l *TestLogger) HasMessage(text string) bool {
	for _, m := range l.Messages() {
		if strings.Contains(m.Message, text) {
			return true
		}
	}
	return false
}

// HasError reports whether any error-level entry was captured.
func (l *TestLogger) HasError() bool {
	return len(l.MessagesByLevel("ERROR")) > 0
}

// Clear drops all captured entries.
func (l *TestLogger) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = nil
}

func (l *TestLogger) String() string {
	var b strings.Builder
	for _, m := range l.Messages() {
		fmt.Fprintf(&b, "[%s] %s", m.Level, m.Message)
		if len(m.Fields) > 0 {
			fmt.Fprintf(&b, " fields=%v", m.Fields)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// testChild carries bound fields back to the parent TestLogger.
type testChild struct {
	parent *TestLogger
	fields map[string]interface{}
}

func (c *testChild) merge(extra map[string]interface{}) map[string]interface{} {
	merged := make(map[string]interface{}, len(c.fields)+len(extra))
	for k, v := range c.fields {
		merged[k] = v
	}
	for k, v := range extra {
		merged[k] = v
	}
	return merged
}

func (c *testChild) Debug(msg string) { c.parent.record("DEBUG", msg, c.fields) }
func (c *testChild) Info(msg string)  { c.parent.record("INFO", msg, c.fields) }
func (c *testChild) Warn(msg string)  { c.parent.record("WARN", msg, c.fields) }
func (c *testChild) Error(msg string) { c.parent.record("ERROR", msg, c.fields) }
func (c *testChild) Fatal(msg string) { c.parent.record("FATAL", msg, c.fields) }

func (c *testChild) DebugWithFields(msg string, fields map[string]interface{}) {
	c.parent.record("DEBUG", msg, c.merge(fields))
}
func (c *testChild) InfoWithFields(msg string, fields map[string]interface{}) {
	c.parent.record("INFO", msg, c.merge(fields))
}
func (c *testChild) WarnWithFields(msg string, fields map[string]interface{}) {
	c.parent.record("WARN", msg, c.merge(fields))
}
func (c *testChild) ErrorWithFields(msg string, fields map[string]interface{}) {
	c.parent.record("ERROR", msg, c.merge(fields))
}
func (c *testChild) FatalWithFields(msg string, fields map[string]interface{}) {
	c.parent.record("FATAL", msg, c.merge(fields))
}

func (c *testChild) WithField(key string, value interface{}) Logger {
	return &testChild{parent: c.parent, fields: c.merge(map[string]interface{}{key: value})}
}

func (c *testChild) WithFields(fields map[string]interface{}) Logger {
	return &testChild{parent: c.parent, fields: c.merge(fields)}
}

func (c *testChild) WithError(err error) Logger {
	if err == nil {
		return c
	}
	return c.WithField("error", err.Error())
}

func (c *testChild) GetZerolog() *zerolog.Logger { return &nopZerolog }
