// TestLogger captures records as JSON lines for assertions in tests.
//
// The comparator logs from many worker goroutines at once, so the capture
// buffer is guarded by a mutex shared between a TestLogger and its With
// children.

package log

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
)

// TestLogger is a Logger writing one JSON object per record to a buffer.
// Error records carry ErrAttrKey and ErrorTypeKey like the slog backend.
type TestLogger struct {
	mu     *sync.Mutex
	buffer *bytes.Buffer
	level  Level
	fields map[string]any
}

var _ Logger = (*TestLogger)(nil)

// NewTestLogger returns a logger capturing records at level and above, and
// the buffer it writes to.
//
//	logger, buf := log.NewTestLogger(log.LevelDebug)
//	comparator.Compare(ctx, X, y, t1, t2, t3, comparator.WithLogger(logger))
//	assert.True(t, logger.ContainsMessage("comparison finished"))
func NewTestLogger(level Level) (*TestLogger, *bytes.Buffer) {
	buffer := &bytes.Buffer{}
	return &TestLogger{
		mu:     &sync.Mutex{},
		buffer: buffer,
		level:  level,
		fields: make(map[string]any),
	}, buffer
}

func (t *TestLogger) Debug(msg string, fields ...any) { t.write(LevelDebug, msg, fields) }
func (t *TestLogger) Info(msg string, fields ...any)  { t.write(LevelInfo, msg, fields) }
func (t *TestLogger) Warn(msg string, fields ...any)  { t.write(LevelWarn, msg, fields) }

func (t *TestLogger) Error(msg string, fields ...any) {
	if err, rest := splitError(fields); err != nil {
		fields = append([]any{ErrAttrKey, err, ErrorTypeKey, errorType(err)}, rest...)
	}
	t.write(LevelError, msg, fields)
}

// With returns a child sharing the buffer with fields added to every record.
func (t *TestLogger) With(fields ...any) Logger {
	child := make(map[string]any, len(t.fields)+len(fields)/2)
	for k, v := range t.fields {
		child[k] = v
	}
	addFields(child, fields)
	return &TestLogger{mu: t.mu, buffer: t.buffer, level: t.level, fields: child}
}

func (t *TestLogger) Enabled(_ context.Context, level Level) bool {
	return t.level <= level
}

func (t *TestLogger) write(level Level, msg string, fields []any) {
	if level < t.level {
		return
	}
	entry := map[string]any{
		"level":   level.String(),
		"message": msg,
	}
	for k, v := range t.fields {
		entry[k] = v
	}
	addFields(entry, fields)

	line, _ := json.Marshal(entry)
	t.mu.Lock()
	t.buffer.Write(append(line, '\n'))
	t.mu.Unlock()
}

// addFields copies key-value pairs into m; errors are stored as their message.
func addFields(m map[string]any, fields []any) {
	for i := 0; i+1 < len(fields); i += 2 {
		key := fmt.Sprint(fields[i])
		if err, ok := fields[i+1].(error); ok {
			m[key] = err.Error()
			continue
		}
		m[key] = fields[i+1]
	}
}

func (t *TestLogger) snapshot() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.buffer.String()
}

// GetLogEntries parses the captured records. Numbers decode as float64.
func (t *TestLogger) GetLogEntries() ([]map[string]any, error) {
	var entries []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(t.snapshot()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// ContainsMessage reports whether any captured line contains message.
func (t *TestLogger) ContainsMessage(message string) bool {
	return strings.Contains(t.snapshot(), message)
}

// ContainsField reports whether any record has key set to value.
func (t *TestLogger) ContainsField(key string, value any) bool {
	entries, err := t.GetLogEntries()
	if err != nil {
		return false
	}
	for _, entry := range entries {
		if v, ok := entry[key]; ok && v == value {
			return true
		}
	}
	return false
}

// Count returns the number of records whose message equals message.
func (t *TestLogger) Count(message string) int {
	entries, err := t.GetLogEntries()
	if err != nil {
		return 0
	}
	n := 0
	for _, entry := range entries {
		if entry["message"] == message {
			n++
		}
	}
	return n
}
