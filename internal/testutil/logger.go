// Package testutil provides helpers shared by package tests.
package testutil

import (
	"strings"
	"sync"

	"github.com/turtacn/TreatIQ-Intelligence/internal/infrastructure/monitoring/logging"
)

// Entry is one captured log call.
type Entry struct {
	Level   string
	Logger  string
	Message string
	Fields  map[string]interface{}
}

type sink struct {
	mu      sync.Mutex
	entries []Entry
}

// RecordingLogger implements logging.Logger and keeps every entry in memory.
// Children created with With or Named write to the same buffer.
type RecordingLogger struct {
	sink   *sink
	name   string
	fields []logging.Field
}

var _ logging.Logger = (*RecordingLogger)(nil)

func NewRecordingLogger() *RecordingLogger {
	return &RecordingLogger{sink: &sink{}}
}

func (l *RecordingLogger) record(level, msg string, fields []logging.Field) {
	all := make(map[string]interface{}, len(l.fields)+len(fields))
	for _, f := range append(append([]logging.Field(nil), l.fields...), fields...) {
		all[f.Key] = f.Value
	}
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	l.sink.entries = append(l.sink.entries, Entry{Level: level, Logger: l.name, Message: msg, Fields: all})
}

func (l *RecordingLogger) Debug(msg string, fields ...logging.Field) { l.record("debug", msg, fields) }
func (l *RecordingLogger) Info(msg string, fields ...logging.Field)  { l.record("info", msg, fields) }
func (l *RecordingLogger) Warn(msg string, fields ...logging.Field)  { l.record("warn", msg, fields) }
func (l *RecordingLogger) Error(msg string, fields ...logging.Field) { l.record("error", msg, fields) }

// Fatal records the entry without exiting.
func (l *RecordingLogger) Fatal(msg string, fields ...logging.Field) { l.record("fatal", msg, fields) }

func (l *RecordingLogger) With(fields ...logging.Field) logging.Logger {
	return &RecordingLogger{
		sink:   l.sink,
		name:   l.name,
		fields: append(append([]logging.Field(nil), l.fields...), fields...),
	}
}

func (l *RecordingLogger) Named(name string) logging.Logger {
	full := name
	if l.name != "" {
		full = l.name + "." + name
	}
	return &RecordingLogger{sink: l.sink, name: full, fields: l.fields}
}

// Entries returns a copy of everything logged so far.
func (l *RecordingLogger) Entries() []Entry {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	return append([]Entry(nil), l.sink.entries...)
}

// Find returns the first entry at level whose message contains substr.
func (l *RecordingLogger) Find(level, substr string) (Entry, bool) {
	for _, e := range l.Entries() {
		if e.Level == level && strings.Contains(e.Message, substr) {
			return e, true
		}
	}
	return Entry{}, false
}

// Has reports whether an entry at level contains substr.
func (l *RecordingLogger) Has(level, substr string) bool {
	_, ok := l.Find(level, substr)
	return ok
}

func (l *RecordingLogger) Reset() {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	l.sink.entries = nil
}

//Personal.AI order the ending
