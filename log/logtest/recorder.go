/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package logtest

import (
	"sync"
	"time"

	"github.com/ssgreg/logf"

	"github.com/acronis/go-busy/log"
)

// RecordedEntry is a log entry captured by Recorder.
type RecordedEntry struct {
	LoggerName string
	Level      log.Level
	Time       time.Time
	Text       string

	// Fields contains both fields passed with the message and fields added by With.
	Fields []log.Field
}

// FindField returns the first field with the key.
func (re *RecordedEntry) FindField(key string) (*log.Field, bool) {
	for i := range re.Fields {
		if re.Fields[i].Key == key {
			return &re.Fields[i], true
		}
	}
	return nil, false
}

// entryStore keeps entries of a Recorder and of all loggers derived from it.
type entryStore struct {
	mu      sync.RWMutex
	entries []RecordedEntry
}

//nolint:gocritic
func (s *entryStore) WriteEntry(e logf.Entry) {
	fields := make([]log.Field, 0, len(e.Fields)+len(e.DerivedFields))
	fields = append(fields, e.Fields...)
	fields = append(fields, e.DerivedFields...)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, RecordedEntry{
		LoggerName: e.LoggerName,
		Level:      log.LevelFromLogf(e.Level),
		Time:       e.Time,
		Text:       e.Text,
		Fields:     fields,
	})
}

func (s *entryStore) find(match func(e *RecordedEntry) bool) []RecordedEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var res []RecordedEntry
	for i := range s.entries {
		if match == nil || match(&s.entries[i]) {
			res = append(res, s.entries[i])
		}
	}
	return res
}

// Recorder is a log.FieldLogger that keeps every entry in memory, so tests may check what was logged.
// Loggers derived by With and WithLevel write to the same Recorder.
type Recorder struct {
	log.FieldLogger
	store *entryStore
}

// NewRecorder returns a debug-level Recorder.
func NewRecorder() *Recorder {
	store := &entryStore{}
	return &Recorder{FieldLogger: log.Wrap(logf.NewLogger(logf.LevelDebug, store)), store: store}
}

// With implements log.FieldLogger.
func (r *Recorder) With(fields ...log.Field) log.FieldLogger {
	return &Recorder{FieldLogger: r.FieldLogger.With(fields...), store: r.store}
}

// WithLevel implements log.FieldLogger.
func (r *Recorder) WithLevel(level log.Level) log.FieldLogger {
	return &Recorder{FieldLogger: r.FieldLogger.WithLevel(level), store: r.store}
}

// Entries returns a copy of all recorded entries.
func (r *Recorder) Entries() []RecordedEntry {
	return r.store.find(nil)
}

// FindEntry returns the first entry with the message.
func (r *Recorder) FindEntry(msg string) (RecordedEntry, bool) {
	entries := r.FindAllEntries(msg)
	if len(entries) == 0 {
		return RecordedEntry{}, false
	}
	return entries[0], true
}

// FindAllEntries returns all entries with the message.
func (r *Recorder) FindAllEntries(msg string) []RecordedEntry {
	return r.store.find(func(e *RecordedEntry) bool { return e.Text == msg })
}

// Reset drops all recorded entries.
func (r *Recorder) Reset() {
	r.store.mu.Lock()
	r.store.entries = nil
	r.store.mu.Unlock()
}
