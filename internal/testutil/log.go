package testutil

import (
	"context"
	"log/slog"
	"sync"
)

// LogRecorder is a slog.Handler that keeps every record it handles.
// Handlers derived with WithAttrs share the records of their parent.
type LogRecorder struct {
	mu      *sync.Mutex
	records *[]slog.Record
	attrs   []slog.Attr
}

var _ slog.Handler = (*LogRecorder)(nil)

// NewLogRecorder returns an empty recorder.
func NewLogRecorder() *LogRecorder {
	return &LogRecorder{mu: new(sync.Mutex), records: new([]slog.Record)}
}

// Logger returns a logger writing to h.
func (h *LogRecorder) Logger() *slog.Logger {
	return slog.New(h)
}

// Enabled records every level.
func (h *LogRecorder) Enabled(context.Context, slog.Level) bool {
	return true
}

// Handle stores a copy of r with the handler's attributes attached.
func (h *LogRecorder) Handle(_ context.Context, r slog.Record) error {
	r = r.Clone()
	r.AddAttrs(h.attrs...)
	h.mu.Lock()
	*h.records = append(*h.records, r)
	h.mu.Unlock()
	return nil
}

// WithAttrs returns a handler sharing h's records.
func (h *LogRecorder) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &LogRecorder{
		mu:      h.mu,
		records: h.records,
		attrs:   append(append([]slog.Attr(nil), h.attrs...), attrs...),
	}
}

// WithGroup ignores the group; recorded attributes keep their plain keys.
func (h *LogRecorder) WithGroup(string) slog.Handler {
	return h
}

// Records returns the records logged at exactly level, in order.
func (h *LogRecorder) Records(level slog.Level) []slog.Record {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []slog.Record
	for _, r := range *h.records {
		if r.Level == level {
			out = append(out, r)
		}
	}
	return out
}

// Attr returns the value of the attribute key on r.
func Attr(r slog.Record, key string) (slog.Value, bool) {
	var (
		v     slog.Value
		found bool
	)
	r.Attrs(func(a slog.Attr) bool {
		if a.Key == key {
			v, found = a.Value, true
			return false
		}
		return true
	})
	return v, found
}
