// Package testutil provides in-memory sinks, repliers and filesystem
// fixtures shared by tests.
package testutil

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/meigma/timeline/sink"
)

// MemorySink records every payload it receives. It is safe for
// concurrent use.
type MemorySink struct {
	mu    sync.Mutex
	blobs [][]byte

	// FailAt makes the Send with this 0-based index, and every later one,
	// return Err. Negative disables failures.
	FailAt int
	Err    error
}

var _ sink.Sink = (*MemorySink)(nil)

// NewMemorySink returns a sink that accepts everything.
func NewMemorySink() *MemorySink {
	return &MemorySink{FailAt: -1}
}

// NewFailingSink returns a sink whose Send fails from index failAt on.
func NewFailingSink(failAt int, err error) *MemorySink {
	return &MemorySink{FailAt: failAt, Err: err}
}

// Send implements sink.Sink. The data is copied.
func (m *MemorySink) Send(ctx context.Context, kind sink.Kind, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := sink.Check(kind); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailAt >= 0 && len(m.blobs) >= m.FailAt {
		return m.Err
	}
	m.blobs = append(m.blobs, append([]byte(nil), data...))
	return nil
}

// Blobs returns the accepted payloads in order.
func (m *MemorySink) Blobs() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]byte(nil), m.blobs...)
}

// Recorder records replies. It is safe for concurrent use.
type Recorder[T any] struct {
	mu      sync.Mutex
	replies []T

	// FailAt makes the Reply with this 0-based index, and every later
	// one, return Err. Negative disables failures.
	FailAt int
	Err    error
}

// NewRecorder returns a recorder that accepts everything.
func NewRecorder[T any]() *Recorder[T] {
	return &Recorder[T]{FailAt: -1}
}

// NewFailingRecorder returns a recorder whose Reply fails from index
// failAt on.
func NewFailingRecorder[T any](failAt int, err error) *Recorder[T] {
	return &Recorder[T]{FailAt: failAt, Err: err}
}

// Reply records v.
func (r *Recorder[T]) Reply(_ context.Context, v T) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailAt >= 0 && len(r.replies) >= r.FailAt {
		return r.Err
	}
	r.replies = append(r.replies, v)
	return nil
}

// Replies returns the recorded replies in order.
func (r *Recorder[T]) Replies() []T {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]T(nil), r.replies...)
}

// WriteTree creates files under root. Keys are slash-separated relative
// paths; a key ending in "/" creates a directory.
func WriteTree(t testing.TB, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		if name[len(name)-1] == '/' {
			if err := os.MkdirAll(path, 0o755); err != nil {
				t.Fatalf("mkdir %s: %v", path, err)
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
		}
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
	}
}
