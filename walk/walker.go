package walk

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"iter"
	"log/slog"
	"os"
	"path/filepath"
)

// Entry is one filesystem object discovered by the walker.
type Entry struct {
	// Path is the walk root joined with the entry's relative path.
	Path     string
	Metadata Metadata
	// Flags holds the inode attribute flags when WithFileFlags is enabled
	// and the query succeeded.
	Flags *uint32
}

// Walker is a pull iterator over a directory subtree.
// A Walker is not safe for concurrent use and cannot be restarted.
type Walker struct {
	root   string
	fsys   dirFS
	closer io.Closer
	cfg    config

	stack   []*frame
	seen    map[fileID]struct{}
	pending error
	done    bool
}

// frame is one directory being listed.
type frame struct {
	rel     string
	dir     dirReader
	entries []fs.DirEntry
	eof     bool
}

// Open starts a walk of root. The root is opened and its first batch of
// children read before Open returns, so a missing or unreadable root fails
// here with ErrRootUnreadable rather than on the first Next.
func Open(root string, opts ...Option) (*Walker, error) {
	r, err := os.OpenRoot(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRootUnreadable, err)
	}
	w, err := newWalker(root, rootFS{root: r}, r, opts...)
	if err != nil {
		r.Close()
		return nil, err
	}
	return w, nil
}

func newWalker(root string, fsys dirFS, closer io.Closer, opts ...Option) (*Walker, error) {
	cfg := config{batch: readDirBatch}
	for _, opt := range opts {
		opt(&cfg)
	}

	w := &Walker{
		root:   root,
		fsys:   fsys,
		closer: closer,
		cfg:    cfg,
		seen:   make(map[fileID]struct{}),
	}

	info, err := fsys.Lstat(".")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRootUnreadable, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrRootUnreadable, root)
	}
	md := Extract(info)
	if id, ok := md.identity(); ok {
		w.seen[id] = struct{}{}
	}

	dir, err := fsys.OpenDir(".")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRootUnreadable, err)
	}
	top := &frame{rel: ".", dir: dir}
	if err := w.fill(top); err != nil {
		dir.Close()
		return nil, fmt.Errorf("%w: %w", ErrRootUnreadable, err)
	}
	w.stack = append(w.stack, top)
	return w, nil
}

// Next returns the next entry. Per-entry failures are returned as
// *EntryError and the walk can continue with another call to Next. Next
// returns io.EOF once the walk is complete, and on every call after that.
func (w *Walker) Next() (Entry, error) {
	if err := w.pending; err != nil {
		w.pending = nil
		return Entry{}, err
	}
	for len(w.stack) > 0 {
		top := w.stack[len(w.stack)-1]
		if len(top.entries) == 0 {
			if top.eof {
				w.pop()
				continue
			}
			if err := w.fill(top); err != nil {
				return Entry{}, w.entryError(top.rel, "readdir", err)
			}
			continue
		}

		d := top.entries[0]
		top.entries[0] = nil
		top.entries = top.entries[1:]
		return w.visit(filepath.Join(top.rel, d.Name()))
	}
	w.finish()
	return Entry{}, io.EOF
}

// All adapts the walker to a range-over-func sequence. The sequence ends
// at io.EOF; the caller still owns Close.
func (w *Walker) All() iter.Seq2[Entry, error] {
	return func(yield func(Entry, error) bool) {
		for {
			entry, err := w.Next()
			if errors.Is(err, io.EOF) {
				return
			}
			if !yield(entry, err) {
				return
			}
		}
	}
}

// Close releases every directory handle still open. It is safe to call
// more than once.
func (w *Walker) Close() error {
	w.finish()
	return nil
}

// fill reads the next batch of children into f. A read error marks the
// directory finished; children read before the error are still walked.
func (w *Walker) fill(f *frame) error {
	entries, err := f.dir.ReadDir(w.cfg.batch)
	f.entries = entries
	if err != nil {
		f.eof = true
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}
	return nil
}

func (w *Walker) visit(rel string) (Entry, error) {
	info, err := w.fsys.Lstat(rel)
	if err != nil {
		return Entry{}, w.entryError(rel, "lstat", err)
	}

	entry := Entry{
		Path:     filepath.Join(w.root, rel),
		Metadata: Extract(info),
	}

	mode := info.Mode()
	if w.cfg.fileFlags && (mode.IsRegular() || mode.IsDir()) {
		flags, err := w.fsys.Flags(rel)
		if err != nil {
			w.log().Debug("inode flags unavailable", "path", entry.Path, "error", err)
		} else {
			entry.Flags = &flags
		}
	}

	if !mode.IsDir() {
		return entry, nil
	}

	if id, ok := entry.Metadata.identity(); ok {
		if _, dup := w.seen[id]; dup {
			w.log().Warn("directory already visited, not descending", "path", entry.Path)
			return entry, nil
		}
		w.seen[id] = struct{}{}
	}

	dir, err := w.fsys.OpenDir(rel)
	if err != nil {
		// The directory itself is still a valid entry; its listing failure
		// is reported on the following call.
		w.pending = w.entryError(rel, "open", err)
		return entry, nil
	}
	w.stack = append(w.stack, &frame{rel: rel, dir: dir})
	return entry, nil
}

func (w *Walker) pop() {
	top := w.stack[len(w.stack)-1]
	w.stack[len(w.stack)-1] = nil
	w.stack = w.stack[:len(w.stack)-1]
	if err := top.dir.Close(); err != nil {
		w.log().Debug("close directory", "path", filepath.Join(w.root, top.rel), "error", err)
	}
}

func (w *Walker) finish() {
	if w.done {
		return
	}
	w.done = true
	for len(w.stack) > 0 {
		w.pop()
	}
	w.pending = nil
	if w.closer != nil {
		_ = w.closer.Close() //nolint:errcheck // all reads are done
	}
}

func (w *Walker) entryError(rel, op string, err error) error {
	return &EntryError{Path: filepath.Join(w.root, rel), Op: op, Err: err}
}

// log returns the logger, falling back to a discard logger if nil.
func (w *Walker) log() *slog.Logger {
	if w.cfg.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return w.cfg.logger
}
