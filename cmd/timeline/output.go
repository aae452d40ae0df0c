package main

import (
	"encoding/json"
	"io"
	"sync"
	"unicode/utf8"

	"github.com/meigma/timeline"
	"github.com/meigma/timeline/record"
)

// lineWriter writes JSON values one per line. It is safe for concurrent use.
type lineWriter struct {
	mu  sync.Mutex
	enc *json.Encoder
}

func newLineWriter(w io.Writer) *lineWriter {
	return &lineWriter{enc: json.NewEncoder(w)}
}

func (w *lineWriter) write(v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.enc.Encode(v)
}

// receiptLine is one line of a receipts file.
type receiptLine struct {
	Root string `json:"root"`
	timeline.Receipt
}

// recordLine is the JSON rendition of a record. Paths that are not valid
// UTF-8 are also given as raw bytes so no information is lost.
type recordLine struct {
	Root       string  `json:"root,omitempty"`
	Path       string  `json:"path"`
	PathBytes  []byte  `json:"path_bytes,omitempty"`
	Size       *uint64 `json:"size,omitempty"`
	Mode       *uint32 `json:"mode,omitempty"`
	Inode      *uint64 `json:"inode,omitempty"`
	Device     *uint64 `json:"device,omitempty"`
	UID        *uint32 `json:"uid,omitempty"`
	GID        *uint32 `json:"gid,omitempty"`
	Accessed   *int64  `json:"atime_ns,omitempty"`
	Modified   *int64  `json:"mtime_ns,omitempty"`
	Changed    *int64  `json:"ctime_ns,omitempty"`
	Born       *int64  `json:"btime_ns,omitempty"`
	Attributes *uint32 `json:"attributes,omitempty"`
}

func newRecordLine(root string, r record.Record) recordLine {
	l := recordLine{
		Root:       root,
		Path:       string(r.Path),
		Size:       r.Size,
		Mode:       r.Mode,
		Inode:      r.Inode,
		Device:     r.Device,
		UID:        r.UID,
		GID:        r.GID,
		Accessed:   r.AccessTimeNanos,
		Modified:   r.ModifyTimeNanos,
		Changed:    r.ChangeTimeNanos,
		Born:       r.BirthTimeNanos,
		Attributes: r.Attributes,
	}
	if !utf8.Valid(r.Path) {
		l.PathBytes = r.Path
	}
	return l
}
