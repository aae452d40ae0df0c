package walk

import (
	"errors"
	"fmt"
)

var (
	// ErrRootUnreadable is returned when the walk root is missing,
	// not a directory, or cannot be listed.
	ErrRootUnreadable = errors.New("walk: root unreadable")

	// ErrEntryUnreadable is wrapped by every EntryError.
	ErrEntryUnreadable = errors.New("walk: entry unreadable")
)

// EntryError describes a descendant that could not be stat'ed or listed.
// The walk continues after returning it.
type EntryError struct {
	// Path is the entry path as it would have appeared in Entry.Path.
	Path string
	// Op is the failed operation ("lstat", "open", "readdir").
	Op  string
	Err error
}

func (e *EntryError) Error() string {
	return fmt.Sprintf("walk: %s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap returns both the sentinel and the underlying cause so callers can
// match either with errors.Is.
func (e *EntryError) Unwrap() []error {
	return []error{ErrEntryUnreadable, e.Err}
}
