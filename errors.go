package timeline

import (
	"errors"

	"github.com/meigma/timeline/chunked"
	"github.com/meigma/timeline/walk"
)

var (
	// ErrSink is returned when the sink rejects a batch.
	ErrSink = errors.New("timeline: sink failed")

	// ErrReply is returned when the replier rejects a receipt.
	ErrReply = errors.New("timeline: reply failed")
)

// Errors re-exported from walk and chunked.
var (
	// ErrRootUnreadable is returned when the export root is missing, not a
	// directory, or cannot be listed.
	ErrRootUnreadable = walk.ErrRootUnreadable

	// ErrEntryUnreadable marks entries skipped during the walk.
	ErrEntryUnreadable = walk.ErrEntryUnreadable

	// ErrEncode is returned when a record or batch cannot be encoded.
	ErrEncode = chunked.ErrEncode
)
