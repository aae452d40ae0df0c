package timeline

import (
	"context"

	"github.com/meigma/timeline/blobhash"
)

// Receipt acknowledges one batch accepted by the sink. Receipts are
// reported in batch order.
type Receipt struct {
	// Sequence is the 0-based index of the batch within its export.
	Sequence int `json:"sequence"`

	// Digest is the hash of the exact bytes handed to the sink.
	Digest blobhash.Hash `json:"digest"`

	// Algorithm is the hash algorithm of Digest.
	Algorithm blobhash.Algorithm `json:"algorithm"`

	// Records is the number of records in the batch.
	Records int `json:"records"`

	// Size is the compressed batch size in bytes.
	Size int `json:"size"`

	// RawSize is the batch size before compression.
	RawSize int `json:"raw_size"`
}

// Replier receives one Receipt per batch.
type Replier interface {
	Reply(ctx context.Context, r Receipt) error
}

// ReplyFunc adapts a function to the Replier interface.
type ReplyFunc func(ctx context.Context, r Receipt) error

// Reply calls f.
func (f ReplyFunc) Reply(ctx context.Context, r Receipt) error {
	return f(ctx, r)
}

// Stats summarizes an export.
type Stats struct {
	// Entries is the number of entries exported.
	Entries int

	// Skipped is the number of entries left out because they could not
	// be read.
	Skipped int

	// Batches is the number of batches accepted by the sink.
	Batches int

	// Bytes is the total compressed size of the batches.
	Bytes int64

	// RawBytes is the total size of the batches before compression.
	RawBytes int64
}
