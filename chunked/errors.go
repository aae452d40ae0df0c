package chunked

import "errors"

var (
	// ErrEncode is returned when a record cannot be serialized or a batch
	// cannot be compressed.
	ErrEncode = errors.New("chunked: encode failed")

	// ErrDecode is returned when a batch cannot be decompressed or a record
	// inside it cannot be deserialized.
	ErrDecode = errors.New("chunked: decode failed")

	// ErrCorruptBatch is returned when a length prefix is truncated or
	// points past the end of the decompressed batch. The rest of that batch
	// is abandoned.
	ErrCorruptBatch = errors.New("chunked: corrupt batch framing")

	// ErrBatchTooLarge is returned when a batch decompresses to more than
	// the configured limit.
	ErrBatchTooLarge = errors.New("chunked: batch exceeds size limit")

	// ErrUnknownCompression is returned for unrecognized compression names
	// or batch headers.
	ErrUnknownCompression = errors.New("chunked: unknown compression")
)
