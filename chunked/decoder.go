package chunked

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"iter"

	"github.com/meigma/timeline/internal/codec"
	"github.com/meigma/timeline/internal/sizing"
)

// BatchReader reads the records of one decompressed batch in order.
type BatchReader[T any] struct {
	buf []byte
	off int
	n   int
}

// NewBatchReader decompresses data and prepares its records for reading.
// Only WithMaxBatchSize applies; the compression is detected from data.
func NewBatchReader[T any](data []byte, opts ...Option) (*BatchReader[T], error) {
	cfg := newConfig(opts)
	buf, err := decompress(data, cfg.maxBatchSize)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return &BatchReader[T]{buf: buf}, nil
}

// Next returns the next record. Next returns io.EOF once the batch is
// exhausted.
//
// A broken length prefix is reported with ErrCorruptBatch and ends the
// batch. A record whose CBOR fails to deserialize is reported with
// ErrDecode, but the batch is not abandoned: its length prefix was intact,
// so the following frames stay aligned and Next resumes with the next
// record. Callers that want a CBOR failure to end the batch stop calling
// Next after the first ErrDecode.
func (r *BatchReader[T]) Next() (T, error) {
	var v T
	if r.off >= len(r.buf) {
		return v, io.EOF
	}
	if len(r.buf)-r.off < prefixSize {
		err := fmt.Errorf("%w: %d trailing bytes at record %d", ErrCorruptBatch, len(r.buf)-r.off, r.n)
		r.off = len(r.buf)
		return v, err
	}
	size := binary.BigEndian.Uint64(r.buf[r.off:])
	start := r.off + prefixSize
	if !sizing.Remaining(len(r.buf), start, size) {
		err := fmt.Errorf("%w: record %d length %d overruns batch", ErrCorruptBatch, r.n, size)
		r.off = len(r.buf)
		return v, err
	}
	end := start + int(size) //nolint:gosec // bounded by Remaining
	r.off = end
	r.n++
	if err := codec.Unmarshal(r.buf[start:end], &v); err != nil {
		return v, fmt.Errorf("%w: record %d: %w", ErrDecode, r.n-1, err)
	}
	return v, nil
}

// All adapts the reader to a range-over-func sequence ending at io.EOF.
func (r *BatchReader[T]) All() iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		for {
			v, err := r.Next()
			if errors.Is(err, io.EOF) {
				return
			}
			if !yield(v, err) {
				return
			}
		}
	}
}

// RawSize returns the decompressed length of the batch.
func (r *BatchReader[T]) RawSize() int {
	return len(r.buf)
}

// Decode lazily decodes batches into records. Each batch is decoded
// independently: a batch that fails to decompress yields one error and is
// skipped, and a framing error abandons the rest of its batch only.
// Errors are annotated with the batch index.
func Decode[T any](batches iter.Seq[[]byte], opts ...Option) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		var zero T
		seq := 0
		for data := range batches {
			idx := seq
			seq++
			r, err := NewBatchReader[T](data, opts...)
			if err != nil {
				if !yield(zero, fmt.Errorf("batch %d: %w", idx, err)) {
					return
				}
				continue
			}
			for v, err := range r.All() {
				if err != nil {
					err = fmt.Errorf("batch %d: %w", idx, err)
				}
				if !yield(v, err) {
					return
				}
			}
		}
	}
}
