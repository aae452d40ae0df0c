package chunked

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"iter"

	"github.com/meigma/timeline/internal/codec"
)

// prefixSize is the length of the big-endian record length prefix.
const prefixSize = 8

// Batch is one sealed, compressed group of records.
type Batch struct {
	// Data is the compressed batch. It is owned by the caller.
	Data []byte
	// Records is the number of records in the batch.
	Records int
	// RawSize is the length of the framed records before compression.
	RawSize int
}

// Encoder accumulates records and seals them into batches.
// An Encoder is not safe for concurrent use.
type Encoder[T any] struct {
	cfg     config
	comp    compressor
	buf     []byte
	records int
	batches int
}

// NewEncoder returns an encoder for records of type T.
func NewEncoder[T any](opts ...Option) (*Encoder[T], error) {
	cfg := newConfig(opts)
	comp, err := newCompressor(cfg.compression, cfg.level)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncode, err)
	}
	return &Encoder[T]{cfg: cfg, comp: comp}, nil
}

// Add appends v to the current batch. When the buffered size reaches the
// batch bound, the batch is sealed and returned with ok set.
func (e *Encoder[T]) Add(v T) (b Batch, ok bool, err error) {
	data, err := codec.Marshal(v)
	if err != nil {
		return Batch{}, false, fmt.Errorf("%w: %w", ErrEncode, err)
	}
	e.buf = binary.BigEndian.AppendUint64(e.buf, uint64(len(data)))
	e.buf = append(e.buf, data...)
	e.records++

	if len(e.buf) < e.cfg.batchSize {
		return Batch{}, false, nil
	}
	b, err = e.seal()
	if err != nil {
		return Batch{}, false, err
	}
	return b, true, nil
}

// Flush seals whatever is buffered. It reports ok false when nothing is
// buffered.
func (e *Encoder[T]) Flush() (b Batch, ok bool, err error) {
	if e.records == 0 {
		return Batch{}, false, nil
	}
	b, err = e.seal()
	if err != nil {
		return Batch{}, false, err
	}
	return b, true, nil
}

// Buffered returns the uncompressed size of the open batch.
func (e *Encoder[T]) Buffered() int {
	return len(e.buf)
}

func (e *Encoder[T]) seal() (Batch, error) {
	var out bytes.Buffer
	out.Grow(len(e.buf)/4 + 64)
	if err := e.comp.compress(&out, e.buf); err != nil {
		return Batch{}, fmt.Errorf("%w: compress %s: %w", ErrEncode, e.cfg.compression, err)
	}

	b := Batch{
		Data:    out.Bytes(),
		Records: e.records,
		RawSize: len(e.buf),
	}
	e.cfg.log().Debug("batch sealed",
		"sequence", e.batches,
		"records", b.Records,
		"raw_size", b.RawSize,
		"size", len(b.Data),
		"compression", e.cfg.compression.String())

	e.batches++
	e.records = 0
	// Keep the allocation unless one oversized record blew it up.
	if cap(e.buf) > 2*e.cfg.batchSize {
		e.buf = nil
	} else {
		e.buf = e.buf[:0]
	}
	return b, nil
}

// Encode lazily encodes records into batches. The sequence stops after the
// first error.
func Encode[T any](records iter.Seq[T], opts ...Option) iter.Seq2[Batch, error] {
	return func(yield func(Batch, error) bool) {
		enc, err := NewEncoder[T](opts...)
		if err != nil {
			yield(Batch{}, err)
			return
		}
		for v := range records {
			b, ok, err := enc.Add(v)
			if err != nil {
				yield(Batch{}, err)
				return
			}
			if ok && !yield(b, nil) {
				return
			}
		}
		b, ok, err := enc.Flush()
		if err != nil {
			yield(Batch{}, err)
			return
		}
		if ok {
			yield(b, nil)
		}
	}
}
