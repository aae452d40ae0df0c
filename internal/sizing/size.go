// Package sizing provides overflow-safe size conversions for wire lengths.
package sizing

import (
	"io"
	"math"
)

// Remaining reports whether n more bytes fit in a buffer of length total
// starting at offset.
func Remaining(total, offset int, n uint64) bool {
	if offset < 0 || offset > total {
		return false
	}
	return n <= uint64(total-offset) //nolint:gosec // total-offset is non-negative
}

// ReadAllWithLimit reads up to maxSize bytes from r.
// Returns overflowErr if more than maxSize bytes are available.
// A maxSize of zero disables the limit.
func ReadAllWithLimit(r io.Reader, maxSize uint64, overflowErr error) ([]byte, error) {
	if maxSize == 0 {
		return io.ReadAll(r)
	}
	if maxSize > uint64(math.MaxInt-1) {
		return nil, overflowErr
	}
	limit := int64(maxSize) + 1 //nolint:gosec // checked above
	lr := &io.LimitedReader{R: r, N: limit}
	data, err := io.ReadAll(lr)
	if err != nil {
		return nil, err
	}
	if uint64(len(data)) > maxSize {
		return nil, overflowErr
	}
	return data, nil
}
