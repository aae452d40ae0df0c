package chunked

import (
	"bytes"
	"encoding/binary"
	"slices"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/meigma/timeline/internal/codec"
)

type item struct {
	ID   uint64 `cbor:"1,keyasint"`
	Body []byte `cbor:"2,keyasint,omitempty"`
}

var compressions = []Compression{Gzip, Zstd, LZ4}

// items returns n records with bodies of varying length.
func items(n int) []item {
	out := make([]item, n)
	for i := range out {
		out[i].ID = uint64(i)
		if l := i % 97; l > 0 {
			out[i].Body = bytes.Repeat([]byte{byte('a' + i%26)}, l)
		}
	}
	return out
}

func framedSize(t *testing.T, v any) int {
	t.Helper()
	data, err := codec.Marshal(v)
	require.NoError(t, err)
	return prefixSize + len(data)
}

// frame returns v serialized with its length prefix.
func frame(t *testing.T, v any) []byte {
	t.Helper()
	data, err := codec.Marshal(v)
	require.NoError(t, err)
	return append(binary.BigEndian.AppendUint64(nil, uint64(len(data))), data...)
}

// compressRaw compresses the concatenation of parts as a single batch.
func compressRaw(t *testing.T, c Compression, parts ...[]byte) []byte {
	t.Helper()
	comp, err := newCompressor(c, 0)
	require.NoError(t, err)
	var out bytes.Buffer
	require.NoError(t, comp.compress(&out, slices.Concat(parts...)))
	return out.Bytes()
}

func encodeAll(t *testing.T, in []item, opts ...Option) []Batch {
	t.Helper()
	var batches []Batch
	for b, err := range Encode(slices.Values(in), opts...) {
		require.NoError(t, err)
		batches = append(batches, b)
	}
	return batches
}

func batchData(batches []Batch) [][]byte {
	out := make([][]byte, len(batches))
	for i, b := range batches {
		out[i] = b.Data
	}
	return out
}
