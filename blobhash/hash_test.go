package blobhash

import (
	"encoding/json"
	"testing"

	"github.com/opencontainers/go-digest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var algorithms = []Algorithm{SHA256, BLAKE3}

func TestSumKnownValues(t *testing.T) {
	t.Parallel()

	assert.Equal(t,
		"e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		Sum(nil).String())
	assert.Equal(t,
		"af1349b9f5f9a1a6a0404dea36dcc9499bcb25c9adc112b7cc9a93cae41f3262",
		BLAKE3.Sum(nil).String())
	assert.Equal(t, digest.FromBytes([]byte("abc")), Sum([]byte("abc")).Digest(SHA256))
}

func TestSumDeterministic(t *testing.T) {
	t.Parallel()

	data := []byte("the same batch bytes")
	for _, a := range algorithms {
		assert.Equal(t, a.Sum(data), a.Sum(data), a.String())
	}
}

func TestSumBitFlip(t *testing.T) {
	t.Parallel()

	data := []byte("batch payload used for bit flip checks")
	for _, a := range algorithms {
		want := a.Sum(data)
		for i := range len(data) * 8 {
			flipped := append([]byte(nil), data...)
			flipped[i/8] ^= 1 << (i % 8)
			assert.NotEqual(t, want, a.Sum(flipped), "%s bit %d", a, i)
		}
	}
	assert.NotEqual(t, SHA256.Sum(data), BLAKE3.Sum(data))
}

func TestVerify(t *testing.T) {
	t.Parallel()

	data := []byte("payload")
	for _, a := range algorithms {
		require.NoError(t, a.Verify(data, a.Sum(data)))

		err := a.Verify([]byte("paylaod"), a.Sum(data))
		assert.ErrorIs(t, err, ErrMismatch)
	}
}

func TestParseHash(t *testing.T) {
	t.Parallel()

	h := Sum([]byte("x"))
	got, err := ParseHash(h.String())
	require.NoError(t, err)
	assert.Equal(t, h, got)

	for _, bad := range []string{"", "abc", h.String()[:62] + "zz", h.String() + "00"} {
		_, err := ParseHash(bad)
		assert.ErrorIs(t, err, ErrInvalidHash, bad)
	}
}

func TestDigestRoundTrip(t *testing.T) {
	t.Parallel()

	for _, a := range algorithms {
		h := a.Sum([]byte("x"))
		d := h.Digest(a)
		assert.Equal(t, a.String()+":"+h.String(), d.String())

		alg, parsed, err := ParseDigest(d)
		require.NoError(t, err)
		assert.Equal(t, a, alg)
		assert.Equal(t, h, parsed)
	}

	_, _, err := ParseDigest("nocolon")
	assert.ErrorIs(t, err, ErrInvalidHash)
	_, _, err = ParseDigest("md5:abcd")
	assert.ErrorIs(t, err, ErrUnknownAlgorithm)
}

func TestJSON(t *testing.T) {
	t.Parallel()

	type receipt struct {
		Algorithm Algorithm `json:"algorithm"`
		Digest    Hash      `json:"digest"`
	}
	in := receipt{Algorithm: BLAKE3, Digest: BLAKE3.Sum([]byte("x"))}

	data, err := json.Marshal(in)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"algorithm":"blake3"`)

	var out receipt
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, in, out)
}

func TestParseAlgorithm(t *testing.T) {
	t.Parallel()

	for _, a := range algorithms {
		got, err := ParseAlgorithm(a.String())
		require.NoError(t, err)
		assert.Equal(t, a, got)
	}
	_, err := ParseAlgorithm("md5")
	assert.ErrorIs(t, err, ErrUnknownAlgorithm)
	assert.True(t, Hash{}.IsZero())
}
