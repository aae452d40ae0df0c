// Package blobhash computes the content digests that identify exported
// batches.
//
// A digest covers the exact bytes handed to the sink, after compression,
// so recomputing it on receipt detects any corruption in transit.
package blobhash

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/opencontainers/go-digest"
	"github.com/zeebo/blake3"
)

// Size is the digest length in bytes for every supported algorithm.
const Size = 32

var (
	// ErrMismatch is returned when data does not hash to the expected digest.
	ErrMismatch = errors.New("blobhash: digest mismatch")

	// ErrUnknownAlgorithm is returned for unrecognized algorithm names.
	ErrUnknownAlgorithm = errors.New("blobhash: unknown algorithm")

	// ErrInvalidHash is returned when a hash string cannot be parsed.
	ErrInvalidHash = errors.New("blobhash: invalid hash")
)

// Algorithm selects the hash function.
type Algorithm uint8

const (
	// SHA256 is the default algorithm.
	SHA256 Algorithm = iota
	// BLAKE3 is the 256-bit BLAKE3 hash.
	BLAKE3
)

func (a Algorithm) String() string {
	switch a {
	case SHA256:
		return "sha256"
	case BLAKE3:
		return "blake3"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(a))
	}
}

// ParseAlgorithm parses an algorithm name as printed by String.
func ParseAlgorithm(name string) (Algorithm, error) {
	switch strings.ToLower(name) {
	case "sha256", "sha-256":
		return SHA256, nil
	case "blake3":
		return BLAKE3, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, name)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (a Algorithm) MarshalText() ([]byte, error) {
	if a != SHA256 && a != BLAKE3 {
		return nil, fmt.Errorf("%w: %d", ErrUnknownAlgorithm, uint8(a))
	}
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Algorithm) UnmarshalText(text []byte) error {
	parsed, err := ParseAlgorithm(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// Sum hashes data with the algorithm.
func (a Algorithm) Sum(data []byte) Hash {
	if a == BLAKE3 {
		return Hash(blake3.Sum256(data))
	}
	return Hash(sha256.Sum256(data))
}

// Verify reports ErrMismatch when data does not hash to want.
func (a Algorithm) Verify(data []byte, want Hash) error {
	if got := a.Sum(data); got != want {
		return fmt.Errorf("%w: %s: got %s, want %s", ErrMismatch, a, got, want)
	}
	return nil
}

// digestAlgorithm is the OCI name of the algorithm.
func (a Algorithm) digestAlgorithm() digest.Algorithm {
	if a == BLAKE3 {
		return digest.Algorithm("blake3")
	}
	return digest.SHA256
}

// Hash is a 256-bit content digest.
type Hash [Size]byte

// Sum returns the SHA-256 digest of data.
func Sum(data []byte) Hash {
	return SHA256.Sum(data)
}

// String returns the lowercase hex encoding.
func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// IsZero reports whether h is the zero value.
func (h Hash) IsZero() bool {
	return h == Hash{}
}

// Digest returns h as an OCI digest ("<alg>:<hex>").
func (h Hash) Digest(a Algorithm) digest.Digest {
	return digest.NewDigestFromEncoded(a.digestAlgorithm(), h.String())
}

// MarshalText implements encoding.TextMarshaler.
func (h Hash) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (h *Hash) UnmarshalText(text []byte) error {
	parsed, err := ParseHash(string(text))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

// ParseHash parses a 64-character hex string.
func ParseHash(s string) (Hash, error) {
	var h Hash
	if hex.DecodedLen(len(s)) != Size {
		return h, fmt.Errorf("%w: length %d, want %d hex characters", ErrInvalidHash, len(s), 2*Size)
	}
	if _, err := hex.Decode(h[:], []byte(s)); err != nil {
		return Hash{}, fmt.Errorf("%w: %w", ErrInvalidHash, err)
	}
	return h, nil
}

// ParseDigest parses an OCI digest string produced by Hash.Digest.
func ParseDigest(d digest.Digest) (Algorithm, Hash, error) {
	s := string(d)
	i := strings.IndexByte(s, ':')
	if i < 0 {
		return 0, Hash{}, fmt.Errorf("%w: missing algorithm in %q", ErrInvalidHash, s)
	}
	alg, err := ParseAlgorithm(s[:i])
	if err != nil {
		return 0, Hash{}, err
	}
	h, err := ParseHash(s[i+1:])
	if err != nil {
		return 0, Hash{}, err
	}
	return alg, h, nil
}
