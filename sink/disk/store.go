// Package disk provides a content-addressed sink on the local filesystem.
//
// Blobs are stored under dir/<algorithm>/<shard>/<hex digest>, where shard
// is a prefix of the hex digest. Writes go to a temporary file that is
// renamed into place, so a blob path either holds the complete blob or
// does not exist.
package disk

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/meigma/timeline/blobhash"
	"github.com/meigma/timeline/sink"
)

const (
	defaultShardPrefixLen = 2
	defaultDirPerm        = 0o700
	defaultFilePerm       = 0o600
)

// Store implements sink.Sink using the local filesystem.
// It is safe for concurrent use.
type Store struct {
	dir            string
	shardPrefixLen int
	dirPerm        os.FileMode
	filePerm       os.FileMode
	alg            blobhash.Algorithm
	logger         *slog.Logger
}

var _ sink.Sink = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithShardPrefixLen sets the number of hex characters used for sharding.
// Use 0 to disable sharding. Defaults to 2.
func WithShardPrefixLen(n int) Option {
	return func(s *Store) {
		s.shardPrefixLen = n
	}
}

// WithDirPerm sets the permissions of created directories.
func WithDirPerm(mode os.FileMode) Option {
	return func(s *Store) {
		s.dirPerm = mode
	}
}

// WithFilePerm sets the permissions of stored blobs.
func WithFilePerm(mode os.FileMode) Option {
	return func(s *Store) {
		s.filePerm = mode
	}
}

// WithAlgorithm sets the hash used to address blobs. Defaults to SHA-256.
func WithAlgorithm(alg blobhash.Algorithm) Option {
	return func(s *Store) {
		s.alg = alg
	}
}

// WithLogger sets the logger for store diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// New creates a store rooted at dir, creating it if needed.
func New(dir string, opts ...Option) (*Store, error) {
	if dir == "" {
		return nil, errors.New("disk: store dir is empty")
	}
	s := &Store{
		dir:            dir,
		shardPrefixLen: defaultShardPrefixLen,
		dirPerm:        defaultDirPerm,
		filePerm:       defaultFilePerm,
		alg:            blobhash.SHA256,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.shardPrefixLen < 0 {
		return nil, errors.New("disk: shard prefix length must be >= 0")
	}
	if err := os.MkdirAll(dir, s.dirPerm); err != nil {
		return nil, err
	}
	return s, nil
}

// Algorithm returns the hash the store addresses new blobs with.
func (s *Store) Algorithm() blobhash.Algorithm {
	return s.alg
}

// Send stores data under its digest. Storing a blob that already exists is
// a no-op.
func (s *Store) Send(ctx context.Context, kind sink.Kind, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := sink.Check(kind); err != nil {
		return err
	}
	_, err := s.Put(data)
	return err
}

// Put stores data and returns its digest.
func (s *Store) Put(data []byte) (blobhash.Hash, error) {
	h := s.alg.Sum(data)
	path := s.Path(s.alg, h)
	if _, err := os.Stat(path); err == nil {
		s.log().Debug("blob already stored", "digest", h.Digest(s.alg))
		return h, nil
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, s.dirPerm); err != nil {
		return h, err
	}

	tmp, err := os.CreateTemp(dir, "blob-*")
	if err != nil {
		return h, err
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		_ = os.Remove(tmpPath)
		return h, err
	}
	if err := tmp.Chmod(s.filePerm); err != nil {
		tmp.Close()
		_ = os.Remove(tmpPath)
		return h, err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return h, err
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		// A concurrent writer stored the same content first.
		if _, statErr := os.Stat(path); statErr == nil {
			return h, nil
		}
		return h, err
	}
	s.log().Debug("blob stored", "digest", h.Digest(s.alg), "size", len(data))
	return h, nil
}

// Get returns the blob stored under h. The content is verified against
// h; a corrupted blob returns blobhash.ErrMismatch. A missing blob returns
// an error matching fs.ErrNotExist.
func (s *Store) Get(alg blobhash.Algorithm, h blobhash.Hash) ([]byte, error) {
	data, err := os.ReadFile(s.Path(alg, h)) //nolint:gosec // path is derived from the digest
	if err != nil {
		return nil, err
	}
	if err := alg.Verify(data, h); err != nil {
		return nil, fmt.Errorf("disk: %s: %w", h.Digest(alg), err)
	}
	return data, nil
}

// Has reports whether a blob is stored under h.
func (s *Store) Has(alg blobhash.Algorithm, h blobhash.Hash) bool {
	_, err := os.Stat(s.Path(alg, h))
	return err == nil
}

// Path returns the file a blob with digest h is stored at.
func (s *Store) Path(alg blobhash.Algorithm, h blobhash.Hash) string {
	hexHash := h.String()
	base := filepath.Join(s.dir, alg.String())
	if s.shardPrefixLen <= 0 {
		return filepath.Join(base, hexHash)
	}
	prefixLen := min(s.shardPrefixLen, len(hexHash))
	return filepath.Join(base, hexHash[:prefixLen], hexHash)
}

// Size returns the total size of stored blobs in bytes.
func (s *Store) Size() (int64, error) {
	var total int64
	err := filepath.WalkDir(s.dir, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		total += info.Size()
		return nil
	})
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	return total, err
}

func (s *Store) log() *slog.Logger {
	if s.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return s.logger
}
