package timeline

import (
	"log/slog"

	"github.com/meigma/timeline/blobhash"
	"github.com/meigma/timeline/chunked"
	"github.com/meigma/timeline/walk"
)

// config holds export configuration.
type config struct {
	logger       *slog.Logger
	batchSize    int
	compression  chunked.Compression
	level        int
	alg          blobhash.Algorithm
	fileFlags    bool
	readDirBatch int
	progress     ProgressFunc

	// open starts the walk; tests replace it to inject entries.
	open func(root string, opts ...walk.Option) (entrySource, error)
}

func newConfig(opts []Option) config {
	cfg := config{
		batchSize:   chunked.DefaultBatchSize,
		compression: chunked.Gzip,
		alg:         blobhash.SHA256,
		open:        openWalker,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// Option configures an export.
type Option func(*config)

// WithLogger sets the logger for export diagnostics. Skipped entries are
// logged at warn level, sealed batches at debug level.
// A nil logger discards output.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithBatchSize sets the uncompressed size at which a batch is sealed.
// Values <= 0 use chunked.DefaultBatchSize.
func WithBatchSize(n int) Option {
	return func(c *config) {
		if n <= 0 {
			n = chunked.DefaultBatchSize
		}
		c.batchSize = n
	}
}

// WithCompression sets the batch compression. Defaults to gzip.
func WithCompression(comp chunked.Compression) Option {
	return func(c *config) {
		c.compression = comp
	}
}

// WithCompressionLevel sets an algorithm-specific compression level.
// Zero selects the algorithm's default.
func WithCompressionLevel(level int) Option {
	return func(c *config) {
		c.level = level
	}
}

// WithHashAlgorithm sets the receipt digest algorithm. Defaults to SHA-256.
func WithHashAlgorithm(alg blobhash.Algorithm) Option {
	return func(c *config) {
		c.alg = alg
	}
}

// WithFileFlags records Linux inode attribute flags for regular files and
// directories. It has no effect on other platforms.
func WithFileFlags(enabled bool) Option {
	return func(c *config) {
		c.fileFlags = enabled
	}
}

// WithReadDirBatch sets how many directory entries are read per call.
// Values <= 0 use the walker default.
func WithReadDirBatch(n int) Option {
	return func(c *config) {
		c.readDirBatch = n
	}
}

// WithProgress sets a callback for progress updates.
func WithProgress(fn ProgressFunc) Option {
	return func(c *config) {
		c.progress = fn
	}
}
