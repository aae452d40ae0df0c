package chunked

import "log/slog"

// DefaultBatchSize is the default uncompressed batch bound.
const DefaultBatchSize = 640 << 10

type config struct {
	batchSize    int
	compression  Compression
	level        int
	maxBatchSize uint64
	logger       *slog.Logger
}

func newConfig(opts []Option) config {
	cfg := config{
		batchSize:   DefaultBatchSize,
		compression: Gzip,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// Option configures an Encoder or a decoder.
type Option func(*config)

// WithBatchSize sets the uncompressed size at which a batch is sealed.
// Values <= 0 use DefaultBatchSize.
func WithBatchSize(n int) Option {
	return func(c *config) {
		if n <= 0 {
			n = DefaultBatchSize
		}
		c.batchSize = n
	}
}

// WithCompression sets the batch compression algorithm. Decoding ignores
// it and detects the algorithm from each batch.
func WithCompression(comp Compression) Option {
	return func(c *config) {
		c.compression = comp
	}
}

// WithCompressionLevel sets an algorithm-specific level. Zero selects the
// algorithm's default.
func WithCompressionLevel(level int) Option {
	return func(c *config) {
		if level < 0 {
			level = 0
		}
		c.level = level
	}
}

// WithMaxBatchSize limits the decompressed size of a decoded batch.
// Zero disables the limit.
func WithMaxBatchSize(n uint64) Option {
	return func(c *config) {
		c.maxBatchSize = n
	}
}

// WithLogger sets the logger for batch diagnostics.
// A nil logger discards output.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

func (c *config) log() *slog.Logger {
	if c.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return c.logger
}
