package walk

import "log/slog"

// readDirBatch bounds how many directory entries are held per open directory.
const readDirBatch = 256

type config struct {
	logger    *slog.Logger
	fileFlags bool
	batch     int
}

// Option configures a Walker.
type Option func(*config)

// WithLogger sets the logger used for walk diagnostics.
// A nil logger discards output.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithFileFlags enables the per-entry inode attribute flag query for
// regular files and directories. This opens every such entry once; it is
// only supported on Linux and leaves Entry.Flags nil elsewhere.
func WithFileFlags(enabled bool) Option {
	return func(c *config) {
		c.fileFlags = enabled
	}
}

// WithReadDirBatch sets how many directory entries are read per call.
// Values <= 0 use the default.
func WithReadDirBatch(n int) Option {
	return func(c *config) {
		if n <= 0 {
			n = readDirBatch
		}
		c.batch = n
	}
}
