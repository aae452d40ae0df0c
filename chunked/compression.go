package chunked

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/meigma/timeline/internal/sizing"
)

// Compression identifies the algorithm applied to a whole batch.
type Compression uint8

const (
	// Gzip produces batches readable by any gzip implementation.
	Gzip Compression = iota
	// Zstd trades a little compatibility for better ratio and speed.
	Zstd
	// LZ4 uses the LZ4 frame format.
	LZ4
)

func (c Compression) String() string {
	switch c {
	case Gzip:
		return "gzip"
	case Zstd:
		return "zstd"
	case LZ4:
		return "lz4"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(c))
	}
}

// ParseCompression parses a compression name as printed by String.
func ParseCompression(name string) (Compression, error) {
	switch strings.ToLower(name) {
	case "gzip", "gz":
		return Gzip, nil
	case "zstd", "zst":
		return Zstd, nil
	case "lz4":
		return LZ4, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownCompression, name)
	}
}

// Frame magic numbers, used to pick a decompressor per batch.
var (
	gzipMagic = []byte{0x1f, 0x8b}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
	lz4Magic  = []byte{0x04, 0x22, 0x4d, 0x18}
)

// Detect reports the compression of a batch from its leading bytes.
func Detect(data []byte) (Compression, error) {
	switch {
	case bytes.HasPrefix(data, gzipMagic):
		return Gzip, nil
	case bytes.HasPrefix(data, zstdMagic):
		return Zstd, nil
	case bytes.HasPrefix(data, lz4Magic):
		return LZ4, nil
	default:
		return 0, ErrUnknownCompression
	}
}

// compressor turns one uncompressed buffer into one compressed frame. A
// compressor belongs to a single Encoder and is not safe for concurrent use.
type compressor interface {
	compress(dst *bytes.Buffer, src []byte) error
}

func newCompressor(c Compression, level int) (compressor, error) {
	switch c {
	case Gzip:
		if level == 0 {
			level = gzip.DefaultCompression
		}
		w, err := gzip.NewWriterLevel(io.Discard, level)
		if err != nil {
			return nil, err
		}
		return &gzipCompressor{w: w}, nil
	case Zstd:
		zlevel := zstd.SpeedDefault
		if level != 0 {
			zlevel = zstd.EncoderLevelFromZstd(level)
		}
		enc, err := zstd.NewWriter(nil,
			zstd.WithEncoderLevel(zlevel),
			zstd.WithEncoderConcurrency(1),
			zstd.WithZeroFrames(true),
		)
		if err != nil {
			return nil, err
		}
		return &zstdCompressor{enc: enc}, nil
	case LZ4:
		w := lz4.NewWriter(io.Discard)
		if err := w.Apply(lz4.CompressionLevelOption(lz4Level(level)), lz4.ConcurrencyOption(1)); err != nil {
			return nil, err
		}
		return &lz4Compressor{w: w}, nil
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnknownCompression, c)
	}
}

type gzipCompressor struct {
	w *gzip.Writer
}

func (g *gzipCompressor) compress(dst *bytes.Buffer, src []byte) error {
	g.w.Reset(dst)
	if _, err := g.w.Write(src); err != nil {
		return err
	}
	return g.w.Close()
}

type zstdCompressor struct {
	enc *zstd.Encoder
}

func (z *zstdCompressor) compress(dst *bytes.Buffer, src []byte) error {
	dst.Write(z.enc.EncodeAll(src, dst.AvailableBuffer()))
	return nil
}

type lz4Compressor struct {
	w *lz4.Writer
}

// compress relies on Reset keeping the options applied at construction.
func (l *lz4Compressor) compress(dst *bytes.Buffer, src []byte) error {
	l.w.Reset(dst)
	if _, err := l.w.Write(src); err != nil {
		return err
	}
	return l.w.Close()
}

func lz4Level(level int) lz4.CompressionLevel {
	switch {
	case level <= 0:
		return lz4.Fast
	case level >= 9:
		return lz4.Level9
	default:
		return lz4.CompressionLevel(1 << (8 + level))
	}
}

// Decoder readers are pooled per algorithm; a pooled reader carries
// internal buffers worth reusing across batches.
var (
	gzipReaders sync.Pool
	lz4Readers  sync.Pool
	zstdReaders sync.Pool
)

// decompress inflates one batch, refusing output larger than limit bytes.
// A limit of zero disables the check.
func decompress(data []byte, limit uint64) ([]byte, error) {
	c, err := Detect(data)
	if err != nil {
		return nil, err
	}
	src := bytes.NewReader(data)

	switch c {
	case Gzip:
		zr, ok := gzipReaders.Get().(*gzip.Reader)
		if ok {
			err = zr.Reset(src)
		} else {
			zr, err = gzip.NewReader(src)
		}
		if err != nil {
			return nil, err
		}
		defer gzipReaders.Put(zr)
		out, err := sizing.ReadAllWithLimit(zr, limit, ErrBatchTooLarge)
		if err != nil {
			return nil, err
		}
		return out, zr.Close()

	case Zstd:
		dec, release, err := getZstd(src)
		if err != nil {
			return nil, err
		}
		defer release()
		out, err := sizing.ReadAllWithLimit(dec, limit, ErrBatchTooLarge)
		if errors.Is(err, zstd.ErrDecoderSizeExceeded) || errors.Is(err, zstd.ErrWindowSizeExceeded) {
			return nil, fmt.Errorf("%w: %w", ErrBatchTooLarge, err)
		}
		return out, err

	case LZ4:
		zr, ok := lz4Readers.Get().(*lz4.Reader)
		if ok {
			zr.Reset(src)
		} else {
			zr = lz4.NewReader(src)
		}
		defer lz4Readers.Put(zr)
		return sizing.ReadAllWithLimit(zr, limit, ErrBatchTooLarge)
	}
	return nil, ErrUnknownCompression
}

// getZstd returns a pooled single-threaded decoder reading from r. The
// caller must call release when done.
func getZstd(r io.Reader) (*zstd.Decoder, func(), error) {
	release := func(dec *zstd.Decoder) func() {
		return func() {
			_ = dec.Reset(nil) //nolint:errcheck // clearing state before pool return
			zstdReaders.Put(dec)
		}
	}
	if dec, ok := zstdReaders.Get().(*zstd.Decoder); ok {
		if err := dec.Reset(r); err == nil {
			return dec, release(dec), nil
		}
		dec.Close()
	}
	dec, err := zstd.NewReader(r,
		zstd.WithDecoderConcurrency(1),
		zstd.WithDecoderLowmem(false),
	)
	if err != nil {
		return nil, nil, err
	}
	return dec, release(dec), nil
}
