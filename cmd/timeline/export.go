package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"

	"github.com/opencontainers/go-digest"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
	"github.com/spf13/pflag"
	"oras.land/oras-go/v2"

	"github.com/meigma/timeline"
	"github.com/meigma/timeline/blobhash"
	"github.com/meigma/timeline/chunked"
	"github.com/meigma/timeline/sink"
	"github.com/meigma/timeline/sink/disk"
	"github.com/meigma/timeline/sink/oci"
)

func newExportFlags(stderr io.Writer) (*pflag.FlagSet, *options) {
	flags := new(options)
	fs := pflag.NewFlagSet("timeline export", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringArrayVar(&flags.Roots, "root", nil, "directory to export (repeatable)")
	addTargetFlags(fs, flags)
	fs.IntVar(&flags.BatchSize, "batch-size", chunked.DefaultBatchSize, "uncompressed batch size bound in bytes")
	fs.StringVar(&flags.Compression, "compression", "gzip", "batch compression (gzip, zstd, lz4)")
	fs.StringVar(&flags.Hash, "hash", "sha256", "batch digest algorithm (sha256, blake3)")
	fs.BoolVar(&flags.FileFlags, "file-flags", false, "record inode attribute flags (linux)")
	fs.IntVar(&flags.Parallel, "parallel", 1, "roots exported at once")
	return fs, flags
}

func runExport(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs, flags := newExportFlags(stderr)
	opts, err := parseOptions(fs, args, flags)
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if len(opts.Roots) == 0 {
		return errors.New("at least one --root is required")
	}
	if err := opts.checkTarget(); err != nil {
		return err
	}

	logger, err := newLogger(stderr, opts.LogLevel)
	if err != nil {
		return err
	}
	comp, err := chunked.ParseCompression(opts.Compression)
	if err != nil {
		return err
	}
	alg, err := blobhash.ParseAlgorithm(opts.Hash)
	if err != nil {
		return err
	}

	receiptsOut := stdout
	if opts.Receipts != "" {
		f, err := os.Create(opts.Receipts)
		if err != nil {
			return fmt.Errorf("create receipts file: %w", err)
		}
		defer f.Close()
		receiptsOut = f
	}
	receipts := newLineWriter(receiptsOut)

	targets, err := newTargets(opts, alg, logger)
	if err != nil {
		return err
	}

	jobs := make([]timeline.Job, len(opts.Roots))
	for i, root := range opts.Roots {
		jobs[i] = timeline.Job{
			Root: root,
			Sink: targets.sink(i, root),
			Replier: timeline.ReplyFunc(func(_ context.Context, r timeline.Receipt) error {
				return receipts.write(receiptLine{Root: root, Receipt: r})
			}),
		}
	}

	exportOpts := []timeline.Option{
		timeline.WithLogger(logger),
		timeline.WithCompression(comp),
		timeline.WithHashAlgorithm(alg),
		timeline.WithFileFlags(opts.FileFlags),
	}
	if opts.BatchSize > 0 {
		exportOpts = append(exportOpts, timeline.WithBatchSize(opts.BatchSize))
	}

	stats, err := timeline.ExportEach(ctx, jobs, opts.Parallel, exportOpts...)
	for i, s := range stats {
		logger.Info("root exported",
			"root", opts.Roots[i],
			"entries", s.Entries,
			"skipped", s.Skipped,
			"batches", s.Batches,
			"bytes", s.Bytes)
	}
	if err != nil {
		return err
	}
	return targets.finish(ctx, logger)
}

// exportTargets holds the sinks of one export run: a single blob store
// shared by every root, or one OCI sink per root.
type exportTargets struct {
	store  *disk.Store
	target oras.Target
	tag    string
	logger *slog.Logger
	sinks  []*oci.Sink
	roots  []string
}

func newTargets(opts options, alg blobhash.Algorithm, logger *slog.Logger) (*exportTargets, error) {
	t := &exportTargets{logger: logger, sinks: make([]*oci.Sink, len(opts.Roots)), roots: opts.Roots}
	if opts.Out != "" {
		store, err := disk.New(opts.Out, disk.WithAlgorithm(alg), disk.WithLogger(logger))
		if err != nil {
			return nil, fmt.Errorf("open blob store: %w", err)
		}
		t.store = store
		return t, nil
	}

	target, tag, err := ociTarget(opts)
	if err != nil {
		return nil, err
	}
	if _, err := digest.Parse(tag); err == nil {
		return nil, fmt.Errorf("cannot tag an export with digest %s; use a tag", tag)
	}
	t.target, t.tag = target, tag
	return t, nil
}

// ociTarget opens the OCI layout or registry target and returns the
// manifest tag to use: --tag when set, else the tag in the registry
// reference, else "latest".
func ociTarget(opts options) (oras.Target, string, error) {
	if opts.OCILayout != "" {
		target, err := oci.NewLayout(opts.OCILayout)
		if err != nil {
			return nil, "", err
		}
		return target, resolveTag(opts.Tag, ""), nil
	}

	remoteOpts := []oci.RemoteOption{oci.WithPlainHTTP(opts.PlainHTTP)}
	if opts.Anonymous {
		remoteOpts = append(remoteOpts, oci.WithAnonymous())
	}
	repo, err := oci.NewRemote(opts.Registry, remoteOpts...)
	if err != nil {
		return nil, "", err
	}
	return repo, resolveTag(opts.Tag, repo.Reference.Reference), nil
}

func resolveTag(explicit, fromRef string) string {
	switch {
	case explicit != "":
		return explicit
	case fromRef != "":
		return fromRef
	default:
		return defaultTag
	}
}

func (t *exportTargets) sink(i int, root string) sink.Sink {
	if t.store != nil {
		return t.store
	}
	s := oci.New(t.target,
		oci.WithLogger(t.logger),
		oci.WithAnnotations(map[string]string{ocispec.AnnotationTitle: root}))
	t.sinks[i] = s
	return s
}

// finish writes one manifest per root. With several roots the tags are
// numbered in root order.
func (t *exportTargets) finish(ctx context.Context, logger *slog.Logger) error {
	if t.store != nil {
		return nil
	}
	for i, s := range t.sinks {
		tag := rootTag(t.tag, i, len(t.sinks))
		desc, err := s.Finish(ctx, tag)
		if err != nil {
			return fmt.Errorf("finish %s: %w", t.roots[i], err)
		}
		logger.Info("manifest tagged", "root", t.roots[i], "tag", tag, "digest", desc.Digest)
	}
	return nil
}

func rootTag(tag string, i, n int) string {
	if n == 1 {
		return tag
	}
	return tag + "-" + strconv.Itoa(i)
}
