package timeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/meigma/timeline/chunked"
	"github.com/meigma/timeline/record"
	"github.com/meigma/timeline/sink"
	"github.com/meigma/timeline/walk"
)

// entrySource is the pull side of a walk.
type entrySource interface {
	Next() (walk.Entry, error)
	Close() error
}

func openWalker(root string, opts ...walk.Option) (entrySource, error) {
	w, err := walk.Open(root, opts...)
	if err != nil {
		return nil, err
	}
	return w, nil
}

// Export walks root and streams its timeline to dst, reporting one Receipt
// per batch to replier after dst accepted the batch.
//
// Unreadable entries below root are skipped and counted; every other
// failure ends the export and is returned together with the statistics
// gathered so far. Context cancellation is checked between entries.
func Export(ctx context.Context, root string, dst sink.Sink, replier Replier, opts ...Option) (Stats, error) {
	cfg := newConfig(opts)
	e := &exporter{cfg: cfg, root: root, dst: dst, replier: replier}
	err := e.run(ctx)
	return e.stats, err
}

// Job is one root exported by ExportEach.
type Job struct {
	Root    string
	Sink    sink.Sink
	Replier Replier
	// Options are applied after the options passed to ExportEach.
	Options []Option
}

// ExportEach exports every job with at most limit exports running at once
// (limit <= 0 means no limit). Jobs share nothing but the logger and
// progress callback. The first failure cancels the remaining jobs and is
// returned; stats[i] holds what job i completed.
func ExportEach(ctx context.Context, jobs []Job, limit int, opts ...Option) ([]Stats, error) {
	stats := make([]Stats, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, job := range jobs {
		g.Go(func() error {
			jobOpts := append(append([]Option(nil), opts...), job.Options...)
			s, err := Export(gctx, job.Root, job.Sink, job.Replier, jobOpts...)
			stats[i] = s
			if err != nil {
				return fmt.Errorf("export %s: %w", job.Root, err)
			}
			return nil
		})
	}
	return stats, g.Wait()
}

// exporter holds the state of a single export.
type exporter struct {
	cfg     config
	root    string
	dst     sink.Sink
	replier Replier
	stats   Stats
}

func (e *exporter) run(ctx context.Context) error {
	walkOpts := []walk.Option{
		walk.WithLogger(e.cfg.logger),
		walk.WithFileFlags(e.cfg.fileFlags),
		walk.WithReadDirBatch(e.cfg.readDirBatch),
	}
	src, err := e.cfg.open(e.root, walkOpts...)
	if err != nil {
		return err
	}
	defer src.Close()

	enc, err := chunked.NewEncoder[record.Record](
		chunked.WithBatchSize(e.cfg.batchSize),
		chunked.WithCompression(e.cfg.compression),
		chunked.WithCompressionLevel(e.cfg.level),
		chunked.WithLogger(e.cfg.logger),
	)
	if err != nil {
		return err
	}

	e.log().Info("export started",
		"root", e.root,
		"compression", e.cfg.compression.String(),
		"hash", e.cfg.alg.String(),
		"batch_size", e.cfg.batchSize)
	e.reportProgress(StageWalking)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		entry, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			e.stats.Skipped++
			e.log().Warn("skipping unreadable entry", "error", err)
			continue
		}
		e.stats.Entries++

		b, ok, err := enc.Add(record.FromEntry(entry))
		if err != nil {
			return err
		}
		if ok {
			if err := e.emit(ctx, b); err != nil {
				return err
			}
		}
	}

	b, ok, err := enc.Flush()
	if err != nil {
		return err
	}
	if ok {
		if err := e.emit(ctx, b); err != nil {
			return err
		}
	}

	e.log().Info("export finished",
		"root", e.root,
		"entries", e.stats.Entries,
		"skipped", e.stats.Skipped,
		"batches", e.stats.Batches,
		"bytes", e.stats.Bytes,
		"raw_bytes", e.stats.RawBytes)
	e.reportProgress(StageDone)
	return nil
}

// emit hands one batch to the sink and reports its receipt.
func (e *exporter) emit(ctx context.Context, b chunked.Batch) error {
	r := Receipt{
		Sequence:  e.stats.Batches,
		Digest:    e.cfg.alg.Sum(b.Data),
		Algorithm: e.cfg.alg,
		Records:   b.Records,
		Size:      len(b.Data),
		RawSize:   b.RawSize,
	}

	if err := e.dst.Send(ctx, sink.KindBlob, b.Data); err != nil {
		return fmt.Errorf("%w: batch %d: %w", ErrSink, r.Sequence, err)
	}
	if err := e.replier.Reply(ctx, r); err != nil {
		return fmt.Errorf("%w: batch %d: %w", ErrReply, r.Sequence, err)
	}

	e.stats.Batches++
	e.stats.Bytes += int64(r.Size)
	e.stats.RawBytes += int64(r.RawSize)
	e.log().Debug("batch exported",
		"sequence", r.Sequence,
		"digest", r.Digest.Digest(r.Algorithm),
		"records", r.Records,
		"size", r.Size)
	e.reportProgress(StageBatchSent)
	return nil
}

// reportProgress sends a progress event if a callback is configured.
func (e *exporter) reportProgress(stage ProgressStage) {
	if e.cfg.progress == nil {
		return
	}
	e.cfg.progress(ProgressEvent{
		Stage:   stage,
		Root:    e.root,
		Entries: e.stats.Entries,
		Skipped: e.stats.Skipped,
		Batches: e.stats.Batches,
		Bytes:   e.stats.Bytes,
	})
}

// log returns the logger, falling back to a discard logger if nil.
func (e *exporter) log() *slog.Logger {
	if e.cfg.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return e.cfg.logger
}
