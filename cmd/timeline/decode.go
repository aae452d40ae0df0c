package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"os"

	"github.com/spf13/pflag"

	"github.com/meigma/timeline/chunked"
	"github.com/meigma/timeline/record"
	"github.com/meigma/timeline/sink/disk"
	"github.com/meigma/timeline/sink/oci"
)

func runDecode(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	var flags options
	fs := pflag.NewFlagSet("timeline decode", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	addTargetFlags(fs, &flags)

	opts, err := parseOptions(fs, args, &flags)
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if err := opts.checkTarget(); err != nil {
		return err
	}
	logger, err := newLogger(stderr, opts.LogLevel)
	if err != nil {
		return err
	}

	d := &decoder{
		out:    newLineWriter(stdout),
		logger: logger,
	}
	if opts.MaxBatch > 0 {
		d.opts = append(d.opts, chunked.WithMaxBatchSize(opts.MaxBatch))
	}

	if opts.Out != "" {
		if opts.Receipts == "" {
			return errors.New("--receipts is required with --out")
		}
		err = d.fromStore(ctx, opts.Out, opts.Receipts)
	} else {
		err = d.fromOCI(ctx, opts)
	}
	if err != nil {
		return err
	}
	if d.failed > 0 {
		return fmt.Errorf("%d of %d records could not be decoded", d.failed, d.failed+d.records)
	}
	logger.Info("decode finished", "records", d.records)
	return nil
}

// decoder writes the records of stored batches as JSON lines.
type decoder struct {
	out     *lineWriter
	logger  *slog.Logger
	opts    []chunked.Option
	records int
	failed  int
}

// fromStore decodes the batches named by a receipts file, in file order.
// Each batch is verified against its receipt digest before decoding.
func (d *decoder) fromStore(ctx context.Context, dir, receiptsPath string) error {
	store, err := disk.New(dir)
	if err != nil {
		return fmt.Errorf("open blob store: %w", err)
	}
	f, err := os.Open(receiptsPath)
	if err != nil {
		return fmt.Errorf("open receipts: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for n := 1; scanner.Scan(); n++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var r receiptLine
		if err := json.Unmarshal(scanner.Bytes(), &r); err != nil {
			return fmt.Errorf("receipts line %d: %w", n, err)
		}
		data, err := store.Get(r.Algorithm, r.Digest)
		if err != nil {
			return fmt.Errorf("batch %s/%d: %w", r.Root, r.Sequence, err)
		}
		br, err := chunked.NewBatchReader[record.Record](data, d.opts...)
		if err != nil {
			return fmt.Errorf("batch %s/%d: %w", r.Root, r.Sequence, err)
		}
		got, err := d.emit(r.Root, br.All())
		if err != nil {
			return err
		}
		if got != r.Records {
			d.logger.Warn("record count mismatch", "root", r.Root, "sequence", r.Sequence, "want", r.Records, "got", got)
		}
	}
	return scanner.Err()
}

// fromOCI decodes every batch layer of the tagged manifest.
func (d *decoder) fromOCI(ctx context.Context, opts options) error {
	target, tag, err := ociTarget(opts)
	if err != nil {
		return err
	}

	layers, err := oci.Batches(ctx, target, tag)
	if err != nil {
		return err
	}
	d.logger.Debug("manifest resolved", "tag", tag, "batches", len(layers))

	var fetchErr error
	blobs := func(yield func([]byte) bool) {
		for data, err := range oci.Blobs(ctx, target, layers) {
			if err != nil {
				fetchErr = err
				return
			}
			if !yield(data) {
				return
			}
		}
	}
	if _, err := d.emit("", chunked.Decode[record.Record](blobs, d.opts...)); err != nil {
		return err
	}
	return fetchErr
}

// emit writes each decoded record and returns how many were written.
// Records that fail to decode are logged and counted, not fatal.
func (d *decoder) emit(root string, records iter.Seq2[record.Record, error]) (int, error) {
	n := 0
	for rec, err := range records {
		if err != nil {
			d.failed++
			d.logger.Warn("record skipped", "root", root, "error", err)
			continue
		}
		if err := d.out.write(newRecordLine(root, rec)); err != nil {
			return n, fmt.Errorf("write record: %w", err)
		}
		n++
		d.records++
	}
	return n, nil
}
