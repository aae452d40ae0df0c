// Package timeline exports a filesystem timeline: the metadata of every
// entry below a root directory, streamed to a sink as compressed batches.
//
// Export walks the root, converts each entry into a [record.Record],
// packs records into size-bounded batches with [chunked], hands each batch
// to a [sink.Sink] and then reports a [Receipt] carrying the batch digest
// to a [Replier]. Memory use is bounded by one open batch regardless of
// the size of the tree.
//
// # Quick Start
//
//	store, err := disk.New("/var/lib/timeline")
//	if err != nil {
//	    return err
//	}
//	stats, err := timeline.Export(ctx, "/home", store,
//	    timeline.ReplyFunc(func(ctx context.Context, r timeline.Receipt) error {
//	        log.Printf("batch %d: %s (%d records)", r.Sequence, r.Digest, r.Records)
//	        return nil
//	    }),
//	    timeline.WithCompression(chunked.Zstd),
//	)
//
// # Failure handling
//
// Entries that cannot be read are logged at warn level, counted in
// [Stats.Skipped] and left out. Every other failure ends the export: a
// missing or unreadable root ([ErrRootUnreadable]), an encode failure
// ([ErrEncode]), a sink failure ([ErrSink]) and a reply failure
// ([ErrReply]). Receipts are only reported for batches the sink accepted,
// so the receipts received before a failure describe a valid prefix of
// the export.
//
// Records can be read back with [chunked.Decode] and verified with
// [blobhash.Algorithm.Verify].
package timeline
