package timeline

// ProgressEvent represents a progress update during an export.
type ProgressEvent struct {
	// Stage identifies the current phase of the export.
	Stage ProgressStage

	// Root is the directory being exported.
	Root string

	// Entries is the number of entries converted so far.
	Entries int

	// Skipped is the number of entries that could not be read.
	Skipped int

	// Batches is the number of batches accepted by the sink.
	Batches int

	// Bytes is the compressed size of the accepted batches.
	Bytes int64
}

// ProgressStage identifies the current phase of an export.
type ProgressStage uint8

const (
	// StageWalking indicates the walk has started.
	StageWalking ProgressStage = iota

	// StageBatchSent indicates a batch was accepted and its receipt reported.
	StageBatchSent

	// StageDone indicates the export finished successfully.
	StageDone
)

// String returns the string representation of the stage.
func (s ProgressStage) String() string {
	switch s {
	case StageWalking:
		return "walking"
	case StageBatchSent:
		return "batch sent"
	case StageDone:
		return "done"
	default:
		return "unknown"
	}
}

// ProgressFunc receives progress updates during an export.
// With ExportEach it is called from several goroutines and must be safe
// for concurrent calls.
type ProgressFunc func(ProgressEvent)
