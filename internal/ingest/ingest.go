package ingest

import "context"

// SourceFile is one discovered input.
type SourceFile struct {
	Path         string // absolute
	Ext          string
	Size         int64
	HashHex      string
	Deduplicated bool // same bytes as an earlier source in this collection
	Err          string
}

// DirStats summarizes a collection.
type DirStats struct {
	Scanned      uint32
	Matched      uint32
	Succeeded    uint32
	Deduplicated uint32
	Failed       uint32
}

// Ingestor turns command-line paths into source files.
type Ingestor interface {
	// IngestPath accepts a single file regardless of its extension.
	IngestPath(ctx context.Context, path string) (SourceFile, error)
	// IngestDirectory collects all matching files under root.
	IngestDirectory(ctx context.Context, root string) ([]SourceFile, DirStats, error)
}
