package extract

import (
	"context"

	"github.com/joseph-ayodele/binary-inputs/internal/pagestore"
)

// SourceLoader is stage 1: file -> pages.
type SourceLoader interface {
	Load(ctx context.Context, path string) (*pagestore.Store, error)
}

// SourceExtractor is stage 2: pages -> deduplicated records.
type SourceExtractor interface {
	Extract(ctx context.Context, store *pagestore.Store) (*Result, error)
}

var (
	_ SourceLoader    = (*pagestore.Loader)(nil)
	_ SourceExtractor = (*Extractor)(nil)
)
