package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/binary-inputs/constants"
	"github.com/joseph-ayodele/binary-inputs/internal/common"
)

// FSIngestor reads sources from the local filesystem. Files with identical
// content are reported once; later copies are marked Deduplicated.
type FSIngestor struct {
	SkipHidden bool

	logger *slog.Logger
	seen   map[string]string // hash -> first path
}

func NewFSIngestor(skipHidden bool, logger *slog.Logger) *FSIngestor {
	if logger == nil {
		logger = slog.Default()
	}
	return &FSIngestor{SkipHidden: skipHidden, logger: logger, seen: map[string]string{}}
}

func (i *FSIngestor) IngestPath(ctx context.Context, path string) (SourceFile, error) {
	var out SourceFile
	if err := ctx.Err(); err != nil {
		return out, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return out, fmt.Errorf("abs path: %w", err)
	}

	f, err := os.Open(abs)
	if err != nil {
		return out, fmt.Errorf("open: %w", err)
	}
	defer func(f *os.File) {
		if err := f.Close(); err != nil {
			i.logger.Warn("ingest.close", "path", abs, "error", err)
		}
	}(f)

	st, err := f.Stat()
	if err != nil {
		return out, fmt.Errorf("stat: %w", err)
	}
	if st.IsDir() {
		return out, common.NewAppError("INVALID_SOURCE", abs+" is a directory", common.ErrInvalidInput)
	}

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return out, fmt.Errorf("hash: %w", err)
	}
	out = SourceFile{
		Path:    abs,
		Ext:     constants.NormalizeExt(filepath.Ext(abs)),
		Size:    st.Size(),
		HashHex: hex.EncodeToString(h.Sum(nil)),
	}
	if first, ok := i.seen[out.HashHex]; ok && first != abs {
		out.Deduplicated = true
		i.logger.Info("ingest.duplicate", "path", abs, "same_as", first)
	} else {
		i.seen[out.HashHex] = abs
	}
	return out, nil
}

// IngestDirectory walks root, skips hidden entries if requested, and keeps
// files with an allowed extension. Per-file failures are recorded and the
// walk continues.
func (i *FSIngestor) IngestDirectory(ctx context.Context, root string) ([]SourceFile, DirStats, error) {
	if strings.TrimSpace(root) == "" {
		return nil, DirStats{}, errors.New("root path is required")
	}

	var results []SourceFile
	var stats DirStats

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		stats.Scanned++
		if walkErr != nil {
			results = append(results, SourceFile{Path: path, Err: walkErr.Error()})
			stats.Failed++
			return nil
		}
		if i.SkipHidden && path != root && IsHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !AllowedExt(filepath.Ext(path)) {
			return nil
		}
		stats.Matched++
		i.record(ctx, path, &results, &stats)
		return nil
	})
	if err != nil {
		return results, stats, fmt.Errorf("walk: %w", err)
	}
	return results, stats, nil
}

// Collect expands a mix of file and directory arguments in order.
// Duplicates are kept in the result with Deduplicated set.
func (i *FSIngestor) Collect(ctx context.Context, args []string) ([]SourceFile, DirStats, error) {
	var results []SourceFile
	var stats DirStats
	for _, arg := range args {
		st, err := os.Stat(arg)
		if err == nil && st.IsDir() {
			files, ds, err := i.IngestDirectory(ctx, arg)
			results = append(results, files...)
			stats.add(ds)
			if err != nil {
				return results, stats, err
			}
			continue
		}
		stats.Scanned++
		stats.Matched++
		i.record(ctx, arg, &results, &stats)
	}
	i.logger.Info("ingest.collect.ok",
		"scanned", stats.Scanned,
		"matched", stats.Matched,
		"succeeded", stats.Succeeded,
		"deduplicated", stats.Deduplicated,
		"failed", stats.Failed,
	)
	return results, stats, nil
}

func (i *FSIngestor) record(ctx context.Context, path string, results *[]SourceFile, stats *DirStats) {
	r, err := i.IngestPath(ctx, path)
	if err != nil {
		*results = append(*results, SourceFile{Path: path, Err: err.Error()})
		stats.Failed++
		return
	}
	*results = append(*results, r)
	stats.Succeeded++
	if r.Deduplicated {
		stats.Deduplicated++
	}
}

func (s *DirStats) add(o DirStats) {
	s.Scanned += o.Scanned
	s.Matched += o.Matched
	s.Succeeded += o.Succeeded
	s.Deduplicated += o.Deduplicated
	s.Failed += o.Failed
}

var _ Ingestor = (*FSIngestor)(nil)
