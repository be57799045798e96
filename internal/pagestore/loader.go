package pagestore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/joseph-ayodele/binary-inputs/constants"
	"github.com/joseph-ayodele/binary-inputs/internal/common"
)

// Producer fills a Store from a PDF on disk.
type Producer interface {
	Load(ctx context.Context, path string) (*Store, error)
}

// Loader sniffs a source and hands it to the matching producer.
type Loader struct {
	cfg     common.PDFConfig
	poppler *Poppler
	native  *Native
	logger  *slog.Logger
}

func NewLoader(cfg common.PDFConfig, tuning common.Tuning, runner Runner, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Backend == "" {
		cfg.Backend = common.BackendAuto
	}
	return &Loader{
		cfg:     cfg,
		poppler: NewPoppler(cfg.Pdftotext, cfg.ExecTimeout, runner, logger),
		native:  NewNative(tuning.WordGapFactor, logger),
		logger:  logger,
	}
}

// Sniff reports the source kind from the first bytes of the file.
func Sniff(path string) (constants.SourceKind, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	header := make([]byte, 8)
	n, err := io.ReadFull(f, header)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", err
	}
	header = header[:n]
	switch {
	case bytes.HasPrefix(header, constants.MagicZIP):
		return constants.SourceZIP, nil
	case bytes.HasPrefix(header, constants.MagicPDF):
		return constants.SourcePDF, nil
	}
	return "", common.UnsupportedSourceError(path)
}

// Load returns the populated store for path. A source with no text at all
// fails with ErrNoPages.
func (l *Loader) Load(ctx context.Context, path string) (*Store, error) {
	kind, err := Sniff(path)
	if err != nil {
		return nil, err
	}

	var store *Store
	switch kind {
	case constants.SourceZIP:
		store, err = LoadArchive(path, l.logger)
	case constants.SourcePDF:
		var p Producer
		p, err = l.pdfProducer()
		if err == nil {
			store, err = p.Load(ctx, path)
		}
	}
	if err != nil {
		return nil, err
	}
	if store.Len() == 0 {
		return nil, fmt.Errorf("%s: %w", path, common.ErrNoPages)
	}
	l.logger.Info("pagestore.loaded", "path", path, "kind", kind, "pages", store.Len(), "layout", store.Layout)
	return store, nil
}

func (l *Loader) pdfProducer() (Producer, error) {
	switch l.cfg.Backend {
	case common.BackendPdftotext:
		if err := l.poppler.Available(); err != nil {
			return nil, err
		}
		return l.poppler, nil
	case common.BackendNative:
		return l.native, nil
	default:
		if err := l.poppler.Available(); err != nil {
			l.logger.Debug("pdftotext unavailable, using native reader", "error", err)
			return l.native, nil
		}
		return l.poppler, nil
	}
}
