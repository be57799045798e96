package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/binary-inputs/constants"
	"github.com/joseph-ayodele/binary-inputs/internal/common"
	"github.com/joseph-ayodele/binary-inputs/internal/extract"
	"github.com/joseph-ayodele/binary-inputs/internal/repository"
)

// Outcome is what processing one source produced. Result is nil unless
// Status is OK.
type Outcome struct {
	Source  string
	RunID   uuid.UUID
	Status  constants.RunStatus
	Result  *extract.Result
	Err     error
	Elapsed time.Duration
}

// Processor coordinates page loading then extraction for one source, and
// records the run when a repository is configured.
type Processor struct {
	logger    *slog.Logger
	loader    extract.SourceLoader
	extractor extract.SourceExtractor
	runs      repository.RunRepository // nil disables persistence
}

func NewProcessor(
	logger *slog.Logger,
	loader extract.SourceLoader,
	extractor extract.SourceExtractor,
	runs repository.RunRepository,
) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{logger: logger, loader: loader, extractor: extractor, runs: runs}
}

// ProcessFile loads path, extracts its binary inputs and stores the run.
// The returned Outcome is never nil; its Err matches the returned error.
func (p *Processor) ProcessFile(ctx context.Context, path string) (*Outcome, error) {
	start := time.Now()
	out := &Outcome{Source: path, RunID: uuid.New(), Status: constants.RunStatusRunning}

	if p.runs != nil {
		run, err := p.runs.Start(ctx, path)
		if err != nil {
			// the extraction itself does not depend on the store
			p.logger.Warn("processor.run.start.failed", "source", path, "err", err)
		} else {
			out.RunID = run.ID
		}
	}
	ctx = common.WithRunID(common.WithSource(ctx, path), out.RunID.String())

	res, err := p.run(ctx, path)
	out.Elapsed = time.Since(start)
	if err != nil {
		out.Err = err
		out.Status = constants.RunStatusFailed
		if errors.Is(err, common.ErrUnsupportedSource) {
			out.Status = constants.RunStatusUnsupported
		}
		p.logger.Error("processor.failed", "source", path, "run_id", out.RunID, "status", out.Status, "err", err)
		p.finishFailure(ctx, out)
		return out, err
	}

	out.Status = constants.RunStatusOK
	out.Result = res
	if p.runs != nil {
		if err := p.runs.FinishSuccess(ctx, out.RunID, res.Context, res.Inputs); err != nil {
			p.logger.Warn("processor.run.finish.failed", "source", path, "run_id", out.RunID, "err", err)
		}
	}
	p.logger.Info("processor.ok",
		"source", path,
		"run_id", out.RunID,
		"substation", res.Context.Substation,
		"inputs", len(res.Inputs),
		"devices", DeviceSummary(res),
		"models", ModelSummary(res),
		"elapsed_ms", out.Elapsed.Milliseconds(),
	)
	return out, nil
}

// run isolates one source: a panic becomes an error for that source only.
func (p *Processor) run(ctx context.Context, path string) (res *extract.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while processing %s: %v", path, r)
		}
	}()
	store, err := p.loader.Load(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	p.logger.Debug("processor.loaded", "source", path, "pages", store.Len(), "kind", store.Kind, "layout", store.Layout)
	res, err = p.extractor.Extract(ctx, store)
	if err != nil {
		return nil, fmt.Errorf("extract: %w", err)
	}
	return res, nil
}

func (p *Processor) finishFailure(ctx context.Context, out *Outcome) {
	if p.runs == nil {
		return
	}
	// the run is closed even when the caller's context is already done
	ctx = context.WithoutCancel(ctx)
	if err := p.runs.FinishFailure(ctx, out.RunID, out.Status, out.Err.Error()); err != nil {
		p.logger.Warn("processor.run.finish.failed", "source", out.Source, "run_id", out.RunID, "err", err)
	}
}

// DeviceSummary renders per-device record counts, e.g. "-C01=12 -F01=10".
func DeviceSummary(res *extract.Result) string {
	if res == nil {
		return ""
	}
	counts := map[string]int{}
	for _, in := range res.Inputs {
		counts[in.Device]++
	}
	devices := make([]string, 0, len(counts))
	for d := range counts {
		devices = append(devices, d)
	}
	sort.Strings(devices)
	parts := make([]string, 0, len(devices))
	for _, d := range devices {
		name := d
		if name == "" {
			name = "?"
		}
		parts = append(parts, fmt.Sprintf("%s=%d", name, counts[d]))
	}
	return strings.Join(parts, " ")
}

// ModelSummary lists the vendor names of the device models found, sorted.
func ModelSummary(res *extract.Result) string {
	if res == nil {
		return ""
	}
	seen := map[string]bool{}
	var names []string
	for _, in := range res.Inputs {
		if in.DeviceModel == "" {
			continue
		}
		name := constants.VendorName(constants.DeviceModel(in.DeviceModel))
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}
