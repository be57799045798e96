package core

import (
	"context"
	"log/slog"

	"github.com/joseph-ayodele/binary-inputs/internal/export"
)

// Batch processes several sources one after another. A failing source never
// stops the ones after it.
type Batch struct {
	proc   *Processor
	logger *slog.Logger
}

func NewBatch(proc *Processor, logger *slog.Logger) *Batch {
	if logger == nil {
		logger = slog.Default()
	}
	return &Batch{proc: proc, logger: logger}
}

// Run returns one Outcome per path, in order. It stops early only when ctx
// is cancelled.
func (b *Batch) Run(ctx context.Context, paths []string) []*Outcome {
	outcomes := make([]*Outcome, 0, len(paths))
	var ok, failed, inputs int
	for _, path := range paths {
		if ctx.Err() != nil {
			b.logger.Warn("batch.cancelled", "remaining", len(paths)-len(outcomes))
			break
		}
		out, err := b.proc.ProcessFile(ctx, path)
		outcomes = append(outcomes, out)
		if err != nil {
			failed++
			continue
		}
		ok++
		inputs += len(out.Result.Inputs)
	}
	b.logger.Info("batch.done", "sources", len(paths), "ok", ok, "failed", failed, "inputs", inputs)
	return outcomes
}

// Sheets maps outcomes to workbook tabs. Failed sources carry no inputs and
// so get no tab.
func Sheets(outcomes []*Outcome) []export.Sheet {
	sheets := make([]export.Sheet, 0, len(outcomes))
	for _, o := range outcomes {
		sh := export.Sheet{Source: o.Source}
		if o.Result != nil {
			sh.Inputs = o.Result.Inputs
		}
		sheets = append(sheets, sh)
	}
	return sheets
}
