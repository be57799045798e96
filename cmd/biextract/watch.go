package main

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/binary-inputs/internal/core"
	"github.com/joseph-ayodele/binary-inputs/internal/core/async"
	"github.com/joseph-ayodele/binary-inputs/internal/ingest"
)

func newWatchCmd(rf *rootFlags) *cobra.Command {
	var (
		outDir      string
		debounce    time.Duration
		initialScan bool
		timeout     time.Duration
	)
	cmd := &cobra.Command{
		Use:   "watch <dir>...",
		Short: "Watch directories and write a workbook for every new drawing",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, rf)
			if err != nil {
				return err
			}
			defer a.Close()

			q := async.NewProcessorQueue(a.processor, a.logger,
				async.WithProcessTimeout(timeout),
				async.WithOnDone(func(o *core.Outcome) {
					if o.Result == nil {
						return
					}
					dest := watchOutputPath(outDir, o.Source)
					if err := a.exporter.WriteFile(context.Background(), dest, core.Sheets([]*core.Outcome{o})); err != nil {
						a.logger.Error("watch.export.failed", "source", o.Source, "dest", dest, "err", err)
					}
				}),
			)
			defer q.Shutdown(context.Background())

			paths, errs, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
				Roots:       args,
				InitialScan: initialScan,
				Debounce:    debounce,
				SkipHidden:  true,
			}, a.logger)
			if err != nil {
				return err
			}
			a.logger.Info("watch.started", "roots", args)

			for {
				select {
				case <-ctx.Done():
					a.logger.Info("watch.stopping")
					return nil
				case err, ok := <-errs:
					if !ok {
						errs = nil
						continue
					}
					a.logger.Warn("watch.error", "err", err)
				case p, ok := <-paths:
					if !ok {
						return nil
					}
					job := async.Job{Path: p, SubmittedAt: time.Now(), TraceID: uuid.NewString()}
					if err := q.Enqueue(ctx, job); err != nil {
						a.logger.Warn("watch.enqueue.failed", "source", p, "err", err)
					}
				}
			}
		},
	}
	f := cmd.Flags()
	f.StringVar(&outDir, "out-dir", "", "directory for workbooks (default: next to each source)")
	f.DurationVar(&debounce, "debounce", 2*time.Second, "quiet period before a new file is processed")
	f.BoolVar(&initialScan, "initial-scan", false, "process files already present in the roots")
	f.DurationVar(&timeout, "timeout", 10*time.Minute, "per-source processing timeout")
	return cmd
}
