package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/binary-inputs/internal/core"
	"github.com/joseph-ayodele/binary-inputs/internal/ingest"
)

func newExtractCmd(rf *rootFlags) *cobra.Command {
	var (
		out        string
		skipHidden bool
	)
	cmd := &cobra.Command{
		Use:   "extract <file|dir>...",
		Short: "Extract binary inputs from PDF drawings or zip archives into one workbook",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, rf)
			if err != nil {
				return err
			}
			defer a.Close()

			files, stats, err := ingest.NewFSIngestor(skipHidden, a.logger).Collect(ctx, args)
			if err != nil {
				return err
			}
			var paths []string
			for _, f := range files {
				switch {
				case f.Err != "":
					a.logger.Warn("extract.source.unreadable", "source", f.Path, "err", f.Err)
				case f.Deduplicated:
					a.logger.Info("extract.source.duplicate", "source", f.Path, "sha256", f.HashHex)
				default:
					paths = append(paths, f.Path)
				}
			}
			if len(paths) == 0 {
				return fmt.Errorf("no .pdf or .zip sources found (scanned %d)", stats.Scanned)
			}

			outcomes := core.NewBatch(a.processor, a.logger).Run(ctx, paths)
			dest := outputPath(out, a.cfg.Output.Path, paths)
			if err := a.exporter.WriteFile(ctx, dest, core.Sheets(outcomes)); err != nil {
				return err
			}

			var failed int
			for _, o := range outcomes {
				if o.Err != nil {
					failed++
				}
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%d source(s), %d failed, workbook: %s\n", len(outcomes), failed, dest)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output workbook (env BI_OUTPUT, default next to the first source)")
	cmd.Flags().BoolVar(&skipHidden, "skip-hidden", true, "ignore hidden files and directories")
	return cmd
}
