package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/binary-inputs/internal/common"
	"github.com/joseph-ayodele/binary-inputs/internal/core"
	"github.com/joseph-ayodele/binary-inputs/internal/export"
	"github.com/joseph-ayodele/binary-inputs/internal/extract"
	"github.com/joseph-ayodele/binary-inputs/internal/pagestore"
	"github.com/joseph-ayodele/binary-inputs/internal/repository"
)

const defaultOutputName = "entradas_binarias_resultado.xlsx"

// flags shared by every subcommand; non-empty values override the environment.
type rootFlags struct {
	backend  string
	db       string
	tuning   string
	logLevel string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		if _, werr := fmt.Fprintf(os.Stderr, "Error: %v\n", err); werr != nil {
			fmt.Printf("Error: %v\n", err)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rf := &rootFlags{}
	root := &cobra.Command{
		Use:           "biextract",
		Short:         "Extract binary inputs of protection relays from wiring drawings",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	pf := root.PersistentFlags()
	pf.StringVar(&rf.backend, "backend", "", "PDF backend: auto, pdftotext or native (env BI_PDF_BACKEND)")
	pf.StringVar(&rf.db, "db", "", "result store: postgres URL or SQLite path (env BI_DB_URL)")
	pf.StringVar(&rf.tuning, "tuning", "", "YAML file overriding layout tolerances (env BI_TUNING_FILE)")
	pf.StringVar(&rf.logLevel, "log-level", "", "debug, info, warn or error (env BI_LOG_LEVEL)")

	root.AddCommand(newExtractCmd(rf), newWatchCmd(rf))
	return root
}

// app is everything a subcommand needs, built once from config and flags.
type app struct {
	cfg       *common.Config
	logger    *slog.Logger
	processor *core.Processor
	exporter  *export.Service
	db        *repository.DB
}

func (rf *rootFlags) apply(cfg *common.Config) {
	if rf.backend != "" {
		cfg.PDF.Backend = strings.ToLower(rf.backend)
	}
	if rf.db != "" {
		cfg.Database.DSN = rf.db
	}
	if rf.tuning != "" {
		cfg.TuningFile = rf.tuning
	}
	if rf.logLevel != "" {
		cfg.Log.Level = rf.logLevel
	}
}

func newApp(ctx context.Context, rf *rootFlags) (*app, error) {
	cfg := common.LoadConfig()
	rf.apply(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := common.NewLogger(cfg.Log, os.Stderr)
	slog.SetDefault(logger)

	tuning, err := common.LoadTuningFile(cfg.TuningFile)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, logger: logger, exporter: export.NewService(logger)}

	var runs repository.RunRepository
	if cfg.Database.DSN != "" {
		db, err := repository.Open(ctx, repository.Config{
			DSN:         cfg.Database.DSN,
			MaxConns:    cfg.Database.MaxConns,
			DialTimeout: cfg.Database.DialTimeout,
		}, logger)
		if err != nil {
			return nil, err
		}
		a.db = db
		runs = repository.NewRunRepository(db, logger)
	}

	loader := pagestore.NewLoader(cfg.PDF, tuning, nil, logger)
	a.processor = core.NewProcessor(logger, loader, extract.NewExtractor(tuning, logger), runs)
	return a, nil
}

func (a *app) Close() {
	if a.db != nil {
		a.db.Close(a.logger)
	}
}

// outputPath resolves the workbook path: explicit flag, then BI_OUTPUT,
// then the default name next to the first source.
func outputPath(flag, env string, sources []string) string {
	switch {
	case flag != "":
		return flag
	case env != "":
		return env
	case len(sources) > 0:
		return filepath.Join(filepath.Dir(sources[0]), defaultOutputName)
	default:
		return defaultOutputName
	}
}

// watchOutputPath names the workbook rewritten for one watched source.
func watchOutputPath(dir, source string) string {
	stem := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	if dir == "" {
		dir = filepath.Dir(source)
	}
	return filepath.Join(dir, stem+"_entradas_binarias.xlsx")
}
