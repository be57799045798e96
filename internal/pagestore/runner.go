package pagestore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"time"
	"unicode/utf8"

	"github.com/joseph-ayodele/binary-inputs/internal/common"
)

// Runner abstracts the external tools so tests can script their output.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
	LookPath(name string) (string, error)
}

// execRunner runs binaries from PATH. A process that ignores cancellation is
// killed after waitDelay.
type execRunner struct {
	logger    *slog.Logger
	waitDelay time.Duration
}

func newExecRunner(logger *slog.Logger) execRunner {
	return execRunner{logger: logger, waitDelay: 5 * time.Second}
}

func (r execRunner) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}

func (r execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = r.waitDelay

	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start).Milliseconds()

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, ctxErr) {
			err = fmt.Errorf("%w (%w)", ctxErr, err)
		}
		r.logger.Warn("exec.failed",
			"source", common.SourceFromContext(ctx),
			"cmd", name,
			"args", args,
			"elapsed_ms", elapsed,
			"err", err,
			"stderr", truncate(stderr.String(), 2048),
		)
		return stdout.Bytes(), stderr.Bytes(), err
	}
	r.logger.Debug("exec.ok", "cmd", name, "elapsed_ms", elapsed, "stdout_bytes", stdout.Len())
	return stdout.Bytes(), stderr.Bytes(), nil
}

// truncate shortens s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "…"
}
