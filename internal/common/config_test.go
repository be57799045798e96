package common

import (
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	for _, k := range []string{"BI_PDF_BACKEND", "BI_PDFTOTEXT", "BI_EXEC_TIMEOUT", "BI_DB_URL", "BI_LOG_LEVEL", "BI_LOG_FORMAT"} {
		t.Setenv(k, "")
	}
	cfg := LoadConfig()
	assert.Equal(t, BackendAuto, cfg.PDF.Backend)
	assert.Equal(t, "pdftotext", cfg.PDF.Pdftotext)
	assert.Equal(t, 2*time.Minute, cfg.PDF.ExecTimeout)
	assert.Empty(t, cfg.Database.DSN)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("BI_PDF_BACKEND", "Native")
	t.Setenv("BI_EXEC_TIMEOUT", "15s")
	t.Setenv("BI_DB_URL", ":memory:")
	t.Setenv("BI_LOG_LEVEL", "debug")

	cfg := LoadConfig()
	assert.Equal(t, BackendNative, cfg.PDF.Backend)
	assert.Equal(t, 15*time.Second, cfg.PDF.ExecTimeout)
	assert.Equal(t, ":memory:", cfg.Database.DSN)
	require.NoError(t, cfg.Validate())

	lvl, err := ParseLevel(cfg.Log.Level)
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, lvl)
}

func TestConfigValidate_BadBackend(t *testing.T) {
	cfg := LoadConfig()
	cfg.PDF.Backend = "ocr"
	err := cfg.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidConfig))
}

func TestMissingCapabilityError_Unwraps(t *testing.T) {
	cause := errors.New("exec: \"pdftotext\": executable file not found in $PATH")
	err := MissingCapabilityError("pdftotext", cause)
	assert.True(t, errors.Is(err, ErrMissingCapability))
	assert.True(t, errors.Is(err, cause))
	assert.Contains(t, err.Error(), "MISSING_CAPABILITY")
}
