package common

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidator_CollectsAllFailures(t *testing.T) {
	err := NewValidator().
		Field("backend", "ocr", OneOf("auto", "native")).
		Field("timeout", time.Duration(0), Positive).
		Field("bin", " ", Required).
		Field("ok", "auto", OneOf("auto")).
		Err("CONFIG_ERROR", ErrInvalidConfig)

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidConfig))
	var appErr *AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "CONFIG_ERROR", appErr.Code)
	assert.Contains(t, appErr.Message, "backend=ocr must be one of auto, native")
	assert.Contains(t, appErr.Message, "timeout=0s must be positive")
	assert.Contains(t, appErr.Message, "bin")
	assert.NotContains(t, appErr.Message, "ok=")
}

func TestValidator_NoErrors(t *testing.T) {
	v := NewValidator().
		Field("run_id", "0b7f1c1e-2a4c-4a53-9c1e-6c2f0c7c1a11", UUID).
		Field("input_number", 0, NonNegative).
		Field("level", "warn", Level)
	assert.False(t, v.HasErrors())
	assert.NoError(t, v.Err("X", ErrInvalidInput))
}

func TestRules(t *testing.T) {
	assert.NotNil(t, UUID("id", "nope"))
	assert.NotNil(t, UUID("id", 7))
	assert.NotNil(t, UUID("id", uuid.Nil))
	assert.Nil(t, UUID("id", uuid.New()))
	assert.NotNil(t, NonNegative("n", -1))
	assert.NotNil(t, Level("level", "loud"))
	assert.NotNil(t, Required("x", nil))
	assert.Nil(t, Positive("conns", int32(4)))
	assert.Nil(t, Positive("cutoff", 70.0))
}

func TestConfigValidate_ReportsEveryField(t *testing.T) {
	cfg := LoadConfig()
	cfg.PDF.Backend = "ocr"
	cfg.Log.Format = "xml"
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BI_PDF_BACKEND")
	assert.Contains(t, err.Error(), "BI_LOG_FORMAT")
}
