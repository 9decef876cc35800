package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Schwartz-Lab-NU/arborStats/internal/types"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "Updated Seg ID (Sept 2)", cfg.Source.SheetIDColumn)
	assert.Equal(t, "Final SegID", cfg.Source.CSVIDColumn)
	assert.Equal(t, []string{"Complete", "Complete (cut off)"}, cfg.Source.StatusAllow)
	assert.Equal(t, []string{"FALSE"}, cfg.Source.ReviewAllow)

	assert.Equal(t, "flatone", cfg.Flatone.Binary)
	assert.Equal(t, 2*time.Hour, cfg.Flatone.Timeout)

	assert.Equal(t, 1, cfg.Run.Jobs)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.False(t, cfg.Metrics.Enabled)

	require.NoError(t, NewValidator().Validate(cfg))
}

func TestLoadValidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
flatone:
  binary: /opt/flatone/bin/flatone
  timeout: 30m
run:
  jobs: 8
  output_dir: /data/flatone-output
logging:
  level: debug
  format: json
metrics:
  enabled: true
  addr: ":9100"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := NewLoader(NewValidator()).Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/opt/flatone/bin/flatone", cfg.Flatone.Binary)
	assert.Equal(t, 30*time.Minute, cfg.Flatone.Timeout)
	assert.Equal(t, 8, cfg.Run.Jobs)
	assert.Equal(t, "/data/flatone-output", cfg.Run.OutputDir)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Metrics.Enabled)

	// Unset sections keep their defaults.
	assert.Equal(t, DefaultSheetIDColumn, cfg.Source.SheetIDColumn)
}

func TestLoadMissingFile(t *testing.T) {
	loader := NewLoader(NewValidator())

	_, err := loader.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.True(t, types.IsFatal(err))

	cfg, err := loader.LoadWithDefaults(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "flatone", cfg.Flatone.Binary)
}

func TestLoadInvalidConfigFailsValidation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
run:
  jobs: 0
logging:
  level: loud
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	_, err := NewLoader(NewValidator()).Load(path)
	require.Error(t, err)

	code, ok := types.CodeOf(err)
	require.True(t, ok)
	assert.Equal(t, types.CONFIG_VALIDATION_FAILED, code)
	assert.Contains(t, err.Error(), "run.jobs")
	assert.Contains(t, err.Error(), "logging.level")
}

func TestLoadInterpolatesEnvVars(t *testing.T) {
	t.Setenv("FLATONE_BIN", "/usr/local/bin/flatone")

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
flatone:
  binary: ${FLATONE_BIN}
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := NewLoader(NewValidator()).Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/usr/local/bin/flatone", cfg.Flatone.Binary)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer

	logger := NewLogger(LoggingConfig{Level: "debug", Format: "json"}, &buf)
	logger.Debug("planning batch", "segments", 3)
	assert.Contains(t, buf.String(), `"segments":3`)

	buf.Reset()
	logger = NewLogger(LoggingConfig{Level: "warn", Format: "text"}, &buf)
	logger.Info("suppressed")
	assert.Empty(t, buf.String())
	logger.Warn("visible")
	assert.Contains(t, buf.String(), "visible")

	assert.Equal(t, slog.LevelInfo, parseLevel("unknown"))
}
