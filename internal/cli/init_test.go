package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cpitracker/internal/config"
	"cpitracker/internal/source"
)

func TestSetupLoggerHonoursConfig(t *testing.T) {
	var buf bytes.Buffer
	logger := SetupLogger(&config.Config{LogLevel: "warn", LogFormat: "json"}, &buf)

	logger.Info("hidden")
	logger.Warn("shown", "k", 1)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"msg":"shown"`)
	assert.Contains(t, out, `"component":"app"`)
}

func TestLoadAndValidateConfigRejectsBadValues(t *testing.T) {
	t.Setenv("PORT", "not-a-port")
	_, err := LoadAndValidateConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid port")
}

func TestOpenReaderReportsSearchedPaths(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{
		DataBackend:  "file",
		DatasetPaths: []string{filepath.Join(dir, "a.csv"), filepath.Join(dir, "b.csv")},
	}
	_, err := OpenReader(context.Background(), cfg, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, source.ErrDatasetNotFound)
	assert.Contains(t, err.Error(), filepath.Join(dir, "b.csv"))
}
