package log

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerPrependsComponent(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Output: &buf, Format: "json", Level: slog.LevelDebug, Component: ComponentCluster})

	l.Info("computed", FieldK, 3)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "computed", rec["msg"])
	assert.Equal(t, ComponentCluster, rec[FieldComponent])
	assert.EqualValues(t, 3, rec[FieldK])
}

func TestWithComponent(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Output: &buf, Format: "json"}).WithComponent(ComponentChart)
	assert.Equal(t, ComponentChart, l.Component())

	l.Warn("slow render")
	assert.Contains(t, buf.String(), `"component":"chart"`)
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestFromContextFallback(t *testing.T) {
	l := FromContext(context.Background())
	require.NotNil(t, l)
	assert.Equal(t, "unknown", l.Component())
}

func TestFromContextReturnsStoredLogger(t *testing.T) {
	base := Discard().WithComponent(ComponentHTTP)
	ctx := context.WithValue(context.Background(), LoggerContextKey, base)
	assert.Same(t, base, FromContext(ctx))
}

func TestLogHTTPEndLevels(t *testing.T) {
	cases := []struct {
		status int
		level  string
	}{
		{200, "INFO"},
		{404, "WARN"},
		{500, "ERROR"},
	}
	for _, tc := range cases {
		var buf bytes.Buffer
		sl := NewStructuredLogger(New(Config{Output: &buf, Format: "json"}))
		sl.LogHTTPEnd(context.Background(), httptest.NewRequest(http.MethodGet, "/country", nil), tc.status, 12, "127.0.0.1")

		var rec map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
		assert.Equal(t, tc.level, rec["level"])
		assert.EqualValues(t, tc.status, rec[FieldStatusCode])
	}
}

func TestLogError(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(New(Config{Output: &buf, Format: "json"}))
	sl.LogError(context.Background(), "load failed", errors.New("boom"), ComponentDataset, OpLoad, nil)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "boom", rec[FieldError])
	assert.Equal(t, OpLoad, rec[FieldOperation])
}
