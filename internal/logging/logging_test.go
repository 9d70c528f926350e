package logging

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsoleLevel(t *testing.T) {
	tests := []struct {
		verbosity int
		want      log.Level
		enabled   bool
	}{
		{0, 0, false},
		{-1, 0, false},
		{1, log.ErrorLevel, true},
		{2, log.WarnLevel, true},
		{3, log.InfoLevel, true},
		{4, log.DebugLevel, true},
		{9, log.DebugLevel, true},
	}
	for _, tt := range tests {
		level, ok := ConsoleLevel(tt.verbosity)
		assert.Equal(t, tt.enabled, ok, "verbosity %d", tt.verbosity)
		if ok {
			assert.Equal(t, tt.want, level, "verbosity %d", tt.verbosity)
		}
	}
}

func TestConsoleThreshold(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Options{Verbosity: Warnings, Console: &buf})
	require.NoError(t, err)

	l.Info("parsed page", "page", 1)
	l.Warn("no budget provided")
	l.Error("bad amount", "value", "12,x")

	out := buf.String()
	assert.NotContains(t, out, "parsed page")
	assert.Contains(t, out, "no budget provided")
	assert.Contains(t, out, "bad amount")
}

func TestSilentConsoleStillWritesFile(t *testing.T) {
	var buf bytes.Buffer
	path := filepath.Join(t.TempDir(), "logs", "run.log")

	l, err := New(Options{Verbosity: Silent, Console: &buf, File: path})
	require.NoError(t, err)
	l.Info("document loaded", "pages", 2)
	require.NoError(t, l.Close())

	assert.Empty(t, buf.String())
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "document loaded")
	assert.Contains(t, string(data), "pages=2")
}

func TestFileName(t *testing.T) {
	now := time.Date(2024, 3, 5, 14, 30, 0, 0, time.UTC)
	got := FileName("logs", "/data/releve_mars.pdf", now)
	assert.Equal(t, filepath.Join("logs", "releve_mars_20240305_143000.log"), got)
}

func TestGuard(t *testing.T) {
	boom := errors.New("boom")

	var buf bytes.Buffer
	l, err := New(Options{Verbosity: Errors, Console: &buf})
	require.NoError(t, err)

	tolerant := Guard{Log: l}
	assert.NoError(t, tolerant.Handle(boom, "page skipped", "page", 3))
	assert.Contains(t, buf.String(), "page skipped")

	strict := Guard{Log: l, Strict: true}
	assert.ErrorIs(t, strict.Handle(boom, "page skipped"), boom)
	assert.NoError(t, strict.Handle(nil, "nothing"))
}
