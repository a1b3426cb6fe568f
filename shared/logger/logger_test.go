package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBuffered(t *testing.T, config Config) (*Logger, *bytes.Buffer) {
	t.Helper()
	output := &bytes.Buffer{}
	config.writer = output

	logger, err := New(&config)
	require.NoError(t, err)
	return logger, output
}

func decodeLines(t *testing.T, output *bytes.Buffer) []map[string]any {
	t.Helper()
	var entries []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(output.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		entries = append(entries, entry)
	}
	return entries
}

func TestNew_LevelFiltering(t *testing.T) {
	tests := []struct {
		name   string
		level  string
		levels []string
	}{
		{name: "debug", level: "debug", levels: []string{"DEBUG", "INFO", "WARN", "ERROR"}},
		{name: "info", level: "info", levels: []string{"INFO", "WARN", "ERROR"}},
		{name: "warning alias", level: "warning", levels: []string{"WARN", "ERROR"}},
		{name: "error", level: "error", levels: []string{"ERROR"}},
		{name: "unknown defaults to info", level: "verbose", levels: []string{"INFO", "WARN", "ERROR"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, output := newBuffered(t, Config{Level: tt.level, Format: "json"})

			logger.Debug("Job details")
			logger.Info("Job queued")
			logger.Warn("Shutdown timeout exceeded with jobs still running")
			logger.Error("Job failed")

			var got []string
			for _, entry := range decodeLines(t, output) {
				got = append(got, entry["level"].(string))
			}
			assert.Equal(t, tt.levels, got)
		})
	}
}

func TestNew_JSONAttrs(t *testing.T) {
	logger, output := newBuffered(t, Config{Level: "info", Format: "json"})

	logger.Error("Job failed",
		slog.String("job_id", "abc"),
		slog.Any("error", errors.New("generator timed out")),
	)

	entries := decodeLines(t, output)
	require.Len(t, entries, 1)
	assert.Equal(t, "Job failed", entries[0]["msg"])
	assert.Equal(t, "abc", entries[0]["job_id"])
	assert.Equal(t, "generator timed out", entries[0]["error"])
	assert.Contains(t, entries[0], "time")
	assert.NotContains(t, entries[0], "source")
}

func TestNew_Console(t *testing.T) {
	t.Run("plain text when colors are off", func(t *testing.T) {
		logger, output := newBuffered(t, Config{Level: "info", Format: "console", NoColor: true})

		logger.Info("Starting HTTP server", slog.String("addr", "127.0.0.1:4173"))

		line := output.String()
		assert.NotContains(t, line, "\x1b[")
		assert.Contains(t, line, "INF")
		assert.Contains(t, line, "addr=127.0.0.1:4173")
	})

	t.Run("empty format falls back to console", func(t *testing.T) {
		logger, output := newBuffered(t, Config{NoColor: true})

		logger.Info("Server shutdown complete")

		assert.Contains(t, output.String(), "Server shutdown complete")
		assert.False(t, json.Valid(output.Bytes()))
	})
}

func TestNew_Source(t *testing.T) {
	logger, output := newBuffered(t, Config{Level: "info", Format: "json", EnableSource: true})

	logger.Info("Job queued")

	entries := decodeLines(t, output)
	require.Len(t, entries, 1)
	source, ok := entries[0]["source"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, source["file"], "logger_test.go")
}

func TestNew_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "viewer.log")

	for _, id := range []string{"first", "second"} {
		logger, err := New(&Config{Level: "info", Format: "json", Output: path})
		require.NoError(t, err)
		logger.Info("Job queued", slog.String("job_id", id))
		require.NoError(t, logger.Close())
	}

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	entries := decodeLines(t, bytes.NewBuffer(data))
	require.Len(t, entries, 2)
	assert.Equal(t, "first", entries[0]["job_id"])
	assert.Equal(t, "second", entries[1]["job_id"])
}

func TestNew_FileOutputError(t *testing.T) {
	logger, err := New(&Config{Output: filepath.Join(t.TempDir(), "missing", "viewer.log")})
	require.Error(t, err)
	assert.Nil(t, logger)
}

func TestLogger_CloseWithoutFile(t *testing.T) {
	logger, _ := newBuffered(t, Config{})
	assert.NoError(t, logger.Close())
}
