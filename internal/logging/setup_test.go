package logging

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.in))
		})
	}
}

func TestNewHandler_Format(t *testing.T) {
	var buf bytes.Buffer
	slog.New(NewHandler(Config{Format: FormatJSON}, &buf)).Info("hello", Count(3))
	assert.True(t, strings.HasPrefix(buf.String(), "{"), "json output expected, got %q", buf.String())

	buf.Reset()
	slog.New(NewHandler(Config{Format: "TEXT"}, &buf)).Info("hello", Count(3))
	assert.Contains(t, buf.String(), "count=3")
}

func TestNewHandler_Level(t *testing.T) {
	h := NewHandler(Config{Level: "warn"}, &bytes.Buffer{})
	assert.False(t, h.Enabled(context.Background(), slog.LevelInfo))
	assert.True(t, h.Enabled(context.Background(), slog.LevelWarn))
}

func TestNewHandler_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tagdeck.log")
	var buf bytes.Buffer

	slog.New(NewHandler(Config{File: path}, &buf)).Info("to both")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "to both")
	assert.Contains(t, buf.String(), "to both")
}
