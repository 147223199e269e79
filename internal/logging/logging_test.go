package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"info", slog.LevelInfo, false},
		{"", slog.LevelInfo, false},
		{"WARN", slog.LevelWarn, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"trace", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestSetupTextFormat(t *testing.T) {
	var buf bytes.Buffer
	log, err := Setup(Config{Level: "debug", Format: "text", Output: &buf, Component: "zoom"})
	require.NoError(t, err)

	log.Debug("transition", "from", "unloaded", "to", "loading")
	out := buf.String()
	assert.Contains(t, out, "transition")
	assert.Contains(t, out, "component=zoom")
}

func TestSetupJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	log, err := Setup(Config{Level: "info", Format: "json", Output: &buf})
	require.NoError(t, err)

	log.Info("ready", "width", 800)
	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(buf.String())), &rec))
	assert.Equal(t, "ready", rec["msg"])
	assert.EqualValues(t, 800, rec["width"])
}

func TestSetupLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	log, err := Setup(Config{Level: "warn", Output: &buf})
	require.NoError(t, err)

	log.Info("hidden")
	assert.Empty(t, buf.String())
	log.Warn("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestSetupRejectsUnknown(t *testing.T) {
	_, err := Setup(Config{Level: "loud"})
	assert.Error(t, err)
	_, err = Setup(Config{Format: "yaml"})
	assert.Error(t, err)
}
