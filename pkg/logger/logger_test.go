package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/leapscreener/pkg/config"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name      string
		cfg       *config.Config
		wantLevel zerolog.Level
	}{
		{
			name:      "debug level",
			cfg:       &config.Config{Env: "development", LogLevel: "debug", LogFormat: "json"},
			wantLevel: zerolog.DebugLevel,
		},
		{
			name:      "warn level console",
			cfg:       &config.Config{Env: "staging", LogLevel: "warn", LogFormat: "console"},
			wantLevel: zerolog.WarnLevel,
		},
		{
			name:      "error level",
			cfg:       &config.Config{Env: "production", LogLevel: "error", LogFormat: "json"},
			wantLevel: zerolog.ErrorLevel,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log := New(tt.cfg)
			require.NotNil(t, log)
			assert.Equal(t, tt.wantLevel, zerolog.GlobalLevel())
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"DEBUG", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"invalid", zerolog.InfoLevel}, // Default
		{"", zerolog.InfoLevel},        // Default
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLogLevel(tt.input))
		})
	}
}

func decode(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry), "log output: %s", buf.String())
	return entry
}

func TestLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "debug", "development")

	tests := []struct {
		name      string
		logFunc   func()
		wantMsg   string
		wantLevel string
	}{
		{"debug", func() { log.Debug("debug message") }, "debug message", "debug"},
		{"info", func() { log.Info("info message") }, "info message", "info"},
		{"warnf", func() { log.Warnf("retry attempt: %d", 3) }, "retry attempt: 3", "warn"},
		{"errorf", func() { log.Errorf("failed: %s", "timeout") }, "failed: timeout", "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf.Reset()
			tt.logFunc()

			entry := decode(t, &buf)
			assert.Equal(t, tt.wantLevel, entry["level"])
			assert.Equal(t, tt.wantMsg, entry["message"])
			assert.Equal(t, "leapscreener", entry["service"])
		})
	}
}

func TestWithTickerAndFields(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "debug", "development")

	log.WithTicker("NVDA").WithFields(map[string]interface{}{
		"layer":  2,
		"reason": "failed Layer 2 technical screen",
	}).Info("ticker evaluated")

	entry := decode(t, &buf)
	assert.Equal(t, "NVDA", entry["ticker"])
	assert.Equal(t, float64(2), entry["layer"])
	assert.Equal(t, "failed Layer 2 technical screen", entry["reason"])
}

func TestWithError(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "debug", "development")

	log.WithError(errors.New("chain fetch failed")).Warn("expiration skipped")

	entry := decode(t, &buf)
	assert.Equal(t, "chain fetch failed", entry["error"])
}

func TestWithRun(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "info", "development")

	log.WithRun("run-1").WithTicker("AMD").Debug("below level")
	assert.Empty(t, buf.String())

	log.WithRun("run-1").WithTicker("AMD").Info("ticker evaluated")
	entry := decode(t, &buf)
	assert.Equal(t, "run-1", entry["run_id"])
	assert.Equal(t, "AMD", entry["ticker"])
}

func TestWriterFor(t *testing.T) {
	var buf bytes.Buffer
	_, isConsole := writerFor("pretty", &buf).(zerolog.ConsoleWriter)
	assert.True(t, isConsole)
	assert.Equal(t, &buf, writerFor("json", &buf))
}

func TestNop(t *testing.T) {
	log := Nop()
	log.WithTicker("AAPL").Info("discarded")
}
