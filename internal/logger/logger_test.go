package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/Niiaks/paygate/internal/config"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, ParseLevel("debug"))
	assert.Equal(t, zerolog.WarnLevel, ParseLevel("warn"))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("bogus"))
}

func TestNewLogger_ProductionJSON(t *testing.T) {
	var buf bytes.Buffer
	cfg := &config.ObservabilityConfig{
		ServiceName: "paygate",
		Environment: config.EnvProduction,
		Logging:     config.LoggingConfig{Format: "json"},
	}

	log := newLogger(cfg, New(cfg), &buf)
	log.Info().Str("reference", "PAY-1").Msg("hello")
	log.Debug().Msg("dropped at info level")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "paygate", entry["service"])
	assert.Equal(t, "production", entry["environment"])
	assert.Equal(t, "PAY-1", entry["reference"])
	assert.Equal(t, "hello", entry["message"])
}

func TestNewLogger_DevelopmentConsole(t *testing.T) {
	var buf bytes.Buffer
	cfg := &config.ObservabilityConfig{
		ServiceName: "paygate",
		Environment: config.EnvDevelopment,
		Logging:     config.LoggingConfig{Level: "debug", Format: "json"},
	}

	log := newLogger(cfg, nil, &buf)
	log.Debug().Msg("visible")

	assert.Contains(t, buf.String(), "visible")
	assert.False(t, json.Valid(bytes.TrimSpace(buf.Bytes())))
}

func TestMaskEmail(t *testing.T) {
	assert.Equal(t, "j***@example.com", MaskEmail("jane@example.com"))
	assert.Equal(t, "***", MaskEmail("@example.com"))
	assert.Equal(t, "***", MaskEmail("not-an-email"))
}

func TestKeyMode(t *testing.T) {
	assert.Equal(t, "missing", KeyMode(""))
	assert.Equal(t, "test", KeyMode("sk_test_123"))
	assert.Equal(t, "live", KeyMode("sk_live_123"))
	assert.Equal(t, "unknown", KeyMode("abc"))
}
