package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	zl := New(Config{Level: "warn", Format: "json", Output: &buf})

	zl.Info().Msg("hidden")
	zl.Warn().Str("component", "refresh").Msg("visible")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(lines[0], &entry))
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "refresh", entry["component"])
	assert.Equal(t, "visible", entry["message"])
}

func TestNewDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	zl := New(Config{Level: "nonsense", Format: "json", Output: &buf})
	assert.Equal(t, zerolog.InfoLevel, zl.GetLevel())
}

func TestNewConsoleSetsGlobal(t *testing.T) {
	var buf bytes.Buffer
	zl := New(Config{Level: "debug", Output: &buf})
	zl.Debug().Msg("console line")

	assert.Contains(t, buf.String(), "console line")
	assert.Equal(t, zerolog.DebugLevel, log.Logger.GetLevel())
}
