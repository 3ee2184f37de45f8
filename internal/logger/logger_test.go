package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/aleister1102/keywatch/internal/config"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_DefaultLogger(t *testing.T) {
	_, err := New(config.NewDefaultLogConfig())
	require.NoError(t, err)
}

func TestNew_UnknownLevelFallsBackToInfo(t *testing.T) {
	cfg := config.NewDefaultLogConfig()
	cfg.LogLevel = "loud"

	log, err := New(cfg)
	require.NoError(t, err)
	assert.Equal(t, zerolog.InfoLevel, log.GetLevel())
}

func TestBuilder_WritesJSONToExtraWriter(t *testing.T) {
	var buf bytes.Buffer
	cfg := config.NewDefaultLogConfig()
	cfg.LogLevel = "debug"

	b := NewBuilder().WithConfig(cfg).WithConsole(false).WithWriter(&buf)
	assert.Equal(t, zerolog.DebugLevel, b.Options().Level)
	base, err := b.Build()
	require.NoError(t, err)

	log := Component(base, "Scheduler")
	log.Debug().Str("url", "http://a").Msg("tick")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "Scheduler", entry["component"])
	assert.Equal(t, "tick", entry["message"])
	assert.Equal(t, "http://a", entry["url"])
}

func TestBuilder_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "keywatch.log")
	cfg := config.NewDefaultLogConfig()
	cfg.LogFile = path
	cfg.LogFormat = "json"

	log, err := NewBuilder().WithConfig(cfg).WithConsole(false).Build()
	require.NoError(t, err)
	log.Info().Msg("hello")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"message":"hello"`)
}

func TestBuilder_NoWriters(t *testing.T) {
	_, err := NewBuilder().WithConsole(false).Build()
	assert.Error(t, err)
}

func TestParseLevelAndFormat(t *testing.T) {
	level, err := ParseLevel("WARN")
	require.NoError(t, err)
	assert.Equal(t, zerolog.WarnLevel, level)

	level, err = ParseLevel("loud")
	assert.Error(t, err)
	assert.Equal(t, zerolog.InfoLevel, level)

	assert.Equal(t, FormatJSON, ParseFormat("json"))
	assert.Equal(t, FormatText, ParseFormat("TEXT"))
	assert.Equal(t, FormatConsole, ParseFormat("unknown"))
	assert.Equal(t, "text", FormatText.String())
}
