package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, New("debug", "json").GetLevel())
	assert.Equal(t, zerolog.WarnLevel, New(" WARN ", "console").GetLevel())
	assert.Equal(t, zerolog.InfoLevel, New("invalid", "json").GetLevel())
	assert.Equal(t, zerolog.InfoLevel, New("", "json").GetLevel())
}

func TestNewWithWriterJSON(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "info", "json")
	log.Info().Str("dataset", "cases").Int("rows", 3).Msg("loaded")

	var event map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &event))
	assert.Equal(t, "loaded", event["message"])
	assert.Equal(t, "cases", event["dataset"])
	assert.EqualValues(t, 3, event["rows"])
	assert.Contains(t, event, "time")
}

func TestNewWithWriterFiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "warn", "json")
	log.Info().Msg("hidden")
	assert.Zero(t, buf.Len())
}
