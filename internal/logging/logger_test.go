package logging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "info")
	require.NotNil(t, log)

	log.Info().Msg("test message")
	assert.Contains(t, buf.String(), "test message")
}

func TestNewDefaultWriter(t *testing.T) {
	log := New(nil, "info")
	require.NotNil(t, log)
}

func TestSub(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "debug")
	sub := log.Sub("store")
	require.NotNil(t, sub)

	sub.Info().Msg("sub message")
	out := buf.String()
	assert.Contains(t, out, "sub message")
	assert.Contains(t, out, "store")
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "warn")

	log.Debug().Msg("hidden")
	log.Info().Msg("also hidden")
	log.Warn().Msg("visible")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "visible")
}

func TestSilentLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "silent")

	log.Error().Msg("nothing")
	assert.Empty(t, buf.String())
}

func TestJSONStyle(t *testing.T) {
	var buf bytes.Buffer
	log := NewStyled(&buf, "info", "json")

	log.Info().Str("k", "v").Msg("json line")
	assert.Contains(t, buf.String(), `"k":"v"`)
}
