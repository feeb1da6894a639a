package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(Options{JSON: true, Out: &buf})
	require.NoError(t, err)

	log.Infow("page served", "items", 3, "request_id", "r1")
	require.NoError(t, log.Sync())

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "info", line["level"])
	assert.Equal(t, "page served", line["msg"])
	assert.Equal(t, float64(3), line["items"])
	assert.Equal(t, "r1", line["request_id"])
}

func TestNew_Console(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(Options{Out: &buf})
	require.NoError(t, err)

	log.Warnw("slow query", "ms", 250)
	out := buf.String()
	assert.Contains(t, out, "WARN")
	assert.Contains(t, out, "slow query")
	assert.NotContains(t, out, "\x1b[", "no color when not writing to a terminal")
}

func TestNew_Level(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(Options{JSON: true, Level: "warn", Out: &buf})
	require.NoError(t, err)

	log.Infow("hidden")
	log.Errorw("shown")
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "shown")
}

func TestNew_BadLevel(t *testing.T) {
	_, err := New(Options{Level: "loud"})
	assert.Error(t, err)
}

func TestNop(t *testing.T) {
	assert.NotPanics(t, func() { Nop().Infow("nothing") })
}
