package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		entry := map[string]any{}
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		out = append(out, entry)
	}
	return out
}

func TestLoggerErrorIncludesContextFieldsAndStack(t *testing.T) {
	t.Setenv("LOG_FORMAT", "json")
	buf := &bytes.Buffer{}
	log := New(Options{ServiceName: "test", Level: ParseLevel("debug"), Output: buf})

	ctx := log.WithRequestID(context.Background(), "req-123")
	ctx = log.WithDriverID(ctx, "driver-9")
	log.Error(ctx, "transfer failed", errors.New("boom"))

	entries := decodeLines(t, buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "req-123", entries[0]["request_id"])
	assert.Equal(t, "driver-9", entries[0]["driver_id"])
	assert.Equal(t, "boom", entries[0]["error"])
	assert.Equal(t, "test", entries[0]["service"])
	assert.NotEmpty(t, entries[0]["stack"])
}

func TestLoggerWarnStackToggle(t *testing.T) {
	t.Setenv("LOG_FORMAT", "json")
	for _, enabled := range []bool{true, false} {
		buf := &bytes.Buffer{}
		log := New(Options{ServiceName: "test", Output: buf, WarnStack: enabled})
		log.Warn(context.Background(), "retrying")

		entries := decodeLines(t, buf)
		require.Len(t, entries, 1)
		_, hasStack := entries[0]["stack"]
		assert.Equal(t, enabled, hasStack)
	}
}

func TestWithFieldsDoesNotLeakIntoParentContext(t *testing.T) {
	t.Setenv("LOG_FORMAT", "json")
	buf := &bytes.Buffer{}
	log := New(Options{ServiceName: "test", Output: buf})

	parent := context.Background()
	_ = log.WithFields(parent, map[string]any{"kind": "dispatch"})
	log.Info(parent, "plain")

	entries := decodeLines(t, buf)
	require.Len(t, entries, 1)
	_, ok := entries[0]["kind"]
	assert.False(t, ok)
}

func TestParseLevelDefaults(t *testing.T) {
	assert.Equal(t, zerolog.InfoLevel, ParseLevel(""))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("invalid"))
	assert.Equal(t, zerolog.DebugLevel, ParseLevel(" DEBUG "))
	assert.Equal(t, zerolog.WarnLevel, ParseLevel("warn"))
}
