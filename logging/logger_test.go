package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()

	var entries []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		entry := map[string]interface{}{}
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		entries = append(entries, entry)
	}
	return entries
}

func TestParseLevel(t *testing.T) {
	tests := map[string]struct {
		input string
		want  LogLevel
	}{
		"debug":           {input: "debug", want: DEBUG},
		"upper case":      {input: "WARN", want: WARN},
		"warning alias":   {input: "warning", want: WARN},
		"error":           {input: "error", want: ERROR},
		"unknown is info": {input: "verbose", want: INFO},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			if got := ParseLevel(tc.input); got != tc.want {
				t.Errorf("ParseLevel(%q) wanted: %s, got: %s", tc.input, tc.want, got)
			}
		})
	}
}

func TestLogger_levelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: "warn", Format: "json", Output: &buf})

	logger.Debug("hidden")
	logger.Infof("hidden %d", 1)
	logger.Warnf("shown %d", 2)
	logger.Error("also shown")

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 2)
	assert.Equal(t, "shown 2", entries[0]["msg"])
	assert.Equal(t, "warn", entries[0]["level"])
	assert.Equal(t, "also shown", entries[1]["msg"])

	assert.False(t, logger.IsLevelEnabled(INFO))
	assert.True(t, logger.IsLevelEnabled(ERROR))
}

func TestLogger_WithPrefixNests(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: "debug", Format: "json", Output: &buf, Prefix: "pickem"})

	child := logger.WithPrefix("Reconciler").WithPrefix("day")
	child.Info("hello")

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "pickem:Reconciler:day", entries[0]["component"])
	assert.Equal(t, "pickem:Reconciler:day", child.Prefix())
}

func TestLogger_SetLevelSharedWithChildren(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: "error", Format: "json", Output: &buf})
	child := logger.WithPrefix("child")

	child.Info("dropped")
	logger.SetLevel(DEBUG)
	child.Info("kept")

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "kept", entries[0]["msg"])
}
