package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(&buf, "warn", FormatJSON)
	require.NoError(t, err)

	log.Info().Msg("hidden")
	log.Warn().Str("uuid", "a-1").Msg("route not migrated")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "a-1", entry["uuid"])
	assert.Equal(t, "route not migrated", entry["message"])
	assert.Contains(t, entry, "time")
}

func TestNew_Console(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(&buf, "", "")
	require.NoError(t, err)

	log.Debug().Msg("hidden")
	log.Info().Str("workspace", "default").Msg("migrating")

	out := buf.String()
	assert.Contains(t, out, "migrating")
	assert.Contains(t, out, "workspace=default")
	assert.NotContains(t, out, "hidden")
}

func TestNew_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		level  string
		format string
	}{
		{name: "level", level: "loud", format: FormatJSON},
		{name: "format", level: "info", format: "xml"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(&bytes.Buffer{}, tt.level, tt.format)
			assert.Error(t, err)
		})
	}
}
