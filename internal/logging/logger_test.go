package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("WARN"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("chatty"))
}

func TestNewWritesJSONWithAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger := New("warn", WithOutput(&buf), WithAttrs("app", "invoice_pool"))

	logger.Info("dropped")
	logger.Warn("kept", "call", "borrow")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "kept", record["msg"])
	assert.Equal(t, "invoice_pool", record["app"])
	assert.Equal(t, "borrow", record["call"])
}
