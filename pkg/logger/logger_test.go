package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, ParseLevel("debug"))
	assert.Equal(t, zapcore.WarnLevel, ParseLevel("warn"))
	assert.Equal(t, zapcore.ErrorLevel, ParseLevel("ERROR"))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel(""))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel("loud"))
}

func TestInitWithWriterWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf, "info")
	t.Cleanup(func() { InitWithWriter(&bytes.Buffer{}, "info") })

	Sugar.Debugw("hidden")
	Sugar.Infow("saved", "file", "dane.json")
	Sync()

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &entry))
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "saved", entry["msg"])
	assert.Equal(t, "dane.json", entry["file"])
	assert.Contains(t, entry, "timestamp")
}
