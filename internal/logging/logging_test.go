package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/gotrs-io/pwharness/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewWithWriter(t *testing.T) {
	t.Run("json format", func(t *testing.T) {
		var buf bytes.Buffer
		log := NewWithWriter(config.Logging{Level: "debug", Format: "json"}, zapcore.AddSync(&buf))
		log.Debug("hello")
		require.NoError(t, log.Sync())

		var entry map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, "hello", entry["msg"])
		assert.Equal(t, "pwharness", entry["logger"])
	})

	t.Run("bad level falls back to info", func(t *testing.T) {
		var buf bytes.Buffer
		log := NewWithWriter(config.Logging{Level: "loud", Format: "console"}, zapcore.AddSync(&buf))
		log.Debug("hidden")
		log.Info("shown")
		_ = log.Sync()

		assert.NotContains(t, buf.String(), "hidden")
		assert.Contains(t, buf.String(), "shown")
	})

	t.Run("file sink", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "harness.log")
		var buf bytes.Buffer
		log := NewWithWriter(config.Logging{Level: "info", File: path}, zapcore.AddSync(&buf))
		log.Info("to file")
		_ = log.Sync()

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), `"msg":"to file"`)
	})
}

func TestOrNop(t *testing.T) {
	assert.NotNil(t, OrNop(nil))
}
