package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	t.Run("Should write JSON lines with fields", func(t *testing.T) {
		var buf bytes.Buffer
		cfg := DefaultConfig()
		cfg.Output = &buf
		cfg.JSON = true

		NewLogger(cfg).With("component", "test").Info("hello", "song_id", "42")

		var line map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
		assert.Equal(t, "hello", line["msg"])
		assert.Equal(t, "test", line["component"])
		assert.Equal(t, "42", line["song_id"])
	})

	t.Run("Should drop lines below the configured level", func(t *testing.T) {
		var buf bytes.Buffer
		cfg := DefaultConfig()
		cfg.Output = &buf
		cfg.Level = WarnLevel

		l := NewLogger(cfg)
		l.Info("quiet")
		assert.Zero(t, buf.Len())

		l.Warn("loud")
		assert.Contains(t, buf.String(), "loud")
	})

	t.Run("Should copy lines into the log file", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "overlay.log")
		cfg := TestConfig()
		cfg.File = file

		NewLogger(cfg).Info("persisted")

		b, err := os.ReadFile(file)
		require.NoError(t, err)
		assert.Contains(t, string(b), "persisted")
	})
}

func TestInit(t *testing.T) {
	var buf bytes.Buffer
	cfg := DefaultConfig()
	cfg.Output = &buf
	Init(cfg)
	t.Cleanup(func() { Init(nil) })

	Info("via default")
	assert.Contains(t, buf.String(), "via default")
	assert.NotNil(t, GetDefault())
}
