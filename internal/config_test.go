package internal

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("nil reader returns defaults", func(t *testing.T) {
		cfg, err := Load(nil)
		require.NoError(t, err)
		assert.Equal(t, DefaultConfig(), cfg)
	})

	t.Run("empty input returns defaults", func(t *testing.T) {
		cfg, err := Load(strings.NewReader(""))
		require.NoError(t, err)
		assert.Equal(t, DefaultConfig(), cfg)
	})

	t.Run("overrides only given fields", func(t *testing.T) {
		input := `
directory: /var/lib/kv
corruption_policy: skip
logging:
  level: debug
`
		cfg, err := Load(strings.NewReader(input))
		require.NoError(t, err)
		assert.Equal(t, "/var/lib/kv", cfg.Directory)
		assert.Equal(t, "skip", cfg.CorruptionPolicy)
		assert.Equal(t, "debug", cfg.Logging.Level)
		assert.Equal(t, DEFAULT_DATA_FILE, cfg.DataFile)
		assert.Equal(t, "stderr", cfg.Logging.Output)
		assert.Equal(t, filepath.Join("/var/lib/kv", DEFAULT_DATA_FILE), cfg.DataPath())
		assert.Equal(t, filepath.Join("/var/lib/kv", DEFAULT_HINT_FILE), cfg.HintPath())
	})

	t.Run("invalid yaml", func(t *testing.T) {
		_, err := Load(strings.NewReader("directory: [unterminated"))
		assert.Error(t, err)
	})
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()

	cfg, err := LoadConfig(filepath.Join(dir, "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("sync_on_write: true\n"), 0644))

	cfg, err = LoadConfig(path)
	require.NoError(t, err)
	assert.True(t, cfg.SyncOnWrite)
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLogLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLogLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLogLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLogLevel("bogus"))
}
