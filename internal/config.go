package internal

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const DEFAULT_DIRECTORY = "./"
const DEFAULT_DATA_FILE = "bk_0.data"
const DEFAULT_HINT_FILE = "bk_0.hint"

// LoggingConfig holds logging-specific configurations.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // e.g., "debug", "info", "warn", "error"
	Output string `yaml:"output"` // "stderr", "stdout" or "none"
}

// Config holds the settings for tools that open a data log and hint stream.
type Config struct {
	Directory        string        `yaml:"directory"`
	DataFile         string        `yaml:"data_file"`
	HintFile         string        `yaml:"hint_file"`
	CorruptionPolicy string        `yaml:"corruption_policy"` // "stop" or "skip"
	SyncOnWrite      bool          `yaml:"sync_on_write"`
	Logging          LoggingConfig `yaml:"logging"`
}

func DefaultConfig() *Config {
	return &Config{
		Directory:        DEFAULT_DIRECTORY,
		DataFile:         DEFAULT_DATA_FILE,
		HintFile:         DEFAULT_HINT_FILE,
		CorruptionPolicy: "stop",
		SyncOnWrite:      false,
		Logging: LoggingConfig{
			Level:  "info",
			Output: "stderr",
		},
	}
}

// Load reads YAML configuration from r on top of the defaults. A nil or
// empty reader yields the defaults.
func Load(r io.Reader) (*Config, error) {
	cfg := DefaultConfig()

	if r == nil {
		return cfg, nil
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read config data: %w", err)
	}

	if len(data) == 0 {
		return cfg, nil
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config yaml: %w", err)
	}

	return cfg, nil
}

// LoadConfig reads configuration from a YAML file. A missing file yields the
// defaults.
func LoadConfig(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Load(nil)
		}
		return nil, fmt.Errorf("failed to open config file %s: %w", path, err)
	}
	defer file.Close()

	return Load(file)
}

func (c *Config) DataPath() string {
	return filepath.Join(c.Directory, c.DataFile)
}

func (c *Config) HintPath() string {
	return filepath.Join(c.Directory, c.HintFile)
}

// ParseLogLevel maps a level name to a slog.Level, defaulting to info.
func ParseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger builds the logger described by the logging section.
func (c *Config) NewLogger() *slog.Logger {
	var w io.Writer
	switch strings.ToLower(c.Logging.Output) {
	case "stdout":
		w = os.Stdout
	case "none":
		w = io.Discard
	default:
		w = os.Stderr
	}

	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: ParseLogLevel(c.Logging.Level)}))
}
