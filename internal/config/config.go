// Package config loads meshid settings from a YAML file and MESHID_
// environment variables.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/cmlibs/zinc-sub001/internal/engine"
)

// Config is the complete meshid configuration.
type Config struct {
	Database   string    `mapstructure:"database" yaml:"database"`
	ProbeLimit int64     `mapstructure:"probe_limit" yaml:"probe_limit"`
	Time       float64   `mapstructure:"time" yaml:"time"`
	Log        LogConfig `mapstructure:"log" yaml:"log"`
}

// LogConfig selects the slog handler installed by the CLI.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`   // debug|info|warn|error
	Format string `mapstructure:"format" yaml:"format"` // text|json
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		Database:   "meshid.db",
		ProbeLimit: engine.DefaultProbeLimit,
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads configuration. With an empty path it looks for meshid.yaml in
// the working directory and falls back to defaults when there is none; an
// explicit path must exist. MESHID_ environment variables (MESHID_DATABASE,
// MESHID_LOG_LEVEL, ...) override the file.
func Load(path string) (*Config, error) {
	v := viper.New()

	def := DefaultConfig()
	v.SetDefault("database", def.Database)
	v.SetDefault("probe_limit", def.ProbeLimit)
	v.SetDefault("time", def.Time)
	v.SetDefault("log.level", def.Log.Level)
	v.SetDefault("log.format", def.Log.Format)

	v.SetEnvPrefix("MESHID")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("meshid")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Database == "" {
		return &ConfigError{Field: "database", Message: "must not be empty"}
	}
	if c.ProbeLimit <= 0 {
		return &ConfigError{Field: "probe_limit", Message: "must be positive"}
	}
	if math.IsNaN(c.Time) || math.IsInf(c.Time, 0) {
		return &ConfigError{Field: "time", Message: "must be finite"}
	}
	if _, err := c.Log.level(); err != nil {
		return &ConfigError{Field: "log.level", Message: err.Error()}
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return &ConfigError{Field: "log.format", Message: fmt.Sprintf("unknown format %q (want text|json)", c.Log.Format)}
	}
	return nil
}

func (l LogConfig) level() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, fmt.Errorf("unknown level %q", l.Level)
	}
	return lvl, nil
}

// Logger builds the slog logger described by l, writing to w. verbose
// forces Debug.
func (l LogConfig) Logger(w io.Writer, verbose bool) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}
	lvl, err := l.level()
	if err != nil {
		lvl = slog.LevelInfo
	}
	if verbose {
		lvl = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if l.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field '" + e.Field + "': " + e.Message
}
