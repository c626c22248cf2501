// Package config handles oqsync configuration using Viper.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/viper"
)

// Config holds the application configuration.
type Config struct {
	Document    string       `mapstructure:"document"`
	Ledger      string       `mapstructure:"ledger"`
	Project     string       `mapstructure:"project"`
	MetricsFile string       `mapstructure:"metrics_file"`
	Indent      IndentConfig `mapstructure:"indent"`
	Log         LogConfig    `mapstructure:"log"`
}

// IndentConfig controls how line depth is measured.
type IndentConfig struct {
	// SpacesPerLevel counts a run of this many spaces as one level. Zero means tabs only.
	SpacesPerLevel int `mapstructure:"spaces_per_level"`
}

// LogConfig controls the structured logger.
type LogConfig struct {
	Format string `mapstructure:"format"`
	Level  string `mapstructure:"level"`
}

// Load reads configuration from configPath, or from .oqsync.yaml in the
// working directory when configPath is empty, and from OQSYNC_* environment
// variables. A missing default config file is not an error.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName(".oqsync")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("OQSYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("document", "tasks.md")
	v.SetDefault("ledger", "ledger.yml")
	v.SetDefault("project", "default")
	v.SetDefault("metrics_file", "")
	v.SetDefault("indent.spaces_per_level", 0)
	v.SetDefault("log.format", "json")
	v.SetDefault("log.level", "info")
}

// Validate checks the values that cannot be defaulted.
func (c *Config) Validate() error {
	if c.Indent.SpacesPerLevel < 0 {
		return fmt.Errorf("indent.spaces_per_level must not be negative, got %d", c.Indent.SpacesPerLevel)
	}
	switch c.Log.Format {
	case "json", "text":
	default:
		return fmt.Errorf("log.format must be json or text, got %q", c.Log.Format)
	}
	if _, err := c.LogLevel(); err != nil {
		return err
	}
	return nil
}

// LogLevel parses Log.Level.
func (c *Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}
