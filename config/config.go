// Package config loads the agent configuration from defaults, an optional
// YAML file and DESKMESH_* environment variables, in ascending precedence.
package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/hupe1980/deskmesh/logging"
)

// LoggerConfig controls diagnostic output.
type LoggerConfig struct {
	Level     string `mapstructure:"level" yaml:"level"`
	Format    string `mapstructure:"format" yaml:"format"`
	AddSource bool   `mapstructure:"add_source" yaml:"add_source"`
}

// ModelConfig selects and tunes the instruction backend.
type ModelConfig struct {
	Provider     string        `mapstructure:"provider" yaml:"provider"`
	Name         string        `mapstructure:"name" yaml:"name"`
	APIKey       string        `mapstructure:"api_key" yaml:"api_key"`
	PollInterval time.Duration `mapstructure:"poll_interval" yaml:"poll_interval"`
	PollTimeout  time.Duration `mapstructure:"poll_timeout" yaml:"poll_timeout"`
}

// BrowserConfig controls the driven-browser automation surface. When Enabled
// is false the agent runs headless and simulates GUI primitives.
type BrowserConfig struct {
	Enabled    bool   `mapstructure:"enabled" yaml:"enabled"`
	Headless   bool   `mapstructure:"headless" yaml:"headless"`
	DisableGPU bool   `mapstructure:"disable_gpu" yaml:"disable_gpu"`
	StartURL   string `mapstructure:"start_url" yaml:"start_url"`
}

// RunnerConfig tunes the orchestration loop.
type RunnerConfig struct {
	StatusBufferSize int `mapstructure:"status_buffer_size" yaml:"status_buffer_size"`
	MaxSteps         int `mapstructure:"max_steps" yaml:"max_steps"`
}

// SnapshotConfig controls where observation files are written and whether
// they are kept after the run.
type SnapshotConfig struct {
	Dir  string `mapstructure:"dir" yaml:"dir"`
	Keep bool   `mapstructure:"keep" yaml:"keep"`
}

// Config holds the entire agent configuration.
type Config struct {
	Logger   LoggerConfig   `mapstructure:"logger" yaml:"logger"`
	Model    ModelConfig    `mapstructure:"model" yaml:"model"`
	Browser  BrowserConfig  `mapstructure:"browser" yaml:"browser"`
	Runner   RunnerConfig   `mapstructure:"runner" yaml:"runner"`
	Snapshot SnapshotConfig `mapstructure:"snapshot" yaml:"snapshot"`
}

// LogLevel translates the configured level string for the logging package.
func (c LoggerConfig) LogLevel() logging.LogLevel {
	switch strings.ToLower(c.Level) {
	case "debug":
		return logging.LogLevelDebug
	case "warn", "warning":
		return logging.LogLevelWarn
	case "error":
		return logging.LogLevelError
	default:
		return logging.LogLevelInfo
	}
}

// DefaultDir returns the per-install configuration directory (~/.deskmesh).
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(home, ".deskmesh"), nil
}

// SetDefaults initializes default values on the given viper instance.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "text")
	v.SetDefault("logger.add_source", false)

	v.SetDefault("model.provider", "openai")
	v.SetDefault("model.name", "")
	v.SetDefault("model.api_key", "")
	v.SetDefault("model.poll_interval", "1s")
	v.SetDefault("model.poll_timeout", "2m")

	v.SetDefault("browser.enabled", false)
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.disable_gpu", false)
	v.SetDefault("browser.start_url", "about:blank")

	v.SetDefault("runner.status_buffer_size", 64)
	v.SetDefault("runner.max_steps", 100)

	v.SetDefault("snapshot.dir", "")
	v.SetDefault("snapshot.keep", false)
}

// Load reads the configuration. cfgFile, when non-empty, points at an
// explicit config file; otherwise ~/.deskmesh/config.yaml and ./config.yaml
// are tried. A missing config file is not an error; defaults and environment
// variables still apply.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		if dir, err := DefaultDir(); err == nil {
			v.AddConfigPath(dir)
		}
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("DESKMESH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	SetDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
