// Package config loads CLI configuration from defaults, an optional config
// file, environment variables and flags, in increasing order of precedence.
//
// Environment variables use the ANALYSIS_ prefix (ANALYSIS_API_BASE,
// ANALYSIS_OUTPUT, ANALYSIS_LOG_LEVEL). Telemetry follows the OpenTelemetry
// names OTEL_ENABLED and OTEL_EXPORTER_OTLP_ENDPOINT.
package config

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/pollutantsai/aianalysis/internal/analysis/apiclient"
)

// EnvPrefix is prepended to every environment variable read by Load.
const EnvPrefix = "ANALYSIS"

// Output formats.
const (
	OutputTable = "table"
	OutputJSON  = "json"
	OutputCSV   = "csv"
)

// Config holds all CLI configuration.
type Config struct {
	API       APIConfig       `mapstructure:"api"`
	Output    string          `mapstructure:"output"`
	Log       LogConfig       `mapstructure:"log"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`

	// ConfigFile is the file that was read, if any.
	ConfigFile string `mapstructure:"-"`
}

// APIConfig configures the analysis API client.
type APIConfig struct {
	BaseURL string `mapstructure:"base"`

	// Timeout is fixed at apiclient.DefaultTimeout and not read from any source.
	Timeout time.Duration `mapstructure:"-"`
}

// LogConfig configures the zerolog logger.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// TelemetryConfig configures OpenTelemetry export.
type TelemetryConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Endpoint    string `mapstructure:"endpoint"`
	Environment string `mapstructure:"environment"`
}

// ApplyDefaults sets default configuration values in v.
func ApplyDefaults(v *viper.Viper) {
	v.SetDefault("api.base", apiclient.DefaultBaseURL)
	v.SetDefault("output", OutputTable)
	v.SetDefault("log.level", zerolog.LevelWarnValue)
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.endpoint", "localhost:4317")
	v.SetDefault("telemetry.environment", "development")
}

// Load reads configuration into a Config. Flags should already be bound to v
// under the same keys ("api.base", "output", "log.level").
func Load(v *viper.Viper) (*Config, error) {
	ApplyDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	for key, env := range map[string]string{
		"telemetry.enabled":     "OTEL_ENABLED",
		"telemetry.endpoint":    "OTEL_EXPORTER_OTLP_ENDPOINT",
		"telemetry.environment": "APP_ENV",
	} {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("bind %s: %w", env, err)
		}
	}

	if v.ConfigFileUsed() == "" {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".aqanalysis"))
		}
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := &Config{
		API: APIConfig{
			BaseURL: v.GetString("api.base"),
			Timeout: apiclient.DefaultTimeout,
		},
		Output: strings.ToLower(v.GetString("output")),
		Log: LogConfig{
			Level: v.GetString("log.level"),
		},
		Telemetry: TelemetryConfig{
			Enabled:     v.GetBool("telemetry.enabled"),
			Endpoint:    v.GetString("telemetry.endpoint"),
			Environment: v.GetString("telemetry.environment"),
		},
		ConfigFile: v.ConfigFileUsed(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid api base url %q: %w", c.API.BaseURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid api base url %q: must be an absolute http(s) url", c.API.BaseURL)
	}

	switch c.Output {
	case OutputTable, OutputJSON, OutputCSV:
	default:
		return fmt.Errorf("invalid output format %q: must be one of table, json, csv", c.Output)
	}

	if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("invalid log level %q: %w", c.Log.Level, err)
	}
	return nil
}

// Logger builds a JSON logger at the configured level.
func (c *Config) Logger(w io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(c.Log.Level)
	if err != nil {
		level = zerolog.WarnLevel
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

// ClientConfig returns the analysis API client configuration.
func (c *Config) ClientConfig(logger zerolog.Logger) apiclient.Config {
	return apiclient.Config{
		BaseURL: c.API.BaseURL,
		Timeout: c.API.Timeout,
		Logger:  logger,
	}
}
