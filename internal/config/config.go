// Package config loads godart settings from config.yaml, .env and the environment.
package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	DART     DARTConfig     `yaml:"dart" mapstructure:"dart"`
	Document DocumentConfig `yaml:"document" mapstructure:"document"`
	Extract  ExtractConfig  `yaml:"extract" mapstructure:"extract"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// DARTConfig holds OpenDART API settings.
type DARTConfig struct {
	APIKey            string  `yaml:"api_key" mapstructure:"api_key"`
	BaseURL           string  `yaml:"base_url" mapstructure:"base_url"`
	TimeoutSecs       int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries        int     `yaml:"max_retries" mapstructure:"max_retries"`
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	FSDiv             string  `yaml:"fs_div" mapstructure:"fs_div"`
}

// Timeout returns the HTTP timeout as a duration.
func (c DARTConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

// DocumentConfig guards document ingestion.
type DocumentConfig struct {
	MaxBytes int64 `yaml:"max_bytes" mapstructure:"max_bytes"`
}

// ExtractConfig tunes fact extraction and slicing.
type ExtractConfig struct {
	MaterialityFloor float64 `yaml:"materiality_floor" mapstructure:"materiality_floor"`
	ScopePolicy      string  `yaml:"scope_policy" mapstructure:"scope_policy"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Scope policy names accepted by extract.scope_policy.
const (
	PolicyPreferConsolidated = "prefer-consolidated"
	PolicyExcludeSeparate    = "exclude-separate"
)

// Load reads configuration from .env, config.yaml and the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, eris.Wrap(err, "config: load .env")
	}

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("GODART")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("dart.api_key", "")
	v.SetDefault("dart.base_url", "https://opendart.fss.or.kr")
	v.SetDefault("dart.timeout_secs", 30)
	v.SetDefault("dart.max_retries", 3)
	v.SetDefault("dart.requests_per_second", 5.0)
	v.SetDefault("dart.fs_div", "CFS")
	v.SetDefault("document.max_bytes", int64(50*1024*1024))
	v.SetDefault("extract.materiality_floor", 1_000_000.0)
	v.SetDefault("extract.scope_policy", PolicyPreferConsolidated)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings every command depends on.
func (c *Config) Validate() error {
	switch c.Extract.ScopePolicy {
	case PolicyPreferConsolidated, PolicyExcludeSeparate:
	default:
		return eris.Errorf("config: unknown extract.scope_policy %q", c.Extract.ScopePolicy)
	}
	if c.Document.MaxBytes <= 0 {
		return eris.New("config: document.max_bytes must be positive")
	}
	if c.Extract.MaterialityFloor < 0 {
		return eris.New("config: extract.materiality_floor must not be negative")
	}
	if c.DART.MaxRetries < 0 {
		return eris.New("config: dart.max_retries must not be negative")
	}
	return nil
}

// ValidateAPI checks the settings required to call OpenDART.
func (c *Config) ValidateAPI() error {
	if err := c.Validate(); err != nil {
		return err
	}
	var missing []string
	if c.DART.APIKey == "" {
		missing = append(missing, "dart.api_key")
	}
	if c.DART.BaseURL == "" {
		missing = append(missing, "dart.base_url")
	}
	if len(missing) > 0 {
		return eris.Errorf("config: missing required fields: %s", strings.Join(missing, ", "))
	}
	if c.DART.RequestsPerSecond <= 0 {
		return eris.New("config: dart.requests_per_second must be positive")
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
