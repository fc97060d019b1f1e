// Package config loads estimate-cli settings from config.yaml and the
// environment, and initialises the global logger.
package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Engine     EngineConfig     `yaml:"engine" mapstructure:"engine"`
	Accounts   AccountsConfig   `yaml:"accounts" mapstructure:"accounts"`
	Salesforce SalesforceConfig `yaml:"salesforce" mapstructure:"salesforce"`
	Retry      RetryConfig      `yaml:"retry" mapstructure:"retry"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the record store.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// EngineConfig tunes snapshot loading and per-account fan-out.
type EngineConfig struct {
	PageSize             int    `yaml:"page_size" mapstructure:"page_size"`
	Concurrency          int    `yaml:"concurrency" mapstructure:"concurrency"`
	RenewalThresholdDays int    `yaml:"renewal_threshold_days" mapstructure:"renewal_threshold_days"`
	Timezone             string `yaml:"timezone" mapstructure:"timezone"`
}

// Location resolves Timezone. Blank means UTC.
func (e EngineConfig) Location() (*time.Location, error) {
	if e.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(e.Timezone)
	if err != nil {
		return nil, eris.Wrapf(err, "config: load timezone %q", e.Timezone)
	}
	return loc, nil
}

// Account sources.
const (
	AccountSourceStore      = "store"
	AccountSourceSalesforce = "salesforce"
)

// AccountsConfig selects where account records are read from.
type AccountsConfig struct {
	Source string `yaml:"source" mapstructure:"source"`
}

// SalesforceConfig holds Salesforce JWT credentials.
type SalesforceConfig struct {
	ClientID  string  `yaml:"client_id" mapstructure:"client_id"`
	Username  string  `yaml:"username" mapstructure:"username"`
	KeyPath   string  `yaml:"key_path" mapstructure:"key_path"`
	LoginURL  string  `yaml:"login_url" mapstructure:"login_url"`
	RateLimit float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// RetryConfig configures page-fetch retries.
type RetryConfig struct {
	MaxAttempts      int `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoffMs int `yaml:"initial_backoff_ms" mapstructure:"initial_backoff_ms"`
	MaxBackoffMs     int `yaml:"max_backoff_ms" mapstructure:"max_backoff_ms"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Scopes passed to Validate.
const (
	ScopeStore      = "store"
	ScopeSalesforce = "salesforce"
)

// Validate checks the settings a command needs. Every problem found is
// reported in one error.
func (c *Config) Validate(scopes ...string) error {
	var errs []string

	if c.Engine.PageSize <= 0 {
		errs = append(errs, "engine.page_size must be > 0")
	}
	if c.Engine.Concurrency < 1 || c.Engine.Concurrency > 64 {
		errs = append(errs, "engine.concurrency must be between 1 and 64")
	}
	if c.Engine.RenewalThresholdDays < 0 {
		errs = append(errs, "engine.renewal_threshold_days must be >= 0")
	}
	if _, err := c.Engine.Location(); err != nil {
		errs = append(errs, "engine.timezone is not a known location")
	}
	switch c.Accounts.Source {
	case AccountSourceStore, AccountSourceSalesforce:
	default:
		errs = append(errs, "accounts.source must be store or salesforce")
	}

	for _, scope := range scopes {
		switch scope {
		case ScopeStore:
			switch c.Store.Driver {
			case "postgres":
				if c.Store.DatabaseURL == "" {
					errs = append(errs, "store.database_url is required for postgres (ESTIMATE_STORE_DATABASE_URL)")
				}
			case "sqlite":
			default:
				errs = append(errs, "store.driver must be postgres or sqlite")
			}
		case ScopeSalesforce:
			if c.Salesforce.ClientID == "" {
				errs = append(errs, "salesforce.client_id is required (ESTIMATE_SALESFORCE_CLIENT_ID)")
			}
			if c.Salesforce.KeyPath == "" {
				errs = append(errs, "salesforce.key_path is required (ESTIMATE_SALESFORCE_KEY_PATH)")
			}
		default:
			return eris.Errorf("config: unknown scope %q", scope)
		}
	}

	if len(errs) > 0 {
		return eris.New("config: " + strings.Join(errs, "; "))
	}
	return nil
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("ESTIMATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults. Every key is registered so AutomaticEnv can bind it.
	v.SetDefault("store.driver", "postgres")
	v.SetDefault("store.database_url", "")
	v.SetDefault("store.max_conns", 10)
	v.SetDefault("store.min_conns", 2)
	v.SetDefault("engine.page_size", 1000)
	v.SetDefault("engine.concurrency", 8)
	v.SetDefault("engine.renewal_threshold_days", 180)
	v.SetDefault("engine.timezone", "UTC")
	v.SetDefault("accounts.source", AccountSourceStore)
	v.SetDefault("salesforce.client_id", "")
	v.SetDefault("salesforce.username", "")
	v.SetDefault("salesforce.key_path", "")
	v.SetDefault("salesforce.login_url", "https://login.salesforce.com")
	v.SetDefault("salesforce.rate_limit", 10.0)
	v.SetDefault("retry.max_attempts", 3)
	v.SetDefault("retry.initial_backoff_ms", 250)
	v.SetDefault("retry.max_backoff_ms", 10000)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
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
