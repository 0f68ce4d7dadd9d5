// Package config loads and validates agency-report configuration via Viper.
package config

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/Sternrassler/agency-report/pkg/listings"
	"github.com/Sternrassler/agency-report/pkg/logging"
	"github.com/Sternrassler/agency-report/pkg/pagination"
	"github.com/Sternrassler/agency-report/pkg/report"
)

// EnvPrefix prefixes every environment override, e.g. AGENCY_REPORT_SERVER_PORT.
const EnvPrefix = "AGENCY_REPORT"

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Listings ListingsConfig `mapstructure:"listings"`
	Report   ReportConfig   `mapstructure:"report"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port           int           `mapstructure:"port"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// ListingsConfig configures the upstream listings client.
type ListingsConfig struct {
	Endpoint       string        `mapstructure:"endpoint"`
	UserAgent      string        `mapstructure:"user_agent"`
	Timeout        time.Duration `mapstructure:"timeout"`
	MaxAttempts    int           `mapstructure:"max_attempts"`
	InitialBackoff time.Duration `mapstructure:"initial_backoff"`
	MaxBackoff     time.Duration `mapstructure:"max_backoff"`
}

// ReportConfig holds the default report run parameters.
type ReportConfig struct {
	Regions        []string      `mapstructure:"regions"`
	ServiceGroups  []string      `mapstructure:"service_groups"`
	PageBound      int           `mapstructure:"page_bound"`
	OnPageError    string        `mapstructure:"on_page_error"`
	Strategy       string        `mapstructure:"strategy"`
	MaxConcurrency int           `mapstructure:"max_concurrency"`
	PageTimeout    time.Duration `mapstructure:"page_timeout"`
}

// RedisConfig controls the optional page cache.
type RedisConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	Addr           string        `mapstructure:"addr"`
	Password       string        `mapstructure:"password"`
	DB             int           `mapstructure:"db"`
	DefaultTTL     time.Duration `mapstructure:"default_ttl"`
	StaleRetention time.Duration `mapstructure:"stale_retention"`
}

// LoggingConfig selects the zerolog level and output format.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

// Load builds a Config from defaults, an optional file and the environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	// Group names contain commas, so string overrides may be JSON arrays
	var err error
	if cfg.Report.Regions, err = stringList(v, "report.regions", cfg.Report.Regions); err != nil {
		return Config{}, err
	}
	if cfg.Report.ServiceGroups, err = stringList(v, "report.service_groups", cfg.Report.ServiceGroups); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.request_timeout", 60*time.Second)
	v.SetDefault("listings.endpoint", listings.DefaultEndpoint)
	v.SetDefault("listings.user_agent", "agency-report/0.1.0")
	v.SetDefault("listings.timeout", 30*time.Second)
	v.SetDefault("listings.max_attempts", 3)
	v.SetDefault("listings.initial_backoff", 500*time.Millisecond)
	v.SetDefault("listings.max_backoff", 10*time.Second)
	v.SetDefault("report.regions", report.DefaultRegions())
	v.SetDefault("report.service_groups", report.DefaultServiceGroups())
	v.SetDefault("report.page_bound", 12)
	v.SetDefault("report.on_page_error", string(report.OnPageErrorAbort))
	v.SetDefault("report.strategy", string(pagination.StrategyBounded))
	v.SetDefault("report.max_concurrency", 10)
	v.SetDefault("report.page_timeout", 15*time.Second)
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.default_ttl", 5*time.Minute)
	v.SetDefault("redis.stale_retention", time.Hour)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.pretty", false)
}

// stringList re-reads key when it was supplied as a single string: a JSON
// array is decoded, anything else keeps Viper's comma split.
func stringList(v *viper.Viper, key string, decoded []string) ([]string, error) {
	raw, ok := v.Get(key).(string)
	if !ok {
		return decoded, nil
	}
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, "[") {
		return decoded, nil
	}
	var list []string
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		return nil, fmt.Errorf("%s: invalid JSON array: %w", key, err)
	}
	return list, nil
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Listings.Endpoint == "" {
		return fmt.Errorf("listings.endpoint must be set")
	}
	if c.Listings.UserAgent == "" {
		return fmt.Errorf("listings.user_agent must be set")
	}
	if c.Listings.MaxAttempts < 1 {
		return fmt.Errorf("listings.max_attempts must be >= 1")
	}
	if c.Report.PageBound < 0 {
		return fmt.Errorf("report.page_bound must be >= 0")
	}
	if _, err := report.ParseOnPageError(c.Report.OnPageError); err != nil {
		return fmt.Errorf("report.on_page_error: %w", err)
	}
	strategy, err := pagination.ParseStrategy(c.Report.Strategy)
	if err != nil {
		return fmt.Errorf("report.strategy: %w", err)
	}
	if strategy == pagination.StrategyBounded && c.Report.MaxConcurrency <= 0 {
		return fmt.Errorf("report.max_concurrency must be > 0 for the bounded strategy")
	}
	if c.Redis.Enabled && c.Redis.Addr == "" {
		return fmt.Errorf("redis.addr must be set when redis is enabled")
	}
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	return nil
}

// ReportConfig converts the report section into a generator configuration.
func (c Config) ReportConfig() report.Config {
	policy, _ := report.ParseOnPageError(c.Report.OnPageError)
	strategy, _ := pagination.ParseStrategy(c.Report.Strategy)

	return report.Config{
		Regions:       append([]string(nil), c.Report.Regions...),
		ServiceGroups: append([]string(nil), c.Report.ServiceGroups...),
		PageBound:     c.Report.PageBound,
		OnPageError:   policy,
		Fetch: pagination.Config{
			Strategy:       strategy,
			MaxConcurrency: c.Report.MaxConcurrency,
			Timeout:        c.Report.PageTimeout,
		},
	}
}

// ListingsConfig converts the listings section into a client configuration.
// The cache is wired by the caller.
func (c Config) ListingsConfig() listings.Config {
	return listings.Config{
		Endpoint:  c.Listings.Endpoint,
		UserAgent: c.Listings.UserAgent,
		Timeout:   c.Listings.Timeout,
		Retry: listings.RetryConfig{
			MaxAttempts:       c.Listings.MaxAttempts,
			InitialBackoff:    c.Listings.InitialBackoff,
			MaxBackoff:        c.Listings.MaxBackoff,
			BackoffMultiplier: 2.0,
		},
	}
}

// LoggingConfig converts the logging section; output defaults to stderr.
func (c Config) LoggingConfig() logging.Config {
	level, _ := logging.ParseLevel(c.Logging.Level)
	return logging.Config{
		Level:  level,
		Pretty: c.Logging.Pretty,
	}
}
