// Package config handles configuration loading for econoscale.
// It supports YAML config files with environment variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete application configuration.
type Config struct {
	Feeds    FeedsConfig    `mapstructure:"feeds"    yaml:"feeds"`
	Fetch    FetchConfig    `mapstructure:"fetch"    yaml:"fetch"`
	Snapshot SnapshotConfig `mapstructure:"snapshot" yaml:"snapshot"`
	Rank     RankConfig     `mapstructure:"rank"     yaml:"rank"`
	API      APIConfig      `mapstructure:"api"      yaml:"api"`
	Logging  LoggingConfig  `mapstructure:"logging"  yaml:"logging"`
}

// FeedsConfig holds the upstream endpoints and the quote-unit superset
// requested from the price feed.
type FeedsConfig struct {
	// PriceURL is a format string receiving the comma-joined quote list.
	PriceURL   string   `mapstructure:"price_url"   yaml:"price_url"`
	GdpURL     string   `mapstructure:"gdp_url"     yaml:"gdp_url"`
	QuoteUnits []string `mapstructure:"quote_units" yaml:"quote_units"`
}

// TransportConfig describes one transport strategy: an optional relay URL
// template (empty = direct call) and the rule for unwrapping its response.
type TransportConfig struct {
	Name     string `mapstructure:"name"     yaml:"name"`
	Template string `mapstructure:"template" yaml:"template"` // contains {{url}} for relays
	Unwrap   string `mapstructure:"unwrap"   yaml:"unwrap"`   // "none" or "contents"
}

// FetchConfig holds timeouts and validation thresholds for live fetches.
type FetchConfig struct {
	AttemptTimeoutSec int               `mapstructure:"attempt_timeout_sec" yaml:"attempt_timeout_sec"`
	DomainCeilingSec  int               `mapstructure:"domain_ceiling_sec"  yaml:"domain_ceiling_sec"`
	MinCountries      int               `mapstructure:"min_countries"       yaml:"min_countries"`
	RequestsPerMinute int               `mapstructure:"requests_per_minute" yaml:"requests_per_minute"`
	Transports        []TransportConfig `mapstructure:"transports"          yaml:"transports"`
}

// SnapshotConfig holds persisted-snapshot settings.
type SnapshotConfig struct {
	Dir             string `mapstructure:"dir"                yaml:"dir"`
	PriceMaxAgeHour int    `mapstructure:"price_max_age_hour" yaml:"price_max_age_hour"`
	GdpMaxAgeHour   int    `mapstructure:"gdp_max_age_hour"   yaml:"gdp_max_age_hour"`
}

// RankConfig holds aggregation settings.
type RankConfig struct {
	FiatTopN    int `mapstructure:"fiat_top_n"    yaml:"fiat_top_n"`
	CacheTTLSec int `mapstructure:"cache_ttl_sec" yaml:"cache_ttl_sec"`
}

// APIConfig holds HTTP API server settings.
type APIConfig struct {
	Host        string   `mapstructure:"host"         yaml:"host"`
	Port        int      `mapstructure:"port"         yaml:"port"`
	CORSOrigins []string `mapstructure:"cors_origins" yaml:"cors_origins"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `mapstructure:"format" yaml:"format"` // "text" or "json"
}

// AttemptTimeout returns the per-strategy timeout as a duration.
func (c *FetchConfig) AttemptTimeout() time.Duration {
	return time.Duration(c.AttemptTimeoutSec) * time.Second
}

// DomainCeiling returns the whole-chain ceiling as a duration.
func (c *FetchConfig) DomainCeiling() time.Duration {
	return time.Duration(c.DomainCeilingSec) * time.Second
}

// PriceMaxAge returns the price snapshot staleness threshold.
func (c *SnapshotConfig) PriceMaxAge() time.Duration {
	return time.Duration(c.PriceMaxAgeHour) * time.Hour
}

// GdpMaxAge returns the GDP snapshot staleness threshold.
func (c *SnapshotConfig) GdpMaxAge() time.Duration {
	return time.Duration(c.GdpMaxAgeHour) * time.Hour
}

// Load reads the configuration from file and environment variables.
// Config file search order:
//  1. ./config/config.yaml (project root)
//  2. ~/.econoscale/config.yaml (home directory)
//  3. /etc/econoscale/config.yaml (system)
//
// Environment variables override config file values.
// Format: ECONOSCALE_<SECTION>_<KEY>, e.g., ECONOSCALE_API_PORT.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".econoscale"))
	v.AddConfigPath("/etc/econoscale")

	v.SetEnvPrefix("ECONOSCALE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Config file not required to exist; defaults + env vars suffice.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	return &cfg, nil
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetEnvPrefix("ECONOSCALE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	return &cfg, nil
}

// setDefaults sets sensible defaults for all config values.
func setDefaults(v *viper.Viper) {
	// Feed defaults
	v.SetDefault("feeds.price_url", "https://api.coingecko.com/api/v3/simple/price?ids=bitcoin&vs_currencies=%s")
	v.SetDefault("feeds.gdp_url", "https://www.imf.org/external/datamapper/api/v1/NGDPD")
	v.SetDefault("feeds.quote_units", []string{
		"usd", "eur", "jpy", "gbp", "cny", "inr", "cad", "aud", "chf",
		"krw", "brl", "rub", "mxn", "idr", "try", "sar", "pln", "sek",
		"nok", "dkk", "thb", "sgd", "hkd", "nzd", "zar", "aed", "ils",
		"czk", "clp", "php", "myr", "huf", "twd", "ngn", "vnd", "uah",
		"pkr", "bdt", "ars", "xau", "xag",
	})

	// Fetch defaults
	v.SetDefault("fetch.attempt_timeout_sec", 8)
	v.SetDefault("fetch.domain_ceiling_sec", 12)
	v.SetDefault("fetch.min_countries", 20)
	v.SetDefault("fetch.requests_per_minute", 30)
	v.SetDefault("fetch.transports", []map[string]any{
		{"name": "direct", "template": "", "unwrap": "none"},
		{"name": "allorigins-raw", "template": "https://api.allorigins.win/raw?url={{url}}", "unwrap": "none"},
		{"name": "allorigins-get", "template": "https://api.allorigins.win/get?url={{url}}", "unwrap": "contents"},
	})

	// Snapshot defaults: 24h for prices, 7 days for GDP.
	v.SetDefault("snapshot.dir", filepath.Join(homeDir(), ".econoscale", "snapshots"))
	v.SetDefault("snapshot.price_max_age_hour", 24)
	v.SetDefault("snapshot.gdp_max_age_hour", 168)

	// Rank defaults
	v.SetDefault("rank.fiat_top_n", 30)
	v.SetDefault("rank.cache_ttl_sec", 300)

	// API defaults
	v.SetDefault("api.host", "0.0.0.0")
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.cors_origins", []string{"http://localhost:3000"})

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// homeDir returns the user's home directory.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
