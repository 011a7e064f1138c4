// Package config loads and validates crawler configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/JakeFAU/kalaam-crawler/internal/extract"
)

// maxSearchLimit caps how many rows a single search may return.
const maxSearchLimit = 100

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server  ServerConfig   `mapstructure:"server"`
	Auth    AuthConfig     `mapstructure:"auth"`
	Crawler CrawlerConfig  `mapstructure:"crawler"`
	HTTP    HTTPConfig     `mapstructure:"http"`
	Extract extract.Config `mapstructure:"extract"`
	DB      DBConfig       `mapstructure:"db"`
	Archive ArchiveConfig  `mapstructure:"archive"`
	Logging LoggingConfig  `mapstructure:"logging"`
	Search  SearchConfig   `mapstructure:"search"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// AuthConfig defines API authentication toggles.
type AuthConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	APIKey  string `mapstructure:"api_key"`
}

// CrawlerConfig governs discovery and the worker pool.
type CrawlerConfig struct {
	StartURL       string   `mapstructure:"start_url"`
	AllowedDomains []string `mapstructure:"allowed_domains"`
	Concurrency    int      `mapstructure:"concurrency"`
	Parallelism    int      `mapstructure:"parallelism"`
	UserAgent      string   `mapstructure:"user_agent"`
	DelayMs        int      `mapstructure:"delay_ms"`
	MaxTargets     int      `mapstructure:"max_targets"`
	QueueDepth     int      `mapstructure:"queue_depth"`
	// FetchRPS caps detail page fetches per second per site; 0 disables.
	FetchRPS   float64 `mapstructure:"fetch_rps"`
	FetchBurst int     `mapstructure:"fetch_burst"`
}

// HTTPConfig configures fetch timeouts and retry behavior.
type HTTPConfig struct {
	TimeoutSeconds   int `mapstructure:"timeout_seconds"`
	MaxRetries       int `mapstructure:"max_retries"`
	BackoffInitialMs int `mapstructure:"backoff_initial_ms"`
	BackoffMaxMs     int `mapstructure:"backoff_max_ms"`
}

// DBConfig controls access to the relational database. An empty DSN selects
// the in-memory record store.
type DBConfig struct {
	DSN      string `mapstructure:"dsn"`
	Table    string `mapstructure:"table"`
	MaxConns int32  `mapstructure:"max_conns"`
	Migrate  bool   `mapstructure:"migrate"`
}

// ArchiveConfig controls raw page retention on local disk.
type ArchiveConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Dir         string `mapstructure:"dir"`
	ContentType string `mapstructure:"content_type"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool   `mapstructure:"development"`
	Level       string `mapstructure:"level"`
}

// SearchConfig bounds title search results.
type SearchConfig struct {
	DefaultLimit int `mapstructure:"default_limit"`
	MaxLimit     int `mapstructure:"max_limit"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("KALAAM")
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

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	ext := extract.DefaultConfig()

	v.SetDefault("server.port", 8080)
	v.SetDefault("crawler.start_url", "https://nohayonline.com/details_masaib.php")
	v.SetDefault("crawler.allowed_domains", []string{"nohayonline.com"})
	v.SetDefault("crawler.concurrency", 4)
	v.SetDefault("crawler.parallelism", 2)
	v.SetDefault("crawler.user_agent", "kalaam-crawler/0.1")
	v.SetDefault("crawler.delay_ms", 500)
	v.SetDefault("crawler.max_targets", 0)
	v.SetDefault("crawler.queue_depth", 64)
	v.SetDefault("crawler.fetch_rps", 2.0)
	v.SetDefault("crawler.fetch_burst", 2)
	v.SetDefault("http.timeout_seconds", 15)
	v.SetDefault("http.max_retries", 2)
	v.SetDefault("http.backoff_initial_ms", 250)
	v.SetDefault("http.backoff_max_ms", 2000)
	v.SetDefault("extract.strategy", string(ext.Strategy))
	v.SetDefault("extract.title_selector", ext.TitleSelector)
	v.SetDefault("extract.reciter_label", ext.ReciterLabel)
	v.SetDefault("extract.poet_label", ext.PoetLabel)
	v.SetDefault("extract.roman_block_id", ext.RomanBlockID)
	v.SetDefault("extract.urdu_block_id", ext.UrduBlockID)
	v.SetDefault("extract.media_selector", ext.MediaSelector)
	v.SetDefault("db.table", "kalaam")
	v.SetDefault("db.max_conns", 4)
	v.SetDefault("db.migrate", true)
	v.SetDefault("archive.enabled", false)
	v.SetDefault("archive.dir", "archive")
	v.SetDefault("archive.content_type", "text/html; charset=utf-8")
	v.SetDefault("logging.development", true)
	v.SetDefault("logging.level", "info")
	v.SetDefault("search.default_limit", 20)
	v.SetDefault("search.max_limit", maxSearchLimit)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if strings.TrimSpace(c.Crawler.StartURL) == "" {
		return fmt.Errorf("crawler.start_url must be set")
	}
	if c.Crawler.Concurrency <= 0 {
		return fmt.Errorf("crawler.concurrency must be > 0")
	}
	if c.Crawler.MaxTargets < 0 {
		return fmt.Errorf("crawler.max_targets must be >= 0")
	}
	if c.Crawler.FetchRPS < 0 {
		return fmt.Errorf("crawler.fetch_rps must be >= 0")
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		return fmt.Errorf("http.timeout_seconds must be > 0")
	}
	if c.HTTP.MaxRetries < 0 {
		return fmt.Errorf("http.max_retries must be >= 0")
	}
	switch c.Extract.Strategy {
	case "", extract.StrategyMarkup, extract.StrategyFlattened:
	default:
		return fmt.Errorf("extract.strategy %q is not supported", c.Extract.Strategy)
	}
	if c.Archive.Enabled && strings.TrimSpace(c.Archive.Dir) == "" {
		return fmt.Errorf("archive.dir must be set when archive is enabled")
	}
	if c.Search.DefaultLimit <= 0 || c.Search.MaxLimit <= 0 {
		return fmt.Errorf("search.default_limit and search.max_limit must be > 0")
	}
	if c.Search.MaxLimit > maxSearchLimit {
		return fmt.Errorf("search.max_limit must be <= %d", maxSearchLimit)
	}
	if c.Search.DefaultLimit > c.Search.MaxLimit {
		return fmt.Errorf("search.default_limit must be <= search.max_limit")
	}
	if c.Auth.Enabled && c.Auth.APIKey == "" {
		return fmt.Errorf("auth.api_key must be set when auth is enabled")
	}
	return nil
}

// FetchTimeout is the per-request fetch budget.
func (c Config) FetchTimeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutSeconds) * time.Second
}

// Delay is the pause between discovery requests to the same domain.
func (c Config) Delay() time.Duration {
	return time.Duration(c.Crawler.DelayMs) * time.Millisecond
}
