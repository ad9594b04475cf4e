// Package config defines the top-level configuration for the arbiter service
// and provides validation helpers.
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration structure. Fields are populated from a TOML
// file and then optionally overridden by ARBITER_* environment variables.
type Config struct {
	Polymarket  PolymarketConfig  `toml:"polymarket"`
	Kalshi      KalshiConfig      `toml:"kalshi"`
	News        NewsConfig        `toml:"news"`
	Postgres    PostgresConfig    `toml:"postgres"`
	Redis       RedisConfig       `toml:"redis"`
	S3          S3Config          `toml:"s3"`
	Analytics   AnalyticsConfig   `toml:"analytics"`
	Discrepancy DiscrepancyConfig `toml:"discrepancy"`
	Scan        ScanConfig        `toml:"scan"`
	Server      ServerConfig      `toml:"server"`
	Notify      NotifyConfig      `toml:"notify"`
	Mode        string            `toml:"mode"`
	LogLevel    string            `toml:"log_level"`
}

// PolymarketConfig holds Polymarket API endpoints.
type PolymarketConfig struct {
	ClobHost  string `toml:"clob_host"`
	GammaHost string `toml:"gamma_host"`
	WsHost    string `toml:"ws_host"`
}

// KalshiConfig holds Kalshi exchange API parameters. Market-data requests
// still have to be RSA-signed, so read credentials are required even though
// no orders are ever placed.
type KalshiConfig struct {
	ApiKey            string `toml:"api_key"`
	RsaPrivateKeyPath string `toml:"rsa_private_key_path"`
	BaseURL           string `toml:"base_url"`
}

// NewsConfig holds the news-search collaborator parameters.
type NewsConfig struct {
	BaseURL string `toml:"base_url"`
	ApiKey  string `toml:"api_key"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Addr            string `toml:"addr"`
	Password        string `toml:"password"`
	DB              int    `toml:"db"`
	PoolSize        int    `toml:"pool_size"`
	MaxRetries      int    `toml:"max_retries"`
	TLSEnabled      bool   `toml:"tls_enabled"`
	CacheTTLMinutes int    `toml:"cache_ttl_minutes"`
	StreamMaxLen    int    `toml:"stream_max_len"`
}

// S3Config holds S3-compatible object storage parameters for cold archival.
type S3Config struct {
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// AnalyticsConfig holds defaults for execution simulation requests.
type AnalyticsConfig struct {
	DefaultTradeSize   float64 `toml:"default_trade_size"`
	DefaultMaxSlippage float64 `toml:"default_max_slippage"` // percent
}

// DiscrepancyConfig tunes cross-venue discrepancy detection. The cutoffs are
// heuristics; they live here rather than in code so they can be adjusted
// without a rebuild.
type DiscrepancyConfig struct {
	MinSpread      float64 `toml:"min_spread"`
	StrongSpread   float64 `toml:"strong_spread"`
	MinWordLength  int     `toml:"min_word_length"`
	MaxKeyLength   int     `toml:"max_key_length"`
	MaxNewsDrivers int     `toml:"max_news_drivers"`
}

// ScanConfig holds periodic discrepancy-scan parameters.
type ScanConfig struct {
	Interval             duration `toml:"interval"`
	Venues               []string `toml:"venues"`
	MarketLimit          int      `toml:"market_limit"`
	NotifyConfidence     float64  `toml:"notify_confidence"`
	ArchiveRetentionDays int      `toml:"archive_retention_days"`
}

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Enabled     bool     `toml:"enabled"`
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
	APIKey      string   `toml:"api_key"`
}

// NotifyConfig holds notification channel credentials.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
}

// duration is a wrapper around time.Duration that supports TOML string
// decoding (e.g. "5m", "30s").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "5m" or "30s".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with reasonable default values.
func Defaults() Config {
	return Config{
		Polymarket: PolymarketConfig{
			ClobHost:  "https://clob.polymarket.com",
			GammaHost: "https://gamma-api.polymarket.com",
			WsHost:    "wss://ws-subscriptions-clob.polymarket.com",
		},
		Kalshi: KalshiConfig{
			BaseURL: "https://api.elections.kalshi.com/trade-api/v2",
		},
		News: NewsConfig{
			BaseURL: "https://newsapi.org/v2",
		},
		Postgres: PostgresConfig{
			Host:          "localhost",
			Port:          5432,
			Database:      "arbiter",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
		},
		Redis: RedisConfig{
			Addr:            "localhost:6379",
			DB:              0,
			PoolSize:        20,
			MaxRetries:      3,
			CacheTTLMinutes: 10,
			StreamMaxLen:    10000,
		},
		S3: S3Config{
			Endpoint:       "http://localhost:9000",
			Region:         "us-east-1",
			Bucket:         "arbiter-data",
			ForcePathStyle: true,
		},
		Analytics: AnalyticsConfig{
			DefaultTradeSize:   100,
			DefaultMaxSlippage: 2,
		},
		Discrepancy: DiscrepancyConfig{
			MinSpread:      0.03,
			StrongSpread:   0.05,
			MinWordLength:  4,
			MaxKeyLength:   100,
			MaxNewsDrivers: 3,
		},
		Scan: ScanConfig{
			Interval:             duration{5 * time.Minute},
			Venues:               []string{"polymarket", "kalshi"},
			MarketLimit:          200,
			NotifyConfidence:     0.6,
			ArchiveRetentionDays: 30,
		},
		Server: ServerConfig{
			Enabled: true,
			Port:    8080,
		},
		Mode:     "serve",
		LogLevel: "info",
	}
}

// Validate checks cross-field consistency. It is called by main after Load.
func (c *Config) Validate() error {
	switch c.Mode {
	case "serve", "scan", "full":
	default:
		return fmt.Errorf("config: unknown mode %q (want serve, scan, or full)", c.Mode)
	}

	switch c.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: unknown log_level %q", c.LogLevel)
	}

	if c.Server.Enabled && (c.Server.Port <= 0 || c.Server.Port > 65535) {
		return fmt.Errorf("config: server port %d out of range", c.Server.Port)
	}

	if c.Discrepancy.MinSpread < 0 || c.Discrepancy.MinSpread > 1 {
		return fmt.Errorf("config: discrepancy min_spread %v outside [0,1]", c.Discrepancy.MinSpread)
	}
	if c.Discrepancy.MinWordLength < 1 {
		return fmt.Errorf("config: discrepancy min_word_length must be positive")
	}

	if c.Mode == "scan" || c.Mode == "full" {
		if c.Scan.Interval.Duration <= 0 {
			return fmt.Errorf("config: scan interval must be positive in %s mode", c.Mode)
		}
		if len(c.Scan.Venues) == 0 {
			return fmt.Errorf("config: at least one scan venue is required in %s mode", c.Mode)
		}
		for _, v := range c.Scan.Venues {
			if v != "polymarket" && v != "kalshi" {
				return fmt.Errorf("config: unknown scan venue %q", v)
			}
		}
	}

	if c.Analytics.DefaultTradeSize <= 0 {
		return fmt.Errorf("config: analytics default_trade_size must be positive")
	}

	return nil
}
