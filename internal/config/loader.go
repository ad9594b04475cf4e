package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies ARBITER_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known ARBITER_* environment variables and
// overwrites the corresponding Config fields when a variable is set. This
// lets operators inject secrets at deploy time without touching the TOML
// file.
func applyEnvOverrides(cfg *Config) {
	// ── Polymarket ──
	setStr(&cfg.Polymarket.ClobHost, "ARBITER_POLYMARKET_CLOB_HOST")
	setStr(&cfg.Polymarket.GammaHost, "ARBITER_POLYMARKET_GAMMA_HOST")
	setStr(&cfg.Polymarket.WsHost, "ARBITER_POLYMARKET_WS_HOST")

	// ── Kalshi ──
	setStr(&cfg.Kalshi.ApiKey, "ARBITER_KALSHI_API_KEY")
	setStr(&cfg.Kalshi.RsaPrivateKeyPath, "ARBITER_KALSHI_RSA_PRIVATE_KEY_PATH")
	setStr(&cfg.Kalshi.BaseURL, "ARBITER_KALSHI_BASE_URL")

	// ── News ──
	setStr(&cfg.News.BaseURL, "ARBITER_NEWS_BASE_URL")
	setStr(&cfg.News.ApiKey, "ARBITER_NEWS_API_KEY")

	// ── Postgres ──
	setStr(&cfg.Postgres.DSN, "ARBITER_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "ARBITER_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "ARBITER_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "ARBITER_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "ARBITER_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "ARBITER_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "ARBITER_POSTGRES_SSL_MODE")
	setInt(&cfg.Postgres.PoolMaxConns, "ARBITER_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "ARBITER_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "ARBITER_POSTGRES_RUN_MIGRATIONS")

	// ── Redis ──
	setStr(&cfg.Redis.Addr, "ARBITER_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "ARBITER_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "ARBITER_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "ARBITER_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "ARBITER_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "ARBITER_REDIS_TLS_ENABLED")
	setInt(&cfg.Redis.CacheTTLMinutes, "ARBITER_REDIS_CACHE_TTL_MINUTES")
	setInt(&cfg.Redis.StreamMaxLen, "ARBITER_REDIS_STREAM_MAX_LEN")

	// ── S3 ──
	setStr(&cfg.S3.Endpoint, "ARBITER_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "ARBITER_S3_REGION")
	setStr(&cfg.S3.Bucket, "ARBITER_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "ARBITER_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "ARBITER_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "ARBITER_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "ARBITER_S3_FORCE_PATH_STYLE")

	// ── Analytics ──
	setFloat64(&cfg.Analytics.DefaultTradeSize, "ARBITER_ANALYTICS_DEFAULT_TRADE_SIZE")
	setFloat64(&cfg.Analytics.DefaultMaxSlippage, "ARBITER_ANALYTICS_DEFAULT_MAX_SLIPPAGE")

	// ── Discrepancy ──
	setFloat64(&cfg.Discrepancy.MinSpread, "ARBITER_DISCREPANCY_MIN_SPREAD")
	setFloat64(&cfg.Discrepancy.StrongSpread, "ARBITER_DISCREPANCY_STRONG_SPREAD")
	setInt(&cfg.Discrepancy.MinWordLength, "ARBITER_DISCREPANCY_MIN_WORD_LENGTH")
	setInt(&cfg.Discrepancy.MaxKeyLength, "ARBITER_DISCREPANCY_MAX_KEY_LENGTH")
	setInt(&cfg.Discrepancy.MaxNewsDrivers, "ARBITER_DISCREPANCY_MAX_NEWS_DRIVERS")

	// ── Scan ──
	setDuration(&cfg.Scan.Interval, "ARBITER_SCAN_INTERVAL")
	setStringSlice(&cfg.Scan.Venues, "ARBITER_SCAN_VENUES")
	setInt(&cfg.Scan.MarketLimit, "ARBITER_SCAN_MARKET_LIMIT")
	setFloat64(&cfg.Scan.NotifyConfidence, "ARBITER_SCAN_NOTIFY_CONFIDENCE")
	setInt(&cfg.Scan.ArchiveRetentionDays, "ARBITER_SCAN_ARCHIVE_RETENTION_DAYS")

	// ── Server ──
	setBool(&cfg.Server.Enabled, "ARBITER_SERVER_ENABLED")
	setInt(&cfg.Server.Port, "ARBITER_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "ARBITER_SERVER_CORS_ORIGINS")
	setStr(&cfg.Server.APIKey, "ARBITER_SERVER_API_KEY")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "ARBITER_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "ARBITER_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "ARBITER_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "ARBITER_NOTIFY_EVENTS")

	// ── Top-level ──
	setStr(&cfg.Mode, "ARBITER_MODE")
	setStr(&cfg.LogLevel, "ARBITER_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
