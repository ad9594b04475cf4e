package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	s3blob "github.com/mihirgan06/Arbiter/internal/blob/s3"
	"github.com/mihirgan06/Arbiter/internal/cache/redis"
	"github.com/mihirgan06/Arbiter/internal/config"
	"github.com/mihirgan06/Arbiter/internal/discrepancy"
	"github.com/mihirgan06/Arbiter/internal/domain"
	"github.com/mihirgan06/Arbiter/internal/news"
	"github.com/mihirgan06/Arbiter/internal/notify"
	"github.com/mihirgan06/Arbiter/internal/platform/kalshi"
	"github.com/mihirgan06/Arbiter/internal/platform/polymarket"
	"github.com/mihirgan06/Arbiter/internal/store/postgres"
)

// Dependencies bundles every domain-level dependency that the application
// modes need to operate. It is constructed by Wire and torn down by the
// returned cleanup function.
type Dependencies struct {
	// Venue adapters
	Venues     []domain.VenueClient
	Polymarket *polymarket.Client

	// Stores
	DiscrepancyStore domain.DiscrepancyStore
	ComparisonStore  domain.ComparisonStore

	// Caches
	BookCache   domain.BookCache
	MarketCache domain.MarketCache
	RateLimiter domain.RateLimiter
	SignalBus   domain.SignalBus

	// Blob storage
	BlobWriter  domain.BlobWriter
	BlobReader  domain.BlobReader
	Archiver    domain.Archiver
	Snapshotter domain.BookSnapshotter

	// Analytics collaborators
	News     domain.NewsProvider
	Detector *discrepancy.Engine

	// Notifications
	Notifier *notify.Notifier
}

// needsS3 returns true for modes that archive history to object storage.
func needsS3(mode string) bool {
	switch mode {
	case "scan", "full":
		return true
	default:
		return false
	}
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that should
// be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	// --- Venue clients ---
	for _, venue := range cfg.Scan.Venues {
		switch venue {
		case polymarket.PlatformName:
			pm := polymarket.New(cfg.Polymarket.ClobHost, cfg.Polymarket.GammaHost)
			deps.Polymarket = pm
			deps.Venues = append(deps.Venues, pm)
		case kalshi.PlatformName:
			kc := kalshi.NewClient(cfg.Kalshi.BaseURL, cfg.Kalshi.ApiKey)
			if cfg.Kalshi.RsaPrivateKeyPath != "" {
				if err := kc.LoadRSAPrivateKeyFile(cfg.Kalshi.RsaPrivateKeyPath); err != nil {
					cleanup()
					return nil, nil, fmt.Errorf("wire: kalshi key: %w", err)
				}
				deps.Venues = append(deps.Venues, kc)
			} else {
				logger.Warn("kalshi venue skipped: no RSA key configured")
			}
		}
	}

	// --- PostgreSQL ---
	pgClient, err := postgres.New(ctx, postgres.ClientConfig{
		DSN:      cfg.Postgres.DSN,
		Host:     cfg.Postgres.Host,
		Port:     cfg.Postgres.Port,
		Database: cfg.Postgres.Database,
		User:     cfg.Postgres.User,
		Password: cfg.Postgres.Password,
		SSLMode:  cfg.Postgres.SSLMode,
		MaxConns: cfg.Postgres.PoolMaxConns,
		MinConns: cfg.Postgres.PoolMinConns,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: postgres: %w", err)
	}
	closers = append(closers, pgClient.Close)

	if cfg.Postgres.RunMigrations {
		if err := pgClient.RunMigrations(ctx); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
		}
	}

	pool := pgClient.Pool()
	deps.DiscrepancyStore = postgres.NewDiscrepancyStore(pool)
	deps.ComparisonStore = postgres.NewComparisonStore(pool)

	// --- Redis ---
	redisClient, err := redis.New(ctx, redis.ClientConfig{
		Addr:       cfg.Redis.Addr,
		Password:   cfg.Redis.Password,
		DB:         cfg.Redis.DB,
		PoolSize:   cfg.Redis.PoolSize,
		MaxRetries: cfg.Redis.MaxRetries,
		TLSEnabled: cfg.Redis.TLSEnabled,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: redis: %w", err)
	}
	closers = append(closers, func() { _ = redisClient.Close() })

	cacheTTL := 10 * time.Minute
	if cfg.Redis.CacheTTLMinutes > 0 {
		cacheTTL = time.Duration(cfg.Redis.CacheTTLMinutes) * time.Minute
	}
	deps.BookCache = redis.NewBookCache(redisClient, cacheTTL)
	deps.MarketCache = redis.NewMarketCache(redisClient, cacheTTL)
	deps.RateLimiter = redis.NewRateLimiter(redisClient)
	deps.SignalBus = redis.NewSignalBus(redisClient, int64(cfg.Redis.StreamMaxLen))

	// --- S3 blob storage (only for modes that archive) ---
	if needsS3(cfg.Mode) {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}
		closers = append(closers, func() { _ = s3Client.Close() })

		deps.BlobWriter = s3blob.NewWriter(s3Client)
		deps.BlobReader = s3blob.NewReader(s3Client)

		archiver := s3blob.NewArchiver(deps.BlobWriter, deps.DiscrepancyStore, deps.ComparisonStore)
		deps.Archiver = archiver
		deps.Snapshotter = archiver
	}

	// --- News collaborator ---
	if cfg.News.ApiKey != "" {
		deps.News = news.New(cfg.News.BaseURL, cfg.News.ApiKey)
	}

	// --- Discrepancy engine ---
	detectorCfg := discrepancy.DefaultConfig()
	detectorCfg.MinSpread = cfg.Discrepancy.MinSpread
	detectorCfg.MaxNewsDrivers = cfg.Discrepancy.MaxNewsDrivers
	detectorCfg.Scoring.StrongSpread = cfg.Discrepancy.StrongSpread
	matcher := &discrepancy.SlugMatcher{
		MinWordLength: cfg.Discrepancy.MinWordLength,
		MaxKeyLength:  cfg.Discrepancy.MaxKeyLength,
	}
	deps.Detector = discrepancy.New(detectorCfg, matcher, deps.News, logger)

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(
			cfg.Notify.TelegramToken,
			cfg.Notify.TelegramChatID,
		))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Events, logger)

	return deps, cleanup, nil
}
