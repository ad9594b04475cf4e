package discrepancy

import (
	"context"
	"log/slog"
	"sort"

	"github.com/mihirgan06/Arbiter/internal/domain"
)

// ScoringConfig holds the additive confidence constants. The values are
// heuristics, not derived from data, so they stay tunable.
type ScoringConfig struct {
	StrongSpread      float64 // spread at or above this scores SpreadStrong
	SpreadStrong      float64
	SpreadWeak        float64
	LiquidityReported float64 // all markets in the group report liquidity > 0
	AvgLiquidityHigh  float64 // average liquidity above HighLiquidity
	AvgLiquidityMid   float64 // average liquidity above MidLiquidity
	HighLiquidity     float64
	MidLiquidity      float64
	AvgVolumeHigh     float64 // average reported volume above HighVolume
	AvgVolumeMid      float64 // average reported volume above MidVolume
	HighVolume        float64
	MidVolume         float64
}

// Config tunes the detection engine.
type Config struct {
	MinSpread      float64 // groups below this are discarded
	MaxNewsDrivers int
	Scoring        ScoringConfig
}

// DefaultConfig returns the engine defaults.
func DefaultConfig() Config {
	return Config{
		MinSpread:      0.03,
		MaxNewsDrivers: 3,
		Scoring: ScoringConfig{
			StrongSpread:      0.05,
			SpreadStrong:      0.4,
			SpreadWeak:        0.2,
			LiquidityReported: 0.2,
			AvgLiquidityHigh:  0.2,
			AvgLiquidityMid:   0.1,
			HighLiquidity:     100_000,
			MidLiquidity:      10_000,
			AvgVolumeHigh:     0.2,
			AvgVolumeMid:      0.1,
			HighVolume:        1_000_000,
			MidVolume:         100_000,
		},
	}
}

// Engine detects cross-venue pricing discrepancies over normalized market
// lists. Grouping and scoring are pure; the only I/O is the injected news
// provider, whose failures degrade to empty driver lists.
type Engine struct {
	cfg     Config
	matcher Matcher
	news    domain.NewsProvider
	logger  *slog.Logger
}

// New creates an Engine. news may be nil, in which case results carry no
// driver annotations.
func New(cfg Config, matcher Matcher, news domain.NewsProvider, logger *slog.Logger) *Engine {
	return &Engine{
		cfg:     cfg,
		matcher: matcher,
		news:    news,
		logger:  logger.With(slog.String("component", "discrepancy_engine")),
	}
}

// Detect groups markets by matched question across venues and returns every
// group whose quoted YES probabilities diverge by at least the configured
// minimum spread, sorted descending by spread.
func (e *Engine) Detect(ctx context.Context, markets []domain.NormalizedMarket) []domain.DiscrepancyResult {
	groups := make(map[string][]domain.NormalizedMarket)
	for _, m := range markets {
		key := e.matcher.Key(m.Question)
		if key == "" {
			continue
		}
		groups[key] = append(groups[key], m)
	}

	var results []domain.DiscrepancyResult
	for key, group := range groups {
		if len(group) < 2 {
			continue
		}

		minYes, maxYes := group[0].YesProbability, group[0].YesProbability
		for _, m := range group[1:] {
			if m.YesProbability < minYes {
				minYes = m.YesProbability
			}
			if m.YesProbability > maxYes {
				maxYes = m.YesProbability
			}
		}
		spread := maxYes - minYes
		if spread < e.cfg.MinSpread {
			continue
		}

		res := domain.DiscrepancyResult{
			EventSlug:  key,
			EventTitle: group[0].Question,
			MaxSpread:  spread,
			Confidence: e.score(group, spread),
		}
		if minYes > 0 {
			res.SpreadPercent = spread / minYes * 100
		}
		for _, m := range group {
			res.Markets = append(res.Markets, domain.MarketQuote{
				Platform:       m.Platform,
				ExternalID:     m.ExternalID,
				Question:       m.Question,
				YesProbability: m.YesProbability,
				Liquidity:      m.Liquidity,
				Volume:         m.Volume,
			})
		}
		res.LikelyDrivers = e.drivers(ctx, res.EventTitle)

		results = append(results, res)
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].MaxSpread > results[j].MaxSpread
	})
	return results
}

// score computes the additive confidence for a group, capped at 1.
func (e *Engine) score(group []domain.NormalizedMarket, spread float64) float64 {
	s := e.cfg.Scoring

	confidence := s.SpreadWeak
	if spread >= s.StrongSpread {
		confidence = s.SpreadStrong
	}

	allLiquid := true
	var liquiditySum float64
	for _, m := range group {
		if m.Liquidity <= 0 {
			allLiquid = false
		}
		liquiditySum += m.Liquidity
	}
	if allLiquid {
		confidence += s.LiquidityReported
		avg := liquiditySum / float64(len(group))
		if avg > s.HighLiquidity {
			confidence += s.AvgLiquidityHigh
		} else if avg > s.MidLiquidity {
			confidence += s.AvgLiquidityMid
		}
	}

	var volumeSum float64
	var volumeCount int
	for _, m := range group {
		if m.Volume > 0 {
			volumeSum += m.Volume
			volumeCount++
		}
	}
	if volumeCount > 0 {
		avg := volumeSum / float64(volumeCount)
		if avg > s.HighVolume {
			confidence += s.AvgVolumeHigh
		} else if avg > s.MidVolume {
			confidence += s.AvgVolumeMid
		}
	}

	if confidence > 1 {
		confidence = 1
	}
	return confidence
}

// drivers fetches up to MaxNewsDrivers related news items for the group's
// representative question. News failures never block detection.
func (e *Engine) drivers(ctx context.Context, question string) []domain.NewsCorrelation {
	if e.news == nil || e.cfg.MaxNewsDrivers <= 0 {
		return nil
	}
	items, err := e.news.Search(ctx, question, e.cfg.MaxNewsDrivers)
	if err != nil {
		e.logger.WarnContext(ctx, "news lookup failed",
			slog.String("question", question),
			slog.String("error", err.Error()),
		)
		return nil
	}
	return items
}
