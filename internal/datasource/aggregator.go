package datasource

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/seenimoa/marketlyst/internal/logger"
	"github.com/seenimoa/marketlyst/pkg/models"
)

const (
	// maxGeneralNews caps the merged general feed.
	maxGeneralNews = 6
	// maxTargetedNews caps a per-query fetch.
	maxTargetedNews = 5
)

// NewsAggregator merges the configured news sources. General news is
// fetched from all primary sources in parallel, merged, capped, and held
// in a short-lived cache shared across requests. Targeted news queries
// the first source that supports search. When every primary source is
// unavailable the RSS fallback serves instead.
type NewsAggregator struct {
	primary  []NewsSource
	targeted NewsSource
	fallback NewsSource
	cache    *Cache
}

// NewNewsAggregator builds an aggregator from the given sources.
// targeted may be nil when no source supports search; fallback may be
// nil to disable RSS.
func NewNewsAggregator(primary []NewsSource, targeted, fallback NewsSource, cacheTTL time.Duration) *NewsAggregator {
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &NewsAggregator{
		primary:  primary,
		targeted: targeted,
		fallback: fallback,
		cache:    NewCache(cacheTTL),
	}
}

// General returns the merged general market feed. Results are cached;
// concurrent refreshes race benignly (last writer wins). Per-source
// failures are logged and skipped, never propagated.
func (a *NewsAggregator) General(ctx context.Context) []models.NewsArticle {
	if cached, ok := a.cache.Get("general"); ok {
		return cached.([]models.NewsArticle)
	}

	results := make([][]models.NewsArticle, len(a.primary))
	g, gctx := errgroup.WithContext(ctx)
	for i, src := range a.primary {
		i, src := i, src
		g.Go(func() error {
			articles, err := src.GetNews(gctx, "", 3)
			if err != nil {
				logger.WithComponent("news").WithError(err).Warnf("%s fetch failed", src.Name())
				return nil
			}
			results[i] = articles
			return nil
		})
	}
	_ = g.Wait()

	var merged []models.NewsArticle
	for _, r := range results {
		merged = append(merged, r...)
	}
	if len(merged) > maxGeneralNews {
		merged = merged[:maxGeneralNews]
	}

	if len(merged) == 0 && a.fallback != nil {
		articles, err := a.fallback.GetNews(ctx, "", maxGeneralNews)
		if err != nil {
			logger.WithComponent("news").WithError(err).Warn("RSS fallback failed")
			return nil
		}
		merged = articles
	}

	if len(merged) > 0 {
		a.cache.Set("general", merged)
	}
	return merged
}

// Targeted returns news matching the query. Failures yield an empty
// list, never an error.
func (a *NewsAggregator) Targeted(ctx context.Context, query string) []models.NewsArticle {
	if a.targeted != nil {
		articles, err := a.targeted.GetNews(ctx, query, maxTargetedNews)
		if err == nil && len(articles) > 0 {
			return articles
		}
		if err != nil {
			logger.WithComponent("news").WithError(err).Warnf("targeted fetch for %q failed", query)
		}
	}
	if a.fallback != nil {
		articles, err := a.fallback.GetNews(ctx, query, maxTargetedNews)
		if err == nil {
			return articles
		}
	}
	return nil
}

// FlushCache drops the cached general feed. Used by tests and the news
// refresh endpoint.
func (a *NewsAggregator) FlushCache() {
	a.cache.Flush()
}
