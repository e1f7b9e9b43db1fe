// Package app ties the article source, the extraction pipeline, and the
// per-city event stores into the operations the HTTP API and CLIs expose.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/trafficlens/traffic-event-finder/internal/domain"
	"github.com/trafficlens/traffic-event-finder/internal/observability"
	"github.com/trafficlens/traffic-event-finder/internal/pipeline"
	"github.com/trafficlens/traffic-event-finder/internal/store"
)

// ArticleSource supplies recent news articles for a city.
type ArticleSource interface {
	FetchArticles(ctx context.Context, city string, days int) ([]domain.Article, error)
}

// App runs city scans and answers event queries. Stores are opened lazily,
// one per city, and shared across scans and queries.
type App struct {
	source     ArticleSource
	fallback   ArticleSource
	pipeline   *pipeline.Pipeline
	normalizer *store.DateNormalizer
	dataDir    string
	metrics    *observability.Metrics
	logger     *slog.Logger

	mu     sync.Mutex
	stores map[string]*store.Store
}

// New creates the application core. fallback may be nil; when set it is used
// whenever the primary source errors or returns no articles.
func New(source, fallback ArticleSource, p *pipeline.Pipeline, normalizer *store.DateNormalizer,
	dataDir string, metrics *observability.Metrics, logger *slog.Logger) *App {
	return &App{
		source:     source,
		fallback:   fallback,
		pipeline:   p,
		normalizer: normalizer,
		dataDir:    dataDir,
		metrics:    metrics,
		logger:     logger,
		stores:     make(map[string]*store.Store),
	}
}

// ScanCity fetches articles for city, runs the extraction pipeline, and
// appends the resulting events to the city's store. It returns the number of
// events appended.
func (a *App) ScanCity(ctx context.Context, city string, days int) (int, error) {
	city = strings.TrimSpace(city)
	if city == "" {
		return 0, fmt.Errorf("city is required")
	}

	articles, err := a.fetchArticles(ctx, city, days)
	if err != nil {
		return 0, err
	}
	if len(articles) == 0 {
		a.logger.Info("no articles to scan", "city", city)
		return 0, nil
	}

	events := a.pipeline.Run(ctx, articles, city)
	if len(events) == 0 {
		a.logger.Info("scan produced no events", "city", city, "articles", len(articles))
		return 0, nil
	}

	st, err := a.storeFor(city)
	if err != nil {
		return 0, err
	}
	stored, err := st.Append(ctx, events)
	if err != nil {
		return len(stored), fmt.Errorf("storing events for %s: %w", city, err)
	}

	a.logger.Info("scan complete", "city", city, "articles", len(articles), "events", len(stored))
	return len(stored), nil
}

// fetchArticles asks the primary source first and falls back when it errors
// or comes back empty. A fetch failure with no fallback is the scan's error.
func (a *App) fetchArticles(ctx context.Context, city string, days int) ([]domain.Article, error) {
	articles, err := a.source.FetchArticles(ctx, city, days)
	if err == nil && len(articles) > 0 {
		return articles, nil
	}

	if a.fallback == nil {
		if err != nil {
			return nil, fmt.Errorf("fetching articles for %s: %w", city, err)
		}
		return nil, nil
	}

	if err != nil {
		a.logger.Warn("primary article source failed, using fallback", "city", city, "error", err)
	} else {
		a.logger.Info("primary article source empty, using fallback", "city", city)
	}
	articles, err = a.fallback.FetchArticles(ctx, city, days)
	if err != nil {
		return nil, fmt.Errorf("fallback article source for %s: %w", city, err)
	}
	return articles, nil
}

// Events returns the stored events for city whose normalized dates fall
// inside the inclusive [start, end] range. Nil bounds are open.
func (a *App) Events(ctx context.Context, city string, start, end *time.Time) ([]domain.StoredEvent, error) {
	city = strings.TrimSpace(city)
	if city == "" {
		return nil, fmt.Errorf("city is required")
	}
	st, err := a.storeFor(city)
	if err != nil {
		return nil, err
	}
	return st.Query(ctx, start, end)
}

// Ready reports whether the data directory is usable. The HTTP readiness
// probe calls this.
func (a *App) Ready() error {
	if err := os.MkdirAll(a.dataDir, 0o755); err != nil {
		return fmt.Errorf("data directory unavailable: %w", err)
	}
	return nil
}

func (a *App) storeFor(city string) (*store.Store, error) {
	key := strings.ToLower(city)

	a.mu.Lock()
	defer a.mu.Unlock()
	if st, ok := a.stores[key]; ok {
		return st, nil
	}
	st, err := store.New(a.dataDir, city, a.normalizer, a.metrics, a.logger)
	if err != nil {
		return nil, fmt.Errorf("opening store for %s: %w", city, err)
	}
	a.stores[key] = st
	return st, nil
}
