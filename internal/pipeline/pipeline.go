// Package pipeline composes the relevance, extraction, resolution, and
// estimation stages over a batch of city news articles.
package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/trafficlens/traffic-event-finder/internal/domain"
	"github.com/trafficlens/traffic-event-finder/internal/observability"
)

// Pipeline runs the full extraction-and-geotagging sequence for one city.
// It is pure with respect to storage: persisting the returned events is the
// caller's explicit follow-up call.
type Pipeline struct {
	classifier  *Classifier
	extractor   *Extractor
	resolver    *Resolver
	estimator   *Estimator
	logger      *slog.Logger
	metrics     *observability.Metrics
	concurrency int
}

// New creates a Pipeline. concurrency bounds the fan-out across articles;
// values below 1 are treated as 1.
func New(classifier *Classifier, extractor *Extractor, resolver *Resolver, estimator *Estimator,
	logger *slog.Logger, metrics *observability.Metrics, concurrency int) *Pipeline {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Pipeline{
		classifier:  classifier,
		extractor:   extractor,
		resolver:    resolver,
		estimator:   estimator,
		logger:      logger,
		metrics:     metrics,
		concurrency: concurrency,
	}
}

// Run processes the batch and returns the annotated events, concatenated in
// article order. Every stage fails per unit: a bad article or event is logged
// and dropped from that stage's output, never aborting the remainder.
func (p *Pipeline) Run(ctx context.Context, articles []domain.Article, city string) []domain.GeoTaggedEvent {
	start := time.Now()
	p.logger.Info("pipeline run started", "city", city, "articles", len(articles))

	// Articles are independent units of work; process them concurrently but
	// collect per-article results by index so output order stays stable.
	perArticle := make([][]domain.GeoTaggedEvent, len(articles))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)
	for i, article := range articles {
		g.Go(func() error {
			perArticle[i] = p.processArticle(gctx, article, city)
			return nil
		})
	}
	// Workers report failures through logs and metrics, never as errors.
	_ = g.Wait()

	var events []domain.GeoTaggedEvent
	for _, batch := range perArticle {
		events = append(events, batch...)
	}

	p.metrics.ArticlesProcessed.Add(float64(len(articles)))
	p.metrics.PipelineDuration.Observe(time.Since(start).Seconds())
	p.logger.Info("pipeline run finished",
		"city", city, "articles", len(articles), "events", len(events),
		"duration", time.Since(start))

	return events
}

func (p *Pipeline) processArticle(ctx context.Context, article domain.Article, city string) []domain.GeoTaggedEvent {
	if !p.classifier.IsRelevant(ctx, article, city) {
		return nil
	}
	p.metrics.RelevantArticles.Inc()

	candidates := p.extractor.ExtractEvents(ctx, article, city)
	if len(candidates) == 0 {
		return nil
	}

	events := make([]domain.GeoTaggedEvent, len(candidates))
	for i, candidate := range candidates {
		events[i] = p.annotate(ctx, candidate, city)
	}
	return events
}

// annotate runs location resolution and radius estimation for one event.
// The two calls are independent and run concurrently.
func (p *Pipeline) annotate(ctx context.Context, candidate domain.EventCandidate, city string) domain.GeoTaggedEvent {
	event := domain.GeoTaggedEvent{EventCandidate: candidate}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		event.ResolvedLocation, event.Coordinates = p.resolver.Resolve(ctx, candidate, city)
	}()
	go func() {
		defer wg.Done()
		event.InfluenceRadiusKm = p.estimator.EstimateRadius(ctx, candidate)
	}()
	wg.Wait()

	return event
}
