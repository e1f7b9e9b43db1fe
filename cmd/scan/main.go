// Command scan runs a single news scan for one city and prints the stored
// events as JSON. It shares the service configuration with cmd/finder.
//
// Usage:
//
//	go run ./cmd/scan -city "San Francisco" -days 7
//	go run ./cmd/scan -city "San Francisco" -mock
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/trafficlens/traffic-event-finder/internal/adapter/newsapi"
	"github.com/trafficlens/traffic-event-finder/internal/adapter/nominatim"
	"github.com/trafficlens/traffic-event-finder/internal/adapter/openai"
	"github.com/trafficlens/traffic-event-finder/internal/app"
	"github.com/trafficlens/traffic-event-finder/internal/config"
	"github.com/trafficlens/traffic-event-finder/internal/observability"
	"github.com/trafficlens/traffic-event-finder/internal/pipeline"
	"github.com/trafficlens/traffic-event-finder/internal/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "scan: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	city := flag.String("city", "", "city to scan (required)")
	days := flag.Int("days", 0, "days of news to search (default from NEWS_DAYS)")
	mock := flag.Bool("mock", false, "use generated mock articles instead of NewsAPI")
	flag.Parse()

	if *city == "" {
		flag.Usage()
		return fmt.Errorf("-city is required")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if *days <= 0 {
		*days = cfg.NewsDays
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	completer := openai.NewClient(cfg.OpenAIEndpoint, cfg.OpenAIAPIKey, cfg.OpenAIModel,
		cfg.OpenAITimeout, metrics, logger)
	nomClient := nominatim.NewClient(cfg.NominatimBaseURL, cfg.NominatimTimeout, metrics, logger)
	geocoder, err := nominatim.NewCachedGeocoder(nomClient, cfg.GeocodeCacheSize, metrics)
	if err != nil {
		return fmt.Errorf("building geocode cache: %w", err)
	}

	p := pipeline.New(
		pipeline.NewClassifier(completer, metrics, logger),
		pipeline.NewExtractor(completer, metrics, logger),
		pipeline.NewResolver(completer, geocoder, metrics, logger),
		pipeline.NewEstimator(completer, metrics, logger),
		logger, metrics, cfg.Concurrency)

	fallback := &newsapi.MockSource{Logger: logger}
	var source app.ArticleSource = fallback
	if cfg.NewsAPIKey != "" && !*mock {
		source = newsapi.NewClient(cfg.NewsAPIKey, cfg.NewsAPITimeout, logger)
	}

	normalizer := store.NewDateNormalizer(completer, metrics, logger)
	core := app.New(source, fallback, p, normalizer, cfg.DataDir, metrics, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	count, err := core.ScanCity(ctx, *city, *days)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "appended %d events for %s\n", count, *city)

	events, err := core.Events(ctx, *city, nil, nil)
	if err != nil {
		return fmt.Errorf("reading back events: %w", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(events)
}
