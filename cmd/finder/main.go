package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"

	"github.com/trafficlens/traffic-event-finder/internal/adapter/httpapi"
	"github.com/trafficlens/traffic-event-finder/internal/adapter/newsapi"
	"github.com/trafficlens/traffic-event-finder/internal/adapter/nominatim"
	"github.com/trafficlens/traffic-event-finder/internal/adapter/openai"
	"github.com/trafficlens/traffic-event-finder/internal/app"
	"github.com/trafficlens/traffic-event-finder/internal/config"
	"github.com/trafficlens/traffic-event-finder/internal/domain"
	"github.com/trafficlens/traffic-event-finder/internal/observability"
	"github.com/trafficlens/traffic-event-finder/internal/pipeline"
	"github.com/trafficlens/traffic-event-finder/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	completer := openai.NewClient(cfg.OpenAIEndpoint, cfg.OpenAIAPIKey, cfg.OpenAIModel,
		cfg.OpenAITimeout, metrics, logger)

	var geocoder domain.Geocoder
	nomClient := nominatim.NewClient(cfg.NominatimBaseURL, cfg.NominatimTimeout, metrics, logger)
	geocoder, err = nominatim.NewCachedGeocoder(nomClient, cfg.GeocodeCacheSize, metrics)
	if err != nil {
		logger.Error("failed to build geocode cache", "error", err)
		os.Exit(1)
	}

	p := pipeline.New(
		pipeline.NewClassifier(completer, metrics, logger),
		pipeline.NewExtractor(completer, metrics, logger),
		pipeline.NewResolver(completer, geocoder, metrics, logger),
		pipeline.NewEstimator(completer, metrics, logger),
		logger, metrics, cfg.Concurrency)

	// Mock articles back up the real source so a scan always has input, and
	// stand alone when no NewsAPI key is configured.
	var source app.ArticleSource
	fallback := &newsapi.MockSource{Logger: logger}
	if cfg.NewsAPIKey != "" {
		source = newsapi.NewClient(cfg.NewsAPIKey, cfg.NewsAPITimeout, logger)
	} else {
		logger.Info("no NewsAPI key configured, serving mock articles")
		source = fallback
	}

	normalizer := store.NewDateNormalizer(completer, metrics, logger)
	core := app.New(source, fallback, p, normalizer, cfg.DataDir, metrics, logger)

	srv := httpapi.NewServer(cfg.HTTPAddr, core, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	var scheduler *cron.Cron
	if cfg.ScanCron != "" {
		scheduler = cron.New()
		_, err := scheduler.AddFunc(cfg.ScanCron, func() {
			for _, city := range cfg.ScanCities {
				count, err := core.ScanCity(ctx, city, cfg.NewsDays)
				if err != nil {
					logger.Error("scheduled scan failed", "city", city, "error", err)
					continue
				}
				logger.Info("scheduled scan finished", "city", city, "events", count)
			}
		})
		if err != nil {
			logger.Error("invalid scan schedule", "cron", cfg.ScanCron, "error", err)
			os.Exit(1)
		}
		scheduler.Start()
		logger.Info("scheduled scans enabled", "cron", cfg.ScanCron, "cities", cfg.ScanCities)
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if scheduler != nil {
		<-scheduler.Stop().Done()
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
}
