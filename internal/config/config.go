package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all service settings, populated from environment variables.
// A .env file in the working directory is loaded first when present.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// DataDir is where per-city event files live.
	DataDir string

	// Pipeline settings.
	Concurrency int // bounded fan-out across articles
	NewsDays    int // how many days of news to search

	// Scheduled scans: a cron expression plus the cities to scan. Both empty
	// disables scheduling; setting one without the other is a config error.
	ScanCron   string
	ScanCities []string

	// OpenAI-compatible text-generation API.
	OpenAIAPIKey   string
	OpenAIModel    string
	OpenAIEndpoint string
	OpenAITimeout  time.Duration

	// Nominatim geocoding.
	NominatimBaseURL string
	NominatimTimeout time.Duration
	GeocodeCacheSize int

	// NewsAPI article source. An empty key switches the service to generated
	// mock articles so the pipeline stays exercisable without credentials.
	NewsAPIKey     string
	NewsAPITimeout time.Duration
}

// Load reads configuration from the environment, applying defaults where unset.
func Load() (*Config, error) {
	// Missing .env is fine; explicit environment always wins.
	_ = godotenv.Load()

	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	openAITimeout, err := parseDuration("OPENAI_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}
	nominatimTimeout, err := parseDuration("NOMINATIM_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}
	newsAPITimeout, err := parseDuration("NEWSAPI_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	concurrency, err := parsePositiveInt("PIPELINE_CONCURRENCY", 4)
	if err != nil {
		return nil, err
	}
	newsDays, err := parsePositiveInt("NEWS_DAYS", 7)
	if err != nil {
		return nil, err
	}
	cacheSize, err := parsePositiveInt("GEOCODE_CACHE_SIZE", 1000)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		DataDir:     envOrDefault("DATA_DIR", "data"),
		Concurrency: concurrency,
		NewsDays:    newsDays,

		ScanCron:   os.Getenv("SCAN_CRON"),
		ScanCities: splitList(os.Getenv("SCAN_CITIES")),

		OpenAIAPIKey:   os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:    envOrDefault("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIEndpoint: envOrDefault("OPENAI_ENDPOINT", "https://api.openai.com/v1/chat/completions"),
		OpenAITimeout:  openAITimeout,

		NominatimBaseURL: envOrDefault("NOMINATIM_BASE_URL", "https://nominatim.openstreetmap.org"),
		NominatimTimeout: nominatimTimeout,
		GeocodeCacheSize: cacheSize,

		NewsAPIKey:     os.Getenv("NEWSAPI_API_KEY"),
		NewsAPITimeout: newsAPITimeout,
	}

	if cfg.DataDir == "" {
		return nil, errors.New("DATA_DIR is required")
	}
	if (cfg.ScanCron == "") != (len(cfg.ScanCities) == 0) {
		return nil, errors.New("SCAN_CRON and SCAN_CITIES must be set together")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseDuration(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(envOrDefault(key, fallback))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parsePositiveInt(key string, fallback int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return n, nil
}

// splitList parses a comma-separated list, trimming whitespace and dropping
// empty entries.
func splitList(value string) []string {
	if value == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
