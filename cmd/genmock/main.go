// Command genmock writes a deterministic mock-article fixture for a city.
// A fixed clock keeps timestamps stable so generated fixtures can be checked
// in and reused by tests.
//
// Usage:
//
//	go run ./cmd/genmock -city "San Francisco" -count 10 -out data/mock/articles_sf.json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/trafficlens/traffic-event-finder/internal/adapter/newsapi"
	"github.com/trafficlens/traffic-event-finder/internal/domain"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	city := flag.String("city", "San Francisco", "city the articles reference")
	count := flag.Int("count", 10, "number of articles to generate")
	out := flag.String("out", "", "output path for the article JSON fixture")
	flag.Parse()

	if *out == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out")
	}

	// Freeze the clock so published_at is reproducible across runs.
	domain.SetClock(clockwork.NewFakeClockAt(
		time.Date(2025, time.March, 1, 6, 0, 0, 0, time.UTC),
	))
	defer domain.SetClock(nil)

	articles := newsapi.GenerateMockArticles(*city, *count)

	if err := writeJSON(*out, articles); err != nil {
		return fmt.Errorf("writing fixture: %w", err)
	}
	log.Printf("wrote %d mock articles for %s: %s", len(articles), *city, *out)
	return nil
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}
