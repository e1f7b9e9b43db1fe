// Package store persists geo-tagged events as an append-only JSONL file per
// city and answers date-range queries. Event dates are kept as raw text at
// write time and only normalized to calendar dates when a range query runs.
package store

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/trafficlens/traffic-event-finder/internal/domain"
	"github.com/trafficlens/traffic-event-finder/internal/observability"
)

// maxLineBytes bounds a single stored record when scanning the file back.
const maxLineBytes = 1 << 20

var slugRe = regexp.MustCompile(`[^a-z0-9_]`)

// Store is an append-only event log for one city.
type Store struct {
	path       string
	city       string
	normalizer *DateNormalizer
	metrics    *observability.Metrics
	logger     *slog.Logger

	mu sync.Mutex
}

// New opens (or creates) the event store for city under dir.
func New(dir, city string, normalizer *DateNormalizer, metrics *observability.Metrics, logger *slog.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	return &Store{
		path:       filepath.Join(dir, citySlug(city)+".jsonl"),
		city:       city,
		normalizer: normalizer,
		metrics:    metrics,
		logger:     logger,
	}, nil
}

// citySlug derives a filename-safe slug from a city name.
func citySlug(city string) string {
	slug := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(city)), " ", "_")
	slug = slugRe.ReplaceAllString(slug, "")
	if slug == "" {
		return "city"
	}
	return slug
}

// Append writes events to the end of the log and returns the stored records.
// Each record gets a deterministic ID and a created_at timestamp; timestamps
// within one batch are strictly increasing so append order is recoverable.
// Storage errors escalate: a partially written batch is reported, not hidden.
func (s *Store) Append(ctx context.Context, events []domain.GeoTaggedEvent) ([]domain.StoredEvent, error) {
	if len(events) == 0 {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening event log: %w", err)
	}
	defer f.Close()

	base := domain.Now()
	stored := make([]domain.StoredEvent, 0, len(events))
	w := bufio.NewWriter(f)
	for i, event := range events {
		record := domain.StoredEvent{
			GeoTaggedEvent: event,
			ID:             domain.EventID(event),
			City:           s.city,
			CreatedAt:      base.Add(time.Duration(i) * time.Nanosecond),
		}
		line, err := json.Marshal(record)
		if err != nil {
			return stored, fmt.Errorf("encoding event %s: %w", record.ID, err)
		}
		if _, err := w.Write(append(line, '\n')); err != nil {
			return stored, fmt.Errorf("appending event %s: %w", record.ID, err)
		}
		stored = append(stored, record)
	}
	if err := w.Flush(); err != nil {
		return stored, fmt.Errorf("flushing event log: %w", err)
	}

	s.metrics.EventsAppended.Add(float64(len(stored)))
	s.logger.Info("events appended", "city", s.city, "count", len(stored))
	return stored, nil
}

// Query returns stored events whose normalized date falls inside the
// inclusive [start, end] range. Nil bounds are open: both nil returns every
// event in append order. Each distinct date text is normalized at most once
// per call.
func (s *Store) Query(ctx context.Context, start, end *time.Time) ([]domain.StoredEvent, error) {
	events, err := s.readAll()
	if err != nil {
		return nil, err
	}
	if start == nil && end == nil {
		return events, nil
	}

	var startDay, endDay time.Time
	if start != nil {
		startDay = dateOnly(*start)
	}
	if end != nil {
		endDay = dateOnly(*end)
	}

	normalized := make(map[string]time.Time)
	matched := make([]domain.StoredEvent, 0, len(events))
	for _, event := range events {
		date, ok := normalized[event.DateText]
		if !ok {
			date = s.normalizer.Normalize(ctx, event.DateText)
			normalized[event.DateText] = date
		}
		if start != nil && date.Before(startDay) {
			continue
		}
		if end != nil && date.After(endDay) {
			continue
		}
		matched = append(matched, event)
	}
	return matched, nil
}

// readAll loads every record from the log in append order. A missing file is
// an empty store. Lines that fail to decode are skipped with a warning so one
// corrupt record cannot poison the whole log.
func (s *Store) readAll() ([]domain.StoredEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening event log: %w", err)
	}
	defer f.Close()

	var events []domain.StoredEvent
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var event domain.StoredEvent
		if err := json.Unmarshal([]byte(line), &event); err != nil {
			s.logger.Warn("skipping corrupt event record",
				"path", s.path, "line", lineNo, "error", err)
			continue
		}
		events = append(events, event)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading event log: %w", err)
	}
	return events, nil
}
