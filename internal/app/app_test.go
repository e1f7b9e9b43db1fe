package app_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trafficlens/traffic-event-finder/internal/app"
	"github.com/trafficlens/traffic-event-finder/internal/domain"
	"github.com/trafficlens/traffic-event-finder/internal/observability"
	"github.com/trafficlens/traffic-event-finder/internal/pipeline"
	"github.com/trafficlens/traffic-event-finder/internal/store"
)

type completerFunc func(ctx context.Context, prompt string, opts domain.CompleteOptions) (string, error)

func (f completerFunc) Complete(ctx context.Context, prompt string, opts domain.CompleteOptions) (string, error) {
	return f(ctx, prompt, opts)
}

// stageCompleter answers each pipeline stage and the date normalizer.
func stageCompleter() completerFunc {
	return func(_ context.Context, prompt string, _ domain.CompleteOptions) (string, error) {
		switch {
		case strings.Contains(prompt, "news classifier"):
			return `{"affect_traffic": "Yes"}`, nil
		case strings.Contains(prompt, "Extract events"):
			return `[{"event_type": "concert", "location": "Civic Center", "date": "2025-03-10", "scale": "10,000 attendees"}]`, nil
		case strings.Contains(prompt, "Disambiguate"):
			return "Civic Center, San Francisco", nil
		case strings.Contains(prompt, "influence radius"):
			return "2.0", nil
		default:
			return "2025-03-10", nil
		}
	}
}

type fakeSource struct {
	articles []domain.Article
	err      error
	calls    int
}

func (s *fakeSource) FetchArticles(_ context.Context, _ string, _ int) ([]domain.Article, error) {
	s.calls++
	return s.articles, s.err
}

func newTestApp(t *testing.T, source, fallback app.ArticleSource) *app.App {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	metrics := observability.NewMetricsForTesting()
	completer := stageCompleter()

	p := pipeline.New(
		pipeline.NewClassifier(completer, metrics, logger),
		pipeline.NewExtractor(completer, metrics, logger),
		pipeline.NewResolver(completer, nil, metrics, logger),
		pipeline.NewEstimator(completer, metrics, logger),
		logger, metrics, 2)
	normalizer := store.NewDateNormalizer(completer, metrics, logger)

	return app.New(source, fallback, p, normalizer, t.TempDir(), metrics, logger)
}

func testArticles() []domain.Article {
	return []domain.Article{{
		Title:       "Concert at Civic Center",
		Description: "A major concert is scheduled at the Civic Center.",
	}}
}

func TestScanCity_StoresExtractedEvents(t *testing.T) {
	source := &fakeSource{articles: testArticles()}
	a := newTestApp(t, source, nil)

	count, err := a.ScanCity(context.Background(), "San Francisco", 7)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	events, err := a.Events(context.Background(), "San Francisco", nil, nil)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "concert", events[0].EventType)
	assert.Equal(t, "San Francisco", events[0].City)
	assert.NotEmpty(t, events[0].ID)
}

func TestScanCity_FallbackOnPrimaryError(t *testing.T) {
	source := &fakeSource{err: errors.New("api down")}
	fallback := &fakeSource{articles: testArticles()}
	a := newTestApp(t, source, fallback)

	count, err := a.ScanCity(context.Background(), "San Francisco", 7)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Equal(t, 1, fallback.calls)
}

func TestScanCity_FallbackOnEmptyPrimary(t *testing.T) {
	source := &fakeSource{}
	fallback := &fakeSource{articles: testArticles()}
	a := newTestApp(t, source, fallback)

	count, err := a.ScanCity(context.Background(), "San Francisco", 7)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Equal(t, 1, fallback.calls)
}

func TestScanCity_ErrorWithoutFallback(t *testing.T) {
	source := &fakeSource{err: errors.New("api down")}
	a := newTestApp(t, source, nil)

	_, err := a.ScanCity(context.Background(), "San Francisco", 7)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api down")
}

func TestScanCity_EmptyCityRejected(t *testing.T) {
	a := newTestApp(t, &fakeSource{}, nil)

	_, err := a.ScanCity(context.Background(), "  ", 7)
	require.Error(t, err)
}

func TestScanCity_NoArticlesNoEvents(t *testing.T) {
	a := newTestApp(t, &fakeSource{}, nil)

	count, err := a.ScanCity(context.Background(), "San Francisco", 7)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestEvents_UnknownCityIsEmpty(t *testing.T) {
	a := newTestApp(t, &fakeSource{}, nil)

	events, err := a.Events(context.Background(), "Nowhere", nil, nil)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestScansAccumulate(t *testing.T) {
	source := &fakeSource{articles: testArticles()}
	a := newTestApp(t, source, nil)

	for i := 0; i < 3; i++ {
		_, err := a.ScanCity(context.Background(), "San Francisco", 7)
		require.NoError(t, err)
	}

	events, err := a.Events(context.Background(), "San Francisco", nil, nil)
	require.NoError(t, err)
	assert.Len(t, events, 3)
}

func TestReady(t *testing.T) {
	a := newTestApp(t, &fakeSource{}, nil)
	assert.NoError(t, a.Ready())
}
