package store

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trafficlens/traffic-event-finder/internal/domain"
	"github.com/trafficlens/traffic-event-finder/internal/observability"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestStore(t *testing.T, completer domain.Completer) *Store {
	t.Helper()
	s, err := New(t.TempDir(), "San Francisco", NewDateNormalizer(completer, observability.NewMetricsForTesting(), testLogger()),
		observability.NewMetricsForTesting(), testLogger())
	require.NoError(t, err)
	return s
}

func makeEvent(eventType, location, dateText string) domain.GeoTaggedEvent {
	return domain.GeoTaggedEvent{
		EventCandidate: domain.EventCandidate{
			EventType:    eventType,
			LocationText: location,
			DateText:     dateText,
		},
		ResolvedLocation:  location + ", San Francisco",
		InfluenceRadiusKm: 1.0,
	}
}

func timePtr(t time.Time) *time.Time { return &t }

func TestStore_AppendAssignsIdentityAndOrder(t *testing.T) {
	s := newTestStore(t, nil)

	events := []domain.GeoTaggedEvent{
		makeEvent("concert", "Civic Center", "2025-03-10"),
		makeEvent("road closure", "Main St", "2025-03-11"),
		makeEvent("festival", "Golden Gate Park", "2025-03-12"),
	}
	stored, err := s.Append(context.Background(), events)
	require.NoError(t, err)
	require.Len(t, stored, 3)

	for i, record := range stored {
		assert.NotEmpty(t, record.ID)
		assert.Equal(t, "San Francisco", record.City)
		assert.Equal(t, events[i].EventType, record.EventType)
		if i > 0 {
			assert.True(t, record.CreatedAt.After(stored[i-1].CreatedAt),
				"created_at must be strictly increasing within a batch")
		}
	}

	got, err := s.Query(context.Background(), nil, nil)
	require.NoError(t, err)
	if diff := cmp.Diff(stored, got); diff != "" {
		t.Errorf("round trip mismatch (-appended +queried):\n%s", diff)
	}
}

func TestStore_AppendEmptyBatch(t *testing.T) {
	s := newTestStore(t, nil)

	stored, err := s.Append(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestStore_QueryMissingFileIsEmpty(t *testing.T) {
	s := newTestStore(t, nil)

	got, err := s.Query(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestStore_QueryInclusiveBounds(t *testing.T) {
	s := newTestStore(t, nil)

	_, err := s.Append(context.Background(), []domain.GeoTaggedEvent{
		makeEvent("concert", "Civic Center", "2025-03-09"),
		makeEvent("road closure", "Main St", "2025-03-10"),
		makeEvent("festival", "Golden Gate Park", "2025-03-11"),
	})
	require.NoError(t, err)

	tests := []struct {
		name       string
		start, end *time.Time
		wantTypes  []string
	}{
		{"start equals date includes it", timePtr(date(2025, time.March, 10)), nil, []string{"road closure", "festival"}},
		{"end equals date includes it", nil, timePtr(date(2025, time.March, 10)), []string{"concert", "road closure"}},
		{"single-day window", timePtr(date(2025, time.March, 10)), timePtr(date(2025, time.March, 10)), []string{"road closure"}},
		{"day after excludes", timePtr(date(2025, time.March, 12)), nil, nil},
		{"full range", timePtr(date(2025, time.March, 9)), timePtr(date(2025, time.March, 11)), []string{"concert", "road closure", "festival"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.Query(context.Background(), tt.start, tt.end)
			require.NoError(t, err)
			var types []string
			for _, e := range got {
				types = append(types, e.EventType)
			}
			assert.Equal(t, tt.wantTypes, types)
		})
	}
}

func TestStore_QueryNormalizesEachDateTextOnce(t *testing.T) {
	completer := &countingCompleter{response: "2025-03-10"}
	s := newTestStore(t, completer)

	_, err := s.Append(context.Background(), []domain.GeoTaggedEvent{
		makeEvent("concert", "Civic Center", "this Saturday"),
		makeEvent("road closure", "Main St", "this Saturday"),
		makeEvent("festival", "Golden Gate Park", "this Saturday"),
		makeEvent("marathon", "Market Street", "Sunday morning"),
	})
	require.NoError(t, err)

	got, err := s.Query(context.Background(),
		timePtr(date(2025, time.March, 10)), timePtr(date(2025, time.March, 10)))
	require.NoError(t, err)
	assert.Len(t, got, 4)
	assert.Equal(t, 2, completer.callCount(), "one model call per distinct date text")
}

func TestStore_ReopenSeesPersistedEvents(t *testing.T) {
	dir := t.TempDir()
	metrics := observability.NewMetricsForTesting()
	normalizer := NewDateNormalizer(nil, metrics, testLogger())

	first, err := New(dir, "San Francisco", normalizer, metrics, testLogger())
	require.NoError(t, err)
	_, err = first.Append(context.Background(), []domain.GeoTaggedEvent{
		makeEvent("concert", "Civic Center", "2025-03-10"),
	})
	require.NoError(t, err)

	second, err := New(dir, "San Francisco", normalizer, metrics, testLogger())
	require.NoError(t, err)
	got, err := second.Query(context.Background(), nil, nil)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "concert", got[0].EventType)
}

func TestStore_CorruptLineIsSkipped(t *testing.T) {
	dir := t.TempDir()
	metrics := observability.NewMetricsForTesting()
	s, err := New(dir, "San Francisco", NewDateNormalizer(nil, metrics, testLogger()), metrics, testLogger())
	require.NoError(t, err)

	_, err = s.Append(context.Background(), []domain.GeoTaggedEvent{
		makeEvent("concert", "Civic Center", "2025-03-10"),
	})
	require.NoError(t, err)

	f, err := os.OpenFile(filepath.Join(dir, "san_francisco.jsonl"), os.O_WRONLY|os.O_APPEND, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString("{not valid json\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	_, err = s.Append(context.Background(), []domain.GeoTaggedEvent{
		makeEvent("festival", "Golden Gate Park", "2025-03-11"),
	})
	require.NoError(t, err)

	got, err := s.Query(context.Background(), nil, nil)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "concert", got[0].EventType)
	assert.Equal(t, "festival", got[1].EventType)
}

func TestCitySlug(t *testing.T) {
	tests := []struct {
		city string
		want string
	}{
		{"San Francisco", "san_francisco"},
		{"New York", "new_york"},
		{"São Paulo", "so_paulo"},
		{"  Chicago  ", "chicago"},
		{"", "city"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, citySlug(tt.city), "city %q", tt.city)
	}
}
