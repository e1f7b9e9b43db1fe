package nominatim

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trafficlens/traffic-event-finder/internal/domain"
)

// --- mock for cache tests ---

type countingGeocoder struct {
	calls  int
	result domain.GeocodeResult
	err    error
}

func (m *countingGeocoder) Geocode(_ context.Context, _ string) (domain.GeocodeResult, error) {
	m.calls++
	return m.result, m.err
}

// --- tests ---

func TestCachedGeocoder_CacheHit(t *testing.T) {
	inner := &countingGeocoder{
		result: domain.GeocodeResult{Lat: 37.77, Lon: -122.41, DisplayName: "Civic Center", Found: true},
	}
	cached, err := NewCachedGeocoder(inner, 10, testMetrics())
	require.NoError(t, err)

	r1, err := cached.Geocode(context.Background(), "Civic Center")
	require.NoError(t, err)
	assert.True(t, r1.Found)

	// A second lookup, including one with different casing, hits the cache.
	_, err = cached.Geocode(context.Background(), "civic center")
	require.NoError(t, err)

	assert.Equal(t, 1, inner.calls, "should only call inner once")
}

func TestCachedGeocoder_NotFoundNotCached(t *testing.T) {
	inner := &countingGeocoder{result: domain.GeocodeResult{Found: false}}
	cached, err := NewCachedGeocoder(inner, 10, testMetrics())
	require.NoError(t, err)

	_, err = cached.Geocode(context.Background(), "Nowhereville")
	require.NoError(t, err)
	_, err = cached.Geocode(context.Background(), "Nowhereville")
	require.NoError(t, err)

	assert.Equal(t, 2, inner.calls, "not-found results should be retried")
}

func TestCachedGeocoder_ErrorPassthrough(t *testing.T) {
	inner := &countingGeocoder{err: errors.New("timeout")}
	cached, err := NewCachedGeocoder(inner, 10, testMetrics())
	require.NoError(t, err)

	_, err = cached.Geocode(context.Background(), "Civic Center")
	require.Error(t, err)

	_, err = cached.Geocode(context.Background(), "Civic Center")
	require.Error(t, err)
	assert.Equal(t, 2, inner.calls, "errors should not be cached")
}

func TestCachedGeocoder_Eviction(t *testing.T) {
	inner := &countingGeocoder{
		result: domain.GeocodeResult{Lat: 1, Lon: 2, DisplayName: "x", Found: true},
	}
	cached, err := NewCachedGeocoder(inner, 1, testMetrics())
	require.NoError(t, err)

	_, _ = cached.Geocode(context.Background(), "a")
	_, _ = cached.Geocode(context.Background(), "b") // evicts "a"
	_, _ = cached.Geocode(context.Background(), "a")

	assert.Equal(t, 3, inner.calls)
}
