package nominatim

import (
	"context"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/trafficlens/traffic-event-finder/internal/domain"
	"github.com/trafficlens/traffic-event-finder/internal/observability"
)

// CachedGeocoder wraps a Geocoder with an in-memory LRU cache. Repeated
// pipeline runs over the same city resolve the same handful of places, so
// caching keeps request volume inside Nominatim's usage limits.
type CachedGeocoder struct {
	inner   domain.Geocoder
	cache   *lru.Cache[string, domain.GeocodeResult]
	metrics *observability.Metrics
}

var _ domain.Geocoder = (*CachedGeocoder)(nil)

// NewCachedGeocoder creates a cache decorator around a geocoder.
func NewCachedGeocoder(inner domain.Geocoder, maxEntries int, metrics *observability.Metrics) (*CachedGeocoder, error) {
	cache, err := lru.New[string, domain.GeocodeResult](maxEntries)
	if err != nil {
		return nil, err
	}
	return &CachedGeocoder{inner: inner, cache: cache, metrics: metrics}, nil
}

func (c *CachedGeocoder) Geocode(ctx context.Context, place string) (domain.GeocodeResult, error) {
	key := strings.ToLower(strings.TrimSpace(place))
	if result, ok := c.cache.Get(key); ok {
		c.metrics.GeocodeCache.WithLabelValues("hit").Inc()
		return result, nil
	}
	c.metrics.GeocodeCache.WithLabelValues("miss").Inc()

	result, err := c.inner.Geocode(ctx, place)
	if err != nil {
		return result, err
	}
	// Only cache matches so transient "not found" responses can be retried
	// on the next pipeline run.
	if result.Found {
		c.cache.Add(key, result)
	}
	return result, nil
}
