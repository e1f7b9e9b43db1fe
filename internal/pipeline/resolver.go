package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/trafficlens/traffic-event-finder/internal/domain"
	"github.com/trafficlens/traffic-event-finder/internal/observability"
)

// Resolver disambiguates an event's raw location phrase and resolves it to
// coordinates.
type Resolver struct {
	completer domain.Completer
	geocoder  domain.Geocoder
	metrics   *observability.Metrics
	logger    *slog.Logger
}

// NewResolver creates a location resolver. Pass a nil geocoder to disable
// coordinate resolution; events then keep their disambiguated location only.
func NewResolver(completer domain.Completer, geocoder domain.Geocoder, metrics *observability.Metrics, logger *slog.Logger) *Resolver {
	return &Resolver{completer: completer, geocoder: geocoder, metrics: metrics, logger: logger}
}

// Resolve returns the disambiguated location string and its coordinates.
// Geocoding failures and misses yield nil coordinates with the resolved
// location preserved; the caller never sees an error, because an
// unresolvable location must not block the rest of the batch.
func (r *Resolver) Resolve(ctx context.Context, event domain.EventCandidate, city string) (string, *domain.Coordinates) {
	if strings.TrimSpace(event.LocationText) == "" {
		return "", nil
	}

	resolved := r.disambiguate(ctx, event.LocationText, city)
	if r.geocoder == nil {
		return resolved, nil
	}

	result, err := r.geocoder.Geocode(ctx, resolved)
	if err != nil {
		// Transient geocoding failures count as "not found" for this run;
		// the next pipeline run can retry.
		r.logger.Warn("geocoding failed", "location", resolved, "error", err)
		r.metrics.StageErrors.WithLabelValues("resolve").Inc()
		return resolved, nil
	}
	if !result.Found {
		return resolved, nil
	}

	return resolved, &domain.Coordinates{Lat: result.Lat, Lon: result.Lon}
}

// disambiguate produces a fully qualified, geocodable place reference. When
// the raw text already names the city the call is skipped: the text is
// treated as specific enough, saving a capability round-trip.
func (r *Resolver) disambiguate(ctx context.Context, location, city string) string {
	if strings.Contains(strings.ToLower(location), strings.ToLower(city)) {
		return location
	}

	resp, err := r.completer.Complete(ctx, disambiguationPrompt(location, city), domain.CompleteOptions{
		Temperature: 0.1,
		MaxTokens:   100,
	})
	if err != nil {
		r.logger.Warn("location disambiguation failed, using raw text with city",
			"location", location, "error", err)
		r.metrics.StageErrors.WithLabelValues("resolve").Inc()
		return fmt.Sprintf("%s, %s", location, city)
	}

	line := firstLine(resp)
	if line == "" {
		return fmt.Sprintf("%s, %s", location, city)
	}
	return line
}
