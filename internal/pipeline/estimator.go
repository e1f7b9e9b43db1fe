package pipeline

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"

	"github.com/trafficlens/traffic-event-finder/internal/domain"
	"github.com/trafficlens/traffic-event-finder/internal/observability"
)

// Estimator assigns a traffic influence radius to an event.
type Estimator struct {
	completer domain.Completer
	metrics   *observability.Metrics
	logger    *slog.Logger
}

// NewEstimator creates an influence-radius estimator.
func NewEstimator(completer domain.Completer, metrics *observability.Metrics, logger *slog.Logger) *Estimator {
	return &Estimator{completer: completer, metrics: metrics, logger: logger}
}

// EstimateRadius returns the influence radius in kilometers for an event.
// Well-known event types use the fixed default table; unknown types ask the
// model for a bare number. Every path returns a value inside the clamp
// interval, falling back to the default radius when estimation fails.
func (e *Estimator) EstimateRadius(ctx context.Context, event domain.EventCandidate) float64 {
	if km, ok := domain.DefaultRadiusForType(event.EventType); ok {
		return domain.ClampRadius(km)
	}

	payload, err := json.Marshal(struct {
		EventType string `json:"event_type"`
		Location  string `json:"location"`
		Date      string `json:"date"`
		Scale     string `json:"scale,omitempty"`
	}{event.EventType, event.LocationText, event.DateText, event.ScaleText})
	if err != nil {
		return domain.DefaultInfluenceRadiusKm
	}

	resp, err := e.completer.Complete(ctx, radiusPrompt(payload), domain.CompleteOptions{
		Temperature: 0.1,
		MaxTokens:   10,
	})
	if err != nil {
		e.logger.Warn("radius estimation failed, using default",
			"event_type", event.EventType, "error", err)
		e.metrics.StageErrors.WithLabelValues("estimate").Inc()
		return domain.DefaultInfluenceRadiusKm
	}

	km, ok := firstNumber(resp)
	if !ok {
		e.logger.Warn("non-numeric radius response, using default",
			"event_type", event.EventType, "response", resp)
		e.metrics.StageErrors.WithLabelValues("estimate").Inc()
		return domain.DefaultInfluenceRadiusKm
	}

	return domain.ClampRadius(km)
}

// firstNumber parses the first numeric token in s.
func firstNumber(s string) (float64, bool) {
	match := firstNumberRe.FindString(s)
	if match == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
