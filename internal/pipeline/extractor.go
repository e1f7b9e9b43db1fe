package pipeline

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/trafficlens/traffic-event-finder/internal/domain"
	"github.com/trafficlens/traffic-event-finder/internal/observability"
)

// Extractor turns one relevant article into structured event candidates.
type Extractor struct {
	completer domain.Completer
	metrics   *observability.Metrics
	logger    *slog.Logger
}

// NewExtractor creates an event extractor.
func NewExtractor(completer domain.Completer, metrics *observability.Metrics, logger *slog.Logger) *Extractor {
	return &Extractor{completer: completer, metrics: metrics, logger: logger}
}

// extractedEvent is the wire shape the extraction prompt asks for.
type extractedEvent struct {
	EventType string `json:"event_type"`
	Location  string `json:"location"`
	Date      string `json:"date"`
	Scale     string `json:"scale"`
}

// ExtractEvents asks the model for the traffic-affecting events in an article
// and returns them in response order, each back-referencing the article. A
// capability error or unparseable response yields an empty slice, never an
// error: one malformed response must not abort the batch.
func (e *Extractor) ExtractEvents(ctx context.Context, article domain.Article, city string) []domain.EventCandidate {
	resp, err := e.completer.Complete(ctx, extractionPrompt(article, city), domain.CompleteOptions{
		Temperature: 0.1,
		MaxTokens:   2048,
		JSONOnly:    true,
	})
	if err != nil {
		e.logger.Warn("event extraction failed, skipping article",
			"title", article.Title, "error", err)
		e.metrics.StageErrors.WithLabelValues("extract").Inc()
		return nil
	}

	items, ok := parseExtraction(resp)
	if !ok {
		e.logger.Warn("unparseable extraction response, skipping article",
			"title", article.Title)
		e.metrics.StageErrors.WithLabelValues("extract").Inc()
		return nil
	}

	source := article
	candidates := make([]domain.EventCandidate, 0, len(items))
	for _, item := range items {
		candidates = append(candidates, domain.EventCandidate{
			EventType:    item.EventType,
			LocationText: item.Location,
			DateText:     item.Date,
			ScaleText:    item.Scale,
			Source:       &source,
		})
	}

	e.metrics.EventsExtracted.Add(float64(len(candidates)))
	return candidates
}

// parseExtraction accepts either a bare JSON array or an {"events": [...]}
// wrapper; JSON-constrained providers force an object at the top level.
func parseExtraction(resp string) ([]extractedEvent, bool) {
	raw := []byte(stripCodeFence(resp))

	var items []extractedEvent
	if err := json.Unmarshal(raw, &items); err == nil {
		return items, true
	}

	var wrapped struct {
		Events []extractedEvent `json:"events"`
	}
	if err := json.Unmarshal(raw, &wrapped); err == nil && wrapped.Events != nil {
		return wrapped.Events, true
	}

	return nil, false
}
