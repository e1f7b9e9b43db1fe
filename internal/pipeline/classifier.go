package pipeline

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/trafficlens/traffic-event-finder/internal/domain"
	"github.com/trafficlens/traffic-event-finder/internal/observability"
)

// Classifier decides whether one article describes traffic-affecting news.
type Classifier struct {
	completer domain.Completer
	metrics   *observability.Metrics
	logger    *slog.Logger
}

// NewClassifier creates a relevance classifier.
func NewClassifier(completer domain.Completer, metrics *observability.Metrics, logger *slog.Logger) *Classifier {
	return &Classifier{completer: completer, metrics: metrics, logger: logger}
}

// IsRelevant reports whether the article could affect road traffic in city.
// Articles with no title and no description are not-relevant without a
// capability call. Any capability error or malformed response classifies as
// not-relevant, so one bad article never aborts a batch.
func (c *Classifier) IsRelevant(ctx context.Context, article domain.Article, city string) bool {
	if article.Empty() {
		return false
	}

	resp, err := c.completer.Complete(ctx, relevancePrompt(article, city), domain.CompleteOptions{
		Temperature: 0.01,
		MaxTokens:   256,
		JSONOnly:    true,
	})
	if err != nil {
		c.logger.Warn("relevance check failed, treating as not relevant",
			"title", article.Title, "error", err)
		c.metrics.StageErrors.WithLabelValues("classify").Inc()
		return false
	}

	return parseRelevance(resp)
}

// parseRelevance interprets the model's answer tolerantly: the structured
// JSON field when present, otherwise a keyword scan over the raw text.
func parseRelevance(resp string) bool {
	var parsed struct {
		AffectTraffic string `json:"affect_traffic"`
	}
	if err := json.Unmarshal([]byte(stripCodeFence(resp)), &parsed); err == nil && parsed.AffectTraffic != "" {
		return strings.EqualFold(strings.TrimSpace(parsed.AffectTraffic), "yes")
	}

	lowered := strings.ToLower(resp)
	return strings.Contains(lowered, "yes") || strings.Contains(lowered, "true")
}
