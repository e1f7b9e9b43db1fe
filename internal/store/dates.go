package store

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/trafficlens/traffic-event-finder/internal/domain"
	"github.com/trafficlens/traffic-event-finder/internal/observability"
)

// absoluteDateLayouts are tried in order before asking the model. They cover
// the formats the extractor is told to emit plus common article styles.
var absoluteDateLayouts = []string{
	"2006-01-02",
	"02-01-2006",
	"2 January 2006",
	"January 2, 2006",
	time.RFC3339,
}

var isoDateRe = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)

// sentinel date texts that carry no information; they resolve to today.
var emptyDateTexts = map[string]struct{}{
	"":        {},
	"n/a":     {},
	"na":      {},
	"none":    {},
	"unknown": {},
	"tbd":     {},
}

// DateNormalizer turns raw date text from articles ("this Saturday",
// "01-01-2025") into a calendar date. Absolute formats are parsed locally;
// relative expressions go to the model with today's date as context.
type DateNormalizer struct {
	completer domain.Completer
	metrics   *observability.Metrics
	logger    *slog.Logger
}

// NewDateNormalizer creates a normalizer backed by the given completer.
// A nil completer skips the model step and falls straight to today.
func NewDateNormalizer(completer domain.Completer, metrics *observability.Metrics, logger *slog.Logger) *DateNormalizer {
	return &DateNormalizer{completer: completer, metrics: metrics, logger: logger}
}

// Normalize resolves dateText to a calendar date. It never fails: text that
// neither parses nor normalizes through the model resolves to today.
func (n *DateNormalizer) Normalize(ctx context.Context, dateText string) time.Time {
	today := dateOnly(domain.Now())

	text := strings.TrimSpace(dateText)
	if _, empty := emptyDateTexts[strings.ToLower(text)]; empty {
		n.metrics.DateNormalizations.WithLabelValues("fallback").Inc()
		return today
	}

	if date, ok := parseAbsoluteDate(text); ok {
		n.metrics.DateNormalizations.WithLabelValues("local").Inc()
		return date
	}

	if n.completer == nil {
		n.metrics.DateNormalizations.WithLabelValues("fallback").Inc()
		return today
	}

	prompt := datePrompt(text, today)
	resp, err := n.completer.Complete(ctx, prompt, domain.CompleteOptions{
		Temperature: 0,
		MaxTokens:   20,
	})
	if err != nil {
		n.logger.Warn("date normalization failed, using today",
			"date_text", text, "error", err)
		n.metrics.DateNormalizations.WithLabelValues("fallback").Inc()
		return today
	}

	if match := isoDateRe.FindString(resp); match != "" {
		if date, err := time.Parse("2006-01-02", match); err == nil {
			n.metrics.DateNormalizations.WithLabelValues("model").Inc()
			return dateOnly(date)
		}
	}

	n.logger.Warn("unparseable date normalization response, using today",
		"date_text", text, "response", resp)
	n.metrics.DateNormalizations.WithLabelValues("fallback").Inc()
	return today
}

func datePrompt(text string, today time.Time) string {
	return fmt.Sprintf(`Convert the date expression %q to a single calendar date in YYYY-MM-DD format. Today is %s (%s).
Return only the date.`, text, today.Format("2006-01-02"), today.Weekday())
}

// parseAbsoluteDate tries the known absolute layouts, tolerating trailing
// punctuation the extractor occasionally leaves in place.
func parseAbsoluteDate(text string) (time.Time, bool) {
	text = strings.TrimRight(text, ".,;")
	for _, layout := range absoluteDateLayouts {
		if date, err := time.Parse(layout, text); err == nil {
			return dateOnly(date), true
		}
	}
	return time.Time{}, false
}

// dateOnly truncates t to its calendar day in UTC.
func dateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
