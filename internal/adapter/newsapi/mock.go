package newsapi

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/trafficlens/traffic-event-finder/internal/domain"
)

// mockTemplates are the event shapes the mock generator cycles through.
// Each produces an article whose description names the city, a venue, and a
// relative date, mirroring what real traffic-relevant coverage looks like.
var mockTemplates = []struct {
	eventType string
	location  string
	date      string
	scale     string
}{
	{"Concert", "Civic Center", "next Saturday", "10,000 attendees"},
	{"Road closure", "Downtown", "tomorrow", ""},
	{"Construction", "Highway 101", "next week", ""},
	{"Festival", "Golden Gate Park", "this weekend", "25,000 attendees"},
	{"Marathon", "Market Street", "Sunday morning", "5,000 runners"},
}

// GenerateMockArticles produces deterministic mock articles for a city by
// cycling through the templates. Timestamps come from the domain clock so
// fixtures stay reproducible under a fake clock.
func GenerateMockArticles(city string, count int) []domain.Article {
	articles := make([]domain.Article, 0, count)
	now := domain.Now()

	for i := 0; i < count; i++ {
		tpl := mockTemplates[i%len(mockTemplates)]
		desc := fmt.Sprintf("A %s is scheduled at %s in %s %s.",
			tpl.eventType, tpl.location, city, tpl.date)
		if tpl.scale != "" {
			desc += fmt.Sprintf(" Organizers expect %s.", tpl.scale)
		}

		articles = append(articles, domain.Article{
			Title:       fmt.Sprintf("%s at %s", tpl.eventType, tpl.location),
			Description: desc,
			PublishedAt: now,
			SourceName:  "Mock News",
		})
	}
	return articles
}

// MockSource is an article source backed by GenerateMockArticles. It stands
// in for NewsAPI when no API key is configured.
type MockSource struct {
	Count  int
	Logger *slog.Logger
}

// FetchArticles generates Count mock articles for the city. days is ignored.
func (s *MockSource) FetchArticles(_ context.Context, city string, _ int) ([]domain.Article, error) {
	count := s.Count
	if count <= 0 {
		count = 10
	}
	if s.Logger != nil {
		s.Logger.Info("generated mock articles", "city", city, "count", count)
	}
	return GenerateMockArticles(city, count), nil
}
