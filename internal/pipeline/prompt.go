package pipeline

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/trafficlens/traffic-event-finder/internal/domain"
)

func relevancePrompt(article domain.Article, city string) string {
	return fmt.Sprintf(`You are a news classifier with expertise in transportation impacts. An article has "traffic-affecting news" if it reports events such as road accidents, major construction, severe weather, public demonstrations, sports events, concerts, festivals, or similar incidents that could disrupt nearby road traffic. Otherwise it is non-traffic-affecting.

Given the following article, can it affect road traffic in %s?

Title: %s
Description: %s

Classify the article as "Yes" (it can affect traffic) or "No" (it cannot) and answer in JSON format only:

{ "affect_traffic": "Yes" }`, city, article.Title, article.Description)
}

func extractionPrompt(article domain.Article, city string) string {
	return fmt.Sprintf(`Extract events that can affect road traffic from this text. Focus on events in or near %s.
For each event, provide:
1. Event type (concert, sport event, road closure, construction, festival, etc.)
2. Location (as specific as possible: street name, landmark, venue, etc.)
3. Date (as specific as stated in the text, e.g. "01-01-2025" or "next Saturday")
4. Expected attendance or scale (if mentioned)

Return JSON format only, with no explanation:
[
  {
    "event_type": "...",
    "location": "...",
    "date": "...",
    "scale": "..."
  }
]

If no traffic-related events are found, return an empty array.

Title: %s
Text: %s`, city, article.Title, article.Description)
}

func disambiguationPrompt(location, city string) string {
	return fmt.Sprintf(`Disambiguate this location reference: %q within the city of %s.
Return only the full, specific location that would be recognized by a mapping service, on a single line.`, location, city)
}

func radiusPrompt(eventJSON []byte) string {
	return fmt.Sprintf(`Given this event: %s
Estimate its traffic influence radius in kilometers (%.1f-%.1f).
Return only a number.`, eventJSON, domain.MinInfluenceRadiusKm, domain.MaxInfluenceRadiusKm)
}

var (
	codeFenceRe   = regexp.MustCompile("(?s)^```(?:json)?\\s*(.*?)\\s*```$")
	firstNumberRe = regexp.MustCompile(`-?\d+(?:\.\d+)?`)
)

// stripCodeFence removes a surrounding markdown code fence, which some models
// add even when told to answer with bare JSON.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if m := codeFenceRe.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	return s
}

// firstLine returns the first non-empty line of s, trimmed.
func firstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
