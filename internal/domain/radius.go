package domain

import "strings"

// Influence radius bounds in kilometers. Every estimation path clamps into
// this interval so visualizations and aggregates stay bounded.
const (
	MinInfluenceRadiusKm     = 0.5
	MaxInfluenceRadiusKm     = 5.0
	DefaultInfluenceRadiusKm = 1.0
)

// defaultRadiiKm maps well-known event type keywords to operational radius
// defaults. Matching is a case-insensitive substring check so model wording
// like "street festival" or "rock concert" still hits the table.
var defaultRadiiKm = []struct {
	keyword string
	km      float64
}{
	{"concert", 2.0},
	{"festival", 3.0},
	{"road closure", 1.0},
	{"construction", 1.5},
	{"marathon", 4.0},
	{"protest", 2.5},
	{"accident", 1.2},
}

// DefaultRadiusForType returns the default influence radius for a recognized
// event type. ok is false for unknown types, which are then estimated by the
// generative capability instead.
func DefaultRadiusForType(eventType string) (km float64, ok bool) {
	lowered := strings.ToLower(eventType)
	for _, d := range defaultRadiiKm {
		if strings.Contains(lowered, d.keyword) {
			return d.km, true
		}
	}
	return 0, false
}

// ClampRadius bounds a radius to the valid influence interval.
func ClampRadius(km float64) float64 {
	if km < MinInfluenceRadiusKm {
		return MinInfluenceRadiusKm
	}
	if km > MaxInfluenceRadiusKm {
		return MaxInfluenceRadiusKm
	}
	return km
}
