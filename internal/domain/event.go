package domain

import "time"

// Article is a single news item as supplied by the article source.
// Articles carry no identity beyond their content and may repeat across
// fetches; deduplication is out of scope for this pipeline.
type Article struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	URL         string    `json:"url,omitempty"`
	PublishedAt time.Time `json:"published_at,omitempty"`
	SourceName  string    `json:"source_name,omitempty"`
}

// Empty reports whether the article has neither a title nor a description.
// Empty articles are trivially not traffic-relevant and never reach the model.
func (a Article) Empty() bool {
	return a.Title == "" && a.Description == ""
}

// EventCandidate is one structured event extracted from a relevant article.
// Every field except Source may be blank; downstream stages tolerate that.
type EventCandidate struct {
	EventType    string `json:"event_type"`
	LocationText string `json:"location"`
	DateText     string `json:"date"`
	ScaleText    string `json:"scale,omitempty"`

	// Source points back to the originating article for traceability.
	// The candidate does not own the article's lifecycle.
	Source *Article `json:"source,omitempty"`
}

// Coordinates is a WGS-84 latitude/longitude pair.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// GeoTaggedEvent is an EventCandidate annotated with location resolution
// results and an estimated traffic influence radius.
//
// Coordinates is nil only when ResolvedLocation is empty or geocoding found
// no match; an event is never discarded solely for missing coordinates.
// InfluenceRadiusKm is always set and always inside the clamp interval.
type GeoTaggedEvent struct {
	EventCandidate

	ResolvedLocation  string       `json:"resolved_location,omitempty"`
	Coordinates       *Coordinates `json:"coordinates,omitempty"`
	InfluenceRadiusKm float64      `json:"influence_radius_km"`
}

// StoredEvent is a persisted GeoTaggedEvent. CreatedAt is assigned by the
// store at append time; DateText stays raw and is only normalized to a
// calendar date when a range query runs.
type StoredEvent struct {
	GeoTaggedEvent

	ID        string    `json:"id"`
	City      string    `json:"city,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
