package domain

import "context"

// CompleteOptions tunes a single text-generation request.
type CompleteOptions struct {
	Temperature float64
	MaxTokens   int

	// JSONOnly asks the provider for a JSON-constrained response when the
	// provider supports it. Callers must still parse tolerantly; not every
	// backend honors the constraint.
	JSONOnly bool
}

// Completer is the text-generation capability behind the relevance classifier,
// event extractor, location disambiguation, radius estimation, and the store's
// date normalization. Implementations own their request timeout.
type Completer interface {
	Complete(ctx context.Context, prompt string, opts CompleteOptions) (string, error)
}

// GeocodeResult holds a geocoding provider's answer for one place query.
// Found is false when the provider had no match, which is an expected outcome
// and not an error.
type GeocodeResult struct {
	Lat         float64
	Lon         float64
	DisplayName string
	Found       bool
}

// Geocoder resolves free-text place references to coordinates. Transient
// provider failures (timeouts, unavailability) surface as errors; a missing
// place is reported via Found=false with a nil error.
type Geocoder interface {
	Geocode(ctx context.Context, place string) (GeocodeResult, error)
}
