// Package domain models traffic-affecting events extracted from city news.
//
// # Data flow
//
// Articles arrive from a news source (NewsAPI or generated mock data) and pass
// through four stages: a relevance classifier decides whether an article could
// affect road traffic, an extractor turns relevant articles into structured
// [EventCandidate] records, a resolver attaches a disambiguated location and
// coordinates, and an estimator assigns a traffic influence radius. The result
// is a [GeoTaggedEvent]; persisting one produces a [StoredEvent].
//
// # Free-text fields
//
// Event fields come from a generative model, so none of them is a closed enum:
// event_type is whatever wording the model chose ("concert", "road closure",
// "street festival"), location is a raw phrase that may be ambiguous
// ("Civic Center"), and date may be relative ("next Saturday"). Absence of any
// field is valid and must not break downstream stages. Raw date text is kept
// as written and only normalized to a calendar date when a range query runs.
//
// # Influence radius
//
// Radii are bounded to [MinInfluenceRadiusKm, MaxInfluenceRadiusKm] kilometers
// in every code path. Well-known event types use fixed operational defaults
// (see [DefaultRadiusForType]); unknown types are estimated by the model and
// clamped afterwards.
//
// # ID generation
//
// Event IDs are deterministic SHA-256 hashes of type|location|date with a
// cleaned event-type slug prefix. Reprocessing the same article yields the
// same ID, which keeps repeated ingestion runs replay-safe for downstream
// consumers. See [EventID].
package domain
