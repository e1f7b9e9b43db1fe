package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
)

var idCleanRe = regexp.MustCompile(`[^a-z0-9_]`)

// cleanIDComponent lowercases text, replaces spaces with underscores, and
// strips everything outside [a-z0-9_].
func cleanIDComponent(text string) string {
	cleaned := strings.ReplaceAll(strings.ToLower(text), " ", "_")
	return idCleanRe.ReplaceAllString(cleaned, "")
}

// EventID produces a deterministic ID from the fields that identify an event.
// Two events with the same type, raw location, and raw date hash to the same
// ID regardless of when they were ingested.
func EventID(event GeoTaggedEvent) string {
	input := fmt.Sprintf("%s|%s|%s", event.EventType, event.LocationText, event.DateText)
	hash := sha256.Sum256([]byte(input))
	short := hex.EncodeToString(hash[:8])

	slug := cleanIDComponent(event.EventType)
	if slug == "" {
		return short
	}
	return slug + "-" + short
}
