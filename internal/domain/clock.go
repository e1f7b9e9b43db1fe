package domain

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// clock is the package-level time source for created_at stamps and the
// "today" date fallback, so tests can freeze time via SetClock.
var clock = clockwork.NewRealClock()

// Now returns the current time from the active clock.
func Now() time.Time {
	return clock.Now()
}

// SetClock swaps the time source. Pass nil to reset to real time.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}
