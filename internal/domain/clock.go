package domain

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// clock stamps mirror records and alerts.
var clock clockwork.Clock = clockwork.NewRealClock()

// SetClock replaces the source of client-side timestamps. nil restores the real clock.
func SetClock(c clockwork.Clock) {
	if c == nil {
		c = clockwork.NewRealClock()
	}
	clock = c
}

func nowUTC() time.Time {
	return clock.Now().UTC()
}
