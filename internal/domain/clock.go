package domain

import "github.com/jonboulle/clockwork"

// clock is the package-level time source for the current year of the grid path.
// Tests freeze it via SetClock.
var clock = clockwork.NewRealClock()

// SetClock swaps the time source. Pass nil to reset to real time.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}

// CurrentYear returns the calendar year according to the package clock.
func CurrentYear() int {
	return clock.Now().UTC().Year()
}
