package common

import "time"

// Clock returns the current time; tests replace it.
type Clock func() time.Time

// Now returns the clock's time in UTC, falling back to the wall clock.
func (c Clock) Now() time.Time {
	if c == nil {
		return time.Now().UTC()
	}
	return c().UTC()
}

// FixedClock always returns t.
func FixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}
