package clock

import "time"

// Clock provides time to the application.
// Using an interface enables deterministic tests via a controllable implementation.
// Implementations return UTC.
type Clock interface {
	Now() time.Time
}

// Today returns the clock's current calendar date at midnight UTC.
func Today(c Clock) time.Time {
	y, m, d := c.Now().UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
