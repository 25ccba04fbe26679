package clock

import "time"

// NowFunc returns current time. Override in tests for determinism.
var NowFunc = time.Now

// Now returns the current UTC time truncated to microseconds so that values
// round-trip through JSON checkpoints and Postgres timestamps unchanged.
func Now() time.Time { return NowFunc().UTC().Truncate(time.Microsecond) }

// Freeze pins Now to t and returns a function restoring the previous clock.
func Freeze(t time.Time) (restore func()) {
	prev := NowFunc
	NowFunc = func() time.Time { return t }
	return func() { NowFunc = prev }
}
