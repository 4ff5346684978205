package lifecycle

import "time"

// Clock is the time source for polling. Production code uses RealClock;
// tests substitute a clock that advances instantly.
type Clock interface {
	Now() time.Time
	// After delivers the current time once d has elapsed.
	After(d time.Duration) <-chan time.Time
}

// RealClock returns a Clock backed by the time package.
func RealClock() Clock { return realClock{} }

type realClock struct{}

func (realClock) Now() time.Time                         { return time.Now() }
func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }
