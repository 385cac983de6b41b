// Package clock abstracts time so TTL expiry and reconnect backoff can be
// driven deterministically in tests.
package clock

import "time"

// Timer is a scheduled callback that can be cancelled.
// Stop reports whether the call prevented the callback from running.
type Timer interface {
	Stop() bool
}

// Clock provides the current time and one-shot scheduling.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// Real is the wall clock backed by the time package.
type Real struct{}

// Now returns the current wall time.
func (Real) Now() time.Time { return time.Now() }

// AfterFunc runs f in its own goroutine after d elapses.
func (Real) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// OrReal returns c, or the wall clock when c is nil.
func OrReal(c Clock) Clock {
	if c == nil {
		return Real{}
	}
	return c
}
