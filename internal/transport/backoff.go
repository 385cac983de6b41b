package transport

import "time"

// Backoff computes reconnect delays: Base * 2^(attempt-1) for attempts
// 1..MaxAttempts.
type Backoff struct {
	Base        time.Duration
	MaxAttempts int
}

// DefaultBackoff is 1s, 2s, 4s, 8s, 16s and then give up.
func DefaultBackoff() Backoff {
	return Backoff{Base: time.Second, MaxAttempts: 5}
}

// Delay returns the wait before attempt. ok is false once attempt exceeds
// MaxAttempts.
func (b Backoff) Delay(attempt int) (time.Duration, bool) {
	if attempt < 1 || attempt > b.MaxAttempts {
		return 0, false
	}
	shift := attempt - 1
	if shift > 30 {
		shift = 30
	}
	return b.Base << uint(shift), true
}
