package transport

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBackoffDelays(t *testing.T) {
	b := DefaultBackoff()

	var got []time.Duration
	for attempt := 1; ; attempt++ {
		d, ok := b.Delay(attempt)
		if !ok {
			break
		}
		got = append(got, d)
	}

	assert.Equal(t, []time.Duration{
		time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second, 16 * time.Second,
	}, got)
}

func TestBackoffBounds(t *testing.T) {
	b := Backoff{Base: 100 * time.Millisecond, MaxAttempts: 3}

	_, ok := b.Delay(0)
	assert.False(t, ok)
	_, ok = b.Delay(4)
	assert.False(t, ok)

	d, ok := b.Delay(3)
	assert.True(t, ok)
	assert.Equal(t, 400*time.Millisecond, d)

	huge := Backoff{Base: time.Nanosecond, MaxAttempts: 100}
	d, ok = huge.Delay(100)
	assert.True(t, ok)
	assert.Equal(t, time.Nanosecond<<30, d)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "connecting", StateConnecting.String())
	assert.Equal(t, "open", StateOpen.String())
	assert.Equal(t, "closed", StateClosed.String())
	assert.Equal(t, "unknown", State(42).String())
}
