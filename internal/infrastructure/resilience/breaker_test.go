package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/AgentOS/uistream/internal/shared/clock"
)

var errFailed = errors.New("failed")

func fail() (string, error)    { return "", errFailed }
func succeed() (string, error) { return "ok", nil }

func newBreaker(clk clock.Clock, trip uint32, settings Settings) *Breaker {
	settings.Clock = clk
	settings.ReadyToTrip = func(counts Counts) bool {
		return counts.ConsecutiveFailures >= trip
	}
	return New("signer", settings)
}

func TestBreakerStateTransitions(t *testing.T) {
	tests := []struct {
		name          string
		requests      []bool // true = success, false = failure
		expectedState State
	}{
		{
			name:          "stays closed on successes",
			requests:      []bool{true, true, true},
			expectedState: StateClosed,
		},
		{
			name:          "opens after consecutive failures",
			requests:      []bool{false, false, false},
			expectedState: StateOpen,
		},
		{
			name:          "success resets the failure streak",
			requests:      []bool{false, false, true, false, false},
			expectedState: StateClosed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			breaker := newBreaker(clock.NewFake(time.Unix(0, 0)), 3, Settings{})

			for _, success := range tt.requests {
				req := fail
				if success {
					req = succeed
				}
				_, _ = Call(breaker, req)
			}

			assert.Equal(t, tt.expectedState, breaker.State())
		})
	}
}

func TestBreakerCounts(t *testing.T) {
	breaker := New("test", Settings{Clock: clock.NewFake(time.Unix(0, 0))})

	v, err := Call(breaker, succeed)
	require.NoError(t, err)
	assert.Equal(t, "ok", v)

	counts := breaker.Counts()
	assert.Equal(t, uint32(1), counts.Requests)
	assert.Equal(t, uint32(1), counts.TotalSuccesses)
	assert.Equal(t, uint32(1), counts.ConsecutiveSuccesses)

	_, err = Call(breaker, fail)
	assert.ErrorIs(t, err, errFailed)

	counts = breaker.Counts()
	assert.Equal(t, uint32(2), counts.Requests)
	assert.Equal(t, uint32(1), counts.TotalFailures)
	assert.Equal(t, uint32(1), counts.ConsecutiveFailures)
	assert.Equal(t, uint32(0), counts.ConsecutiveSuccesses)
}

func TestBreakerOpenRejectsImmediately(t *testing.T) {
	breaker := newBreaker(clock.NewFake(time.Unix(0, 0)), 2, Settings{})

	for i := 0; i < 2; i++ {
		_, _ = Call(breaker, fail)
	}
	require.Equal(t, StateOpen, breaker.State())

	called := false
	_, err := Call(breaker, func() (string, error) {
		called = true
		return "ok", nil
	})
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called)
}

func TestBreakerHalfOpenRecovers(t *testing.T) {
	clk := clock.NewFake(time.Unix(0, 0))
	breaker := newBreaker(clk, 2, Settings{MaxRequests: 2, Timeout: 30 * time.Second})

	for i := 0; i < 2; i++ {
		_, _ = Call(breaker, fail)
	}
	assert.Equal(t, StateOpen, breaker.State())

	clk.Advance(29 * time.Second)
	assert.Equal(t, StateOpen, breaker.State())

	clk.Advance(time.Second)
	assert.Equal(t, StateHalfOpen, breaker.State())

	for i := 0; i < 2; i++ {
		_, err := Call(breaker, succeed)
		require.NoError(t, err)
	}
	assert.Equal(t, StateClosed, breaker.State())
}

func TestBreakerHalfOpenFailureReopens(t *testing.T) {
	clk := clock.NewFake(time.Unix(0, 0))
	breaker := newBreaker(clk, 1, Settings{Timeout: time.Second})

	_, _ = Call(breaker, fail)
	clk.Advance(time.Second)
	require.Equal(t, StateHalfOpen, breaker.State())

	_, _ = Call(breaker, fail)
	assert.Equal(t, StateOpen, breaker.State())
}

func TestBreakerCancellationIsNotAFailure(t *testing.T) {
	breaker := newBreaker(clock.NewFake(time.Unix(0, 0)), 1, Settings{})

	_, err := Call(breaker, func() (string, error) {
		return "", context.Canceled
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StateClosed, breaker.State())
}

func TestBreakerCallbacks(t *testing.T) {
	var transitions []string
	clk := clock.NewFake(time.Unix(0, 0))

	breaker := newBreaker(clk, 2, Settings{
		Timeout: 10 * time.Second,
		OnStateChange: func(name string, from State, to State) {
			transitions = append(transitions, name+":"+from.String()+"->"+to.String())
		},
	})

	for i := 0; i < 2; i++ {
		_, _ = Call(breaker, fail)
	}
	clk.Advance(10 * time.Second)
	assert.Equal(t, StateHalfOpen, breaker.State())

	assert.Equal(t, []string{"signer:closed->open", "signer:open->half-open"}, transitions)
}
