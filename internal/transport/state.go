package transport

import "time"

// State is the connection lifecycle state.
type State int

const (
	// StateIdle: no socket and no reconnect pending.
	StateIdle State = iota
	// StateConnecting: signing or dialing is in flight.
	StateConnecting
	// StateOpen: the socket is open and frames are flowing.
	StateOpen
	// StateClosed: the socket dropped and a reconnect is scheduled.
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Disconnect describes why an open connection ended, or why the client gave up.
type Disconnect struct {
	ConnectionID string
	Code         int
	Reason       string
	Err          error

	// Deliberate is set when the caller asked for the disconnect.
	Deliberate bool
	// Terminal is set when reconnect attempts are exhausted. The client is
	// Idle and waits for an explicit Connect.
	Terminal bool

	// Attempt and Delay describe the scheduled reconnect, if any.
	Attempt int
	Delay   time.Duration
}
