package client

// ConnState is the lifecycle of one managed websocket connection. All
// transitions are pure so the policy can be tested without sockets.
type ConnState string

const (
	StateDisconnected ConnState = "disconnected"
	StateConnecting   ConnState = "connecting"
	StateHandshaking  ConnState = "handshaking"
	StateConnected    ConnState = "connected"
	StateReconnecting ConnState = "reconnecting"
	StateError        ConnState = "error"
)

// Terminal reports whether the connection will make no further progress
// on its own.
func (s ConnState) Terminal() bool {
	return s == StateDisconnected || s == StateError
}

type ConnEvent string

const (
	EventDial          ConnEvent = "dial"           // caller asked to connect
	EventSocketOpen    ConnEvent = "socket_open"    // TCP/WS upgrade done
	EventHandshakeDone ConnEvent = "handshake_done" // ready received
	EventCleanClose    ConnEvent = "clean_close"    // close code 1000
	EventUncleanClose  ConnEvent = "unclean_close"  // any other failure
	EventRetry         ConnEvent = "retry"          // backoff timer fired
	EventGiveUp        ConnEvent = "give_up"        // retry budget exhausted
	EventClose         ConnEvent = "close"          // caller called Close
)

// Transition returns the next state for (state, event). The second return
// is false when the event is not meaningful in that state; callers treat
// that as a no-op, never a panic.
func Transition(s ConnState, e ConnEvent) (ConnState, bool) {
	// Close wins from anywhere.
	if e == EventClose {
		return StateDisconnected, true
	}

	switch s {
	case StateDisconnected:
		if e == EventDial {
			return StateConnecting, true
		}
	case StateConnecting:
		switch e {
		case EventSocketOpen:
			return StateHandshaking, true
		case EventUncleanClose:
			return StateReconnecting, true
		}
	case StateHandshaking:
		switch e {
		case EventHandshakeDone:
			return StateConnected, true
		case EventUncleanClose:
			return StateReconnecting, true
		case EventCleanClose:
			return StateDisconnected, true
		}
	case StateConnected:
		switch e {
		case EventCleanClose:
			return StateDisconnected, true
		case EventUncleanClose:
			return StateReconnecting, true
		}
	case StateReconnecting:
		switch e {
		case EventRetry:
			return StateConnecting, true
		case EventGiveUp:
			return StateError, true
		}
	case StateError:
		// terminal until the caller dials a fresh connection
		if e == EventDial {
			return StateConnecting, true
		}
	}
	return s, false
}
