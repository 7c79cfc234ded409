package client

import (
	"testing"
	"time"
)

func TestTransitionTable(t *testing.T) {
	cases := []struct {
		from ConnState
		ev   ConnEvent
		want ConnState
		ok   bool
	}{
		{StateDisconnected, EventDial, StateConnecting, true},
		{StateConnecting, EventSocketOpen, StateHandshaking, true},
		{StateConnecting, EventUncleanClose, StateReconnecting, true},
		{StateHandshaking, EventHandshakeDone, StateConnected, true},
		{StateHandshaking, EventUncleanClose, StateReconnecting, true},
		{StateConnected, EventCleanClose, StateDisconnected, true},
		{StateConnected, EventUncleanClose, StateReconnecting, true},
		{StateReconnecting, EventRetry, StateConnecting, true},
		{StateReconnecting, EventGiveUp, StateError, true},
		{StateError, EventDial, StateConnecting, true},

		// nonsense events are rejected, never applied
		{StateDisconnected, EventHandshakeDone, StateDisconnected, false},
		{StateConnected, EventRetry, StateConnected, false},
		{StateError, EventRetry, StateError, false},
		{StateConnecting, EventGiveUp, StateConnecting, false},
	}

	for _, tc := range cases {
		got, ok := Transition(tc.from, tc.ev)
		if got != tc.want || ok != tc.ok {
			t.Fatalf("Transition(%s, %s) = (%s, %v); want (%s, %v)",
				tc.from, tc.ev, got, ok, tc.want, tc.ok)
		}
	}
}

func TestCloseWinsFromAnyState(t *testing.T) {
	for _, s := range []ConnState{
		StateDisconnected, StateConnecting, StateHandshaking,
		StateConnected, StateReconnecting, StateError,
	} {
		got, ok := Transition(s, EventClose)
		if got != StateDisconnected || !ok {
			t.Fatalf("Close from %s = (%s, %v)", s, got, ok)
		}
	}
}

func TestBackoffDelays(t *testing.T) {
	cases := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
		{4, 10 * time.Second}, // capped
		{10, 10 * time.Second},
	}
	for _, tc := range cases {
		if got := backoffDelay(tc.attempt); got != tc.want {
			t.Fatalf("backoffDelay(%d) = %s; want %s", tc.attempt, got, tc.want)
		}
	}
}
