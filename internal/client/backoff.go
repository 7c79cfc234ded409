package client

import "time"

const (
	baseBackoff       = 2 * time.Second
	maxBackoff        = 10 * time.Second
	maxReconnectTries = 3
)

// backoffDelay doubles from 2s per failed attempt, capped at 10s.
// attempt is 1-based.
func backoffDelay(attempt int) time.Duration {
	d := baseBackoff
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= maxBackoff {
			return maxBackoff
		}
	}
	return d
}
