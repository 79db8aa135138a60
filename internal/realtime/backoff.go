package realtime

import "time"

const (
	// MaxReconnectAttempts is the number of automatic reconnects tried after a
	// close before the manager gives up and reports StatusFailed.
	MaxReconnectAttempts = 5

	// HeartbeatInterval is the period of the ping sent while the channel is open.
	HeartbeatInterval = 30 * time.Second

	baseReconnectDelay = time.Second
	maxBackoff         = 30 * time.Second
)

// calculateBackoff doubles base once per failure and caps the result at maxBackoff.
func calculateBackoff(failures int, base time.Duration) time.Duration {
	if failures <= 0 {
		return base
	}
	delay := base
	for i := 0; i < failures; i++ {
		delay *= 2
		if delay >= maxBackoff {
			return maxBackoff
		}
	}
	return delay
}

// ReconnectDelay returns the wait before reconnect attempt n (1-based):
// min(1s·2^n, 30s).
func ReconnectDelay(attempt int) time.Duration {
	return calculateBackoff(attempt, baseReconnectDelay)
}
