package infra

import (
	"time"
)

const (
	// A dead feed means quoting blind, so the first retries are fast.
	reconnectBase = 500 * time.Millisecond
	reconnectCap  = 20 * time.Second
)

// ReconnectDelay returns how long to wait before reconnect attempt n.
// Doubles per attempt from reconnectBase up to reconnectCap; attempt
// numbers below zero get the base delay.
func ReconnectDelay(attempt int) time.Duration {
	if attempt < 0 {
		return reconnectBase
	}

	// 2^26 * 500ms already exceeds the cap, no shift overflow possible.
	if attempt > 26 {
		return reconnectCap
	}

	d := reconnectBase << uint(attempt)
	if d > reconnectCap {
		return reconnectCap
	}
	return d
}
