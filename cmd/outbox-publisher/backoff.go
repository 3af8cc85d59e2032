package main

import (
	"math/rand/v2"
	"time"
)

const jitterWindow = 250 * time.Millisecond

// pollBackoff doubles the pause after each failed batch and adds jitter so
// replicas do not poll in lockstep.
type pollBackoff struct {
	base    time.Duration
	ceiling time.Duration
	current time.Duration
}

func newPollBackoff(base, ceiling time.Duration) *pollBackoff {
	if base <= 0 {
		base = fallbackPoll
	}
	return &pollBackoff{base: base, ceiling: ceiling, current: base}
}

func (b *pollBackoff) fail() time.Duration {
	b.current = min(b.current*2, b.ceiling)
	return jitter(b.current)
}

func (b *pollBackoff) idle() time.Duration {
	return jitter(b.base)
}

func (b *pollBackoff) reset() {
	b.current = b.base
}

func jitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	return d + rand.N(jitterWindow)
}
