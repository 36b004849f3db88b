package connection

import "time"

// Backoff walks a fixed delay schedule, holding at the last entry.
type Backoff struct {
	delays []time.Duration
	n      int
}

// NewBackoff creates a Backoff over delays. An empty schedule retries
// immediately.
func NewBackoff(delays []time.Duration) *Backoff {
	return &Backoff{delays: delays}
}

// Next returns the delay for the current attempt and advances.
func (b *Backoff) Next() time.Duration {
	if len(b.delays) == 0 {
		b.n++
		return 0
	}

	i := min(b.n, len(b.delays)-1)
	b.n++
	return b.delays[i]
}

// Reset restarts the schedule.
func (b *Backoff) Reset() {
	b.n = 0
}

// Attempts returns the number of delays handed out since the last reset.
func (b *Backoff) Attempts() int {
	return b.n
}
