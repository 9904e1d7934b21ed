package retry

import (
	"math/rand"
	"time"
)

// Options configures the backoff behavior
type Options struct {
	// InitialDelay is the delay after the first failure
	InitialDelay time.Duration

	// MaxDelay is the maximum delay between attempts
	MaxDelay time.Duration

	// BackoffFactor is the factor by which the delay increases after each failure
	BackoffFactor float64

	// JitterFactor adds randomness to the delay (0.0 = no jitter, 1.0 = 100% jitter)
	JitterFactor float64
}

// DefaultOptions returns default backoff options
func DefaultOptions() Options {
	return Options{
		InitialDelay:  5 * time.Millisecond,
		MaxDelay:      time.Second,
		BackoffFactor: 2.0,
		JitterFactor:  0.1,
	}
}

// Backoff hands out growing delays for consecutive failures.
// It is not safe for concurrent use; each loop owns its own Backoff.
type Backoff struct {
	opts     Options
	delay    time.Duration
	attempts int
	rnd      *rand.Rand
}

// NewBackoff creates a backoff sequence starting at opts.InitialDelay
func NewBackoff(opts Options) *Backoff {
	if opts.BackoffFactor < 1 {
		opts.BackoffFactor = 1
	}
	return &Backoff{
		opts: opts,
		rnd:  rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Next returns the delay to wait before the next attempt
func (b *Backoff) Next() time.Duration {
	if b.attempts == 0 {
		b.delay = b.opts.InitialDelay
	} else {
		// Apply exponential backoff
		b.delay = time.Duration(float64(b.delay) * b.opts.BackoffFactor)
	}

	// Cap at MaxDelay
	if b.opts.MaxDelay > 0 && b.delay > b.opts.MaxDelay {
		b.delay = b.opts.MaxDelay
	}
	b.attempts++

	delay := b.delay
	if b.opts.JitterFactor > 0 {
		jitter := float64(delay) * b.opts.JitterFactor
		delay = time.Duration(float64(delay) + (b.rnd.Float64()*jitter*2 - jitter))
	}
	if delay < 0 {
		delay = 0
	}
	return delay
}

// Reset starts the sequence over, typically after a success
func (b *Backoff) Reset() {
	b.attempts = 0
	b.delay = 0
}

// Attempts returns the number of delays handed out since the last Reset
func (b *Backoff) Attempts() int {
	return b.attempts
}
