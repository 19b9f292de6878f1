package retire

import (
	"time"

	"github.com/gogpu/retire/disposal"
)

// DefaultWaitTimeout is the longest a retirement wait blocks on one fence.
const DefaultWaitTimeout = 5 * time.Second

// Default polling intervals for WithPolledWait.
const (
	DefaultPollInitial = 50 * time.Microsecond
	DefaultPollMax     = 2 * time.Millisecond
)

// Option configures a Retirer during creation.
//
// Example:
//
//	// Render-thread-only retirer with eight warm fences
//	r, err := retire.New(device, queue,
//	    retire.WithMode(disposal.SingleThreaded),
//	    retire.WithPrewarm(8))
type Option func(*options)

// options holds optional configuration for Retirer creation.
type options struct {
	waitTimeout time.Duration

	polled      bool
	pollInitial time.Duration
	pollMax     time.Duration

	prewarm int
	queue   *disposal.Queue
	mode    disposal.Mode

	reaperInterval time.Duration
}

// defaultOptions returns the default retirer options.
func defaultOptions() options {
	return options{
		waitTimeout: DefaultWaitTimeout,
		pollInitial: DefaultPollInitial,
		pollMax:     DefaultPollMax,
		mode:        disposal.MultiProducer,
	}
}

// WithWaitTimeout bounds each fence wait during Flush. When it expires Flush
// stops with a *disposal.StalledError wrapping disposal.ErrWaitTimeout and
// the batch stays queued. Zero or negative waits without limit.
func WithWaitTimeout(d time.Duration) Option {
	return func(o *options) {
		o.waitTimeout = d
	}
}

// WithPolledWait replaces the blocking fence wait with zero-timeout polls
// spaced by exponential backoff from initial up to maxInterval. The wait timeout
// still bounds the total. Non-positive intervals keep the defaults.
func WithPolledWait(initial, maxInterval time.Duration) Option {
	return func(o *options) {
		o.polled = true
		if initial > 0 {
			o.pollInitial = initial
		}
		if maxInterval > 0 {
			o.pollMax = maxInterval
		}
	}
}

// WithPrewarm creates n fences when the Retirer is created.
func WithPrewarm(n int) Option {
	return func(o *options) {
		o.prewarm = n
	}
}

// WithQueue makes the Retirer push batches to an existing queue instead of
// creating its own. The Retirer still flushes it.
func WithQueue(q *disposal.Queue) Option {
	return func(o *options) {
		o.queue = q
	}
}

// WithMode sets the locking strategy of the queue the Retirer creates.
// Ignored with WithQueue.
func WithMode(m disposal.Mode) Option {
	return func(o *options) {
		o.mode = m
	}
}

// WithReaper starts a Reaper that collects completed batches every interval.
// While it runs, Flush and Collect are routed through it so it stays the
// only flusher.
func WithReaper(interval time.Duration) Option {
	return func(o *options) {
		o.reaperInterval = interval
	}
}
