package disposal

import (
	"fmt"
	"sync"
)

// Mode selects the locking strategy of a Queue.
type Mode int

const (
	// MultiProducer makes Push safe from any goroutine. One goroutine flushes.
	MultiProducer Mode = iota

	// SingleThreaded disables internal locking. Every call happens on one
	// goroutine.
	SingleThreaded
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case MultiProducer:
		return "MultiProducer"
	case SingleThreaded:
		return "SingleThreaded"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// locker returns the sync.Locker implementing the mode.
func (m Mode) locker() sync.Locker {
	if m == SingleThreaded {
		return nopLocker{}
	}
	return &sync.Mutex{}
}

// nopLocker is the lock of single-threaded queues.
type nopLocker struct{}

func (nopLocker) Lock()   {}
func (nopLocker) Unlock() {}

// Option configures a Queue during creation.
//
// Example:
//
//	// Render-thread-only queue
//	q := disposal.New(disposal.WithMode(disposal.SingleThreaded))
type Option func(*options)

// options holds optional configuration for Queue creation.
type options struct {
	mode Mode
	name string
}

// defaultOptions returns the default queue options.
func defaultOptions() options {
	return options{mode: MultiProducer}
}

// WithMode sets the locking strategy. The default is MultiProducer.
func WithMode(m Mode) Option {
	return func(o *options) {
		o.mode = m
	}
}

// WithName sets the queue name attached to log records.
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}
