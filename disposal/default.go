package disposal

import "sync"

var (
	defaultOnce  sync.Once
	defaultQueue *Queue

	shutdownOnce sync.Once
	shutdownErr  error
)

// Default returns the process-wide queue, creating it on first use.
//
// Prefer an explicit Queue owned by the submission subsystem. Default exists
// for code that has no way to receive one. It is a MultiProducer queue; the
// caller that owns the render loop is its only flusher.
func Default() *Queue {
	defaultOnce.Do(func() {
		defaultQueue = New(WithMode(MultiProducer), WithName("default"))
	})
	return defaultQueue
}

// ShutdownDefault flushes the process-wide queue once, at shutdown. Later
// calls return the result of the first one. Batches pushed afterwards are
// not flushed unless Default().Flush is called again; if the process exits
// first they are abandoned.
func ShutdownDefault() error {
	shutdownOnce.Do(func() {
		shutdownErr = Default().Flush()
	})
	return shutdownErr
}
