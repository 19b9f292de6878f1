package disposal

// Resource is a device allocation whose lifetime must outlast the device's
// last use of it.
//
// Free releases the device-side allocation. It is called exactly once, by
// the queue that owns the batch holding the resource.
type Resource interface {
	Free()
}

// ResourceFunc adapts an ordinary function to the Resource interface.
type ResourceFunc func()

// Free calls f.
func (f ResourceFunc) Free() { f() }

// WaitFunc blocks until the resources of a batch are safe to free.
// A non-nil error leaves the batch at the head of the queue.
type WaitFunc func() error

// ReadyFunc reports, without blocking, whether a batch's wait would return
// immediately.
type ReadyFunc func() bool
