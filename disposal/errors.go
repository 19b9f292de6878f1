package disposal

import (
	"errors"
	"fmt"
)

// Disposal errors.
var (
	// ErrWaitTimeout is returned by wait closures whose device wait expired.
	ErrWaitTimeout = errors.New("disposal: wait timed out")

	// ErrNilResource is the panic value raised when a nil resource is freed.
	ErrNilResource = errors.New("disposal: nil resource")

	// ErrDoubleFree is the panic value raised by debug builds when a resource
	// is freed twice.
	ErrDoubleFree = errors.New("disposal: resource freed twice")
)

// StalledError reports the batch at the head of the queue whose wait closure
// failed. The batch is still queued.
type StalledError struct {
	// Seq is the push sequence number of the batch, starting at 1.
	Seq uint64

	// Label is the batch label, if any.
	Label string

	// Err is the error returned by the wait closure.
	Err error
}

func (e *StalledError) Error() string {
	if e.Label != "" {
		return fmt.Sprintf("disposal: batch %d (%s) stalled: %v", e.Seq, e.Label, e.Err)
	}
	return fmt.Sprintf("disposal: batch %d stalled: %v", e.Seq, e.Err)
}

func (e *StalledError) Unwrap() error { return e.Err }
