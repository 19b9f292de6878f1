package retire

import "errors"

// Retirer errors.
var (
	// ErrClosed is returned when submitting to a closed Retirer.
	ErrClosed = errors.New("retire: retirer closed")

	// ErrNoHALProvider is returned when a device provider does not expose
	// HAL device and queue.
	ErrNoHALProvider = errors.New("retire: provider does not expose HAL types")

	// ErrFencesInFlight is returned by Close when fences are still pending
	// after the final flush. They are not destroyed.
	ErrFencesInFlight = errors.New("retire: fences still in flight")

	// ErrReaperNeedsLocking is returned when a Reaper is requested for a
	// single-threaded queue. The reaper flushes from its own goroutine.
	ErrReaperNeedsLocking = errors.New("retire: reaper requires a MultiProducer queue")

	// ErrReaperClosed is returned when a request reaches a stopped Reaper.
	ErrReaperClosed = errors.New("retire: reaper closed")
)
