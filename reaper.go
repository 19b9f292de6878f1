package retire

import (
	"sync"
	"sync/atomic"
	"time"
)

// Flusher is a disposal queue as seen by a Reaper. *disposal.Queue
// implements it.
type Flusher interface {
	Flush() error
	Collect() (int, error)
}

// reaperRequest runs on the reaper goroutine and reports back on done.
type reaperRequest struct {
	run  func() (int, error)
	done chan reaperResult
}

type reaperResult struct {
	n   int
	err error
}

// Reaper is a background goroutine that is the only flusher of a queue.
//
// Every interval it collects batches whose work has completed. Flush and
// Collect requests from other goroutines are executed on the reaper
// goroutine, so the queue never sees two flushers at once. Close stops the
// goroutine and flushes whatever is left.
//
// Thread safety: Reaper is safe for concurrent use.
type Reaper struct {
	target   Flusher
	interval time.Duration

	// requests carries Flush and Collect calls to the reaper goroutine.
	requests chan reaperRequest

	// done signals the reaper goroutine to stop.
	done chan struct{}

	// wg waits for the reaper goroutine to finish.
	wg sync.WaitGroup

	// running indicates whether the reaper is accepting requests.
	running atomic.Bool

	// lastErr is the most recent error from a periodic collect.
	mu      sync.Mutex
	lastErr error
}

// NewReaper starts a reaper collecting target every interval.
// A non-positive interval defaults to one millisecond.
func NewReaper(target Flusher, interval time.Duration) *Reaper {
	if interval <= 0 {
		interval = time.Millisecond
	}

	r := &Reaper{
		target:   target,
		interval: interval,
		requests: make(chan reaperRequest),
		done:     make(chan struct{}),
	}
	r.running.Store(true)

	r.wg.Add(1)
	go r.loop()

	Logger().Info("retire: reaper started", "interval", interval)
	return r
}

// loop is the main loop of the reaper goroutine.
func (r *Reaper) loop() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.done:
			return

		case req := <-r.requests:
			n, err := req.run()
			req.done <- reaperResult{n: n, err: err}

		case <-ticker.C:
			if _, err := r.target.Collect(); err != nil {
				r.mu.Lock()
				r.lastErr = err
				r.mu.Unlock()
			}
		}
	}
}

// do runs fn on the reaper goroutine and waits for its result.
func (r *Reaper) do(fn func() (int, error)) (int, error) {
	if !r.running.Load() {
		return 0, ErrReaperClosed
	}

	req := reaperRequest{run: fn, done: make(chan reaperResult, 1)}
	select {
	case r.requests <- req:
	case <-r.done:
		return 0, ErrReaperClosed
	}
	res := <-req.done
	return res.n, res.err
}

// Flush flushes the target on the reaper goroutine and returns its result.
func (r *Reaper) Flush() error {
	_, err := r.do(func() (int, error) {
		return 0, r.target.Flush()
	})
	return err
}

// Collect collects the target on the reaper goroutine and returns its result.
func (r *Reaper) Collect() (int, error) {
	return r.do(r.target.Collect)
}

// LastError returns the most recent error of a periodic collect, or nil.
func (r *Reaper) LastError() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastErr
}

// IsRunning returns true if the reaper still accepts requests.
func (r *Reaper) IsRunning() bool {
	return r.running.Load()
}

// Close stops the reaper goroutine and flushes the target one last time on
// the calling goroutine. Close is safe to call multiple times; only the
// first call flushes.
func (r *Reaper) Close() error {
	if !r.running.CompareAndSwap(true, false) {
		return nil
	}

	close(r.done)
	r.wg.Wait()

	Logger().Info("retire: reaper stopped")
	return r.target.Flush()
}
