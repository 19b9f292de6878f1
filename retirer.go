package retire

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gogpu/wgpu/hal"
	"github.com/hashicorp/go-multierror"

	"github.com/gogpu/retire/disposal"
	"github.com/gogpu/retire/fence"
)

// Device is the part of hal.Device a Retirer uses.
type Device interface {
	CreateFence() (hal.Fence, error)
	DestroyFence(fence hal.Fence)
	Wait(fence hal.Fence, value uint64, timeout time.Duration) (bool, error)
	FreeCommandBuffer(cmdBuffer hal.CommandBuffer)
}

// CommandQueue is the part of hal.Queue a Retirer uses.
type CommandQueue interface {
	Submit(commandBuffers []hal.CommandBuffer, fence hal.Fence, fenceValue uint64) error
}

// Fence is a pooled HAL fence together with its timeline position.
//
// HAL fences are timeline fences: instead of resetting a reused fence, each
// submission signals the next value and waits for that value.
type Fence struct {
	raw   hal.Fence
	value uint64
}

// Raw returns the underlying HAL fence.
func (f *Fence) Raw() hal.Fence { return f.raw }

// Value returns the value of the last submission signaling the fence.
func (f *Fence) Value() uint64 { return f.value }

// fenceDevice creates pooled fences on a HAL device.
type fenceDevice struct {
	device Device
}

func (d fenceDevice) CreateFence() (*Fence, error) {
	raw, err := d.device.CreateFence()
	if err != nil {
		return nil, err
	}
	return &Fence{raw: raw}, nil
}

func (d fenceDevice) DestroyFence(f *Fence) {
	d.device.DestroyFence(f.raw)
}

// Stats combines fence pool and disposal queue statistics.
type Stats struct {
	Fences   fence.Stats
	Disposal disposal.Stats
}

// errNotSignaled drives the polling loop of polled waits.
var errNotSignaled = errors.New("retire: fence not signaled")

// Retirer submits GPU work with pooled fences and retires the resources the
// work used once its fence signals.
//
// Submit may be called from any goroutine when the queue is MultiProducer.
// Flush and Collect are called from one goroutine at a time, unless a Reaper
// was requested with WithReaper, in which case they are routed through it.
//
// A fence goes back to the pool only from the wait closure of its batch,
// after the wait succeeded, so a fence is never recycled while the device
// may still signal it.
type Retirer struct {
	device Device
	queue  CommandQueue

	// mu serializes the fence pool, which is not safe for concurrent use.
	mu   sync.Mutex
	pool *fence.Pool[*Fence]

	disposal *disposal.Queue
	reaper   *Reaper

	waitTimeout time.Duration
	polled      bool
	pollInitial time.Duration
	pollMax     time.Duration

	closed atomic.Bool
}

// New creates a Retirer for the given device and queue.
func New(device Device, queue CommandQueue, opts ...Option) (*Retirer, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	q := o.queue
	if q == nil {
		q = disposal.New(disposal.WithMode(o.mode), disposal.WithName("retire"))
	}
	if o.reaperInterval > 0 && q.Mode() == disposal.SingleThreaded {
		return nil, ErrReaperNeedsLocking
	}

	r := &Retirer{
		device:      device,
		queue:       queue,
		pool:        fence.NewPool[*Fence](fenceDevice{device: device}),
		disposal:    q,
		waitTimeout: o.waitTimeout,
		polled:      o.polled,
		pollInitial: o.pollInitial,
		pollMax:     o.pollMax,
	}

	if o.prewarm > 0 {
		if err := r.pool.Prewarm(o.prewarm); err != nil {
			r.pool.Destroy()
			return nil, fmt.Errorf("retire: prewarm: %w", err)
		}
	}

	if o.reaperInterval > 0 {
		r.reaper = NewReaper(q, o.reaperInterval)
	}
	return r, nil
}

// Queue returns the disposal queue the Retirer pushes to. Producers may push
// their own batches to it, for example resources that were never submitted.
func (r *Retirer) Queue() *disposal.Queue { return r.disposal }

// Submit submits cmds to the device queue with a pooled fence and schedules
// the command buffers and resources for retirement once the fence signals.
// Nothing is freed or waited on here.
func (r *Retirer) Submit(cmds []hal.CommandBuffer, resources ...disposal.Resource) error {
	return r.SubmitBatch(cmds, disposal.NewBatch(nil, resources...))
}

// SubmitBatch is like Submit for a batch built by the caller, for example one
// taken from a disposal.BatchPool. The batch's wait and ready probe are
// replaced by ones bound to the submission's fence; the command buffers are
// freed after the batch's own resources.
//
// If submission fails the batch is not pushed and stays owned by the caller.
func (r *Retirer) SubmitBatch(cmds []hal.CommandBuffer, b *disposal.Batch) error {
	if r.closed.Load() {
		return ErrClosed
	}

	r.mu.Lock()
	f, err := r.pool.Acquire()
	r.mu.Unlock()
	if err != nil {
		return fmt.Errorf("retire: acquire fence: %w", err)
	}

	// Move the timeline past every value the fence has signaled so far.
	f.value++
	value := f.value

	if err := r.queue.Submit(cmds, f.raw, value); err != nil {
		r.release(f)
		return fmt.Errorf("retire: submit: %w", err)
	}

	for _, cmd := range cmds {
		b.Add(commandBufferResource{device: r.device, cmd: cmd})
	}
	b.SetWait(r.waitFunc(f, value))
	b.SetReady(r.readyFunc(f, value))
	r.disposal.Push(b)
	return nil
}

// Flush waits for and frees every pending batch in submission order.
// See disposal.Queue.Flush.
func (r *Retirer) Flush() error {
	if r.reaper != nil {
		return r.reaper.Flush()
	}
	return r.disposal.Flush()
}

// Collect frees the pending batches whose fences have already signaled,
// without blocking. See disposal.Queue.Collect.
func (r *Retirer) Collect() (int, error) {
	if r.reaper != nil {
		return r.reaper.Collect()
	}
	return r.disposal.Collect()
}

// Stats returns fence pool and disposal queue statistics.
func (r *Retirer) Stats() Stats {
	r.mu.Lock()
	fs := r.pool.Stats()
	r.mu.Unlock()
	return Stats{Fences: fs, Disposal: r.disposal.Stats()}
}

// Close flushes all pending batches and destroys the pooled fences.
// If the flush stalls, fences still in flight are left alive and the error
// reports both conditions. Close is safe to call multiple times.
func (r *Retirer) Close() error {
	if !r.closed.CompareAndSwap(false, true) {
		return nil
	}

	var result *multierror.Error

	var flushErr error
	if r.reaper != nil {
		flushErr = r.reaper.Close()
	} else {
		flushErr = r.disposal.Flush()
	}
	if flushErr != nil {
		result = multierror.Append(result, fmt.Errorf("retire: final flush: %w", flushErr))
	}

	r.mu.Lock()
	if inFlight := r.pool.Stats().InFlight; inFlight > 0 {
		result = multierror.Append(result, fmt.Errorf("%w: %d", ErrFencesInFlight, inFlight))
	} else {
		r.pool.Destroy()
	}
	r.mu.Unlock()

	return result.ErrorOrNil()
}

// release returns a fence to the pool.
func (r *Retirer) release(f *Fence) {
	r.mu.Lock()
	r.pool.Release(f)
	r.mu.Unlock()
}

// waitFunc returns the wait closure of a batch submitted with f at value.
// The fence is released only after the wait succeeded.
func (r *Retirer) waitFunc(f *Fence, value uint64) disposal.WaitFunc {
	return func() error {
		ok, err := r.waitFence(f.raw, value)
		if err != nil {
			return fmt.Errorf("retire: wait fence: %w", err)
		}
		if !ok {
			return fmt.Errorf("%w after %v", disposal.ErrWaitTimeout, r.waitTimeout)
		}
		r.release(f)
		return nil
	}
}

// readyFunc returns the non-blocking probe of a batch submitted with f at value.
func (r *Retirer) readyFunc(f *Fence, value uint64) disposal.ReadyFunc {
	return func() bool {
		ok, err := r.device.Wait(f.raw, value, 0)
		return err == nil && ok
	}
}

// waitFence waits until the fence reaches value or the wait timeout expires.
func (r *Retirer) waitFence(raw hal.Fence, value uint64) (bool, error) {
	if r.polled {
		return r.pollFence(raw, value)
	}
	timeout := r.waitTimeout
	if timeout <= 0 {
		timeout = time.Duration(math.MaxInt64)
	}
	return r.device.Wait(raw, value, timeout)
}

// pollFence polls the fence with zero-timeout waits spaced by exponential
// backoff.
func (r *Retirer) pollFence(raw hal.Fence, value uint64) (bool, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.pollInitial
	b.MaxInterval = r.pollMax
	b.MaxElapsedTime = max(r.waitTimeout, 0)

	err := backoff.Retry(func() error {
		ok, err := r.device.Wait(raw, value, 0)
		if err != nil {
			return backoff.Permanent(err)
		}
		if !ok {
			return errNotSignaled
		}
		return nil
	}, b)

	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, errNotSignaled):
		return false, nil
	default:
		return false, err
	}
}
