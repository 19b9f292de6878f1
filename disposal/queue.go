package disposal

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/eapache/queue"
	"golang.org/x/sys/cpu"

	"github.com/gogpu/retire/internal/logging"
)

// Stats contains disposal queue counters.
type Stats struct {
	// Pushed is the total number of batches pushed.
	Pushed uint64

	// Retired is the total number of batches whose resources were freed.
	Retired uint64

	// Freed is the total number of resources freed.
	Freed uint64

	// Pending is the number of batches waiting in the queue.
	Pending int
}

// counters keeps producer-side and flusher-side counters on separate cache
// lines.
type counters struct {
	pushed atomic.Uint64
	_      cpu.CacheLinePad

	retired atomic.Uint64
	freed   atomic.Uint64
}

// Queue is a FIFO of retirement batches.
//
// In MultiProducer mode Push may be called concurrently from any goroutine.
// Flush and Collect must be called from one goroutine at a time in every mode.
type Queue struct {
	mu    sync.Locker
	items *queue.Queue // of *Batch, guarded by mu
	seq   uint64       // guarded by mu

	mode  Mode
	name  string
	stats counters
}

// New creates an empty queue.
func New(opts ...Option) *Queue {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Queue{
		mu:    o.mode.locker(),
		items: queue.New(),
		mode:  o.mode,
		name:  o.name,
	}
}

// Mode returns the locking strategy of the queue.
func (q *Queue) Mode() Mode { return q.mode }

// Push appends b to the tail of the queue and transfers its ownership to the
// queue. Nothing is waited on or freed. Pushing nil is a no-op; pushing the
// same batch twice panics.
func (q *Queue) Push(b *Batch) {
	if b == nil {
		return
	}

	q.mu.Lock()
	if b.queued {
		q.mu.Unlock()
		panic("disposal: batch pushed twice")
	}
	b.queued = true
	q.seq++
	b.seq = q.seq
	q.items.Add(b)
	q.mu.Unlock()

	q.stats.pushed.Add(1)
}

// Defer pushes a new batch holding resources guarded by wait.
func (q *Queue) Defer(wait WaitFunc, resources ...Resource) {
	q.Push(NewBatch(wait, resources...))
}

// Flush retires every queued batch in push order. For each batch the wait
// closure runs first and may block for as long as the device needs; then the
// resources are freed in the order they were added.
//
// Batches pushed while Flush runs are retired by the same call. If a wait
// closure fails, Flush stops and returns a *StalledError; that batch and all
// later ones stay queued.
func (q *Queue) Flush() error {
	for {
		b, ok := q.peek()
		if !ok {
			return nil
		}
		if err := b.runWait(); err != nil {
			return q.stalled(b, err)
		}
		q.pop()
		q.retire(b)
	}
}

// Collect retires batches from the head whose work is already complete,
// without blocking on the device. It stops at the first batch that is not
// ready. A batch is ready if it has no wait closure or its ready probe
// reports true; a batch with a wait closure and no probe is never ready.
//
// Collect returns the number of batches retired.
func (q *Queue) Collect() (int, error) {
	n := 0
	for {
		b, ok := q.peek()
		if !ok || !b.isReady() {
			return n, nil
		}
		if err := b.runWait(); err != nil {
			return n, q.stalled(b, err)
		}
		q.pop()
		q.retire(b)
		n++
	}
}

// Len returns the number of queued batches.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.items.Length()
}

// Stats returns the queue counters.
func (q *Queue) Stats() Stats {
	return Stats{
		Pushed:  q.stats.pushed.Load(),
		Retired: q.stats.retired.Load(),
		Freed:   q.stats.freed.Load(),
		Pending: q.Len(),
	}
}

// peek returns the head batch without removing it.
func (q *Queue) peek() (*Batch, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.items.Length() == 0 {
		return nil, false
	}
	return q.items.Peek().(*Batch), true
}

// pop removes the head batch. Only the flusher calls it, right after peek
// returned that batch, so producers appending to the tail cannot change
// which batch is removed.
func (q *Queue) pop() {
	q.mu.Lock()
	q.items.Remove()
	q.mu.Unlock()
}

// retire frees the resources of a dequeued batch and recycles the batch.
func (q *Queue) retire(b *Batch) {
	seq, label := b.seq, b.Label
	n := b.free()

	q.stats.retired.Add(1)
	q.stats.freed.Add(uint64(n))

	logging.Logger().Debug("disposal: batch retired",
		q.nameAttr(),
		"seq", seq,
		"label", label,
		"resources", n)

	if b.pool != nil {
		b.pool.Put(b)
	}
}

// stalled builds the error for a failed wait and logs it.
func (q *Queue) stalled(b *Batch, err error) error {
	logging.Logger().Warn("disposal: flush stalled",
		q.nameAttr(),
		"seq", b.seq,
		"label", b.Label,
		"err", err)
	return &StalledError{Seq: b.seq, Label: b.Label, Err: err}
}

func (q *Queue) nameAttr() slog.Attr {
	return slog.String("queue", q.name)
}
