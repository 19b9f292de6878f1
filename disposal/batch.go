package disposal

// Batch is a set of resources retired together, plus an optional wait that
// guards them.
//
// A Batch is built by the goroutine that submits the GPU work and handed to a
// Queue with Push. After Push the queue owns it.
type Batch struct {
	// Label names the batch in logs and stall errors.
	Label string

	resources []Resource
	wait      WaitFunc
	ready     ReadyFunc

	seq    uint64
	queued bool
	pool   *BatchPool
}

// NewBatch creates a batch guarded by wait holding resources in order.
// A nil wait means the resources are already safe to free.
func NewBatch(wait WaitFunc, resources ...Resource) *Batch {
	b := &Batch{wait: wait}
	b.resources = append(b.resources, resources...)
	return b
}

// Add appends resources to the batch. They are freed after the ones added
// before them.
func (b *Batch) Add(resources ...Resource) *Batch {
	b.resources = append(b.resources, resources...)
	return b
}

// AddFunc appends a function to run at free time.
func (b *Batch) AddFunc(free func()) *Batch {
	return b.Add(ResourceFunc(free))
}

// SetWait sets the blocking wait that must return before any resource is freed.
func (b *Batch) SetWait(wait WaitFunc) *Batch {
	b.wait = wait
	return b
}

// SetReady sets the non-blocking probe used by Queue.Collect.
func (b *Batch) SetReady(ready ReadyFunc) *Batch {
	b.ready = ready
	return b
}

// Len returns the number of resources in the batch.
func (b *Batch) Len() int { return len(b.resources) }

// HasWait reports whether the batch carries a wait closure.
func (b *Batch) HasWait() bool { return b.wait != nil }

// Seq returns the push sequence number, or 0 if the batch was never pushed.
func (b *Batch) Seq() uint64 { return b.seq }

// isReady reports whether Collect may retire the batch without blocking.
func (b *Batch) isReady() bool {
	if b.wait == nil {
		return true
	}
	if b.ready == nil {
		return false
	}
	return b.ready()
}

// runWait invokes the wait closure, if any.
func (b *Batch) runWait() error {
	if b.wait == nil {
		return nil
	}
	return b.wait()
}

// free frees every resource in order and drops the references.
func (b *Batch) free() int {
	n := len(b.resources)
	for i, r := range b.resources {
		checkFree(r)
		r.Free()
		b.resources[i] = nil
	}
	b.resources = b.resources[:0]
	return n
}

// reset clears the batch for reuse from a BatchPool.
func (b *Batch) reset() {
	clear(b.resources)
	b.Label = ""
	b.resources = b.resources[:0]
	b.wait = nil
	b.ready = nil
	b.seq = 0
	b.queued = false
}
