package disposal

import "sync"

// BatchPool recycles Batch objects so steady-state frames retire resources
// without allocating new batches.
//
// Usage:
//
//	pool := disposal.NewBatchPool()
//	b := pool.Get()
//	b.SetWait(wait).Add(buf, view)
//	q.Push(b) // returned to pool after Flush frees it
type BatchPool struct {
	pool sync.Pool
}

// NewBatchPool creates a new batch pool.
func NewBatchPool() *BatchPool {
	p := &BatchPool{}
	p.pool.New = func() any {
		return &Batch{resources: make([]Resource, 0, 8)}
	}
	return p
}

// Get retrieves an empty batch bound to this pool. A queue that retires the
// batch puts it back automatically.
func (p *BatchPool) Get() *Batch {
	b := p.pool.Get().(*Batch)
	b.reset()
	b.pool = p
	return b
}

// Put returns a batch to the pool. Put a batch only if it was never pushed
// or has already been freed.
func (p *BatchPool) Put(b *Batch) {
	if b == nil {
		return
	}
	b.reset()
	b.pool = nil
	p.pool.Put(b)
}

// Warmup pre-allocates batches to avoid allocation during critical paths.
func (p *BatchPool) Warmup(count int) {
	batches := make([]*Batch, count)
	for i := range count {
		batches[i] = p.Get()
	}
	for i := range count {
		p.Put(batches[i])
	}
}
