package fence

import (
	"fmt"

	"github.com/gogpu/retire/internal/logging"
)

// Device is the fence factory a Pool draws from.
//
// F is the fence handle type. Handles are compared by identity, so pointer or
// interface handles backed by pointers are the natural choice.
type Device[F comparable] interface {
	// CreateFence creates a new fence object on the device.
	CreateFence() (F, error)

	// DestroyFence destroys a fence object. Called only by Pool.Destroy.
	DestroyFence(F)
}

// slotState tracks what the pool knows about one owned fence.
type slotState uint8

const (
	slotFresh    slotState = iota // created by Prewarm, never issued
	slotInFlight                  // held by a caller
	slotFree                      // in the recycle set
)

// Stats describes the bookkeeping of a Pool.
type Stats struct {
	// Created is the number of fences the pool owns.
	Created int

	// Issued is the number of fences that have been handed out at least once.
	Issued int

	// Recyclable is the number of returned fences waiting for reuse.
	Recyclable int

	// InFlight is the number of fences currently held by callers.
	InFlight int
}

// String returns a human-readable summary.
func (s Stats) String() string {
	return fmt.Sprintf("Fences[%d created, %d issued, %d recyclable, %d in flight]",
		s.Created, s.Issued, s.Recyclable, s.InFlight)
}

// Pool owns every fence it creates and recycles returned ones before
// creating new ones.
//
// Owned fences live in an append-only slice. Indices below cursor have been
// issued at least once; each of them is either in flight or in the free list.
// Indices at or above cursor were prewarmed and never issued.
//
// Pool is not safe for concurrent use.
type Pool[F comparable] struct {
	device Device[F]

	fences []F
	states []slotState
	index  map[F]int

	// cursor is the boundary between issued and never-issued fences.
	cursor int

	// free is the recycle set, used as a stack.
	free []int

	destroyed bool
}

// NewPool creates an empty pool drawing new fences from device.
func NewPool[F comparable](device Device[F]) *Pool[F] {
	return &Pool[F]{
		device: device,
		index:  make(map[F]int),
	}
}

// Prewarm creates n fences up front. They are served before any recycled
// or newly created fence. On failure the fences created so far are kept.
func (p *Pool[F]) Prewarm(n int) error {
	if p.destroyed {
		return ErrPoolDestroyed
	}
	for range n {
		if _, err := p.create(); err != nil {
			return err
		}
	}
	return nil
}

// Request returns count fences, distinct from every fence currently in flight.
//
// Fences come from the never-issued tail first, then from the recycle set,
// and finally from the device. If the device fails to create a fence the
// whole request fails and every fence already picked for it goes back to the
// recycle set.
//
// A served fence may carry state from a previous submission; the caller resets
// it as part of the next submission.
func (p *Pool[F]) Request(count int) ([]F, error) {
	if p.destroyed {
		return nil, ErrPoolDestroyed
	}
	if count <= 0 {
		return nil, nil
	}

	out := make([]F, 0, count)
	served := make([]int, 0, count)
	for len(out) < count {
		idx, err := p.next()
		if err != nil {
			p.rollback(served)
			return nil, err
		}
		p.states[idx] = slotInFlight
		served = append(served, idx)
		out = append(out, p.fences[idx])
	}
	return out, nil
}

// Acquire returns a single fence. See Request.
func (p *Pool[F]) Acquire() (F, error) {
	fences, err := p.Request(1)
	if err != nil {
		var zero F
		return zero, err
	}
	return fences[0], nil
}

// Release returns a fence to the recycle set.
//
// The fence must have been waited on since its last submission. Fences the
// pool does not own and fences that are not in flight are ignored.
func (p *Pool[F]) Release(f F) {
	idx, ok := p.index[f]
	if !ok {
		logging.Logger().Debug("fence: release of unknown fence ignored")
		return
	}
	if p.states[idx] != slotInFlight {
		logging.Logger().Debug("fence: release of idle fence ignored", "index", idx)
		return
	}
	p.states[idx] = slotFree
	p.free = append(p.free, idx)
}

// Owns reports whether f was created by this pool.
func (p *Pool[F]) Owns(f F) bool {
	_, ok := p.index[f]
	return ok
}

// Stats returns the current pool bookkeeping.
func (p *Pool[F]) Stats() Stats {
	return Stats{
		Created:    len(p.fences),
		Issued:     p.cursor,
		Recyclable: len(p.free),
		InFlight:   p.cursor - len(p.free),
	}
}

// Destroy destroys every owned fence on the device. Fences still in flight
// are destroyed too, so drain outstanding work first. The pool cannot be
// used afterwards; Destroy is safe to call multiple times.
func (p *Pool[F]) Destroy() {
	if p.destroyed {
		return
	}
	if inFlight := p.cursor - len(p.free); inFlight > 0 {
		logging.Logger().Warn("fence: destroying pool with fences in flight", "in_flight", inFlight)
	}
	for _, f := range p.fences {
		p.device.DestroyFence(f)
	}
	p.fences = nil
	p.states = nil
	p.index = nil
	p.free = nil
	p.cursor = 0
	p.destroyed = true
}

// next picks the index that serves the next fence of a request.
func (p *Pool[F]) next() (int, error) {
	if p.cursor < len(p.fences) {
		idx := p.cursor
		p.cursor++
		return idx, nil
	}
	if n := len(p.free); n > 0 {
		idx := p.free[n-1]
		p.free = p.free[:n-1]
		return idx, nil
	}
	idx, err := p.create()
	if err != nil {
		return 0, err
	}
	p.cursor++
	return idx, nil
}

// create appends a new device fence to the arena.
func (p *Pool[F]) create() (int, error) {
	f, err := p.device.CreateFence()
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrCreateFence, err)
	}
	if _, dup := p.index[f]; dup {
		return 0, ErrDuplicateFence
	}
	idx := len(p.fences)
	p.fences = append(p.fences, f)
	p.states = append(p.states, slotFresh)
	p.index[f] = idx

	logging.Logger().Debug("fence: created", "index", idx, "total", len(p.fences))
	return idx, nil
}

// rollback returns the indices served by a failed request to the recycle set.
func (p *Pool[F]) rollback(served []int) {
	for _, idx := range served {
		p.states[idx] = slotFree
		p.free = append(p.free, idx)
	}
}
