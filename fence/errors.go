package fence

import "errors"

// Fence pool errors.
var (
	// ErrCreateFence is returned when the device rejects creation of a new fence.
	// The underlying device error is wrapped alongside it.
	ErrCreateFence = errors.New("fence: create fence failed")

	// ErrDuplicateFence is returned when the device hands out a fence the pool
	// already owns. Identity lookup on release would be ambiguous.
	ErrDuplicateFence = errors.New("fence: device returned an already owned fence")

	// ErrPoolDestroyed is returned when operating on a destroyed pool.
	ErrPoolDestroyed = errors.New("fence: pool destroyed")
)
