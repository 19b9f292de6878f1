// Package retire retires GPU resources once the device no longer reads them.
//
// # Overview
//
// A CPU thread that records GPU work must not free a buffer, texture or bind
// group while a submission that uses it is still executing, and it must not
// stall on every submission either. retire solves this with two parts:
//
//   - fence.Pool recycles synchronization fences, so steady-state frames
//     create no new device objects.
//   - disposal.Queue holds retirement batches (resources plus a wait) and
//     frees them in submission order when flushed.
//
// Retirer wires both to a gogpu/wgpu HAL device:
//
//	r, err := retire.New(device, queue)
//	if err != nil {
//	    return err
//	}
//	defer r.Close()
//
//	// Per frame: submit and hand over everything the work touched.
//	err = r.Submit([]hal.CommandBuffer{cmd},
//	    retire.BindGroup(device, bg),
//	    retire.Buffer(device, uniforms))
//
//	// Once per frame, or when memory runs low:
//	err = r.Flush()
//
// Submit requests a fence from the pool, submits with it and pushes a batch
// whose wait closure waits for the fence. Flush runs those waits in order,
// frees the resources and returns each fence to the pool.
//
// # Concurrency
//
// With the default disposal.MultiProducer queue, Submit may be called from
// any goroutine. Exactly one goroutine flushes. WithReaper starts a
// background Reaper that becomes that goroutine.
//
// # Host integration
//
// NewFromProvider accepts a gpucontext.DeviceProvider from a host framework
// and uses its HAL device and queue.
package retire
