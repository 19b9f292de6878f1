// Package disposal defers the teardown of GPU resources until the device is
// done with them.
//
// A Batch bundles the resources one submission touched with an optional wait
// closure, typically "wait for the fence of that submission". Batches are
// pushed to a Queue when the work is submitted and freed later by Flush, in
// push order: for each batch the wait closure runs first, then every resource
// is freed in the order it was added.
//
// # Modes
//
// A Queue is created in one of two modes:
//
//   - MultiProducer (default): Push is safe from any number of goroutines.
//     Exactly one goroutine flushes; Flush and Collect must not run
//     concurrently with each other.
//   - SingleThreaded: no internal locking. Push, Flush and Collect all happen
//     on one goroutine, typically the render loop.
//
// Flush blocks only the flushing goroutine. Producers never wait on it.
//
// # Ownership
//
// Push transfers ownership of the batch and its resources to the queue. Code
// outside the queue must not touch them afterwards. Freeing a resource twice
// is a programming error; build with the retiredebug tag to turn it into a
// panic.
//
// # Stalls
//
// A wait closure that returns an error stops Flush with a *StalledError. The
// batch stays at the head of the queue, so a later Flush retries it.
package disposal
