// Package fence provides a recycling pool of device synchronization fences.
//
// Creating and destroying fences every frame is expensive on every native
// backend, so a Pool keeps every fence it ever created in an append-only arena
// and serves requests from it:
//
//  1. fences created by Prewarm that were never issued,
//  2. fences returned through Release,
//  3. new fences created on the device.
//
// The pool never resets a fence. Resetting (or, with timeline fences, moving to
// the next signal value) belongs to the submission that reuses it.
//
// # Release contract
//
// Release must only be called once the fence has been waited on, normally by
// the disposal queue's wait closure. The pool does not query the fence state:
// releasing a fence the device may still signal makes it eligible for reuse
// while the original submission is in flight.
//
// Releasing a fence the pool does not own, or releasing twice, is a silent
// no-op so cleanup paths never fail.
//
// # Concurrency
//
// Pool is not safe for concurrent use. Confine it to the submission goroutine
// or serialize access externally.
package fence
