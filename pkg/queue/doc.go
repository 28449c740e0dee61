// Package queue implements the deferred-command queue of spec.md §4.7:
// a time-ordered heap, a semaphore-wait map keyed by (object, attr),
// and a free-running FIFO, drained once per tick up to a per-tick cost
// budget by handing each entry's text to the command dispatcher.
//
// The Start/Stop/run ticker-loop shape is grounded on the teacher's
// scheduler loop (pkg/scheduler/scheduler.go in the example pack);
// each entry carries a uuid.UUID correlation id for log tracing, the
// way the teacher's API layer correlates requests.
package queue
