// Package world wires every other package into the single top-level
// value spec.md §9 calls for in place of the original's global
// mutable state (mudstate/mudconf/hashtables): a World owns the
// object table, attribute store, evaluator, command dispatcher,
// deferred-command queue, notification broker, and helper registry,
// threaded explicitly through command handlers instead of referenced
// as package globals.
//
// The tick loop is a single goroutine driving pkg/queue.Tick once per
// configured interval — the cooperative-interpreter model of spec.md
// §5, grounded on the teacher's pkg/manager.Manager (one struct owns
// every subsystem) and pkg/reconciler.Reconciler (a ticker-driven
// reconcile loop), with the teacher's raft-consensus loop dropped
// entirely: a single-process engine has no cluster to reach consensus
// with (see DESIGN.md).
package world
