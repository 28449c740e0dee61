// Package persist implements the checkpoint/restore format of
// spec.md §4.8: a versioned text dump of the object table, the
// attribute catalog's user-defined diff, and the full (object, attr)
// value map, plus the flatfile-based restart path.
//
// The Checkpoint/Restore naming and the "collect everything, then
// replay entry by entry, wrapping each failure with fmt.Errorf" shape
// is grounded on the teacher's FSM snapshot/restore pair
// (pkg/manager/fsm.go in the example pack) with its raft.FSMSnapshot
// plumbing dropped — see DESIGN.md — and io.Writer/io.Reader used
// directly in its place.
package persist
