package mdb

import "errors"

// ErrNotFound is returned by any accessor given a dbref that is not a
// valid, allocated slot (GoodObj false).
var ErrNotFound = errors.New("mdb: no such object")

// ErrParentCycle is returned by SetParent when the requested parent is,
// or chains up to, the object itself (spec.md §3: "cycles are forbidden
// and must be rejected on write").
var ErrParentCycle = errors.New("mdb: parent chain would cycle")

// ErrParentNestLimit is returned by SetParent when the requested
// parent's own chain runs more than ParentNestLimit hops without
// terminating (spec.md §3's parent_nest_limit).
var ErrParentNestLimit = errors.New("mdb: parent chain exceeds nest limit")
