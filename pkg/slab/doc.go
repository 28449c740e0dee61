// Package slab implements the fixed-size buffer pool described in
// spec.md §4.1. The evaluator's argument/return path allocates and frees
// many LBUF-sized buffers per command; routing that traffic through a
// handful of free lists keyed by size class avoids putting the general
// allocator in that hot path. The evaluator in this module does not
// allocate from a Pool; it takes only its LBUF size from LargeSize.
//
// There is no library in the retrieval pack for this — it is a small,
// fully algorithmic component with no I/O, parsing, or protocol surface
// a third-party dependency could serve. See DESIGN.md for the
// stdlib-only justification.
package slab
