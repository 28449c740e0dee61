// Package mdb implements the object table of spec.md §4.3: a dense,
// dbref-indexed vector of object records with intrusive sibling links
// (Next/Contents/Exits) and the pure containment/visibility predicates
// that operate over the in-memory graph.
//
// Lifetimes follow spec.md §9's redesign note: no pointer-linked lists
// and no reference counting. Every link is a types.Dbref index into the
// table, and insert_first/remove_first are pure functions over that
// table, grounded on the arena+index style of the teacher's object
// bookkeeping (pkg/types + pkg/storage in the example pack).
package mdb
