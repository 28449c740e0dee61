// Package eval implements the expression evaluator of spec.md §4.5: a
// single-pass, left-to-right interpreter over %-substitutions, `[...]`
// forced nested evaluation, `{...}` bracketed plain text, and
// name(args) function calls, bounded by a configurable recursion/
// invocation limit and an output buffer capped at LBUF_SIZE-1.
//
// The function dispatch table's {name, min, max, lazy, handler} shape
// is grounded on the out-of-process module registration style of
// original_source/mux/src/modules/sum.cpp, generalized from a
// component-registration table to an in-process Go map; the bounded-
// loop recursion/invocation accounting follows the teacher's
// ticker-driven run-loop style (pkg/scheduler in the example pack).
package eval
