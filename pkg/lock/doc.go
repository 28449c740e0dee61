// Package lock implements the lock engine of spec.md §4.9: parsing a
// lock string into a boolean-expression tree (types.LockNode) and
// evaluating it against a (player, thing) pair with short-circuit
// AND/OR, depth bounded by a configured nesting limit.
//
// EVAL/ATTR_EQ/ATTR_MATCH nodes invoke an Evaluator under the locked
// thing's ownership; the engine itself stays pure stdlib — grounded on
// the boolean-filter composition style of the teacher's scheduler
// (node-selection predicates combined with short-circuit AND/OR).
package lock
