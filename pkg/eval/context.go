package eval

import "github.com/cuemby/tinymux/pkg/types"

// Flags mirrors spec.md §4.5's evaluation flag set, carried alongside
// each top-level evaluation request.
type Flags = types.EvalFlag

// budget tracks the accounting shared by every nested Context derived
// from one top-level evaluation: total function invocations (capped by
// function_invocation_limit) and, per Context, nesting depth (capped by
// function_recursion_limit).
type budget struct {
	invocations int
	limit       int
}

// Context is the per-evaluation state threaded through every recursive
// call: the three dbrefs visible as %-substitutions, positional
// arguments, the register set, and the shared invocation accounting
// spec.md §4.5 bounds.
type Context struct {
	Executor types.Dbref
	Caller   types.Dbref
	Enactor  types.Dbref
	Args     [10]string
	Regs     types.Registers
	Flags    Flags

	budget *budget
	depth  int
}

// newChild derives a nested evaluation context (e.g. for a function
// call's arguments or a `[...]` forced eval) sharing the invocation
// budget but one level deeper.
func (c *Context) newChild() *Context {
	child := *c
	child.depth++
	return &child
}
