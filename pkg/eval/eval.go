package eval

import (
	"strings"

	"github.com/cuemby/tinymux/pkg/metrics"
	"github.com/cuemby/tinymux/pkg/slab"
	"github.com/cuemby/tinymux/pkg/types"
)

// LBufSize is the evaluator's output cap (spec.md glossary's LBUF):
// every expression result fits in one Large slab buffer.
const LBufSize = slab.LargeSize

// Limits bounds one evaluation: spec.md §4.5's
// function_invocation_limit and function_recursion_limit.
type Limits struct {
	InvocationLimit int
	RecursionLimit  int
}

// DefaultLimits matches the classic MUX defaults.
var DefaultLimits = Limits{InvocationLimit: 2500, RecursionLimit: 50}

// AttrSource is the subset of pkg/attr the evaluator needs for the
// v()/get()-style attribute-reading functions.
type AttrSource interface {
	Get(o types.Dbref, a int) types.AttrValue
}

// CatalogSource resolves an attribute name to its catalog number, the
// way pkg/attr.Catalog does, so v(name)/get() can find user-defined
// attributes and not just the built-ins.
type CatalogSource interface {
	Lookup(name string) (types.AttrDef, bool)
}

// Evaluator interprets expression text per spec.md §4.5. A zero value
// is not usable; construct one with New.
type Evaluator struct {
	funcs   map[string]funcEntry
	limits  Limits
	attrs   AttrSource
	catalog CatalogSource
}

// New builds an Evaluator with the built-in function table registered
// and attrs/catalog wired in for attribute-reading functions (either
// may be nil if the caller never needs v()/get()).
func New(attrs AttrSource, catalog CatalogSource, limits Limits) *Evaluator {
	e := &Evaluator{funcs: make(map[string]funcEntry), limits: limits, attrs: attrs, catalog: catalog}
	registerBuiltins(e)
	return e
}

// EvalString evaluates text top-level for executor, with no enactor/
// caller distinction and no positional args — the common case for
// `think`-style commands. It satisfies pkg/lock.Evaluator.
func (e *Evaluator) EvalString(executor types.Dbref, text string) string {
	return e.Eval(text, &Context{Executor: executor, Caller: executor, Enactor: executor})
}

// Eval evaluates text under ctx, returning the rendered result bounded
// to LBufSize-1 bytes. A fresh ctx (from a queue entry or a command
// dispatch) should have budget == nil; Eval installs one.
func (e *Evaluator) Eval(text string, ctx *Context) string {
	timer := metrics.NewTimer()
	if ctx.budget == nil {
		ctx.budget = &budget{limit: e.limits.InvocationLimit}
	}
	out := &outbuf{cap: LBufSize - 1}
	e.evalInto(out, text, ctx)
	timer.ObserveDuration(metrics.EvalDuration)
	return out.String()
}

// outbuf is the bounded output sink of spec.md §8: "Buffer append
// never exceeds LBUF_SIZE-1; overflow truncates and writes
// '#-1 STRING TOO LONG'."
type outbuf struct {
	b        strings.Builder
	cap      int
	overflow bool
}

func (o *outbuf) WriteString(s string) {
	if o.overflow {
		return
	}
	if o.b.Len()+len(s) > o.cap {
		room := o.cap - o.b.Len()
		if room > 0 {
			o.b.WriteString(s[:room])
		}
		o.overflow = true
		return
	}
	o.b.WriteString(s)
}

func (o *outbuf) String() string {
	if o.overflow {
		return o.b.String() + "#-1 STRING TOO LONG"
	}
	return o.b.String()
}

// evalInto runs one left-to-right pass over text, appending results to
// out. This is the grammar sketch of spec.md §4.5.
func (e *Evaluator) evalInto(out *outbuf, text string, ctx *Context) {
	i := 0
	for i < len(text) {
		c := text[i]
		switch c {
		case '%':
			consumed, rendered := e.substitute(text[i:], ctx)
			out.WriteString(rendered)
			i += consumed
		case '[':
			depth := 1
			j := i + 1
			for j < len(text) && depth > 0 {
				switch text[j] {
				case '[':
					depth++
				case ']':
					depth--
				}
				if depth > 0 {
					j++
				}
			}
			inner := text[i+1 : j]
			out.WriteString(e.evalNested(inner, ctx))
			if j < len(text) {
				j++ // consume ']'
			}
			i = j
		case '{':
			depth := 1
			j := i + 1
			for j < len(text) && depth > 0 {
				switch text[j] {
				case '{':
					depth++
				case '}':
					depth--
				}
				if depth > 0 {
					j++
				}
			}
			out.WriteString(text[i+1 : j])
			if j < len(text) {
				j++
			}
			i = j
		default:
			if isIdentStart(c) {
				if name, argsText, end, ok := scanCall(text, i); ok {
					out.WriteString(e.callFunction(name, argsText, ctx))
					i = end
					continue
				}
			}
			out.WriteString(string(c))
			i++
		}
	}
}

// evalNested runs a bounded recursive evaluation (for `[...]` and for
// eager function-argument evaluation), enforcing the recursion limit.
func (e *Evaluator) evalNested(text string, ctx *Context) string {
	child := ctx.newChild()
	if child.depth > e.limits.RecursionLimit {
		metrics.EvalRecursionLimitHits.Inc()
		return "#-1 FUNCTION RECURSION LIMIT EXCEEDED"
	}
	out := &outbuf{cap: LBufSize - 1}
	e.evalInto(out, text, child)
	return out.String()
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentCont(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

// scanCall recognizes name(args) starting at i: an identifier
// immediately followed by '(', with matching close paren respecting
// nested parens/brackets/braces. Returns the function name, the raw
// (unsplit) argument text, and the index just past the close paren.
func scanCall(text string, i int) (name, argsText string, end int, ok bool) {
	j := i
	for j < len(text) && isIdentCont(text[j]) {
		j++
	}
	if j == i || j >= len(text) || text[j] != '(' {
		return "", "", 0, false
	}
	name = text[i:j]
	depth := 1
	k := j + 1
	for k < len(text) && depth > 0 {
		switch text[k] {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		}
		if depth > 0 {
			k++
		}
	}
	if depth != 0 {
		return "", "", 0, false
	}
	return name, text[j+1 : k], k + 1, true
}

// splitArgs splits a function call's raw argument text on top-level
// commas, respecting nested parens/brackets/braces.
func splitArgs(s string) []string {
	if s == "" {
		return nil
	}
	var args []string
	depth := 0
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case ',':
			if depth == 0 {
				args = append(args, s[start:i])
				start = i + 1
			}
		}
	}
	args = append(args, s[start:])
	return args
}

func (e *Evaluator) callFunction(name, argsText string, ctx *Context) string {
	ctx.budget.invocations++
	metrics.EvalInvocations.Inc()
	if ctx.budget.invocations > e.limits.InvocationLimit {
		metrics.EvalRecursionLimitHits.Inc()
		return "#-1 FUNCTION RECURSION LIMIT EXCEEDED"
	}

	entry, ok := e.funcs[strings.ToLower(name)]
	if !ok {
		return "#-1 FUNCTION (" + strings.ToUpper(name) + ") NOT FOUND"
	}

	rawArgs := splitArgs(argsText)
	if len(rawArgs) < entry.MinArgs || (entry.MaxArgs >= 0 && len(rawArgs) > entry.MaxArgs) {
		return "#-1 FUNCTION (" + strings.ToUpper(name) + ") EXPECTS BETWEEN " +
			itoa(entry.MinArgs) + " AND " + itoa(entry.MaxArgs) + " ARGUMENTS"
	}

	args := rawArgs
	if !entry.Lazy {
		args = make([]string, len(rawArgs))
		for i, a := range rawArgs {
			args[i] = e.evalNested(a, ctx)
		}
	}
	return entry.Handler(e, ctx, args)
}

func itoa(n int) string {
	if n < 0 {
		return "*"
	}
	if n == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}
