package lock

import (
	"strconv"
	"strings"

	"github.com/cuemby/tinymux/pkg/types"
)

// Evaluator is the subset of pkg/eval's surface the lock engine needs
// for EVAL/ATTR_EQ/ATTR_MATCH nodes: evaluate text under a thing's
// ownership and return the rendered result.
type Evaluator interface {
	EvalString(executor types.Dbref, text string) string
}

// Objects is the subset of pkg/mdb the lock engine needs to resolve
// CARRY/IS/OWNER/FLAG predicates.
type Objects interface {
	Get(d types.Dbref) (types.Object, bool)
	Nearby(d types.Dbref) []types.Dbref
	Contents(d types.Dbref) []types.Dbref
}

// AttrSource is the subset of pkg/attr the lock engine needs for
// ATTR_EQ/ATTR_MATCH.
type AttrSource interface {
	Get(o types.Dbref, a int) types.AttrValue
}

// Eval evaluates tree against (player, thing), short-circuiting AND/OR
// and bounding recursion depth by limit (spec.md §4.9). Exceeding the
// depth limit returns false, matching the spec's stated behavior for
// an over-deep lock.
func Eval(tree *types.LockNode, player, thing types.Dbref, objs Objects, attrs AttrSource, ev Evaluator, limit int) bool {
	return evalDepth(tree, player, thing, objs, attrs, ev, limit)
}

func evalDepth(n *types.LockNode, player, thing types.Dbref, objs Objects, attrs AttrSource, ev Evaluator, depth int) bool {
	if n == nil {
		return true
	}
	if depth <= 0 {
		return false
	}
	switch n.Kind {
	case types.LockConstTrue:
		return true
	case types.LockConstFalse:
		return false
	case types.LockAnd:
		return evalDepth(n.Left, player, thing, objs, attrs, ev, depth-1) &&
			evalDepth(n.Right, player, thing, objs, attrs, ev, depth-1)
	case types.LockOr:
		return evalDepth(n.Left, player, thing, objs, attrs, ev, depth-1) ||
			evalDepth(n.Right, player, thing, objs, attrs, ev, depth-1)
	case types.LockNot:
		return !evalDepth(n.Left, player, thing, objs, attrs, ev, depth-1)
	case types.LockIndirect:
		return evalIndirect(n, player, objs, attrs, ev, depth)
	case types.LockIs:
		return player == n.DbrefArg
	case types.LockOwner:
		obj, ok := objs.Get(player)
		return ok && obj.Owner == n.DbrefArg
	case types.LockCarry:
		for _, d := range objs.Contents(player) {
			if d == n.DbrefArg {
				return true
			}
		}
		return false
	case types.LockFlag:
		obj, ok := objs.Get(player)
		return ok && obj.Flags.Has(types.ObjectFlag(n.DbrefArg))
	case types.LockEval:
		if ev == nil {
			return false
		}
		return ev.EvalString(thing, n.StrArg) != ""
	case types.LockAttrEq:
		return attrEqual(attrs, ev, thing, n)
	case types.LockAttrMatch:
		return attrMatches(attrs, ev, thing, n)
	default:
		return false
	}
}

// evalIndirect follows an @-lock-style indirection: the named object's
// own LOCK attribute is parsed and evaluated in its place. n.StrArg
// carries the already-fetched lock text of the indirected-to object,
// which is parsed here on every evaluation; callers that need the live
// attribute value build it into the StrArg before constructing this
// node.
func evalIndirect(n *types.LockNode, player types.Dbref, objs Objects, attrs AttrSource, ev Evaluator, depth int) bool {
	sub, err := Parse(n.StrArg)
	if err != nil {
		return false
	}
	return evalDepth(sub, player, n.DbrefArg, objs, attrs, ev, depth-1)
}

// ATTR_EQ/ATTR_MATCH nodes pack "attr_num:literal" into StrArg (the
// parser resolves the attribute name to a number once, at parse time).
// The attribute text is evaluated under thing before it is compared;
// with a nil ev the raw text is compared.
func attrEqual(attrs AttrSource, ev Evaluator, thing types.Dbref, n *types.LockNode) bool {
	num, literal := splitAttrArg(n.StrArg)
	return attrText(attrs, ev, thing, num) == literal
}

func attrMatches(attrs AttrSource, ev Evaluator, thing types.Dbref, n *types.LockNode) bool {
	num, literal := splitAttrArg(n.StrArg)
	return matchGlob(strings.ToLower(literal), strings.ToLower(attrText(attrs, ev, thing, num)))
}

func attrText(attrs AttrSource, ev Evaluator, thing types.Dbref, num int) string {
	text := attrs.Get(thing, num).Text
	if ev != nil {
		text = ev.EvalString(thing, text)
	}
	return text
}

func splitAttrArg(s string) (int, string) {
	idx := strings.IndexByte(s, ':')
	if idx < 0 {
		return 0, s
	}
	num, _ := strconv.Atoi(s[:idx])
	return num, s[idx+1:]
}

func matchGlob(pattern, s string) bool {
	if pattern == "*" {
		return true
	}
	return pattern == s
}
