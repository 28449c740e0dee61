package eval

import (
	"strconv"

	"github.com/cuemby/tinymux/pkg/attr"
	"github.com/cuemby/tinymux/pkg/types"
)

// substitute decodes one %-form starting at s[0]=='%' and returns how
// many bytes of s it consumed plus the rendered replacement text
// (spec.md §4.5's substitution list).
func (e *Evaluator) substitute(s string, ctx *Context) (consumed int, rendered string) {
	if len(s) < 2 {
		return len(s), s
	}
	switch c := s[1]; {
	case c >= '0' && c <= '9':
		return 2, ctx.Args[c-'0']
	case c == '!':
		return 2, dbrefString(ctx.Executor)
	case c == '#':
		return 2, dbrefString(ctx.Enactor)
	case c == '%':
		return 2, "%"
	case c == 'b':
		return 2, " "
	case c == 'r':
		return 2, "\n"
	case c == 't':
		return 2, "\t"
	case c == 'v', c == 'w', c == 'x', c == 'y', c == 'z':
		idx := int(c - 'v')
		return 2, ctx.Regs[idx]
	case c == 'q' && len(s) >= 3:
		idx, ok := regIndex(s[2])
		if !ok {
			return 3, "#-1 REGISTER NOT FOUND"
		}
		return 3, ctx.Regs[idx]
	case c == 'N', c == 'n':
		return 2, e.nameOf(ctx.Executor)
	default:
		// Unknown substitution: copy through literally, matching the
		// engine's tolerant-by-default handling of unrecognized codes.
		return 2, "%" + string(c)
	}
}

func regIndex(c byte) (int, bool) {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0'), true
	case c >= 'a' && c <= 'j':
		return int(c - 'a'), true
	case c >= 'A' && c <= 'J':
		return int(c - 'A'), true
	default:
		return 0, false
	}
}

func dbrefString(d types.Dbref) string {
	return "#" + strconv.Itoa(int(d))
}

// nameOf resolves a dbref's name via the wired attribute source's
// A_NAME value; falls back to the bare dbref string when no attribute
// source is wired or the name is unset.
func (e *Evaluator) nameOf(d types.Dbref) string {
	if e.attrs == nil {
		return dbrefString(d)
	}
	if v := e.attrs.Get(d, attr.A_NAME); !v.Empty() {
		return v.Text
	}
	return dbrefString(d)
}
