package dispatch

import (
	"strconv"
	"strings"

	"github.com/cuemby/tinymux/pkg/types"
)

// Evaluator is the subset of pkg/eval.Evaluator the built-in `think`
// command needs.
type Evaluator interface {
	EvalString(executor types.Dbref, text string) string
}

// RegisterBuiltins installs the handful of built-in commands whose
// mechanics belong to the dispatcher itself: `think` (evaluate and
// notify the executor — here, just evaluate and return), and the
// `@addcommand`/`@delcommand` meta-commands that mutate the table
// they run in.
func RegisterBuiltins(d *Dispatcher, ev Evaluator) {
	d.Register(&Entry{
		Name:     "think",
		ArgShape: ArgUnparsed,
		Handler: func(ctx *Context, args Args) string {
			if ev == nil {
				return ""
			}
			return ev.EvalString(ctx.Executor, args.LHS)
		},
	})

	d.Register(&Entry{
		Name:     "@addcommand",
		ArgShape: ArgEquals,
		Handler: func(ctx *Context, args Args) string {
			thing, attr, err := parseObjAttr(args.RHS)
			if err != nil {
				return "#-1 " + err.Error()
			}
			d.AddCommand(args.LHS, thing, attr)
			return ""
		},
	})

	d.Register(&Entry{
		Name:     "@delcommand",
		ArgShape: ArgEquals,
		Handler: func(ctx *Context, args Args) string {
			thing, attr, err := parseObjAttr(args.RHS)
			if err != nil {
				return "#-1 " + err.Error()
			}
			d.DelCommand(args.LHS, thing, attr)
			return ""
		},
	})
}

// parseObjAttr parses the "obj/attr" shape of @addcommand's right-hand
// side, where attr is the attribute's catalog number.
func parseObjAttr(s string) (types.Dbref, int, error) {
	idx := strings.IndexByte(s, '/')
	if idx < 0 {
		return 0, 0, strconvErr("EXPECTED OBJ/ATTR")
	}
	d, err := strconv.Atoi(strings.TrimPrefix(s[:idx], "#"))
	if err != nil {
		return 0, 0, strconvErr("BAD DBREF")
	}
	a, err := strconv.Atoi(s[idx+1:])
	if err != nil {
		return 0, 0, strconvErr("BAD ATTRIBUTE NUMBER")
	}
	return types.Dbref(d), a, nil
}

type strconvErr string

func (e strconvErr) Error() string { return string(e) }
