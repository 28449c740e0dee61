package eval

import (
	"strconv"
	"strings"

	"github.com/cuemby/tinymux/pkg/attr"
	"github.com/cuemby/tinymux/pkg/text"
	"github.com/cuemby/tinymux/pkg/types"
)

// funcEntry is one function-dispatch-table row (spec.md §4.5: "name →
// function-entry (permissions, min/max arity, lazy flag, handler)"),
// grounded on the component-registration shape of
// original_source/mux/src/modules/sum.cpp.
type funcEntry struct {
	MinArgs int
	MaxArgs int // -1 means unbounded
	Lazy    bool
	Handler func(e *Evaluator, ctx *Context, args []string) string
}

// Register installs a custom function under name, alongside (or
// overriding) the built-in table. pkg/helper uses this to expose
// external-helper calls as an in-expression function without pkg/eval
// needing to import pkg/helper itself.
func (e *Evaluator) Register(name string, minArgs, maxArgs int, handler func(e *Evaluator, ctx *Context, args []string) string) {
	e.funcs[name] = funcEntry{MinArgs: minArgs, MaxArgs: maxArgs, Handler: handler}
}

func registerBuiltins(e *Evaluator) {
	e.funcs["add"] = funcEntry{MinArgs: 1, MaxArgs: -1, Handler: numericFold(func(a, b float64) float64 { return a + b }, 0)}
	e.funcs["sub"] = funcEntry{MinArgs: 2, MaxArgs: -1, Handler: numericFold(func(a, b float64) float64 { return a - b }, 0)}
	e.funcs["mul"] = funcEntry{MinArgs: 1, MaxArgs: -1, Handler: numericFold(func(a, b float64) float64 { return a * b }, 1)}
	e.funcs["div"] = funcEntry{MinArgs: 2, MaxArgs: -1, Handler: divFunc}

	e.funcs["strlen"] = funcEntry{MinArgs: 1, MaxArgs: 1, Handler: func(e *Evaluator, ctx *Context, a []string) string {
		return strconv.Itoa(text.LengthPoint(a[0]))
	}}
	e.funcs["mid"] = funcEntry{MinArgs: 3, MaxArgs: 3, Handler: midFunc}
	e.funcs["lwr"] = funcEntry{MinArgs: 1, MaxArgs: 1, Handler: func(e *Evaluator, ctx *Context, a []string) string {
		return strings.ToLower(a[0])
	}}
	e.funcs["upr"] = funcEntry{MinArgs: 1, MaxArgs: 1, Handler: func(e *Evaluator, ctx *Context, a []string) string {
		return strings.ToUpper(a[0])
	}}

	e.funcs["eq"] = funcEntry{MinArgs: 2, MaxArgs: 2, Handler: compareFunc(func(a, b float64) bool { return a == b })}
	e.funcs["gt"] = funcEntry{MinArgs: 2, MaxArgs: 2, Handler: compareFunc(func(a, b float64) bool { return a > b })}
	e.funcs["lt"] = funcEntry{MinArgs: 2, MaxArgs: 2, Handler: compareFunc(func(a, b float64) bool { return a < b })}

	e.funcs["v"] = funcEntry{MinArgs: 1, MaxArgs: 1, Handler: vFunc}
	e.funcs["get"] = funcEntry{MinArgs: 1, MaxArgs: 2, Handler: getFunc}
}

func numericFold(op func(a, b float64) float64, identity float64) func(*Evaluator, *Context, []string) string {
	return func(e *Evaluator, ctx *Context, args []string) string {
		nums, err := parseNumbers(args)
		if err != nil {
			return err.Error()
		}
		acc := identity
		if len(nums) > 0 {
			acc = nums[0]
			for _, n := range nums[1:] {
				acc = op(acc, n)
			}
		}
		return formatNumber(acc)
	}
}

func divFunc(e *Evaluator, ctx *Context, args []string) string {
	nums, err := parseNumbers(args)
	if err != nil {
		return err.Error()
	}
	acc := nums[0]
	for _, n := range nums[1:] {
		if n == 0 {
			return "#-1 DIVIDE BY ZERO"
		}
		acc /= n
	}
	return formatNumber(acc)
}

func compareFunc(op func(a, b float64) bool) func(*Evaluator, *Context, []string) string {
	return func(e *Evaluator, ctx *Context, args []string) string {
		nums, err := parseNumbers(args)
		if err != nil {
			return err.Error()
		}
		if op(nums[0], nums[1]) {
			return "1"
		}
		return "0"
	}
}

// numErr carries the non-numeric-argument error token, matching
// spec.md §8's literal scenario `think [add(1,foo)]` → `#-1 ARGUMENTS
// MUST BE NUMBERS`.
type numErr struct{}

func (numErr) Error() string { return "#-1 ARGUMENTS MUST BE NUMBERS" }

func parseNumbers(args []string) ([]float64, error) {
	nums := make([]float64, len(args))
	for i, a := range args {
		n, err := strconv.ParseFloat(strings.TrimSpace(a), 64)
		if err != nil {
			return nil, numErr{}
		}
		nums[i] = n
	}
	return nums, nil
}

func formatNumber(f float64) string {
	if f == float64(int64(f)) {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func midFunc(e *Evaluator, ctx *Context, args []string) string {
	s := args[0]
	start, err1 := strconv.Atoi(strings.TrimSpace(args[1]))
	length, err2 := strconv.Atoi(strings.TrimSpace(args[2]))
	if err1 != nil || err2 != nil {
		return numErr{}.Error()
	}
	runes := []rune(s)
	if start < 0 || start >= len(runes) || length <= 0 {
		return ""
	}
	end := start + length
	if end > len(runes) {
		end = len(runes)
	}
	return string(runes[start:end])
}

func vFunc(e *Evaluator, ctx *Context, args []string) string {
	return getFunc(e, ctx, append([]string{dbrefString(ctx.Executor)}, args...))
}

// getFunc implements get(<dbref>/<attr-name>) — and, with a single
// argument and no slash, v(name) on the current executor.
func getFunc(e *Evaluator, ctx *Context, args []string) string {
	if e.attrs == nil {
		return "#-1 NO ATTRIBUTE STORE"
	}
	target := ctx.Executor
	attrName := args[0]
	switch {
	case len(args) > 1:
		if d, err := strconv.Atoi(strings.TrimPrefix(args[0], "#")); err == nil {
			target = types.Dbref(d)
		}
		attrName = args[1]
	default:
		if idx := strings.IndexByte(args[0], '/'); idx >= 0 {
			if d, err := strconv.Atoi(strings.TrimPrefix(args[0][:idx], "#")); err == nil {
				target = types.Dbref(d)
			}
			attrName = args[0][idx+1:]
		}
	}
	num := e.resolveAttrNum(attrName)
	if num == 0 {
		return "#-1 NO SUCH ATTRIBUTE"
	}
	return e.attrs.Get(target, num).Text
}

// resolveAttrNum prefers the wired catalog (which covers user-defined
// attributes like the FOO in `&FOO me=bar`) and falls back to the
// built-in name table when no catalog is wired.
func (e *Evaluator) resolveAttrNum(name string) int {
	if e.catalog != nil {
		if def, ok := e.catalog.Lookup(name); ok {
			return def.Num
		}
	}
	return builtinAttrNum(name)
}

func builtinAttrNum(name string) int {
	switch strings.ToUpper(name) {
	case "NAME":
		return attr.A_NAME
	case "DESC":
		return attr.A_DESC
	case "LOCK":
		return attr.A_LOCK
	case "LISTEN":
		return attr.A_LISTEN
	case "SEX":
		return attr.A_SEX
	case "STARTUP":
		return attr.A_STARTUP
	case "VA":
		return attr.A_VA
	default:
		if n, err := strconv.Atoi(name); err == nil {
			return n
		}
		return 0
	}
}
