package world

import (
	"strings"

	"github.com/cuemby/tinymux/pkg/dispatch"
	"github.com/cuemby/tinymux/pkg/types"
)

// Execute is the top-level command-line entry point: it special-cases
// the "&attr target=value" attribute-set syntax (spec.md §8 scenario
// 2), the way the original engine's command processor recognizes a
// handful of punctuation-prefixed forms before falling through to the
// ordinary command hash lookup, then delegates everything else to the
// dispatcher.
func (w *World) Execute(line string, ctx *dispatch.Context) string {
	if strings.HasPrefix(line, "&") {
		return w.setAttr(line[1:], ctx)
	}
	return w.Dispatch.Dispatch(line, ctx)
}

// setAttr implements "&name target=value": define name as a
// user-attribute if new, resolve target (accepting "me"), and store
// value on it under the setting player's ownership.
func (w *World) setAttr(rest string, ctx *dispatch.Context) string {
	sp := strings.IndexAny(rest, " \t")
	if sp < 0 {
		return "#-1 SYNTAX ERROR"
	}
	attrName := rest[:sp]
	rest = strings.TrimLeft(rest[sp+1:], " \t")

	eq := strings.IndexByte(rest, '=')
	if eq < 0 {
		return "#-1 SYNTAX ERROR"
	}
	targetName := strings.TrimSpace(rest[:eq])
	value := rest[eq+1:]

	target, ok := w.resolveTarget(ctx.Executor, targetName)
	if !ok {
		return "#-1 NOT FOUND"
	}

	def := w.Catalog.Define(attrName, ctx.Executor, 0)
	w.Attrs.Set(target, def.Num, value, ctx.Executor, 0)
	return "Set."
}

// resolveTarget accepts the "me" keyword, then falls back to
// searching the executor's nearby objects and own contents.
func (w *World) resolveTarget(executor types.Dbref, name string) (types.Dbref, bool) {
	if strings.EqualFold(name, "me") {
		return executor, true
	}
	if d, ok := w.resolveNearby(executor, name); ok {
		return d, true
	}
	return w.resolveCarried(executor, name)
}
