package world

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cuemby/tinymux/pkg/attr"
	"github.com/cuemby/tinymux/pkg/dispatch"
	"github.com/cuemby/tinymux/pkg/lock"
	"github.com/cuemby/tinymux/pkg/mdb"
	"github.com/cuemby/tinymux/pkg/types"
)

// registerWorldCommands installs the command set spec.md §8's
// end-to-end scenarios exercise: say/pose (room broadcast),
// @create (object creation), @wait/@halt (the deferred-command
// queue), get/drop (locked containment changes), @lock, and look.
func registerWorldCommands(w *World) {
	w.Dispatch.Register(&dispatch.Entry{Name: "say", ArgShape: dispatch.ArgUnparsed, Handler: w.cmdSay})
	w.Dispatch.Register(&dispatch.Entry{Name: "pose", ArgShape: dispatch.ArgUnparsed, Handler: w.cmdPose})
	w.Dispatch.Register(&dispatch.Entry{Name: "@create", ArgShape: dispatch.ArgUnparsed, Handler: w.cmdCreate})
	w.Dispatch.Register(&dispatch.Entry{Name: "@wait", ArgShape: dispatch.ArgEquals, Handler: w.cmdWait})
	w.Dispatch.Register(&dispatch.Entry{Name: "@halt", ArgShape: dispatch.ArgNone, Handler: w.cmdHalt})
	w.Dispatch.Register(&dispatch.Entry{Name: "@lock", ArgShape: dispatch.ArgEquals, Handler: w.cmdLock})
	w.Dispatch.Register(&dispatch.Entry{Name: "@parent", ArgShape: dispatch.ArgEquals, Handler: w.cmdParent})
	w.Dispatch.Register(&dispatch.Entry{Name: "get", ArgShape: dispatch.ArgUnparsed, Handler: w.cmdGet})
	w.Dispatch.Register(&dispatch.Entry{Name: "drop", ArgShape: dispatch.ArgUnparsed, Handler: w.cmdDrop})
	w.Dispatch.Register(&dispatch.Entry{Name: "look", ArgShape: dispatch.ArgUnparsed, Handler: w.cmdLook})
}

func (w *World) objName(d types.Dbref) string {
	if obj, ok := w.Table.Get(d); ok {
		return obj.Name
	}
	return fmt.Sprintf("#%d", int(d))
}

func (w *World) cmdSay(ctx *dispatch.Context, args dispatch.Args) string {
	room := w.Table.WhereIs(ctx.Executor)
	msg := fmt.Sprintf("%s says, \"%s\"", w.objName(ctx.Executor), args.LHS)
	w.Notify.NotifyRoom(w.Table, room, msg)
	return msg
}

func (w *World) cmdPose(ctx *dispatch.Context, args dispatch.Args) string {
	room := w.Table.WhereIs(ctx.Executor)
	sep := " "
	if strings.HasPrefix(args.LHS, "'") {
		sep = ""
	}
	msg := w.objName(ctx.Executor) + sep + args.LHS
	w.Notify.NotifyRoom(w.Table, room, msg)
	return msg
}

// cmdCreate implements spec.md §8 scenario 1: the new THING lands at
// db_top, owned by and located in its creator.
func (w *World) cmdCreate(ctx *dispatch.Context, args dispatch.Args) string {
	name := strings.TrimSpace(args.LHS)
	if name == "" {
		return "#-1 CREATE WHAT?"
	}
	d := w.Table.Create(types.TypeThing, ctx.Executor)
	if err := w.Table.SetName(d, name); err != nil {
		return "#-1 " + err.Error()
	}
	if err := w.Table.Move(d, ctx.Executor); err != nil {
		return "#-1 " + err.Error()
	}
	w.Attrs.Set(d, attr.A_NAME, name, ctx.Executor, types.AttrInternal)
	return fmt.Sprintf("Created: %s(#%d)", name, int(d))
}

// cmdWait implements `@wait <seconds>=<command>`: enqueue command to
// fire after delay seconds of simulated time (spec.md §8 scenario 3).
func (w *World) cmdWait(ctx *dispatch.Context, args dispatch.Args) string {
	seconds, err := strconv.Atoi(strings.TrimSpace(args.LHS))
	if err != nil {
		return "#-1 BAD WAIT TIME"
	}
	w.Queue.Enqueue(&types.QueueEntry{
		ReadyTime: w.nowFn().Add(time.Duration(seconds) * time.Second),
		SemObj:    types.NOTHING,
		Enactor:   ctx.Enactor,
		Caller:    ctx.Caller,
		Executor:  ctx.Executor,
		Text:      args.RHS,
	})
	return ""
}

func (w *World) cmdHalt(ctx *dispatch.Context, args dispatch.Args) string {
	n := w.Queue.Halt(ctx.Enactor)
	return fmt.Sprintf("%d queued command(s) halted.", n)
}

// cmdLock implements `@lock <target>=<lock text>`, resolving the "me"
// keyword to the setting player's own dbref before storing.
func (w *World) cmdLock(ctx *dispatch.Context, args dispatch.Args) string {
	target, ok := w.resolveNearby(ctx.Executor, args.LHS)
	if !ok {
		return "#-1 NOT FOUND"
	}
	lockText := strings.TrimSpace(args.RHS)
	if strings.EqualFold(lockText, "me") {
		lockText = fmt.Sprintf("#%d", int(ctx.Executor))
	}
	if _, err := lock.Parse(lockText); err != nil {
		return "#-1 SYNTAX ERROR IN LOCK"
	}
	w.Attrs.Set(target, attr.A_LOCK, lockText, ctx.Executor, types.AttrLock|types.AttrInternal)
	return "Locked."
}

// cmdParent implements `@parent <target>=<parent>`, resolving "me" on
// either side and "none" on the right to clear inheritance. Rejects a
// write that would cycle or exceed ParentNestLimit (spec.md §3).
func (w *World) cmdParent(ctx *dispatch.Context, args dispatch.Args) string {
	target, ok := w.resolveNearby(ctx.Executor, args.LHS)
	if !ok && strings.EqualFold(strings.TrimSpace(args.LHS), "me") {
		target, ok = ctx.Executor, true
	}
	if !ok {
		return "#-1 NOT FOUND"
	}

	rhs := strings.TrimSpace(args.RHS)
	parent := types.NOTHING
	if !strings.EqualFold(rhs, "none") {
		if strings.EqualFold(rhs, "me") {
			parent = ctx.Executor
		} else if d, ok := w.resolveNearby(ctx.Executor, rhs); ok {
			parent = d
		} else {
			return "#-1 NOT FOUND"
		}
	}

	switch err := w.Table.SetParent(target, parent); err {
	case nil:
		return "Parent set."
	case mdb.ErrParentCycle:
		return "#-1 PARENT WOULD CREATE A LOOP"
	case mdb.ErrParentNestLimit:
		return "#-1 PARENT CHAIN TOO DEEP"
	default:
		return "#-1 " + err.Error()
	}
}

// cmdGet implements spec.md §8 scenario 4: a locked target rejects
// any player whose (player, thing) pair fails the stored lock.
func (w *World) cmdGet(ctx *dispatch.Context, args dispatch.Args) string {
	target, ok := w.resolveNearby(ctx.Executor, args.LHS)
	if !ok {
		return "You don't see that here."
	}
	if !w.passesLock(ctx.Executor, target) {
		return "You can't pick that up."
	}
	if err := w.Table.Move(target, ctx.Executor); err != nil {
		return "#-1 " + err.Error()
	}
	return "Taken."
}

func (w *World) cmdDrop(ctx *dispatch.Context, args dispatch.Args) string {
	target, ok := w.resolveCarried(ctx.Executor, args.LHS)
	if !ok {
		return "You aren't carrying that."
	}
	room := w.Table.WhereIs(ctx.Executor)
	if err := w.Table.Move(target, room); err != nil {
		return "#-1 " + err.Error()
	}
	return "Dropped."
}

func (w *World) cmdLook(ctx *dispatch.Context, args dispatch.Args) string {
	target := ctx.Executor
	if name := strings.TrimSpace(args.LHS); name != "" {
		if d, ok := w.resolveNearby(ctx.Executor, name); ok {
			target = d
		}
	} else if room := w.Table.WhereIs(ctx.Executor); room != types.NOTHING {
		target = room
	}

	obj, ok := w.Table.Get(target)
	if !ok {
		return "You see nothing special."
	}
	var b strings.Builder
	b.WriteString(obj.Name)
	if desc := w.Attrs.Get(target, attr.A_DESC); desc.Text != "" {
		b.WriteString("\n")
		b.WriteString(desc.Text)
	}
	for _, d := range w.Table.Contents(target) {
		if d == ctx.Executor {
			continue
		}
		b.WriteString("\n")
		b.WriteString(w.objName(d))
	}
	return b.String()
}

// resolveNearby finds a case-insensitively-named object among those
// sharing d's location (spec.md §4.3's "nearby").
func (w *World) resolveNearby(d types.Dbref, name string) (types.Dbref, bool) {
	name = strings.TrimSpace(name)
	for _, cand := range w.Table.Nearby(d) {
		if obj, ok := w.Table.Get(cand); ok && strings.EqualFold(obj.Name, name) {
			return cand, true
		}
	}
	return 0, false
}

// resolveCarried finds a case-insensitively-named object in d's own
// Contents (what d is carrying).
func (w *World) resolveCarried(d types.Dbref, name string) (types.Dbref, bool) {
	name = strings.TrimSpace(name)
	for _, cand := range w.Table.Contents(d) {
		if obj, ok := w.Table.Get(cand); ok && strings.EqualFold(obj.Name, name) {
			return cand, true
		}
	}
	return 0, false
}

// passesLock evaluates target's stored LOCK attribute against
// (player, target), treating an absent lock as always-open.
func (w *World) passesLock(player, target types.Dbref) bool {
	lockText := w.Attrs.Get(target, attr.A_LOCK).Text
	tree, err := lock.Parse(lockText)
	if err != nil {
		return true
	}
	return lock.Eval(tree, player, target, w.Table, w.Attrs, w.Eval, LockDepthLimit)
}
