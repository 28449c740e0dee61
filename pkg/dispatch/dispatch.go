package dispatch

import (
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/cuemby/tinymux/pkg/log"
	"github.com/cuemby/tinymux/pkg/metrics"
	"github.com/cuemby/tinymux/pkg/types"
)

// ArgShape describes how an entry's trailing text is split before the
// handler sees it (spec.md §4.6: "none / single-unparsed /
// two-args-separated-by-= / preserve-case").
type ArgShape uint8

const (
	ArgNone ArgShape = iota
	ArgUnparsed
	ArgEquals
	ArgPreserveCase
)

// HookMask flags an entry for the dispatcher's before/after hook points.
type HookMask uint32

const (
	HookNone HookMask = 0
	HookIgnoreGagged HookMask = 1 << (iota - 1)
	HookNoParse
)

// Objects is the subset of pkg/mdb a dispatcher needs to check an
// executor's permission flags.
type Objects interface {
	Get(d types.Dbref) (types.Object, bool)
}

// Added binds a user-added command name to an (object, attribute) pair
// triggered like @trigger (spec.md §4.6's "added list").
type Added struct {
	Thing types.Dbref
	Attr  int
}

// Trigger fires a (thing, attr) pair as if by @trigger. pkg/world wires
// this to the queue and the evaluator; a Dispatcher with no Trigger
// simply skips added-command bindings.
type Trigger interface {
	Trigger(executor, thing types.Dbref, attr int, args []string)
}

// Context carries the enactor/caller/executor triple a command line
// runs under (spec.md §3's queue-entry fields, minus the deferred parts).
type Context struct {
	Executor types.Dbref
	Caller   types.Dbref
	Enactor  types.Dbref
}

// Args is one command line's text, split according to its entry's
// ArgShape.
type Args struct {
	Switches  []string
	LHS       string
	RHS       string
	HasEquals bool
}

// HasSwitch reports whether name was present among the slash-separated
// switches on the command line, case-insensitively.
func (a Args) HasSwitch(name string) bool {
	for _, s := range a.Switches {
		if strings.EqualFold(s, name) {
			return true
		}
	}
	return false
}

// HandlerFunc implements one built-in command entry's behavior.
type HandlerFunc func(ctx *Context, args Args) string

// Entry is one command-entry of the global hash (spec.md §4.6):
// switch table, permission flags, argument shape, hook mask, handler,
// and the added-command list.
type Entry struct {
	Name          string
	Switches      map[string]struct{}
	RequiredFlags types.ObjectFlag
	ArgShape      ArgShape
	HookMask      HookMask
	Handler       HandlerFunc
	Added         []Added
}

// Dispatcher holds the mutable lowercased-name → command-entry table:
// built-ins plus runtime @addcommand/@delcommand overrides, grounded on
// the name→handler registration style of the teacher's API server
// generalized from RPC method names to MUX command names.
type Dispatcher struct {
	mu       sync.RWMutex
	entries  map[string]*Entry
	shadowed map[string]*Entry // built-ins pushed aside by @addcommand, keyed by the name they used to own
	objs     Objects
	trigger  Trigger
	log      zerolog.Logger
}

// New builds an empty Dispatcher. objs and trigger may be nil; a nil
// objs skips permission checks, a nil trigger skips added-command
// bindings (both are normal for a Dispatcher under test).
func New(objs Objects, trigger Trigger) *Dispatcher {
	return &Dispatcher{
		entries:  make(map[string]*Entry),
		shadowed: make(map[string]*Entry),
		objs:     objs,
		trigger:  trigger,
		log:      log.WithComponent("dispatch"),
	}
}

// Register installs or replaces a built-in command entry.
func (d *Dispatcher) Register(e *Entry) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.entries[strings.ToLower(e.Name)] = e
}

// Lookup returns the entry currently bound to name, if any.
func (d *Dispatcher) Lookup(name string) (*Entry, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	e, ok := d.entries[strings.ToLower(name)]
	return e, ok
}

// AddCommand implements `@addcommand name=obj/attr` (spec.md §4.6): it
// appends to the named entry's added list, creating a bare entry if
// none exists yet, or — for a name that shadows a built-in — renames
// the built-in to "__name" first so both remain reachable.
func (d *Dispatcher) AddCommand(name string, thing types.Dbref, attr int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	key := strings.ToLower(name)

	if existing, ok := d.entries[key]; ok && existing.Handler != nil {
		if _, alreadyShadowed := d.shadowed[key]; !alreadyShadowed {
			d.shadowed[key] = existing
			d.entries["__"+key] = existing
			d.entries[key] = &Entry{Name: name, ArgShape: ArgUnparsed}
		}
	}

	entry, ok := d.entries[key]
	if !ok {
		entry = &Entry{Name: name, ArgShape: ArgUnparsed}
		d.entries[key] = entry
	}
	entry.Added = append(entry.Added, Added{Thing: thing, Attr: attr})
}

// DelCommand implements `@delcommand`: removes the (thing, attr)
// binding from name's added list and, once no user bindings remain,
// restores any built-in that AddCommand had shadowed.
func (d *Dispatcher) DelCommand(name string, thing types.Dbref, attr int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	key := strings.ToLower(name)
	entry, ok := d.entries[key]
	if !ok {
		return
	}

	kept := entry.Added[:0]
	for _, a := range entry.Added {
		if a.Thing != thing || a.Attr != attr {
			kept = append(kept, a)
		}
	}
	entry.Added = kept

	if len(entry.Added) == 0 {
		if builtin, shadowed := d.shadowed[key]; shadowed {
			d.entries[key] = builtin
			delete(d.entries, "__"+key)
			delete(d.shadowed, key)
		}
	}
}

// Dispatch resolves line's command name, checks permissions, splits
// the remaining text per the entry's ArgShape, runs the built-in
// handler (if any), and fires every added-command binding in order.
func (d *Dispatcher) Dispatch(line string, ctx *Context) string {
	token, rest := splitCommandName(line)
	if token == "" {
		return ""
	}
	cmdName, switches := splitSwitches(token)

	d.mu.RLock()
	entry, ok := d.entries[strings.ToLower(cmdName)]
	d.mu.RUnlock()
	if !ok {
		metrics.CommandsDispatched.WithLabelValues(strings.ToLower(cmdName), "not_found").Inc()
		return fmt.Sprintf("#-1 UNRECOGNIZED COMMAND: %s", strings.ToUpper(cmdName))
	}

	if !d.permitted(ctx, entry) {
		metrics.CommandsDispatched.WithLabelValues(entry.Name, "denied").Inc()
		return "#-1 PERMISSION DENIED"
	}

	args := parseArgs(rest, entry.ArgShape, switches)

	var out strings.Builder
	if entry.Handler != nil {
		out.WriteString(entry.Handler(ctx, args))
	}
	for _, a := range entry.Added {
		if d.trigger != nil {
			d.trigger.Trigger(ctx.Executor, a.Thing, a.Attr, []string{args.LHS, args.RHS})
		}
	}

	metrics.CommandsDispatched.WithLabelValues(entry.Name, "ok").Inc()
	d.log.Debug().Str("command", entry.Name).Int("dbref", int(ctx.Executor)).Msg("dispatched")
	return out.String()
}

func (d *Dispatcher) permitted(ctx *Context, entry *Entry) bool {
	if entry.RequiredFlags == 0 || d.objs == nil {
		return true
	}
	obj, ok := d.objs.Get(ctx.Executor)
	if !ok {
		return false
	}
	return obj.Flags&entry.RequiredFlags == entry.RequiredFlags
}

// splitCommandName takes the first whitespace-delimited token off line.
func splitCommandName(line string) (name, rest string) {
	line = strings.TrimLeft(line, " \t")
	i := strings.IndexAny(line, " \t")
	if i < 0 {
		return line, ""
	}
	return line[:i], strings.TrimLeft(line[i+1:], " \t")
}

// splitSwitches splits a command token's slash-separated switches from
// its bare name, e.g. "look/outside" -> ("look", ["outside"]).
func splitSwitches(token string) (name string, switches []string) {
	parts := strings.Split(token, "/")
	return parts[0], parts[1:]
}

func parseArgs(rest string, shape ArgShape, switches []string) Args {
	a := Args{Switches: switches}
	switch shape {
	case ArgNone:
	case ArgUnparsed:
		a.LHS = rest
	case ArgEquals, ArgPreserveCase:
		if idx := strings.IndexByte(rest, '='); idx >= 0 {
			a.HasEquals = true
			a.LHS = rest[:idx]
			a.RHS = rest[idx+1:]
		} else {
			a.LHS = rest
		}
	}
	return a
}
