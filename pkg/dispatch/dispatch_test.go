package dispatch

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cuemby/tinymux/pkg/types"
)

type fakeObjects map[types.Dbref]types.Object

func (f fakeObjects) Get(d types.Dbref) (types.Object, bool) {
	o, ok := f[d]
	return o, ok
}

type fakeTrigger struct {
	calls []triggerCall
}

type triggerCall struct {
	executor, thing types.Dbref
	attr            int
}

func (f *fakeTrigger) Trigger(executor, thing types.Dbref, attr int, args []string) {
	f.calls = append(f.calls, triggerCall{executor, thing, attr})
}

func TestDispatchUnknownCommand(t *testing.T) {
	d := New(nil, nil)
	got := d.Dispatch("bogus foo", &Context{Executor: 5})
	assert.Equal(t, "#-1 UNRECOGNIZED COMMAND: BOGUS", got)
}

func TestDispatchRunsHandlerWithArgShape(t *testing.T) {
	d := New(nil, nil)
	d.Register(&Entry{
		Name:     "say",
		ArgShape: ArgUnparsed,
		Handler: func(ctx *Context, args Args) string {
			return "You say, \"" + args.LHS + "\""
		},
	})
	got := d.Dispatch("say hello there", &Context{Executor: 5})
	assert.Equal(t, `You say, "hello there"`, got)
}

func TestDispatchSplitsEquals(t *testing.T) {
	d := New(nil, nil)
	var seenLHS, seenRHS string
	d.Register(&Entry{
		Name:     "@set",
		ArgShape: ArgEquals,
		Handler: func(ctx *Context, args Args) string {
			seenLHS, seenRHS = args.LHS, args.RHS
			return ""
		},
	})
	d.Dispatch("@set me=FOO:bar", &Context{})
	assert.Equal(t, "me", seenLHS)
	assert.Equal(t, "FOO:bar", seenRHS)
}

func TestDispatchParsesSwitches(t *testing.T) {
	d := New(nil, nil)
	var sawSwitch bool
	d.Register(&Entry{
		Name:     "look",
		ArgShape: ArgUnparsed,
		Handler: func(ctx *Context, args Args) string {
			sawSwitch = args.HasSwitch("outside")
			return ""
		},
	})
	d.Dispatch("look/outside here", &Context{})
	assert.True(t, sawSwitch, "expected HasSwitch(outside) true")
}

func TestDispatchPermissionDenied(t *testing.T) {
	objs := fakeObjects{5: {Dbref: 5, Flags: 0}}
	d := New(objs, nil)
	d.Register(&Entry{
		Name:          "@boot",
		ArgShape:      ArgUnparsed,
		RequiredFlags: types.FlagWizard,
		Handler:       func(ctx *Context, args Args) string { return "booted" },
	})
	got := d.Dispatch("@boot someone", &Context{Executor: 5})
	assert.Equal(t, "#-1 PERMISSION DENIED", got)
}

func TestDispatchPermissionGranted(t *testing.T) {
	objs := fakeObjects{5: {Dbref: 5, Flags: types.FlagWizard}}
	d := New(objs, nil)
	d.Register(&Entry{
		Name:          "@boot",
		ArgShape:      ArgUnparsed,
		RequiredFlags: types.FlagWizard,
		Handler:       func(ctx *Context, args Args) string { return "booted" },
	})
	got := d.Dispatch("@boot someone", &Context{Executor: 5})
	assert.Equal(t, "booted", got)
}

func TestAddCommandShadowsBuiltinAndDelCommandRestores(t *testing.T) {
	trig := &fakeTrigger{}
	d := New(nil, trig)
	d.Register(&Entry{
		Name:     "page",
		ArgShape: ArgUnparsed,
		Handler:  func(ctx *Context, args Args) string { return "builtin-page" },
	})

	d.AddCommand("page", 100, 250)

	got := d.Dispatch("page hi", &Context{Executor: 5})
	assert.Equal(t, "", got, "shadowed built-in should not run directly")
	if assert.Len(t, trig.calls, 1) {
		assert.Equal(t, types.Dbref(100), trig.calls[0].thing)
		assert.Equal(t, 250, trig.calls[0].attr)
	}

	builtin, ok := d.Lookup("__page")
	assert.True(t, ok, "expected shadowed built-in reachable at __page")
	assert.NotNil(t, builtin.Handler)

	d.DelCommand("page", 100, 250)
	got = d.Dispatch("page hi", &Context{Executor: 5})
	assert.Equal(t, "builtin-page", got, "expected built-in restored after DelCommand")
}

func TestAddCommandWithoutShadowingBuiltin(t *testing.T) {
	trig := &fakeTrigger{}
	d := New(nil, trig)
	d.AddCommand("greet", 200, 260)
	d.Dispatch("greet world", &Context{Executor: 9})
	if assert.Len(t, trig.calls, 1) {
		assert.Equal(t, types.Dbref(9), trig.calls[0].executor)
	}
}
