package world

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	bolt "go.etcd.io/bbolt"
	"github.com/rs/zerolog"

	"github.com/cuemby/tinymux/pkg/attr"
	"github.com/cuemby/tinymux/pkg/config"
	"github.com/cuemby/tinymux/pkg/dispatch"
	"github.com/cuemby/tinymux/pkg/eval"
	"github.com/cuemby/tinymux/pkg/helper"
	"github.com/cuemby/tinymux/pkg/log"
	"github.com/cuemby/tinymux/pkg/mdb"
	"github.com/cuemby/tinymux/pkg/notify"
	"github.com/cuemby/tinymux/pkg/persist"
	"github.com/cuemby/tinymux/pkg/queue"
	"github.com/cuemby/tinymux/pkg/types"
)

// NtfyNestLim bounds where_room's container walk (spec.md §8's
// invariant that it "terminates within ntfy_nest_lim").
const NtfyNestLim = 50

// LockDepthLimit bounds lock-expression recursion (spec.md §4.9).
const LockDepthLimit = 20

// World is the single top-level value every command handler and
// background loop is threaded through explicitly, in place of the
// original's global mutable state.
type World struct {
	Config   config.Config
	Table    *mdb.Table
	Catalog  *attr.Catalog
	Attrs    *attr.Store
	Eval     *eval.Evaluator
	Dispatch *dispatch.Dispatcher
	Queue    *queue.Queue
	Notify   *notify.Broker
	Helpers  *helper.Registry

	// RestartAllowed governs whether Assert/resource exhaustion
	// escalate to an in-process Restart (spec.md §7's error taxonomy
	// items 3-4) or straight to Abort.
	RestartAllowed bool

	db    *bolt.DB
	nowFn func() time.Time
	log   zerolog.Logger
}

// New builds a World: opens the attribute pager under cfg.DataDir,
// constructs every subsystem, and registers the built-in command
// table. nowFn, if nil, defaults to time.Now.
func New(cfg config.Config, nowFn func() time.Time) (*World, error) {
	if nowFn == nil {
		nowFn = time.Now
	}
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("world: create data dir: %w", err)
	}
	db, err := bolt.Open(filepath.Join(cfg.DataDir, "attrs.db"), 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("world: open attribute store: %w", err)
	}

	cat := attr.NewCatalog()
	store, err := attr.NewStore(db, cat, 4096)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("world: new attribute store: %w", err)
	}

	w := &World{
		Config:  cfg,
		Table:   mdb.New(nowFn),
		Catalog: cat,
		Attrs:   store,
		Eval:    eval.New(store, cat, eval.DefaultLimits),
		Notify:  notify.NewBroker(),
		Helpers: helper.NewRegistry(),
		db:      db,
		nowFn:   nowFn,
		log:     log.WithComponent("world"),
	}

	helper.RegisterExternFunc(w.Eval, w.Helpers)

	w.Dispatch = dispatch.New(w.Table, w)
	dispatch.RegisterBuiltins(w.Dispatch, w.Eval)
	registerWorldCommands(w)

	w.Queue = queue.New(&dispatchAdapter{w.Dispatch}, nowFn)

	return w, nil
}

// Start begins the background notification and tick loops.
func (w *World) Start(tickInterval time.Duration, costBudget int) {
	w.Notify.Start()
	w.Queue.Start(tickInterval, costBudget)
}

// Stop halts the background loops and closes the attribute pager.
// Checkpoint first if the caller wants state preserved.
func (w *World) Stop() {
	w.Queue.Stop()
	w.Notify.Stop()
	w.db.Close()
}

// dispatchAdapter satisfies pkg/queue.Dispatcher by forwarding to a
// pkg/dispatch.Dispatcher, translating queue.DispatchContext into
// dispatch.Context.
type dispatchAdapter struct {
	d *dispatch.Dispatcher
}

func (a *dispatchAdapter) Dispatch(line string, ctx *queue.DispatchContext) string {
	return a.d.Dispatch(line, &dispatch.Context{Executor: ctx.Executor, Caller: ctx.Caller, Enactor: ctx.Enactor})
}

// Trigger implements pkg/dispatch.Trigger: an @addcommand binding (or
// `@trigger`) fires thing's attr text as a deferred command, enqueued
// to run on the next tick rather than recursing straight back into
// Dispatch.
func (w *World) Trigger(executor, thing types.Dbref, attrNum int, args []string) {
	v := w.Attrs.Get(thing, attrNum)
	if v.Text == "" {
		return
	}
	w.Queue.Enqueue(&types.QueueEntry{
		ReadyTime: w.nowFn(),
		SemObj:    types.NOTHING,
		Enactor:   executor,
		Caller:    executor,
		Executor:  thing,
		Text:      v.Text,
	})
}

// Checkpoint writes a full dump of the object table, attribute store,
// and catalog to path (spec.md §4.8).
func (w *World) Checkpoint(path string) error {
	return persist.WriteFlatfile(path, w.Table, w.Attrs, w.Catalog)
}

// LoadCheckpoint replays path into a freshly constructed World's
// object table, attribute store, and catalog.
func (w *World) LoadCheckpoint(path string) error {
	return persist.LoadFlatfile(path, w.Table, w.Attrs, w.Catalog)
}

// Restart implements the live-restart handoff of spec.md §4.8: flush
// a checkpoint to the configured flatfile, tear down helper channels,
// and re-exec the current binary so the new process picks the flatfile
// back up. It only returns on failure.
func (w *World) Restart() error {
	if err := w.Checkpoint(w.Config.FlatfilePath); err != nil {
		return fmt.Errorf("world: restart checkpoint: %w", err)
	}
	binPath, err := os.Executable()
	if err != nil {
		return fmt.Errorf("world: resolve executable: %w", err)
	}
	return persist.Reexec(binPath, os.Args, os.Environ(), []persist.HelperShutdown{w.Helpers})
}

// Abort logs msg as a fatal error and terminates the process
// immediately — spec.md §7's last resort when restart is not allowed.
func (w *World) Abort(msg string) {
	w.log.Error().Str("reason", msg).Msg("aborting")
	os.Exit(1)
}

// Assert implements spec.md §7's invariant-violation path: a false
// cond logs the caller's location, then either restarts (if allowed)
// or aborts. It never returns when cond is false and RestartAllowed
// is false or Restart itself fails.
func (w *World) Assert(cond bool, msg string) {
	if cond {
		return
	}
	_, file, line, _ := runtime.Caller(1)
	w.log.Error().Str("location", fmt.Sprintf("%s:%d", file, line)).Msg("assertion failed: " + msg)
	if w.RestartAllowed {
		if err := w.Restart(); err != nil {
			w.log.Error().Err(err).Msg("restart failed after assertion failure")
		} else {
			return // unreachable on success: Restart re-execs the process
		}
	}
	w.Abort("assertion failed: " + msg)
}
