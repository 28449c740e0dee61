package main

import (
	"fmt"
	"strings"

	"github.com/cuemby/tinymux/pkg/dispatch"
	"github.com/cuemby/tinymux/pkg/netio"
	"github.com/cuemby/tinymux/pkg/types"
	"github.com/cuemby/tinymux/pkg/world"
)

// serveSession runs one connection's read-eval-print loop. The
// telnet/SSL line reader and the session/login state machine are
// named out of scope at the engine layer (spec.md §1); this is the
// thin external collaborator that fills that seam with a minimal
// "connect <name>" handshake before handing lines to the dispatcher.
func serveSession(w *world.World, sess netio.LineSession) {
	sess.WriteLine("TinyMUX")
	sess.WriteLine(`Enter "connect <name>" to begin.`)

	player, ok := authenticate(w, sess)
	if !ok {
		return
	}

	ctx := &dispatch.Context{Executor: player, Caller: player, Enactor: player}
	for {
		line, err := sess.ReadLine()
		if err != nil {
			return
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.EqualFold(line, "quit") || strings.EqualFold(line, "@quit") {
			sess.WriteLine("Goodbye.")
			return
		}
		out := w.Execute(line, ctx)
		if out != "" {
			if err := sess.WriteLine(out); err != nil {
				return
			}
		}
	}
}

// authenticate resolves "connect <name>" to an existing player by a
// case-insensitive linear scan of the object table. There is no
// password check: the original's login state machine is explicitly
// out of scope (spec.md §1), and this CLI only needs a working
// end-to-end path for the engine underneath it.
func authenticate(w *world.World, sess netio.LineSession) (types.Dbref, bool) {
	for {
		line, err := sess.ReadLine()
		if err != nil {
			return 0, false
		}
		line = strings.TrimSpace(line)
		fields := strings.Fields(line)
		if len(fields) < 2 || !strings.EqualFold(fields[0], "connect") {
			sess.WriteLine(`Enter "connect <name>" to begin.`)
			continue
		}
		name := strings.Join(fields[1:], " ")
		if d, ok := findPlayer(w, name); ok {
			sess.WriteLine(fmt.Sprintf("Connected as %s.", name))
			return d, true
		}
		sess.WriteLine("No such player.")
	}
}

func findPlayer(w *world.World, name string) (types.Dbref, bool) {
	top := w.Table.DbTop()
	for d := types.Dbref(1); d < top; d++ {
		obj, ok := w.Table.Get(d)
		if !ok || obj.Type != types.TypePlayer {
			continue
		}
		if strings.EqualFold(obj.Name, name) {
			return d, true
		}
	}
	return 0, false
}
