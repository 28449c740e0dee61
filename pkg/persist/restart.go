package persist

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/cuemby/tinymux/pkg/log"
)

// RestartExitCode is the self-restart sentinel spec.md's CLI surface
// names (historically a Windows-only exit code observed by a wrapper
// script); Reexec's spawn-then-exit redesign below reuses it on every
// platform as the process's own exit status after a successful handoff.
const RestartExitCode = 12345678

// WriteFlatfile checkpoints objs/attrs/cat to a temp file next to path
// and renames it into place, so a reader never observes a partial
// flatfile (spec.md §4.8's restart path: "flushes caches, writes a
// dump to a designated flatfile").
func WriteFlatfile(path string, objs ObjectSource, attrs AttrSource, cat CatalogSource) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("persist: create flatfile: %w", err)
	}
	if err := Checkpoint(f, objs, attrs, cat); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("persist: checkpoint: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("persist: sync flatfile: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("persist: close flatfile: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("persist: install flatfile: %w", err)
	}
	return nil
}

// LoadFlatfile opens path and replays it into objs/attrs/cat.
func LoadFlatfile(path string, objs Loader, attrs AttrLoader, cat CatalogLoader) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("persist: open flatfile: %w", err)
	}
	defer f.Close()
	return Restore(f, objs, attrs, cat)
}

// HelperShutdown cleanly stops an auxiliary helper process (DNS
// channel, SSL channel — spec.md §4.8's "tears down auxiliary helper
// processes cleanly") before a re-exec.
type HelperShutdown interface {
	Shutdown()
}

// Reexec implements spec.md §4.8's live-restart handoff, redesigned per
// spec.md's own flag away from the rarely-tested execl path: it shuts
// down every auxiliary helper, spawns a fresh copy of binPath that
// reloads the flatfile WriteFlatfile just wrote, and once that child
// has started, exits the current process with RestartExitCode rather
// than replacing its image in place. It only returns on failure to
// spawn; success never returns to the caller.
func Reexec(binPath string, args, env []string, helpers []HelperShutdown) error {
	reexecLog := log.WithComponent("persist")
	for _, h := range helpers {
		h.Shutdown()
	}

	var childArgs []string
	if len(args) > 1 {
		childArgs = args[1:]
	}
	child := exec.Command(binPath, childArgs...)
	child.Env = env
	child.Stdin = os.Stdin
	child.Stdout = os.Stdout
	child.Stderr = os.Stderr
	if err := child.Start(); err != nil {
		return fmt.Errorf("persist: spawn replacement process: %w", err)
	}

	reexecLog.Info().Int("pid", child.Process.Pid).Msg("replacement process started, exiting for handoff")
	os.Exit(RestartExitCode)
	return nil // unreachable
}
