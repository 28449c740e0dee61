package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cuemby/tinymux/pkg/types"
	"github.com/cuemby/tinymux/pkg/world"
)

var checkpointCmd = &cobra.Command{
	Use:   "checkpoint",
	Short: "Load the flatfile, then immediately write it back out",
	Long: `Checkpoint loads the configured flatfile into a fresh World and
writes it straight back out, exercising the same round trip a running
server's periodic checkpoint performs, without opening the network
listener (spec.md §4.8).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		w, err := world.New(cfg, nil)
		if err != nil {
			return fmt.Errorf("build world: %w", err)
		}
		defer w.Stop()
		if err := w.LoadCheckpoint(cfg.FlatfilePath); err != nil {
			return fmt.Errorf("load checkpoint: %w", err)
		}
		if err := w.Checkpoint(cfg.FlatfilePath); err != nil {
			return fmt.Errorf("write checkpoint: %w", err)
		}
		fmt.Printf("Checkpoint written: %s\n", cfg.FlatfilePath)
		return nil
	},
}

var restartCmd = &cobra.Command{
	Use:   "restart",
	Short: "Signal a running server to checkpoint and exit",
	Long: `Restart sends an interrupt (SIGINT) to the pid recorded in the
configured pid file. The running server's own shutdown path checkpoints
before it exits; this command does not itself touch the flatfile and
does not start a replacement server process.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		data, err := os.ReadFile(cfg.PidFile)
		if err != nil {
			return fmt.Errorf("read pid file: %w", err)
		}
		var pid int
		if _, err := fmt.Sscanf(string(data), "%d", &pid); err != nil {
			return fmt.Errorf("parse pid file: %w", err)
		}
		proc, err := os.FindProcess(pid)
		if err != nil {
			return fmt.Errorf("find process %d: %w", pid, err)
		}
		if err := proc.Signal(os.Interrupt); err != nil {
			return fmt.Errorf("signal process %d: %w", pid, err)
		}
		fmt.Printf("Sent restart signal to pid %d\n", pid)
		return nil
	},
}

var dumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Print a summary of the configured flatfile's contents",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		w, err := world.New(cfg, nil)
		if err != nil {
			return fmt.Errorf("build world: %w", err)
		}
		defer w.Stop()
		if err := w.LoadCheckpoint(cfg.FlatfilePath); err != nil {
			return fmt.Errorf("load checkpoint: %w", err)
		}

		top := w.Table.DbTop()
		fmt.Printf("db_top: #%d\n", int(top))
		for d := 0; d < int(top); d++ {
			obj, ok := w.Table.Get(types.Dbref(d))
			if !ok {
				continue
			}
			fmt.Printf("#%d %s owner=#%d loc=#%d type=%s\n", d, obj.Name, int(obj.Owner), int(obj.Location), obj.Type.String())
		}
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("TinyMUX version %s\nCommit: %s\nBuilt: %s\n", Version, Commit, BuildTime)
	},
}
