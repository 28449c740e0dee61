package main

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cuemby/tinymux/pkg/config"
	"github.com/cuemby/tinymux/pkg/log"
	"github.com/cuemby/tinymux/pkg/metrics"
	"github.com/cuemby/tinymux/pkg/netio"
	"github.com/cuemby/tinymux/pkg/world"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "tinymux",
	Short: "TinyMUX - a persistent multi-user text virtual-world server",
	Long: `TinyMUX hosts a shared object/attribute database and a sandboxed
expression/command language: many clients connect over a line-oriented
TCP protocol, manipulate the object graph, and trigger deferred commands
that run at interpreter tick boundaries.`,
	Version: Version,
	RunE:    runServer,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"TinyMUX version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Output logs in JSON format")
	rootCmd.PersistentFlags().StringP("config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().StringP("pid-file", "p", "", "Write the process id to this file")

	rootCmd.Flags().BoolP("standalone", "s", false, "Run without opening the network listener")
	rootCmd.Flags().BoolP("version-flag", "v", false, "Print version and exit")

	cobra.OnInitialize(initLogging)

	rootCmd.AddCommand(checkpointCmd)
	rootCmd.AddCommand(restartCmd)
	rootCmd.AddCommand(dumpCmd)
	rootCmd.AddCommand(versionCmd)
}

func initLogging() {
	logLevel, _ := rootCmd.PersistentFlags().GetString("log-level")
	logJSON, _ := rootCmd.PersistentFlags().GetBool("log-json")

	log.Init(log.Config{
		Level:      log.Level(logLevel),
		JSONOutput: logJSON,
	})
}

// loadConfig applies -c on top of config.Default(), the way the
// original CLI layers a config file over built-in defaults.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

func writePidFile(path string) error {
	if path == "" {
		return nil
	}
	return os.WriteFile(path, []byte(fmt.Sprintf("%d\n", os.Getpid())), 0644)
}

// runServer implements the `-v` version flag and the default run
// behavior: build a World, optionally open the network listener, and
// block until a shutdown signal arrives (spec.md §6's CLI surface and
// exit-code contract).
func runServer(cmd *cobra.Command, args []string) error {
	if v, _ := cmd.Flags().GetBool("version-flag"); v {
		fmt.Printf("TinyMUX version %s\nCommit: %s\nBuilt: %s\n", Version, Commit, BuildTime)
		return nil
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if pidFile, _ := cmd.Flags().GetString("pid-file"); pidFile != "" {
		cfg.PidFile = pidFile
	}
	if err := writePidFile(cfg.PidFile); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(cfg.PidFile)

	w, err := world.New(cfg, nil)
	if err != nil {
		return fmt.Errorf("build world: %w", err)
	}
	if _, err := os.Stat(cfg.FlatfilePath); err == nil {
		if err := w.LoadCheckpoint(cfg.FlatfilePath); err != nil {
			return fmt.Errorf("load checkpoint: %w", err)
		}
	}
	w.Start(cfg.QueueTickInterval, cfg.QueueCostBudget)
	defer w.Stop()

	standalone, _ := cmd.Flags().GetBool("standalone")
	var listener *netio.Listener
	if !standalone {
		listener = netio.NewListener(func(sess netio.LineSession) { serveSession(w, sess) })
		if err := listener.Start(fmt.Sprintf(":%d", cfg.Port)); err != nil {
			return fmt.Errorf("start listener: %w", err)
		}
		defer listener.Stop()

		go func() {
			http.Handle("/metrics", metrics.Handler())
			_ = http.ListenAndServe("127.0.0.1:9090", nil)
		}()
		fmt.Printf("Listening on port %d\n", cfg.Port)
	}

	fmt.Println("TinyMUX is running. Press Ctrl+C to stop.")
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	fmt.Println("\nShutting down...")
	if err := w.Checkpoint(cfg.FlatfilePath); err != nil {
		return fmt.Errorf("checkpoint on shutdown: %w", err)
	}
	fmt.Println("Shutdown complete")
	return nil
}
