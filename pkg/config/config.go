package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the immutable snapshot a tinymux process runs with,
// resolved once at startup from a YAML file plus CLI overrides
// (spec.md §6's `-c`, `-p`, `-s` flags).
type Config struct {
	GameName string `yaml:"game_name"`
	Port     int    `yaml:"port"`

	DataDir      string `yaml:"data_dir"`
	FlatfilePath string `yaml:"flatfile_path"`
	PidFile      string `yaml:"pid_file"`

	CheckpointInterval time.Duration `yaml:"checkpoint_interval"`
	QueueTickInterval  time.Duration `yaml:"queue_tick_interval"`
	QueueCostBudget    int           `yaml:"queue_cost_budget"`

	LogLevel string `yaml:"log_level"`
}

// Default returns the baseline config a fresh install starts from.
func Default() Config {
	return Config{
		GameName:           "TinyMUX",
		Port:               4201,
		DataDir:            "./data",
		FlatfilePath:       "./data/tinymux.db",
		PidFile:            "./data/tinymux.pid",
		CheckpointInterval: 10 * time.Minute,
		QueueTickInterval:  time.Second,
		QueueCostBudget:    100,
		LogLevel:           "info",
	}
}

// Load reads path as YAML on top of Default(), so an omitted field
// keeps its default rather than zeroing out.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// Overrides holds values that, when set, take precedence over whatever
// Load produced: port, data dir, flatfile path, and log level. The pid
// file (the -p flag) is not among them. Nil fields mean "not given."
type Overrides struct {
	Port         *int
	DataDir      *string
	FlatfilePath *string
	LogLevel     *string
}

// WithOverrides returns a copy of c with every non-nil field of o
// applied.
func (c Config) WithOverrides(o Overrides) Config {
	if o.Port != nil {
		c.Port = *o.Port
	}
	if o.DataDir != nil {
		c.DataDir = *o.DataDir
	}
	if o.FlatfilePath != nil {
		c.FlatfilePath = *o.FlatfilePath
	}
	if o.LogLevel != nil {
		c.LogLevel = *o.LogLevel
	}
	return c
}
