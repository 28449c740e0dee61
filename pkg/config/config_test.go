package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMergesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tinymux.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: 5000\ngame_name: MyMux\n"), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 5000, cfg.Port)
	assert.Equal(t, "MyMux", cfg.GameName)
	assert.Equal(t, time.Second, cfg.QueueTickInterval, "default QueueTickInterval should survive merge")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err, "expected error for missing file")
}

func TestWithOverridesAppliesOnlySetFields(t *testing.T) {
	cfg := Default()
	port := 9000
	cfg = cfg.WithOverrides(Overrides{Port: &port})

	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, Default().GameName, cfg.GameName, "GameName changed unexpectedly")
}
