package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	t.Setenv("CONFIG_PATH", path)
}

func TestInitLoadsFullConfig(t *testing.T) {
	writeConfigFile(t, `
server:
  port: 9000
  mode: release
redis:
  addr: localhost:6379
  db: 2
logger:
  level: debug
  output: console
scheduler:
  alpha: 0.6
  beta: 0.4
  history_window: 20
  block_size: 8
  vm_capacity:
    cpu: 100
    mem: 200
    io: 50
    bw: 10
`)

	require.NoError(t, Init())
	cfg := GlobalConfig
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "release", cfg.Server.Mode)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, 2, cfg.Redis.DB)
	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.Equal(t, 0.6, cfg.Scheduler.Alpha)
	assert.Equal(t, 0.4, cfg.Scheduler.Beta)
	assert.Equal(t, 20, cfg.Scheduler.HistoryWindow)
	assert.Equal(t, 8, cfg.Scheduler.BlockSize)
	assert.Equal(t, 100.0, cfg.Scheduler.VMCapacity.CPU)
}

func TestInitAppliesSchedulerDefaultsForSparseConfig(t *testing.T) {
	writeConfigFile(t, `
logger:
  level: info
  output: console
`)

	require.NoError(t, Init())
	defaults := DefaultSchedulerConfig()
	s := GlobalConfig.Scheduler
	assert.Equal(t, defaults.Alpha, s.Alpha)
	assert.Equal(t, defaults.Beta, s.Beta)
	assert.Equal(t, defaults.HistoryWindow, s.HistoryWindow)
	assert.Equal(t, defaults.BlockSize, s.BlockSize)
	assert.Equal(t, defaults.VMCapacity, s.VMCapacity)
	assert.Equal(t, 8000, GlobalConfig.Server.Port)
}

func TestInitReplacesInvalidTunables(t *testing.T) {
	writeConfigFile(t, `
scheduler:
  alpha: -1
  beta: 0
  history_window: -5
  block_size: 0
  vm_capacity:
    cpu: 100
    mem: 0
    io: 50
    bw: 10
`)

	require.NoError(t, Init())
	defaults := DefaultSchedulerConfig()
	s := GlobalConfig.Scheduler
	assert.Equal(t, defaults.Alpha, s.Alpha)
	assert.Equal(t, defaults.Beta, s.Beta)
	assert.Equal(t, defaults.HistoryWindow, s.HistoryWindow)
	assert.Equal(t, defaults.BlockSize, s.BlockSize)
	// One non-positive dimension invalidates the whole capacity block.
	assert.Equal(t, defaults.VMCapacity, s.VMCapacity)
}

func TestInitFailsOnMissingFile(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, Init())
}

func TestInitFailsOnMalformedYAML(t *testing.T) {
	writeConfigFile(t, "server: [not a mapping")
	require.Error(t, Init())
}
