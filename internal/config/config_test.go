package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mash-protocol/devlog/pkg/log"
)

const sampleYAML = `
max_entry_len: 96
log_level: debug
features:
  shell: true
  metrics: true
flash:
  dir: /var/lib/devlog
  max_entries: 500
  fsync: always
redis:
  addr: localhost:6379
  op_timeout: 500ms
logs:
  - name: boot
    level: info
    backend:
      type: flash
  - name: ble
    level: warn
    backend:
      type: cbmem
      capacity: 2048
  - name: trace
    level: debug
    backend:
      type: console
      rate: 5
      burst: 10
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "devlog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, log.DefaultMaxEntryLen, cfg.MaxEntryLen)
	require.Len(t, cfg.Logs, 1)
	assert.Equal(t, BackendCBMem, cfg.Logs[0].Backend.Type)
	assert.False(t, cfg.Features.Shell)
}

func TestLoadFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, 96, cfg.MaxEntryLen)
	assert.True(t, cfg.Features.Shell)
	assert.True(t, cfg.Features.Metrics)
	assert.Equal(t, ":9464", cfg.Features.MetricsAddr, "unset keys keep defaults")
	assert.Equal(t, 500, cfg.Flash.MaxEntries)
	assert.Equal(t, 500*time.Millisecond, cfg.Redis.OpTimeout)
	assert.Equal(t, "devlog", cfg.Redis.Prefix)

	require.Len(t, cfg.Logs, 3)
	assert.Equal(t, "ble", cfg.Logs[1].Name)
	assert.Equal(t, log.LevelWarn, cfg.Logs[1].ParsedLevel())
	assert.Equal(t, 2048, cfg.Logs[1].Backend.Capacity)
	assert.Equal(t, 5.0, cfg.Logs[2].Backend.Rate)
}

func TestLoadEnvOverlay(t *testing.T) {
	t.Setenv("DEVLOG_MAX_ENTRY_LEN", "64")
	t.Setenv("DEVLOG_SHELL", "false")
	t.Setenv("DEVLOG_METRICS_ADDR", "127.0.0.1:9000")
	t.Setenv("DEVLOG_FLASH_DIR", "/tmp/override")

	cfg, err := Load(writeConfig(t, sampleYAML))
	require.NoError(t, err)
	assert.Equal(t, 64, cfg.MaxEntryLen)
	assert.False(t, cfg.Features.Shell)
	assert.Equal(t, "127.0.0.1:9000", cfg.Features.MetricsAddr)
	assert.Equal(t, "/tmp/override", cfg.Flash.Dir)
}

func TestLoadBadEnv(t *testing.T) {
	t.Setenv("DEVLOG_MAX_ENTRY_LEN", "lots")
	_, err := Load("")
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestParseInvalidYAML(t *testing.T) {
	err := Parse([]byte("logs: [unterminated"), Default())
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"ok", func(c *Config) {}, ""},
		{"max entry len", func(c *Config) { c.MaxEntryLen = 0 }, "max_entry_len"},
		{"log level", func(c *Config) { c.LogLevel = "chatty" }, "log_level"},
		{"fsync", func(c *Config) { c.Flash.Fsync = "sometimes" }, "flash.fsync"},
		{"missing name", func(c *Config) { c.Logs[0].Name = "" }, "name is required"},
		{"duplicate", func(c *Config) { c.Logs = append(c.Logs, c.Logs[0]) }, "duplicate name"},
		{"bad level", func(c *Config) { c.Logs[0].Level = "loud" }, "invalid level"},
		{"unknown backend", func(c *Config) { c.Logs[0].Backend.Type = "tape" }, "unknown backend type"},
		{"cbmem capacity", func(c *Config) { c.Logs[0].Backend.Capacity = 0 }, "capacity"},
		{"file path", func(c *Config) { c.Logs[0].Backend = BackendConfig{Type: BackendFile} }, "requires path"},
		{"flash dir", func(c *Config) { c.Logs[0].Backend = BackendConfig{Type: BackendFlash} }, "flash.dir"},
		{"redis addr", func(c *Config) { c.Logs[0].Backend = BackendConfig{Type: BackendRedis} }, "redis.addr"},
		{"multi children", func(c *Config) { c.Logs[0].Backend = BackendConfig{Type: BackendMulti} }, "requires children"},
		{"multi nested", func(c *Config) {
			c.Logs[0].Backend = BackendConfig{Type: BackendMulti, Children: []BackendConfig{{Type: BackendMulti}}}
		}, "cannot nest"},
		{"multi child invalid", func(c *Config) {
			c.Logs[0].Backend = BackendConfig{Type: BackendMulti, Children: []BackendConfig{{Type: BackendCBMem}}}
		}, "children[0]: cbmem capacity"},
		{"multi ok", func(c *Config) {
			c.Logs[0].Backend = BackendConfig{Type: BackendMulti, Children: []BackendConfig{
				{Type: BackendCBMem, Capacity: 64}, {Type: BackendConsole},
			}}
		}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSlogLevel(t *testing.T) {
	lvl, err := SlogLevel("WARN")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, lvl)

	lvl, err = SlogLevel("")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelInfo, lvl)
}
