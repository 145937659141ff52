package app

import (
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mash-protocol/devlog/internal/config"
	"github.com/mash-protocol/devlog/pkg/log"
	"github.com/mash-protocol/devlog/pkg/log/cbmem"
	"github.com/mash-protocol/devlog/pkg/log/file"
	"github.com/mash-protocol/devlog/pkg/log/flash"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Flash.Dir = filepath.Join(dir, "flash")
	cfg.Flash.Fsync = "never"
	cfg.Logs = []config.LogConfig{
		{Name: "ring", Level: "info", Backend: config.BackendConfig{Type: config.BackendCBMem, Capacity: 512}},
		{Name: "boot", Level: "debug", Backend: config.BackendConfig{Type: config.BackendFlash}},
		{Name: "reboot", Level: "debug", Backend: config.BackendConfig{Type: config.BackendFlash}},
		{Name: "trace-a", Level: "debug", Backend: config.BackendConfig{Type: config.BackendFile, Path: filepath.Join(dir, "trace.dlog")}},
		{Name: "trace-b", Level: "debug", Backend: config.BackendConfig{Type: config.BackendFile, Path: filepath.Join(dir, "trace.dlog")}},
		{Name: "console", Level: "warn", Backend: config.BackendConfig{Type: config.BackendConsole}},
	}
	require.NoError(t, cfg.Validate())
	return cfg
}

func TestNewRegistersLogsInOrder(t *testing.T) {
	a, err := New(testConfig(t), nil)
	require.NoError(t, err)
	defer a.Close()

	var names []string
	for inst := a.Engine.Next(nil); inst != nil; inst = a.Engine.Next(inst) {
		names = append(names, inst.Name())
	}
	assert.Equal(t, []string{"ring", "boot", "reboot", "trace-a", "trace-b", "console"}, names)

	ring, err := a.Find("ring")
	require.NoError(t, err)
	assert.IsType(t, &cbmem.Handler{}, ring.Handler())
	assert.Equal(t, log.LevelInfo, ring.Level())
	assert.Equal(t, config.BackendCBMem, ring.Arg())

	_, err = a.Find("missing")
	assert.Error(t, err)
}

func TestNewSharesBackends(t *testing.T) {
	a, err := New(testConfig(t), nil)
	require.NoError(t, err)
	defer a.Close()

	boot, _ := a.Find("boot")
	reboot, _ := a.Find("reboot")
	assert.Same(t, boot.Handler().(*flash.Store), reboot.Handler().(*flash.Store))

	ta, _ := a.Find("trace-a")
	tb, _ := a.Find("trace-b")
	assert.Same(t, ta.Handler().(*file.Handler), tb.Handler().(*file.Handler))

	require.NoError(t, a.Engine.Printf(boot, log.ModuleOS, log.LevelInfo, "up"))
	require.NoError(t, a.Engine.Printf(ta, log.ModuleTest, log.LevelInfo, "t"))
	assert.Equal(t, uint32(2), a.Engine.Info().Index)
}

func TestMetricsFeature(t *testing.T) {
	cfg := testConfig(t)
	a, err := New(cfg, nil)
	require.NoError(t, err)
	assert.Nil(t, a.Metrics)
	require.NoError(t, a.Close())

	cfg.Features.Metrics = true
	a, err = New(cfg, nil)
	require.NoError(t, err)
	defer a.Close()
	require.NotNil(t, a.Metrics)

	ring, _ := a.Find("ring")
	require.NoError(t, a.Engine.Printf(ring, log.ModuleDefault, log.LevelInfo, "x"))
	n, err := testutil.GatherAndCount(a.Metrics, "devlog_appends_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestNewFailsOnBadBackend(t *testing.T) {
	cfg := testConfig(t)
	cfg.Logs = append(cfg.Logs, config.LogConfig{
		Name:    "bad",
		Level:   "info",
		Backend: config.BackendConfig{Type: config.BackendFile, Path: filepath.Join(t.TempDir(), "missing", "dir", "x.dlog")},
	})
	_, err := New(cfg, nil)
	assert.Error(t, err)
}

func TestCloseIsIdempotent(t *testing.T) {
	a, err := New(testConfig(t), nil)
	require.NoError(t, err)
	require.NoError(t, a.Close())
	require.NoError(t, a.Close())
}

func TestMultiBackendMirrorsEntries(t *testing.T) {
	cfg := testConfig(t)
	tracePath := filepath.Join(t.TempDir(), "mirror.dlog")
	cfg.Logs = append(cfg.Logs, config.LogConfig{
		Name:  "mirrored",
		Level: "debug",
		Backend: config.BackendConfig{Type: config.BackendMulti, Children: []config.BackendConfig{
			{Type: config.BackendFlash},
			{Type: config.BackendFile, Path: tracePath},
		}},
	})
	require.NoError(t, cfg.Validate())

	a, err := New(cfg, nil)
	require.NoError(t, err)
	defer a.Close()

	inst, err := a.Find("mirrored")
	require.NoError(t, err)
	assert.IsType(t, &log.MultiHandler{}, inst.Handler())
	assert.Equal(t, config.BackendMulti, inst.Arg())

	require.NoError(t, a.Engine.Printf(inst, log.ModuleOS, log.LevelWarn, "both"))

	n, err := a.store.Count("mirrored")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	recs, err := file.ReadAll(tracePath, file.Filter{Log: "mirrored"})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "both", string(recs[0].Payload))
}
