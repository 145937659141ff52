package dump

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mash-protocol/devlog/internal/filter"
	"github.com/mash-protocol/devlog/pkg/log"
	"github.com/mash-protocol/devlog/pkg/log/cbmem"
	"github.com/mash-protocol/devlog/pkg/log/file"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() (time.Time, error) { return c.t, nil }
func (c fixedClock) Uptime() time.Duration   { return 1500 * time.Millisecond }

type brokenClock struct{}

func (brokenClock) Now() (time.Time, error) { return time.Time{}, errors.New("no rtc") }
func (brokenClock) Uptime() time.Duration   { return 1500 * time.Millisecond }

var testTime = time.Date(2026, 1, 28, 10, 0, 0, 0, time.UTC)

// newTestEngine registers two cbmem logs and appends a few entries.
func newTestEngine(t *testing.T) (*log.Engine, *log.Instance, *log.Instance) {
	t.Helper()
	opts := log.DefaultOptions()
	opts.Clock = fixedClock{t: testTime}
	e := log.New(opts)

	boot := e.Register(nil, "boot", cbmem.New(1024), nil, log.LevelDebug)
	ble := e.Register(nil, "ble", cbmem.New(1024), nil, log.LevelInfo)

	mustAppend(t, e.Printf(boot, log.ModuleOS, log.LevelInfo, "booting"))
	mustAppend(t, e.Printf(ble, log.ModuleNimbleHost, log.LevelWarn, "adv timeout"))
	mustAppend(t, e.Printf(boot, log.ModuleReboot, log.LevelError, "reset reason %d", 4))
	return e, boot, ble
}

func mustAppend(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("append failed: %v", err)
	}
}

func TestCollectWithFilter(t *testing.T) {
	e, boot, _ := newTestEngine(t)

	rows, err := Collect(e, boot, nil)
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}

	rows, err = Collect(e, boot, filter.MustCompile("level >= ERROR"))
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	if len(rows) != 1 || string(rows[0].Entry.Payload) != "reset reason 4" {
		t.Errorf("filtered rows = %+v", rows)
	}
}

func TestCollectAllFollowsRegistrationOrder(t *testing.T) {
	e, _, _ := newTestEngine(t)

	rows, err := CollectAll(e, nil)
	if err != nil {
		t.Fatalf("CollectAll failed: %v", err)
	}
	var logs []string
	for _, r := range rows {
		logs = append(logs, r.Log)
	}
	if strings.Join(logs, ",") != "boot,boot,ble" {
		t.Errorf("logs = %v, want [boot boot ble]", logs)
	}
}

func TestAllWritesSectionPerLog(t *testing.T) {
	e, _, _ := newTestEngine(t)
	e.Register(nil, "console-only", log.NoopHandler{}, nil, log.LevelDebug)

	var buf bytes.Buffer
	if err := All(e, &buf, nil); err != nil {
		t.Fatalf("All failed: %v", err)
	}
	output := buf.String()

	for _, want := range []string{
		"=== boot (level DEBUG) ===",
		"=== ble (level INFO) ===",
		"=== console-only (level DEBUG) ===",
		"2026-01-28T10:00:00.000000Z #2",
		"adv timeout",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output:\n%s", want, output)
		}
	}
	if strings.Index(output, "boot (level") > strings.Index(output, "ble (level") {
		t.Error("sections should follow registration order")
	}
}

func TestFormatUptimeTimestamp(t *testing.T) {
	opts := log.DefaultOptions()
	opts.Clock = brokenClock{}
	e := log.New(opts)
	inst := e.Register(nil, "early", cbmem.New(256), nil, log.LevelDebug)
	mustAppend(t, e.Printf(inst, log.ModuleDefault, log.LevelInfo, "before rtc"))

	rows, err := Collect(e, inst, nil)
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	var buf bytes.Buffer
	Format(&buf, rows[0])
	if !strings.HasPrefix(buf.String(), "+1.500000s #1") {
		t.Errorf("output = %q", buf.String())
	}
}

func TestExportJSONL(t *testing.T) {
	e, _, _ := newTestEngine(t)
	rows, _ := CollectAll(e, nil)

	var buf bytes.Buffer
	if err := Export(&buf, rows, FormatJSONL); err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3", len(lines))
	}
	var first map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if first["log"] != "boot" || first["level"] != "INFO" || first["module"] != "OS" || first["text"] != "booting" {
		t.Errorf("first row = %v", first)
	}
	if first["time"] != "2026-01-28T10:00:00.000000Z" {
		t.Errorf("time = %v", first["time"])
	}
}

func TestExportCSV(t *testing.T) {
	e, _, _ := newTestEngine(t)
	rows, _ := CollectAll(e, nil)

	var buf bytes.Buffer
	if err := Export(&buf, rows, FormatCSV); err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("invalid CSV: %v", err)
	}
	if len(records) != 4 {
		t.Fatalf("got %d records, want 4 (header + 3)", len(records))
	}
	if records[0][0] != "log" || records[3][6] != "adv timeout" {
		t.Errorf("records = %v", records)
	}
}

func TestExportCBORReadableByFileReader(t *testing.T) {
	e, _, _ := newTestEngine(t)
	rows, _ := CollectAll(e, nil)

	path := filepath.Join(t.TempDir(), "export.dlog")
	var buf bytes.Buffer
	if err := Export(&buf, rows, FormatCBOR); err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	recs, err := file.ReadAll(path, file.Filter{Log: "boot"})
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	back, err := FromRecords(recs, nil)
	if err != nil {
		t.Fatalf("FromRecords failed: %v", err)
	}
	if len(back) != 2 || back[1].Entry.Header.Index != 3 {
		t.Errorf("rows = %+v", back)
	}
}

func TestExportUnknownFormat(t *testing.T) {
	err := Export(&bytes.Buffer{}, nil, "xml")
	if !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("err = %v, want ErrUnknownFormat", err)
	}
}

func TestStats(t *testing.T) {
	e, _, _ := newTestEngine(t)
	rows, _ := CollectAll(e, nil)

	stats := ComputeStats(rows)
	if stats.TotalEntries != 3 {
		t.Errorf("TotalEntries = %d, want 3", stats.TotalEntries)
	}
	if stats.Logs["boot"].Errors != 1 {
		t.Errorf("boot errors = %d, want 1", stats.Logs["boot"].Errors)
	}
	if stats.IndexRange.Min != 1 || stats.IndexRange.Max != 3 {
		t.Errorf("IndexRange = %+v", stats.IndexRange)
	}

	var buf bytes.Buffer
	PrintStats(&buf, stats)
	output := buf.String()
	for _, want := range []string{"Total Entries: 3", "WARN:", "NIMBLE_HOST:", "[ble] 1 entries"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output:\n%s", want, output)
		}
	}
}

func TestCollectJSONFilterOverMixedLog(t *testing.T) {
	opts := log.DefaultOptions()
	opts.Clock = fixedClock{t: testTime}
	e := log.New(opts)
	mixed := e.Register(nil, "mixed", cbmem.New(1024), nil, log.LevelDebug)

	mustAppend(t, e.Printf(mixed, log.ModuleOS, log.LevelInfo, "plain boot text"))
	mustAppend(t, e.Printf(mixed, log.ModuleOS, log.LevelWarn, `{"conn":1}`))
	mustAppend(t, e.Printf(mixed, log.ModuleOS, log.LevelWarn, `{"reason":"timeout"}`))

	rows, err := Collect(e, mixed, filter.MustCompile(`json.reason == "timeout"`))
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
	if got := string(rows[0].Entry.Payload); got != `{"reason":"timeout"}` {
		t.Errorf("payload = %q", got)
	}
}
