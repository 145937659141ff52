package file

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/mash-protocol/devlog/pkg/log"
	"github.com/mash-protocol/devlog/pkg/version"
)

type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *stepClock) Now() (time.Time, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.now
	c.now = c.now.Add(time.Second)
	return t, nil
}

func (c *stepClock) Uptime() time.Duration { return 0 }

var testStart = time.Date(2026, 1, 28, 10, 0, 0, 0, time.UTC)

func newTestHandler(t *testing.T) (*log.Engine, *Handler, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.dlog")

	h, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { h.Close() })

	opts := log.DefaultOptions()
	opts.Clock = &stepClock{now: testStart}
	return log.New(opts), h, path
}

func walkPayloads(t *testing.T, e *log.Engine, inst *log.Instance) []string {
	t.Helper()
	var out []string
	err := e.Walk(inst, func(l *log.Instance, cur log.Cursor, length int) error {
		entry, err := e.ReadEntry(l, cur, length)
		if err != nil {
			return err
		}
		out = append(out, string(entry.Payload))
		return nil
	})
	if err != nil {
		t.Fatalf("Walk failed: %v", err)
	}
	return out
}

func TestHandlerCreatesFile(t *testing.T) {
	_, _, path := newTestHandler(t)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("log file was not created")
	}
}

func TestHandlerWalkPerInstance(t *testing.T) {
	e, h, _ := newTestHandler(t)
	a := e.Register(nil, "a", h, nil, log.LevelDebug)
	b := e.Register(nil, "b", h, nil, log.LevelDebug)

	_ = e.Printf(a, log.ModuleDefault, log.LevelInfo, "a1")
	_ = e.Printf(b, log.ModuleDefault, log.LevelInfo, "b1")
	_ = e.Printf(a, log.ModuleDefault, log.LevelInfo, "a2")

	got := walkPayloads(t, e, a)
	if len(got) != 2 || got[0] != "a1" || got[1] != "a2" {
		t.Errorf("walk a = %v, want [a1 a2]", got)
	}
	got = walkPayloads(t, e, b)
	if len(got) != 1 || got[0] != "b1" {
		t.Errorf("walk b = %v, want [b1]", got)
	}
}

func TestHandlerReadRejectsForeignCursor(t *testing.T) {
	e, h, _ := newTestHandler(t)
	a := e.Register(nil, "a", h, nil, log.LevelDebug)
	b := e.Register(nil, "b", h, nil, log.LevelDebug)
	_ = e.Printf(a, log.ModuleDefault, log.LevelInfo, "a1")

	_, err := h.Read(b, Cursor(0), make([]byte, 32), 0)
	if !errors.Is(err, ErrOutOfRange) {
		t.Errorf("err = %v, want ErrOutOfRange", err)
	}
	_, err = h.Read(a, Cursor(5), make([]byte, 32), 0)
	if !errors.Is(err, ErrOutOfRange) {
		t.Errorf("err = %v, want ErrOutOfRange", err)
	}
	_, err = h.Read(a, 0, make([]byte, 32), 0)
	if !errors.Is(err, ErrBadCursor) {
		t.Errorf("err = %v, want ErrBadCursor", err)
	}
}

func TestHandlerReadRoundTripsHeader(t *testing.T) {
	e, h, _ := newTestHandler(t)
	a := e.Register(nil, "a", h, nil, log.LevelDebug)
	_ = e.Printf(a, log.ModuleNFFS, log.LevelError, "disk full")

	entry, err := e.ReadEntry(a, Cursor(0), log.HeaderSize+len("disk full"))
	if err != nil {
		t.Fatalf("ReadEntry failed: %v", err)
	}
	if entry.Header.Index != 1 || entry.Header.Module != log.ModuleNFFS || entry.Header.Level != log.LevelError {
		t.Errorf("header = %+v", entry.Header)
	}
	if entry.Header.Version != log.HeaderVersion {
		t.Errorf("version = %d, want %d", entry.Header.Version, log.HeaderVersion)
	}
	if entry.Header.Timestamp != testStart.UnixMicro() {
		t.Errorf("timestamp = %d, want %d", entry.Header.Timestamp, testStart.UnixMicro())
	}
}

func TestHandlerFlushKeepsOtherInstances(t *testing.T) {
	e, h, path := newTestHandler(t)
	a := e.Register(nil, "a", h, nil, log.LevelDebug)
	b := e.Register(nil, "b", h, nil, log.LevelDebug)
	_ = e.Printf(a, log.ModuleDefault, log.LevelInfo, "a1")
	_ = e.Printf(b, log.ModuleDefault, log.LevelInfo, "b1")

	if err := e.Flush(a); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}
	if got := walkPayloads(t, e, a); len(got) != 0 {
		t.Errorf("walk a after flush = %v, want empty", got)
	}

	// Appends keep working after the file was rewritten.
	_ = e.Printf(b, log.ModuleDefault, log.LevelInfo, "b2")
	got := walkPayloads(t, e, b)
	if len(got) != 2 || got[1] != "b2" {
		t.Errorf("walk b = %v, want [b1 b2]", got)
	}

	recs, err := ReadAll(path, Filter{})
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if len(recs) != 2 {
		t.Errorf("records on disk = %d, want 2", len(recs))
	}
}

func TestHandlerClose(t *testing.T) {
	_, h, _ := newTestHandler(t)
	if err := h.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := h.Close(); err != nil {
		t.Errorf("second Close failed: %v", err)
	}
	inst := &log.Instance{}
	if err := h.Append(inst, make([]byte, log.HeaderSize)); !errors.Is(err, ErrClosed) {
		t.Errorf("Append after close err = %v, want ErrClosed", err)
	}
}

func TestReaderFilters(t *testing.T) {
	e, h, path := newTestHandler(t)
	a := e.Register(nil, "a", h, nil, log.LevelDebug)
	b := e.Register(nil, "b", h, nil, log.LevelDebug)

	_ = e.Printf(a, log.ModuleOS, log.LevelDebug, "0")
	_ = e.Printf(a, log.ModuleOS, log.LevelError, "1")
	_ = e.Printf(b, log.ModuleTest, log.LevelWarn, "2")
	_ = e.Printf(a, log.ModuleTest, log.LevelInfo, "3")
	h.Close()

	mod := log.ModuleTest
	lvl := log.LevelWarn
	start := testStart.Add(time.Second)
	end := testStart.Add(3 * time.Second)

	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{"all", Filter{}, []string{"0", "1", "2", "3"}},
		{"log", Filter{Log: "a"}, []string{"0", "1", "3"}},
		{"module", Filter{Module: &mod}, []string{"2", "3"}},
		{"min level", Filter{MinLevel: &lvl}, []string{"1", "2"}},
		{"time range", Filter{TimeStart: &start, TimeEnd: &end}, []string{"1", "2"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recs, err := ReadAll(path, tt.filter)
			if err != nil {
				t.Fatalf("ReadAll failed: %v", err)
			}
			var got []string
			for _, r := range recs {
				got = append(got, string(r.Payload))
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("got %v, want %v", got, tt.want)
					break
				}
			}
		})
	}
}

func TestReaderOrdinalCountsFilteredRecords(t *testing.T) {
	e, h, path := newTestHandler(t)
	a := e.Register(nil, "a", h, nil, log.LevelDebug)
	b := e.Register(nil, "b", h, nil, log.LevelDebug)
	_ = e.Printf(b, log.ModuleDefault, log.LevelInfo, "skip")
	_ = e.Printf(a, log.ModuleDefault, log.LevelInfo, "keep")

	r, err := NewFilteredReader(path, Filter{Log: "a"})
	if err != nil {
		t.Fatalf("NewFilteredReader failed: %v", err)
	}
	defer r.Close()

	if r.Ordinal() != -1 {
		t.Errorf("initial Ordinal = %d, want -1", r.Ordinal())
	}
	if _, err := r.Next(); err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if r.Ordinal() != 1 {
		t.Errorf("Ordinal = %d, want 1", r.Ordinal())
	}
	if _, err := r.Next(); err != io.EOF {
		t.Errorf("Next err = %v, want io.EOF", err)
	}
}

func TestReaderUptimeRecordsSkipTimeFilter(t *testing.T) {
	rec := Record{Log: "x", Timestamp: 42}
	start := testStart
	f := Filter{TimeStart: &start}
	if f.matches(rec) {
		t.Error("uptime record should not match a time bound")
	}
	if !(&Filter{}).matches(rec) {
		t.Error("empty filter should match")
	}
}

func TestReaderRejectsUnknownLayout(t *testing.T) {
	data, err := EncodeRecord(Record{Log: "x", Index: 1, Version: 9, Payload: []byte("?")})
	if err != nil {
		t.Fatalf("EncodeRecord failed: %v", err)
	}
	path := filepath.Join(t.TempDir(), "future.dlog")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	_, err = ReadAll(path, Filter{})
	if !errors.Is(err, version.ErrUnsupportedLayout) {
		t.Errorf("ReadAll err = %v, want ErrUnsupportedLayout", err)
	}
}
