// Package dump reads entries back out of registered logs and renders them
// for humans (view), for other tools (export) and as aggregates (stats).
package dump

import (
	"fmt"
	"io"
	"time"

	"github.com/mash-protocol/devlog/internal/filter"
	"github.com/mash-protocol/devlog/pkg/log"
	"github.com/mash-protocol/devlog/pkg/log/file"
)

// Row is one decoded entry and the log it came from.
type Row struct {
	Log   string
	Entry log.Entry
}

// Collect walks inst and returns the entries accepted by f, in walk order.
// A nil filter accepts everything.
func Collect(e *log.Engine, inst *log.Instance, f *filter.Filter) ([]Row, error) {
	name := inst.Name()
	var rows []Row
	err := e.Walk(inst, func(l *log.Instance, cur log.Cursor, length int) error {
		entry, err := e.ReadEntry(l, cur, length)
		if err != nil {
			return err
		}
		if f.Match(name, entry) {
			rows = append(rows, Row{Log: name, Entry: entry})
		}
		return nil
	})
	return rows, err
}

// CollectAll collects every registered log in registration order.
func CollectAll(e *log.Engine, f *filter.Filter) ([]Row, error) {
	var rows []Row
	for inst := e.Next(nil); inst != nil; inst = e.Next(inst) {
		r, err := Collect(e, inst, f)
		if err != nil {
			return rows, err
		}
		rows = append(rows, r...)
	}
	return rows, nil
}

// All writes every registered log, one section per instance. Logs whose
// backend cannot be read are reported inline and skipped.
func All(e *log.Engine, w io.Writer, f *filter.Filter) error {
	for inst := e.Next(nil); inst != nil; inst = e.Next(inst) {
		fmt.Fprintf(w, "=== %s (level %s) ===\n", inst.Name(), inst.Level())
		rows, err := Collect(e, inst, f)
		for _, r := range rows {
			Format(w, r)
		}
		if err != nil {
			fmt.Fprintf(w, "  error: %v\n", err)
		}
	}
	return nil
}

// FromRecords converts records read from a log file into rows.
func FromRecords(recs []file.Record, f *filter.Filter) ([]Row, error) {
	rows := make([]Row, 0, len(recs))
	for _, rec := range recs {
		entry := log.Entry{Header: rec.Header(), Payload: rec.Payload}
		if f.Match(rec.Log, entry) {
			rows = append(rows, Row{Log: rec.Log, Entry: entry})
		}
	}
	return rows, nil
}

// Format writes a one-line human-readable representation of r to w.
func Format(w io.Writer, r Row) {
	h := r.Entry.Header
	fmt.Fprintf(w, "%s #%-5d [%s] %-8s %-11s %s\n",
		formatTimestamp(h), h.Index, r.Log, h.Level, h.Module, r.Entry.Payload)
}

// formatTimestamp renders wall-clock timestamps as UTC and uptime
// timestamps as seconds since boot.
func formatTimestamp(h log.EntryHeader) string {
	if h.WallClock() {
		return h.Time().Format("2006-01-02T15:04:05.000000Z")
	}
	d := time.Duration(h.Timestamp) * time.Microsecond
	return fmt.Sprintf("+%.6fs", d.Seconds())
}
