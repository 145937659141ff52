package dump

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/mash-protocol/devlog/pkg/log"
)

// Stats holds aggregate statistics about a set of rows.
type Stats struct {
	TotalEntries   int
	UptimeEntries  int
	EntriesByLevel map[log.Level]int
	EntriesByMod   map[log.Module]int
	Logs           map[string]*LogStats
	IndexRange     struct {
		Min uint32
		Max uint32
	}
	TimeRange struct {
		Start time.Time
		End   time.Time
	}
}

// LogStats holds statistics for a single log.
type LogStats struct {
	Entries int
	Bytes   int
	Errors  int
}

// ComputeStats aggregates rows.
func ComputeStats(rows []Row) *Stats {
	stats := &Stats{
		EntriesByLevel: make(map[log.Level]int),
		EntriesByMod:   make(map[log.Module]int),
		Logs:           make(map[string]*LogStats),
	}

	for i, r := range rows {
		h := r.Entry.Header
		stats.TotalEntries++
		stats.EntriesByLevel[h.Level]++
		stats.EntriesByMod[h.Module]++

		if i == 0 || h.Index < stats.IndexRange.Min {
			stats.IndexRange.Min = h.Index
		}
		if h.Index > stats.IndexRange.Max {
			stats.IndexRange.Max = h.Index
		}

		if h.WallClock() {
			ts := h.Time()
			if stats.TimeRange.Start.IsZero() || ts.Before(stats.TimeRange.Start) {
				stats.TimeRange.Start = ts
			}
			if ts.After(stats.TimeRange.End) {
				stats.TimeRange.End = ts
			}
		} else {
			stats.UptimeEntries++
		}

		ls, ok := stats.Logs[r.Log]
		if !ok {
			ls = &LogStats{}
			stats.Logs[r.Log] = ls
		}
		ls.Entries++
		ls.Bytes += log.HeaderSize + len(r.Entry.Payload)
		if h.Level >= log.LevelError {
			ls.Errors++
		}
	}
	return stats
}

// PrintStats writes stats in a human-readable layout.
func PrintStats(w io.Writer, stats *Stats) {
	fmt.Fprintln(w, "=== Log Statistics ===")
	fmt.Fprintln(w)

	if !stats.TimeRange.Start.IsZero() {
		fmt.Fprintf(w, "Time Range: %s to %s\n",
			stats.TimeRange.Start.Format(time.RFC3339),
			stats.TimeRange.End.Format(time.RFC3339))
		fmt.Fprintf(w, "Duration:   %s\n", stats.TimeRange.End.Sub(stats.TimeRange.Start).Round(time.Second))
	}
	if stats.TotalEntries > 0 {
		fmt.Fprintf(w, "Index Range: %d to %d\n", stats.IndexRange.Min, stats.IndexRange.Max)
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Total Entries: %d\n", stats.TotalEntries)
	if stats.UptimeEntries > 0 {
		fmt.Fprintf(w, "Uptime-stamped: %d\n", stats.UptimeEntries)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Entries by Level:")
	for _, lvl := range []log.Level{log.LevelDebug, log.LevelInfo, log.LevelWarn, log.LevelError, log.LevelCritical} {
		if count := stats.EntriesByLevel[lvl]; count > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", lvl.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Entries by Module:")
	mods := make([]log.Module, 0, len(stats.EntriesByMod))
	for m := range stats.EntriesByMod {
		mods = append(mods, m)
	}
	sort.Slice(mods, func(i, j int) bool { return mods[i] < mods[j] })
	for _, m := range mods {
		fmt.Fprintf(w, "  %-12s %d\n", m.String()+":", stats.EntriesByMod[m])
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Logs: %d\n", len(stats.Logs))
	names := make([]string, 0, len(stats.Logs))
	for name := range stats.Logs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		ls := stats.Logs[name]
		fmt.Fprintf(w, "  [%s] %d entries, %d bytes", name, ls.Entries, ls.Bytes)
		if ls.Errors > 0 {
			fmt.Fprintf(w, ", %d errors", ls.Errors)
		}
		fmt.Fprintln(w)
	}
}
