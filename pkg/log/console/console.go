// Package console implements a log handler that writes entries to an slog.Logger.
//
// It is meant for development: entries are rendered as they are appended and
// nothing is retained, so Walk visits nothing and Read is not supported.
package console

import (
	"context"
	"log/slog"
	"sync/atomic"

	"golang.org/x/time/rate"

	"github.com/mash-protocol/devlog/pkg/log"
)

// Options configures a Handler.
type Options struct {
	// Rate limits entries per second. Zero disables rate limiting.
	Rate float64

	// Burst is the token bucket size when Rate is set (default: 10).
	Burst int
}

// Handler writes entries to an slog.Logger.
type Handler struct {
	logger  *slog.Logger
	limiter *rate.Limiter
	dropped atomic.Uint64
}

// New creates a Handler writing to logger. A nil logger uses slog.Default().
func New(logger *slog.Logger, opts Options) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{logger: logger}
	if opts.Rate > 0 {
		if opts.Burst <= 0 {
			opts.Burst = 10
		}
		h.limiter = rate.NewLimiter(rate.Limit(opts.Rate), opts.Burst)
	}
	return h
}

// Append decodes the entry and writes one slog record. Entries over the rate
// limit are dropped and counted, not reported as errors.
func (h *Handler) Append(inst *log.Instance, data []byte) error {
	entry, err := log.DecodeEntry(data)
	if err != nil {
		return err
	}
	if h.limiter != nil && !h.limiter.Allow() {
		h.dropped.Add(1)
		return nil
	}

	attrs := []slog.Attr{
		slog.String("log", inst.Name()),
		slog.String("module", entry.Header.Module.String()),
		slog.Uint64("index", uint64(entry.Header.Index)),
		slog.Int64("ts_us", entry.Header.Timestamp),
	}
	if !entry.Header.WallClock() {
		attrs = append(attrs, slog.Bool("uptime", true))
	}
	attrs = append(attrs, slog.String("text", string(entry.Payload)))

	h.logger.LogAttrs(context.Background(), slogLevel(entry.Header.Level), "log entry", attrs...)
	return nil
}

// Walk visits nothing; the console keeps no entries.
func (h *Handler) Walk(*log.Instance, log.WalkFunc) error {
	return nil
}

// Read is not supported.
func (h *Handler) Read(*log.Instance, log.Cursor, []byte, int) (int, error) {
	return 0, log.ErrNotSupported
}

// Flush does nothing.
func (h *Handler) Flush(*log.Instance) error {
	return nil
}

// Dropped returns the number of entries dropped by the rate limiter.
func (h *Handler) Dropped() uint64 {
	return h.dropped.Load()
}

func slogLevel(l log.Level) slog.Level {
	switch {
	case l <= log.LevelDebug:
		return slog.LevelDebug
	case l == log.LevelInfo:
		return slog.LevelInfo
	case l == log.LevelWarn:
		return slog.LevelWarn
	case l == log.LevelError:
		return slog.LevelError
	default:
		return slog.LevelError + 4
	}
}

// Compile-time interface satisfaction check.
var _ log.Handler = (*Handler)(nil)
