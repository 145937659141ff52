// Package redisstream implements a log handler that stores each instance's
// entries in a Redis stream.
package redisstream

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/redis/go-redis/v9"

	"github.com/mash-protocol/devlog/pkg/log"
)

const entryField = "e"

var (
	// ErrOutOfRange is returned when the stream no longer holds the entry
	// named by a cursor, or the offset is past the end of the entry.
	ErrOutOfRange = errors.New("redisstream: read out of range")

	// ErrBadCursor is returned for a cursor not produced by this handler.
	ErrBadCursor = errors.New("redisstream: invalid cursor")
)

// Cursor is a Redis stream entry id.
type Cursor string

// Options configures a Handler.
type Options struct {
	// Prefix is prepended to stream keys as "<prefix>:<name>" (default: "devlog").
	Prefix string

	// MaxLen caps each stream with approximate trimming. Zero disables trimming.
	MaxLen int64

	// PageSize is the number of entries fetched per XRANGE call during a
	// walk (default: 100).
	PageSize int64

	// OpTimeout bounds each Redis call (default: 2s).
	OpTimeout time.Duration
}

// Handler stores entries in Redis streams.
type Handler struct {
	client redis.UniversalClient
	opts   Options
}

// New creates a Handler using client. The client is owned by the caller.
func New(client redis.UniversalClient, opts Options) *Handler {
	if opts.Prefix == "" {
		opts.Prefix = "devlog"
	}
	if opts.PageSize <= 0 {
		opts.PageSize = 100
	}
	if opts.OpTimeout <= 0 {
		opts.OpTimeout = 2 * time.Second
	}
	return &Handler{client: client, opts: opts}
}

// Key returns the stream key used for the named instance.
func (h *Handler) Key(name string) string {
	return h.opts.Prefix + ":" + name
}

func (h *Handler) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), h.opts.OpTimeout)
}

// Append adds data to the instance's stream.
func (h *Handler) Append(inst *log.Instance, data []byte) error {
	ctx, cancel := h.ctx()
	defer cancel()

	args := &redis.XAddArgs{
		Stream: h.Key(inst.Name()),
		Values: map[string]any{entryField: data},
	}
	if h.opts.MaxLen > 0 {
		args.MaxLen = h.opts.MaxLen
		args.Approx = true
	}
	if err := h.client.XAdd(ctx, args).Err(); err != nil {
		return errors.Wrap(err, "redisstream: xadd")
	}
	return nil
}

// Walk visits the stream from oldest to newest in pages of PageSize.
func (h *Handler) Walk(inst *log.Instance, fn log.WalkFunc) error {
	key := h.Key(inst.Name())
	start := "-"
	for {
		msgs, err := h.page(key, start)
		if err != nil {
			return err
		}
		for _, m := range msgs {
			data, ok := entryBytes(m)
			if !ok {
				continue
			}
			if err := fn(inst, Cursor(m.ID), len(data)); err != nil {
				return err
			}
		}
		if int64(len(msgs)) < h.opts.PageSize {
			return nil
		}
		start = "(" + msgs[len(msgs)-1].ID
	}
}

func (h *Handler) page(key, start string) ([]redis.XMessage, error) {
	ctx, cancel := h.ctx()
	defer cancel()
	msgs, err := h.client.XRangeN(ctx, key, start, "+", h.opts.PageSize).Result()
	if err != nil {
		return nil, errors.Wrap(err, "redisstream: xrange")
	}
	return msgs, nil
}

// Read fetches the entry at cur and copies it starting at off.
func (h *Handler) Read(inst *log.Instance, cur log.Cursor, buf []byte, off int) (int, error) {
	id, ok := cur.(Cursor)
	if !ok || id == "" {
		return 0, ErrBadCursor
	}

	ctx, cancel := h.ctx()
	defer cancel()
	msgs, err := h.client.XRange(ctx, h.Key(inst.Name()), string(id), string(id)).Result()
	if err != nil {
		return 0, errors.Wrap(err, "redisstream: xrange")
	}
	if len(msgs) == 0 {
		return 0, errors.Wrapf(ErrOutOfRange, "entry %s", id)
	}
	data, ok := entryBytes(msgs[0])
	if !ok {
		return 0, errors.Wrapf(ErrOutOfRange, "entry %s has no payload", id)
	}
	if off < 0 || off > len(data) {
		return 0, errors.Wrapf(ErrOutOfRange, "offset %d of %d", off, len(data))
	}
	return copy(buf, data[off:]), nil
}

// Flush deletes the instance's stream.
func (h *Handler) Flush(inst *log.Instance) error {
	ctx, cancel := h.ctx()
	defer cancel()
	if err := h.client.Del(ctx, h.Key(inst.Name())).Err(); err != nil {
		return errors.Wrap(err, "redisstream: del")
	}
	return nil
}

// Len returns the number of entries in the named instance's stream.
func (h *Handler) Len(name string) (int64, error) {
	ctx, cancel := h.ctx()
	defer cancel()
	return h.client.XLen(ctx, h.Key(name)).Result()
}

// entryBytes extracts the stored entry. Redis returns field values as strings.
func entryBytes(m redis.XMessage) ([]byte, bool) {
	switch v := m.Values[entryField].(type) {
	case string:
		return []byte(v), true
	case []byte:
		return v, true
	default:
		return nil, false
	}
}

// Compile-time interface satisfaction check.
var _ log.Handler = (*Handler)(nil)
