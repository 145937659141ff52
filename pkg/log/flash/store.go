// Package flash implements a persistent log handler on top of Pebble.
//
// It plays the role of a flash-backed log region: entries survive restarts,
// each log instance is bounded to a fixed number of entries, and flushing
// erases the instance's region. One Store can back any number of instances;
// entries are keyed by instance name and a per-instance sequence number.
package flash

import (
	"encoding/binary"
	"log/slog"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/pebble"
	"github.com/google/uuid"

	"github.com/mash-protocol/devlog/pkg/log"
)

// FsyncMode defines durability behavior for write operations.
type FsyncMode int

const (
	FsyncModeUnspecified FsyncMode = iota
	// FsyncModeAlways requests a WAL fsync on each append.
	FsyncModeAlways
	// FsyncModeInterval lets Pebble coalesce WAL syncs within FsyncInterval.
	FsyncModeInterval
	// FsyncModeNever never forces a WAL sync from the handler.
	FsyncModeNever
)

var (
	// ErrOutOfRange is returned when reading an erased entry or past its end.
	ErrOutOfRange = errors.New("flash: read out of range")

	// ErrBadCursor is returned for a cursor not produced by this handler.
	ErrBadCursor = errors.New("flash: invalid cursor")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("flash: store closed")
)

var storeIDKey = []byte("m/store-id")

// nextKey holds the sequence number an instance continues from after its
// region was flushed empty.
func nextKey(name string) []byte {
	return append([]byte("m/next/"), name...)
}

// Options configures a Store.
type Options struct {
	// DataDir is the path to the Pebble database directory.
	DataDir string

	// Fsync determines when to sync the WAL.
	Fsync FsyncMode

	// FsyncInterval controls group-commit when Fsync=FsyncModeInterval.
	FsyncInterval time.Duration

	// MaxEntries bounds the entries kept per instance; the oldest are erased
	// first. Zero means unbounded.
	MaxEntries int

	// PebbleOptions allows advanced tuning of Pebble. If nil, defaults are used.
	PebbleOptions *pebble.Options

	// Logger is the optional logger for debug output.
	Logger *slog.Logger
}

// Cursor identifies one stored entry.
type Cursor struct {
	Log string
	Seq uint64
}

// region tracks the live sequence range [first, next) of one instance.
type region struct {
	first uint64
	next  uint64
}

// Store is a Pebble-backed log handler. It is safe for concurrent use.
//
// Close may run while a Walk or Read is in progress, including from inside a
// WalkFunc. The walk then ends with ErrClosed and the database is closed
// when the last reader returns.
type Store struct {
	db         *pebble.DB
	writeOpts  *pebble.WriteOptions
	maxEntries int
	id         uuid.UUID
	logger     *slog.Logger

	mu       sync.Mutex
	regions  map[string]*region
	closed   bool
	readers  int
	dbClosed bool
}

// Open creates or opens a Store in opts.DataDir.
func Open(opts Options) (*Store, error) {
	if opts.DataDir == "" {
		return nil, errors.New("flash: Options.DataDir is required")
	}

	po := opts.PebbleOptions
	if po == nil {
		po = &pebble.Options{}
	}
	switch opts.Fsync {
	case FsyncModeAlways, FsyncModeNever:
	case FsyncModeInterval:
		if opts.FsyncInterval <= 0 {
			opts.FsyncInterval = 5 * time.Millisecond
		}
		interval := opts.FsyncInterval
		po.WALMinSyncInterval = func() time.Duration { return interval }
	default:
		po.WALMinSyncInterval = func() time.Duration { return 5 * time.Millisecond }
	}

	db, err := pebble.Open(opts.DataDir, po)
	if err != nil {
		return nil, errors.Wrapf(err, "flash: open %s", opts.DataDir)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	s := &Store{
		db:         db,
		writeOpts:  pebble.NoSync,
		maxEntries: opts.MaxEntries,
		logger:     logger,
		regions:    make(map[string]*region),
	}
	if opts.Fsync == FsyncModeAlways {
		s.writeOpts = pebble.Sync
	}

	if err := s.loadStoreID(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// loadStoreID reads the store UUID, creating it on first open.
func (s *Store) loadStoreID() error {
	val, closer, err := s.db.Get(storeIDKey)
	if err == nil {
		defer closer.Close()
		id, perr := uuid.FromBytes(val)
		if perr != nil {
			return errors.Wrap(perr, "flash: corrupt store id")
		}
		s.id = id
		return nil
	}
	if !errors.Is(err, pebble.ErrNotFound) {
		return errors.Wrap(err, "flash: read store id")
	}

	s.id = uuid.New()
	if err := s.db.Set(storeIDKey, s.id[:], pebble.Sync); err != nil {
		return errors.Wrap(err, "flash: write store id")
	}
	s.logger.Debug("flash store created", slog.String("store_id", s.id.String()))
	return nil
}

// StoreID returns the UUID assigned to the store when it was created.
func (s *Store) StoreID() uuid.UUID {
	return s.id
}

// Close closes the underlying database, or marks the store closed and
// leaves the database to the last active reader.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if s.readers > 0 {
		return nil
	}
	s.dbClosed = true
	return s.db.Close()
}

// acquire registers a reader of the database.
func (s *Store) acquire() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.readers++
	return nil
}

// release ends a reader, closing the database if Close ran meanwhile.
func (s *Store) release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readers--
	if s.closed && s.readers == 0 && !s.dbClosed {
		s.dbClosed = true
		if err := s.db.Close(); err != nil {
			s.logger.Warn("flash: deferred close failed", slog.String("error", err.Error()))
		}
	}
}

func (s *Store) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func regionPrefix(name string) []byte {
	p := make([]byte, 0, len(name)+3)
	p = append(p, 'e', '/')
	p = append(p, name...)
	return append(p, 0x00)
}

func regionEnd(name string) []byte {
	p := regionPrefix(name)
	p[len(p)-1] = 0x01
	return p
}

func entryKey(name string, seq uint64) []byte {
	k := regionPrefix(name)
	return binary.BigEndian.AppendUint64(k, seq)
}

// regionLocked returns the region of name, scanning the database on first use.
func (s *Store) regionLocked(name string) (*region, error) {
	if r, ok := s.regions[name]; ok {
		return r, nil
	}

	prefix := regionPrefix(name)
	iter, err := s.db.NewIter(&pebble.IterOptions{LowerBound: prefix, UpperBound: regionEnd(name)})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	r := &region{}
	val, closer, err := s.db.Get(nextKey(name))
	switch {
	case err == nil:
		if len(val) == 8 {
			r.next = binary.BigEndian.Uint64(val)
			r.first = r.next
		}
		_ = closer.Close()
	case !errors.Is(err, pebble.ErrNotFound):
		return nil, errors.Wrap(err, "flash: read high-water mark")
	}

	if iter.First() {
		r.first = binary.BigEndian.Uint64(iter.Key()[len(prefix):])
		iter.Last()
		if next := binary.BigEndian.Uint64(iter.Key()[len(prefix):]) + 1; next > r.next {
			r.next = next
		}
	}
	if err := iter.Error(); err != nil {
		return nil, err
	}
	s.regions[name] = r
	return r, nil
}

// Append stores data as the newest entry of inst, erasing the oldest entries
// beyond MaxEntries in the same batch.
func (s *Store) Append(inst *log.Instance, data []byte) error {
	name := inst.Name()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	r, err := s.regionLocked(name)
	if err != nil {
		return err
	}

	b := s.db.NewBatch()
	defer b.Close()

	if err := b.Set(entryKey(name, r.next), data, nil); err != nil {
		return err
	}
	first := r.first
	if s.maxEntries > 0 {
		for r.next+1-first > uint64(s.maxEntries) {
			if err := b.Delete(entryKey(name, first), nil); err != nil {
				return err
			}
			first++
		}
	}
	if err := b.Commit(s.writeOpts); err != nil {
		return errors.Wrap(err, "flash: commit")
	}

	r.first = first
	r.next++
	return nil
}

// Walk visits the stored entries of inst from oldest to newest.
func (s *Store) Walk(inst *log.Instance, fn log.WalkFunc) error {
	name := inst.Name()
	prefix := regionPrefix(name)

	if err := s.acquire(); err != nil {
		return err
	}
	defer s.release()

	iter, err := s.db.NewIter(&pebble.IterOptions{LowerBound: prefix, UpperBound: regionEnd(name)})
	if err != nil {
		return err
	}
	defer iter.Close()

	for ok := iter.First(); ok; ok = iter.Next() {
		if s.isClosed() {
			return ErrClosed
		}
		cur := Cursor{Log: name, Seq: binary.BigEndian.Uint64(iter.Key()[len(prefix):])}
		if err := fn(inst, cur, len(iter.Value())); err != nil {
			if errors.Is(err, log.ErrStopWalk) {
				return nil
			}
			return err
		}
	}
	return iter.Error()
}

// Read copies bytes of the entry at cur starting at off.
func (s *Store) Read(_ *log.Instance, cur log.Cursor, buf []byte, off int) (int, error) {
	c, ok := cur.(Cursor)
	if !ok {
		return 0, ErrBadCursor
	}

	if err := s.acquire(); err != nil {
		return 0, err
	}
	defer s.release()

	val, closer, err := s.db.Get(entryKey(c.Log, c.Seq))
	if errors.Is(err, pebble.ErrNotFound) {
		return 0, errors.Wrapf(ErrOutOfRange, "%s#%d", c.Log, c.Seq)
	}
	if err != nil {
		return 0, err
	}
	defer closer.Close()

	if off < 0 || off > len(val) {
		return 0, errors.Wrapf(ErrOutOfRange, "offset %d of %d", off, len(val))
	}
	return copy(buf, val[off:]), nil
}

// Flush erases every entry of inst. Sequence numbers keep increasing, also
// across reopen, so stale cursors never alias new entries.
func (s *Store) Flush(inst *log.Instance) error {
	name := inst.Name()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	r, err := s.regionLocked(name)
	if err != nil {
		return err
	}
	b := s.db.NewBatch()
	defer b.Close()
	if err := b.DeleteRange(regionPrefix(name), regionEnd(name), nil); err != nil {
		return err
	}
	if err := b.Set(nextKey(name), binary.BigEndian.AppendUint64(nil, r.next), nil); err != nil {
		return err
	}
	if err := b.Commit(s.writeOpts); err != nil {
		return errors.Wrap(err, "flash: erase")
	}
	r.first = r.next
	return nil
}

// Count returns the number of entries stored for the named instance.
func (s *Store) Count(name string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, err := s.regionLocked(name)
	if err != nil {
		return 0, err
	}
	return int(r.next - r.first), nil
}

// Compile-time interface satisfaction check.
var _ log.Handler = (*Store)(nil)
