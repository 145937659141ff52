package file

import (
	"io"
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/fxamacker/cbor/v2"

	"github.com/mash-protocol/devlog/pkg/log"
	"github.com/mash-protocol/devlog/pkg/version"
)

// Filter specifies criteria for filtering records.
// Empty/nil fields match all records for that criterion.
type Filter struct {
	// Log filters by exact instance name.
	Log string

	// Module filters by module id.
	Module *log.Module

	// MinLevel keeps records at or above this level.
	MinLevel *log.Level

	// TimeStart keeps wall-clock records at or after this time.
	TimeStart *time.Time

	// TimeEnd keeps wall-clock records before this time.
	TimeEnd *time.Time
}

// matches returns true if the record matches all filter criteria.
// Records with uptime timestamps never match a time bound.
func (f *Filter) matches(r Record) bool {
	if f.Log != "" && r.Log != f.Log {
		return false
	}
	if f.Module != nil && r.Module != *f.Module {
		return false
	}
	if f.MinLevel != nil && r.Level < *f.MinLevel {
		return false
	}
	if f.TimeStart != nil || f.TimeEnd != nil {
		t := r.Time()
		if t.IsZero() {
			return false
		}
		if f.TimeStart != nil && t.Before(*f.TimeStart) {
			return false
		}
		if f.TimeEnd != nil && !t.Before(*f.TimeEnd) {
			return false
		}
	}
	return true
}

// Reader reads records from a CBOR log file.
// It provides an iterator interface for streaming large files.
type Reader struct {
	file    *os.File
	decoder *cbor.Decoder
	filter  Filter
	pos     int
	last    int
}

// NewReader creates a Reader that reads all records from the file at path.
func NewReader(path string) (*Reader, error) {
	return NewFilteredReader(path, Filter{})
}

// NewFilteredReader creates a Reader that reads records matching the filter.
func NewFilteredReader(path string, filter Filter) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return &Reader{
		file:    f,
		decoder: NewDecoder(f),
		filter:  filter,
		last:    -1,
	}, nil
}

// Next returns the next record that matches the filter.
// Returns io.EOF when no more records are available.
func (r *Reader) Next() (Record, error) {
	for {
		var rec Record
		if err := r.decoder.Decode(&rec); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				// A torn trailing record is treated as end of file.
				return Record{}, io.EOF
			}
			return Record{}, err
		}
		if err := version.CheckLayout(rec.Version); err != nil {
			return Record{}, errors.Wrapf(err, "record %d", r.pos)
		}
		ord := r.pos
		r.pos++

		if r.filter.matches(rec) {
			r.last = ord
			return rec, nil
		}
	}
}

// Ordinal returns the position in the file of the record last returned by
// Next, counting every record including filtered ones. It is -1 before the
// first record.
func (r *Reader) Ordinal() int {
	return r.last
}

// Close closes the underlying file.
func (r *Reader) Close() error {
	return r.file.Close()
}

// ReadAll returns all records of the file at path that match filter.
func ReadAll(path string, filter Filter) ([]Record, error) {
	r, err := NewFilteredReader(path, filter)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	var out []Record
	for {
		rec, err := r.Next()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, rec)
	}
}
