// Package file implements a log handler that appends entries to a CBOR
// stream on disk, and a Reader for scanning such files offline.
package file

import (
	"fmt"
	"io"
	"time"

	"github.com/fxamacker/cbor/v2"

	"github.com/mash-protocol/devlog/pkg/log"
)

// Record is one entry as stored in a log file.
// CBOR encoding uses integer keys for compactness.
type Record struct {
	// Log is the name of the instance the entry was appended to.
	Log string `cbor:"1,keyasint"`

	// Timestamp in microseconds (wall clock or uptime, see log.EntryHeader).
	Timestamp int64 `cbor:"2,keyasint"`

	// Index is the global entry index.
	Index uint32 `cbor:"3,keyasint"`

	Module  log.Module `cbor:"4,keyasint"`
	Level   log.Level  `cbor:"5,keyasint"`
	Version uint8      `cbor:"6,keyasint"`

	// Payload is the entry body without its header.
	Payload []byte `cbor:"7,keyasint,omitempty"`
}

// NewRecord builds a record from an encoded entry.
func NewRecord(name string, data []byte) (Record, error) {
	entry, err := log.DecodeEntry(data)
	if err != nil {
		return Record{}, err
	}
	return Record{
		Log:       name,
		Timestamp: entry.Header.Timestamp,
		Index:     entry.Header.Index,
		Module:    entry.Header.Module,
		Level:     entry.Header.Level,
		Version:   entry.Header.Version,
		Payload:   entry.Payload,
	}, nil
}

// Header returns the entry header of the record.
func (r Record) Header() log.EntryHeader {
	return log.EntryHeader{
		Timestamp: r.Timestamp,
		Index:     r.Index,
		Module:    r.Module,
		Level:     r.Level,
		Version:   r.Version,
	}
}

// Bytes returns the record as an encoded entry (header followed by payload).
func (r Record) Bytes() []byte {
	b := make([]byte, log.HeaderSize+len(r.Payload))
	hdr := r.Header()
	hdr.Put(b)
	copy(b[log.HeaderSize:], r.Payload)
	return b
}

// Time returns the wall-clock time of the record, or the zero time when the
// record carries an uptime timestamp.
func (r Record) Time() time.Time {
	h := r.Header()
	if !h.WallClock() {
		return time.Time{}
	}
	return h.Time()
}

// recEncMode is the CBOR encoder mode for records.
var recEncMode cbor.EncMode

// recDecMode is the CBOR decoder mode for records.
var recDecMode cbor.DecMode

func init() {
	var err error

	encOpts := cbor.EncOptions{
		Sort:          cbor.SortCanonical,
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsNull,
	}
	recEncMode, err = encOpts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create record CBOR encoder mode: %v", err))
	}

	decOpts := cbor.DecOptions{
		DupMapKey:         cbor.DupMapKeyQuiet,
		IndefLength:       cbor.IndefLengthAllowed,
		ExtraReturnErrors: cbor.ExtraDecErrorNone,
	}
	recDecMode, err = decOpts.DecMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create record CBOR decoder mode: %v", err))
	}
}

// EncodeRecord encodes a Record to CBOR bytes.
func EncodeRecord(r Record) ([]byte, error) {
	return recEncMode.Marshal(r)
}

// DecodeRecord decodes CBOR bytes into a Record.
func DecodeRecord(data []byte) (Record, error) {
	var r Record
	if err := recDecMode.Unmarshal(data, &r); err != nil {
		return Record{}, err
	}
	return r, nil
}

// NewEncoder creates a CBOR encoder for records that writes to w.
func NewEncoder(w io.Writer) *cbor.Encoder {
	return recEncMode.NewEncoder(w)
}

// NewDecoder creates a CBOR decoder for records that reads from r.
func NewDecoder(r io.Reader) *cbor.Decoder {
	return recDecMode.NewDecoder(r)
}
