package log

import (
	"encoding/binary"
	"time"

	"github.com/cockroachdb/errors"
)

// HeaderSize is the encoded size of an EntryHeader.
const HeaderSize = 16

// HeaderVersion is the entry layout version written by this engine.
const HeaderVersion uint8 = 2

// ErrShortEntry is returned when decoding fewer than HeaderSize bytes.
var ErrShortEntry = errors.New("log: entry shorter than header")

// EntryHeader is the fixed-size record prepended to every payload.
//
// Layout (little-endian):
//
//	0..7   timestamp, microseconds (wall clock, or uptime before SanityEpoch)
//	8..11  global index
//	12..13 module id
//	14     level
//	15     layout version
type EntryHeader struct {
	Timestamp int64
	Index     uint32
	Module    Module
	Level     Level
	Version   uint8
}

// Put encodes h into b, which must hold at least HeaderSize bytes.
func (h EntryHeader) Put(b []byte) {
	_ = b[HeaderSize-1]
	binary.LittleEndian.PutUint64(b[0:8], uint64(h.Timestamp))
	binary.LittleEndian.PutUint32(b[8:12], h.Index)
	binary.LittleEndian.PutUint16(b[12:14], uint16(h.Module))
	b[14] = byte(h.Level)
	b[15] = h.Version
}

// Encode returns the header bytes.
func (h EntryHeader) Encode() []byte {
	b := make([]byte, HeaderSize)
	h.Put(b)
	return b
}

// DecodeHeader decodes the header at the start of b.
func DecodeHeader(b []byte) (EntryHeader, error) {
	if len(b) < HeaderSize {
		return EntryHeader{}, ErrShortEntry
	}
	return EntryHeader{
		Timestamp: int64(binary.LittleEndian.Uint64(b[0:8])),
		Index:     binary.LittleEndian.Uint32(b[8:12]),
		Module:    Module(binary.LittleEndian.Uint16(b[12:14])),
		Level:     Level(b[14]),
		Version:   b[15],
	}, nil
}

// WallClock reports whether the timestamp came from the wall clock rather
// than the uptime counter.
func (h EntryHeader) WallClock() bool {
	return h.Timestamp >= SanityEpoch.UnixMicro()
}

// Time returns the timestamp as a time.Time. For uptime timestamps the
// result is relative to the Unix epoch; check WallClock first.
func (h EntryHeader) Time() time.Time {
	return time.UnixMicro(h.Timestamp).UTC()
}

// Entry is a decoded header and its payload.
type Entry struct {
	Header  EntryHeader
	Payload []byte
}

// DecodeEntry splits stored entry bytes into header and payload.
// The payload aliases data.
func DecodeEntry(data []byte) (Entry, error) {
	h, err := DecodeHeader(data)
	if err != nil {
		return Entry{}, err
	}
	return Entry{Header: h, Payload: data[HeaderSize:]}, nil
}
