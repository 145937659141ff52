// Package log is the log engine shared by every subsystem of a device.
//
// Subsystems emit leveled, binary records into one of several pluggable
// storage backends without knowing which backend is active. The engine owns
// three pieces of process-wide state:
//   - a Registry of named log Instances, each bound to one Handler
//   - a Sequencer that assigns every appended entry a global index
//   - the Clock used to timestamp entries
//
// # Basic Usage
//
// A subsystem declares an Instance and registers it with a backend:
//
//	var bleLog log.Instance
//
//	ring := cbmem.New(8 * 1024)
//	log.Register(&bleLog, "ble", ring, nil, log.LevelInfo)
//
//	log.Printf(&bleLog, log.ModuleNimbleHost, log.LevelWarn, "conn %d lost", handle)
//
// Entries below the instance level are rejected with ErrFiltered. That is an
// expected outcome; use IsFiltered to tell it apart from real failures.
//
// # Entry Format
//
// Every stored record is an EntryHeader (HeaderSize bytes, little-endian)
// followed by the payload. Backends store the bytes verbatim and hand them
// back through Walk and Read.
//
// # Backends
//
// Handler implementations live in sub-packages: cbmem (ring buffer), console
// (slog), flash (Pebble-backed persistent store), file (CBOR stream) and
// redisstream (Redis streams).
package log
