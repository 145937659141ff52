package log

import "sync"

// Info is a snapshot of the global sequencer.
type Info struct {
	// Version is the entry layout version.
	Version uint8

	// Index is the index of the most recent committed entry; 0 after a flush.
	Index uint32

	// Timestamp is the timestamp of the most recent entry, in microseconds.
	Timestamp int64
}

// Sequencer assigns the global entry index shared by all instances.
type Sequencer struct {
	mu   sync.Mutex
	info Info
}

// NewSequencer returns a sequencer at index 0.
func NewSequencer() *Sequencer {
	return &Sequencer{info: Info{Version: HeaderVersion}}
}

// Info returns the current state.
func (s *Sequencer) Info() Info {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.info
}

// advance increments the index, records ts and returns the previous and new state.
// The index wraps at 2^32.
func (s *Sequencer) advance(ts int64) (prev, cur Info) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev = s.info
	s.info.Index++
	s.info.Timestamp = ts
	return prev, s.info
}

// restore puts back a state returned by advance.
func (s *Sequencer) restore(prev Info) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.info = prev
}

// Reset sets the index back to 0.
func (s *Sequencer) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.info.Index = 0
}
