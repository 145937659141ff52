package log

import "sync"

// Instance is a named binding of one Handler, an opaque argument owned by
// the registering subsystem, and a minimum level.
//
// The zero value is an unregistered instance; every engine operation on it
// fails with ErrUninitialized. Instances are bound with Register and are
// never released by the engine. An Instance must not be copied after first use.
type Instance struct {
	mu      sync.RWMutex
	name    string
	handler Handler
	arg     any
	level   Level
}

// binding is a consistent copy of an instance's fields.
type binding struct {
	name    string
	handler Handler
	arg     any
	level   Level
}

// Name returns the registered name, or "" before registration.
func (l *Instance) Name() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.name
}

// Handler returns the bound backend, or nil before registration.
func (l *Instance) Handler() Handler {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.handler
}

// Arg returns the opaque argument passed at registration.
func (l *Instance) Arg() any {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.arg
}

// Level returns the minimum level accepted by the instance.
func (l *Instance) Level() Level {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.level
}

// SetLevel changes the minimum level accepted by the instance.
func (l *Instance) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

func (l *Instance) bind(name string, h Handler, arg any, level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.name = name
	l.handler = h
	l.arg = arg
	l.level = level
}

// snapshot returns the current binding and whether it is usable.
func (l *Instance) snapshot() (binding, bool) {
	if l == nil {
		return binding{}, false
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	b := binding{name: l.name, handler: l.handler, arg: l.arg, level: l.level}
	return b, b.name != "" && b.handler != nil
}
