package log

import "sync"

// Registry is the ordered set of registered instances.
// Membership is by identity; insertion order is preserved.
type Registry struct {
	mu   sync.RWMutex
	logs []*Instance
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register binds name, handler, arg and level into inst and appends inst to
// the registry. Registering an instance that is already present rebinds its
// fields but keeps its original position. A nil inst allocates a new one.
func (r *Registry) Register(inst *Instance, name string, h Handler, arg any, level Level) *Instance {
	if inst == nil {
		inst = &Instance{}
	}
	inst.bind(name, h, arg, level)

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.indexLocked(inst) < 0 {
		r.logs = append(r.logs, inst)
	}
	return inst
}

// Registered reports whether inst is in the registry.
func (r *Registry) Registered(inst *Instance) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.indexLocked(inst) >= 0
}

// Next returns the instance registered after prev, or the first instance
// when prev is nil. It returns nil at the end, or if prev is not registered.
// Next holds no iteration state, so concurrent enumerations are independent.
func (r *Registry) Next(prev *Instance) *Instance {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i := 0
	if prev != nil {
		i = r.indexLocked(prev)
		if i < 0 {
			return nil
		}
		i++
	}
	if i >= len(r.logs) {
		return nil
	}
	return r.logs[i]
}

// Find returns the first registered instance with the given name.
func (r *Registry) Find(name string) *Instance {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, l := range r.logs {
		if l.Name() == name {
			return l
		}
	}
	return nil
}

// Len returns the number of registered instances.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.logs)
}

func (r *Registry) indexLocked(inst *Instance) int {
	for i, l := range r.logs {
		if l == inst {
			return i
		}
	}
	return -1
}
