package gateway

import "sync"

// inflightRegistry tracks outstanding mutating actions, one flag per action
// keyed by target entity, so duplicate submissions are refused before any
// network traffic happens.
type inflightRegistry struct {
	mu   sync.Mutex
	keys map[string]struct{}
}

func newInflightRegistry() *inflightRegistry {
	return &inflightRegistry{keys: make(map[string]struct{})}
}

// begin marks key as in flight. It returns false when the key already is.
func (r *inflightRegistry) begin(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.keys[key]; ok {
		return false
	}
	r.keys[key] = struct{}{}
	return true
}

func (r *inflightRegistry) end(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.keys, key)
}

func (r *inflightRegistry) active(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.keys[key]
	return ok
}
