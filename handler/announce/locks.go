package announce

import "sync"

// LockRegistry is the process-local exclusivity set guarding send attempts.
// The sqlite store's transactional lock is the authoritative gate; the
// registry refuses a second click on the same process before it touches the
// database, and remains the documented best-effort fallback should the
// store ever lose transaction support. An entry is added when a send
// attempt starts and removed when it finishes, success or not.
type LockRegistry struct {
	mu     sync.Mutex
	active map[string]struct{}
}

// NewLockRegistry creates an empty registry. One per process, injected into
// the Service.
func NewLockRegistry() *LockRegistry {
	return &LockRegistry{active: make(map[string]struct{})}
}

// Acquire reserves id. It returns false when a send attempt for id is
// already running in this process.
func (r *LockRegistry) Acquire(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, busy := r.active[id]; busy {
		return false
	}
	r.active[id] = struct{}{}
	return true
}

// Release frees id. Releasing an id that is not held is a no-op.
func (r *LockRegistry) Release(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.active, id)
}
