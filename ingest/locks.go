package ingest

import "sync"

// lockRegistry enforces at most one in-flight processing attempt per
// document. Acquisition never blocks; a busy document is reported to the
// caller instead of queued.
type lockRegistry struct {
	mu     sync.Mutex
	active map[string]struct{}
}

func newLockRegistry() *lockRegistry {
	return &lockRegistry{active: make(map[string]struct{})}
}

func (r *lockRegistry) acquire(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, busy := r.active[id]; busy {
		return false
	}
	r.active[id] = struct{}{}
	return true
}

func (r *lockRegistry) release(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.active, id)
}
