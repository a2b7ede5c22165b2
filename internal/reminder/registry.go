package reminder

import (
	"sort"
	"sync"
)

// Registry maps an appointment id to its single live reminder job. It does
// not cancel anything itself; callers cancel the previous handle before
// putting a new one.
type Registry struct {
	mu   sync.Mutex
	jobs map[string]*Handle
}

func NewRegistry() *Registry {
	return &Registry{jobs: make(map[string]*Handle)}
}

func (r *Registry) Put(appointmentID string, h *Handle) {
	if h == nil {
		return
	}
	r.mu.Lock()
	r.jobs[appointmentID] = h
	r.mu.Unlock()
}

func (r *Registry) Get(appointmentID string) *Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.jobs[appointmentID]
}

func (r *Registry) Remove(appointmentID string) {
	r.mu.Lock()
	delete(r.jobs, appointmentID)
	r.mu.Unlock()
}

// Take removes and returns the entry in one step.
func (r *Registry) Take(appointmentID string) *Handle {
	r.mu.Lock()
	defer r.mu.Unlock()

	h := r.jobs[appointmentID]
	delete(r.jobs, appointmentID)
	return h
}

// Release drops h only if it is still the registered job for its
// appointment, so a fired job never evicts its replacement.
func (r *Registry) Release(h *Handle) {
	if h == nil {
		return
	}
	r.mu.Lock()
	if cur, ok := r.jobs[h.appointmentID]; ok && cur == h {
		delete(r.jobs, h.appointmentID)
	}
	r.mu.Unlock()
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.jobs)
}

// Snapshot lists the registered jobs ordered by fire time.
func (r *Registry) Snapshot() []*Handle {
	r.mu.Lock()
	out := make([]*Handle, 0, len(r.jobs))
	for _, h := range r.jobs {
		out = append(out, h)
	}
	r.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].fireAt.Before(out[j].fireAt)
	})
	return out
}
