package orchestrator

import (
	"sync"

	"github.com/nuanced-dev/lsproxy/pkg/workspace"
)

// WorkerRegistry is the Language -> WorkerDescriptor map. It is owned
// exclusively by the Orchestrator, which is the only writer; handlers
// read it concurrently through short read-locked critical sections.
type WorkerRegistry struct {
	mu      sync.RWMutex
	workers map[workspace.Language]*WorkerDescriptor
}

// NewWorkerRegistry returns an empty registry.
func NewWorkerRegistry() *WorkerRegistry {
	return &WorkerRegistry{
		workers: make(map[workspace.Language]*WorkerDescriptor),
	}
}

// Set inserts or replaces the descriptor for a language. The Orchestrator
// calls this once per spawn attempt to insert the Spawning entry; later
// state changes go through Transition.
func (r *WorkerRegistry) Set(lang workspace.Language, desc *WorkerDescriptor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.workers[lang] = desc
}

// Get returns the descriptor for a language, if any.
func (r *WorkerRegistry) Get(lang workspace.Language) (*WorkerDescriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.workers[lang]
	return d, ok
}

// Delete removes a language's entry entirely (used once a worker is Gone
// and shutdown no longer needs to track it).
func (r *WorkerRegistry) Delete(lang workspace.Language) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.workers, lang)
}

// Transition updates a registered descriptor's State and LastError under
// the registry's write lock. Every state transition after a descriptor
// has been published via Set must go through this method rather than
// mutating the WorkerDescriptor directly, since handlers read the same
// pointers via Get/All/HealthyLanguages under only a read lock.
func (r *WorkerRegistry) Transition(lang workspace.Language, state WorkerState, lastErr string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if d, ok := r.workers[lang]; ok {
		d.State = state
		d.LastError = lastErr
	}
}

// All returns a snapshot of every descriptor currently registered.
func (r *WorkerRegistry) All() []*WorkerDescriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*WorkerDescriptor, 0, len(r.workers))
	for _, d := range r.workers {
		out = append(out, d)
	}
	return out
}

// HealthyLanguages returns a Language -> bool map reflecting which
// registry entries are in state Healthy, per the /system/health contract.
func (r *WorkerRegistry) HealthyLanguages() map[workspace.Language]bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[workspace.Language]bool, len(r.workers))
	for lang, d := range r.workers {
		out[lang] = d.State == WorkerStateHealthy
	}
	return out
}
