package engine

import (
	"os"
	"sync"
)

// tmpRegistry tracks in-progress temporary files so a pool can remove
// leftovers on Close. It implements platform.TmpTracker.
type tmpRegistry struct {
	mu    sync.Mutex
	paths map[string]struct{}
}

// Register adds a temporary file path to the registry.
func (r *tmpRegistry) Register(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.paths == nil {
		r.paths = make(map[string]struct{})
	}
	r.paths[path] = struct{}{}
}

// Deregister removes a temporary file path from the registry.
func (r *tmpRegistry) Deregister(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.paths, path)
}

func (r *tmpRegistry) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.paths)
}

// cleanup removes all registered temporary files.
func (r *tmpRegistry) cleanup() {
	r.mu.Lock()
	paths := make([]string, 0, len(r.paths))
	for p := range r.paths {
		paths = append(paths, p)
	}
	r.paths = nil
	r.mu.Unlock()

	for _, p := range paths {
		_ = os.Remove(p)
	}
}
