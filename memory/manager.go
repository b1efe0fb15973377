package memory

import "sync"

// Manager registers LinearMemory instances by id, for host runtimes that
// execute more than one sandboxed instance concurrently (each instance owns
// its own memory; the manager is only a lookup registry).
type Manager struct {
	mu      sync.RWMutex
	next    uint32
	regions map[uint32]*LinearMemory
}

// NewManager creates an empty memory manager.
func NewManager() *Manager {
	return &Manager{regions: make(map[uint32]*LinearMemory)}
}

// Create allocates a new LinearMemory and returns its manager-assigned id.
func (mgr *Manager) Create(min uint32, max *uint32) (uint32, *LinearMemory, error) {
	lm, err := New(min, max)
	if err != nil {
		return 0, nil, err
	}

	mgr.mu.Lock()
	defer mgr.mu.Unlock()
	id := mgr.next
	mgr.next++
	mgr.regions[id] = lm
	return id, lm, nil
}

// Get returns the memory registered under id, if any.
func (mgr *Manager) Get(id uint32) (*LinearMemory, bool) {
	mgr.mu.RLock()
	defer mgr.mu.RUnlock()
	lm, ok := mgr.regions[id]
	return lm, ok
}

// Remove unregisters a memory instance. It does not affect anyone already
// holding a reference to the returned *LinearMemory.
func (mgr *Manager) Remove(id uint32) bool {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()
	if _, ok := mgr.regions[id]; !ok {
		return false
	}
	delete(mgr.regions, id)
	return true
}

// Count returns the number of currently registered memory instances.
func (mgr *Manager) Count() int {
	mgr.mu.RLock()
	defer mgr.mu.RUnlock()
	return len(mgr.regions)
}
