package services

import (
	"fmt"
	"sync"

	"github.com/askpdf/backend/models"
)

// EvictionPolicy decides whether registering a new document should evict an
// existing one first. The observed system never evicts; the seam exists so a
// bounded policy can be dropped in without touching the registry.
type EvictionPolicy interface {
	// Victim returns the id to evict before inserting, or "" to keep all.
	Victim(ids []string) string
}

// NeverEvict keeps every document for the process lifetime.
type NeverEvict struct{}

// Victim implements EvictionPolicy.
func (NeverEvict) Victim([]string) string { return "" }

// DocumentRegistry is the process-wide map from document id to its vector
// index. It is the only shared mutable state in the system; an id becomes
// visible only after its index is fully built.
type DocumentRegistry struct {
	mu      sync.RWMutex
	indexes map[string]VectorIndex
	policy  EvictionPolicy

	onEvict func(id string)
}

// NewDocumentRegistry creates an empty registry. A nil policy means never
// evict.
func NewDocumentRegistry(policy EvictionPolicy) *DocumentRegistry {
	if policy == nil {
		policy = NeverEvict{}
	}
	return &DocumentRegistry{
		indexes: make(map[string]VectorIndex),
		policy:  policy,
	}
}

// OnEvict installs a hook invoked (outside the lock) for every evicted id.
func (r *DocumentRegistry) OnEvict(fn func(id string)) {
	r.onEvict = fn
}

// Register inserts a fully built index under id. Duplicate ids fail with
// ErrConflict; ids are generated fresh per upload so a conflict means id
// generation is broken.
func (r *DocumentRegistry) Register(id string, index VectorIndex) error {
	var evicted string

	r.mu.Lock()
	if _, exists := r.indexes[id]; exists {
		r.mu.Unlock()
		return fmt.Errorf("%w: %s", models.ErrConflict, id)
	}
	if victim := r.policy.Victim(r.ids()); victim != "" {
		delete(r.indexes, victim)
		evicted = victim
	}
	r.indexes[id] = index
	r.mu.Unlock()

	if evicted != "" && r.onEvict != nil {
		r.onEvict(evicted)
	}
	return nil
}

// Get returns the index for id, or ErrNotFound.
func (r *DocumentRegistry) Get(id string) (VectorIndex, error) {
	r.mu.RLock()
	index, ok := r.indexes[id]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", models.ErrNotFound, id)
	}
	return index, nil
}

// Evict removes id from the registry. It exists for eviction policies and
// tests; the default policy never calls it.
func (r *DocumentRegistry) Evict(id string) bool {
	r.mu.Lock()
	_, ok := r.indexes[id]
	delete(r.indexes, id)
	r.mu.Unlock()

	if ok && r.onEvict != nil {
		r.onEvict(id)
	}
	return ok
}

// Len reports how many documents are registered.
func (r *DocumentRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.indexes)
}

// ids must be called with the write lock held.
func (r *DocumentRegistry) ids() []string {
	ids := make([]string, 0, len(r.indexes))
	for id := range r.indexes {
		ids = append(ids, id)
	}
	return ids
}
