package batch

import (
	"sync"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
)

// Registry addresses batch aggregates by id and is the single in-memory owner
// of live batches. All mutation flows through the aggregate obtained here;
// no other component holds a second copy. The registry also owns the
// per-batch locks that serialize aggregate access: every command handler and
// the adjustment coordinator take LockBatch for the batch they touch, so a
// waypoint completion never races a reoptimization reading the same progress
// map, regardless of which goroutine (HTTP, debounce timer, cron sweep) runs
// the operation.
type Registry struct {
	mu      sync.RWMutex
	batches map[kernel.UUID]*DeliveryBatch
	locks   map[kernel.UUID]*sync.Mutex
}

// NewRegistry creates an empty batch registry.
func NewRegistry() *Registry {
	return &Registry{
		batches: make(map[kernel.UUID]*DeliveryBatch),
		locks:   make(map[kernel.UUID]*sync.Mutex),
	}
}

// LockBatch acquires the serialization lock for one batch id and returns the
// matching unlock. The lock exists independently of whether an aggregate is
// registered, so callers may take it before loading from storage. Locks are
// kept for the registry's lifetime; ids are few and terminal batches stop
// being locked.
func (r *Registry) LockBatch(id kernel.UUID) func() {
	r.mu.Lock()
	l, ok := r.locks[id]
	if !ok {
		l = &sync.Mutex{}
		r.locks[id] = l
	}
	r.mu.Unlock()

	l.Lock()
	return l.Unlock
}

// Add registers a batch aggregate under its id. An existing entry with the
// same id is replaced; the caller guarantees id uniqueness at creation time.
func (r *Registry) Add(b *DeliveryBatch) error {
	if err := b.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches[b.ID()] = b
	return nil
}

// Get returns the batch aggregate registered under the given id. Callers
// mutating or reading mutable aggregate state must hold LockBatch for the id.
func (r *Registry) Get(id kernel.UUID) (*DeliveryBatch, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.batches[id]
	if !ok {
		return nil, errs.NewObjectNotFoundError("batch", id.String())
	}
	return b, nil
}

// Remove drops a batch aggregate from the registry, typically once it reaches
// a terminal state. Removing an unknown id is a no-op.
func (r *Registry) Remove(id kernel.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.batches, id)
}

// IsActive reports whether the batch registered under the given id is in
// Active status. The status is read under the batch's serialization lock.
func (r *Registry) IsActive(id kernel.UUID) bool {
	r.mu.RLock()
	b, ok := r.batches[id]
	r.mu.RUnlock()
	if !ok {
		return false
	}

	unlock := r.LockBatch(id)
	defer unlock()
	return b.Status() == Active
}

// ActiveIDs returns the ids of all registered batches in Active status.
func (r *Registry) ActiveIDs() []kernel.UUID {
	r.mu.RLock()
	snapshot := make(map[kernel.UUID]*DeliveryBatch, len(r.batches))
	for id, b := range r.batches {
		snapshot[id] = b
	}
	r.mu.RUnlock()

	ids := make([]kernel.UUID, 0, len(snapshot))
	for id, b := range snapshot {
		unlock := r.LockBatch(id)
		if b.Status() == Active {
			ids = append(ids, id)
		}
		unlock()
	}
	return ids
}
