package sideeffect

import (
	"sync"

	"github.com/tidwall/btree"

	apperrors "github.com/kbukum/graphstep/errors"
)

// Supplier creates the initial value of a side effect.
type Supplier func() any

type entry struct {
	value       any
	initialized bool
	supplier    Supplier
}

// Store is a thread-safe, key-ordered side-effect registry.
type Store struct {
	mu      sync.RWMutex
	entries btree.Map[string, *entry]
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{}
}

// RegisterSupplierIfAbsent registers a lazy initializer for key. It is a no-op
// when key already has a value or a supplier.
func (s *Store) RegisterSupplierIfAbsent(key string, supplier Supplier) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries.Get(key); ok {
		return
	}
	s.entries.Set(key, &entry{supplier: supplier})
}

// Get returns the value for key, materializing it from its supplier on first access.
func (s *Store) Get(key string) (any, error) {
	s.mu.RLock()
	e, ok := s.entries.Get(key)
	if ok && e.initialized {
		v := e.value
		s.mu.RUnlock()
		return v, nil
	}
	s.mu.RUnlock()
	if !ok {
		return nil, apperrors.InvalidInput("side_effect", "unknown side-effect key "+key)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !e.initialized {
		if e.supplier != nil {
			e.value = e.supplier()
		}
		e.initialized = true
	}
	return e.value, nil
}

// Set stores a value, replacing any previous value but keeping the supplier.
func (s *Store) Set(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries.Get(key); ok {
		e.value = value
		e.initialized = true
		return
	}
	s.entries.Set(key, &entry{value: value, initialized: true})
}

// Has reports whether key is registered or set.
func (s *Store) Has(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.entries.Get(key)
	return ok
}

// Keys returns all registered keys in lexical order.
func (s *Store) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entries.Keys()
}

// Len returns the number of registered keys.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entries.Len()
}

// Partition returns a new Store carrying the same suppliers and no values.
// Entries that were only Set, without a supplier, are not carried over.
func (s *Store) Partition() *Store {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p := NewStore()
	s.entries.Scan(func(key string, e *entry) bool {
		if e.supplier != nil {
			p.entries.Set(key, &entry{supplier: e.supplier})
		}
		return true
	})
	return p
}

// Snapshot returns every initialized value keyed by side-effect key.
func (s *Store) Snapshot() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]any, s.entries.Len())
	s.entries.Scan(func(key string, e *entry) bool {
		if e.initialized {
			out[key] = e.value
		}
		return true
	})
	return out
}

// Port is a compile-time typed accessor for a side effect.
type Port[T any] struct {
	Key string
}

// Read retrieves a typed side effect using a Port.
func Read[T any](s *Store, port Port[T]) (T, error) {
	var zero T
	raw, err := s.Get(port.Key)
	if err != nil {
		return zero, err
	}
	val, ok := raw.(T)
	if !ok {
		return zero, apperrors.TypeMismatch("side effect "+port.Key, zero, raw)
	}
	return val, nil
}

// Write stores a typed side effect using a Port.
func Write[T any](s *Store, port Port[T], value T) {
	s.Set(port.Key, value)
}
