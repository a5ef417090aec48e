package cmap

import (
	"sync/atomic"

	"github.com/puzpuzpuz/xsync/v3"
)

// --------------------------------------------------------------------------
// Entry cells and handles
// --------------------------------------------------------------------------

// cell is the map-owned box around a stored value. refs counts every live
// Handle plus the map's own reference, so a freshly inserted cell starts
// at 1 and an entry with refs == 1 is held by nobody but the map.
type cell[V any] struct {
	value V
	refs  atomic.Int64
}

// Handle is a counted reference to a value stored in a Map. It stays valid
// even if the entry is removed from the map after the handle was obtained.
//
// Every handle must be released exactly once. A handle that is never
// released permanently blocks RemoveIf-based drops of its entry.
type Handle[V any] struct {
	c *cell[V]
}

// Value returns the referenced value.
func (h *Handle[V]) Value() V {
	return h.c.value
}

// Refs returns the entry's reference count at the time of the call,
// including the owning map's baseline reference of 1.
func (h *Handle[V]) Refs() int64 {
	return h.c.refs.Load()
}

// Release gives up this handle's reference. It must be called exactly once;
// a second call panics because the count would drop below the map's own
// baseline and a concurrent drop could then remove an entry that is still
// in use.
func (h *Handle[V]) Release() {
	if h.c.refs.Add(-1) < 1 {
		panic("cmap: handle released more than once")
	}
}

// --------------------------------------------------------------------------
// Map
// --------------------------------------------------------------------------

// Map is a concurrent key-value map with counted-handle entries. The zero
// value is not usable; construct instances with New or NewWithHasher.
//
// Thread-safety: all methods can be called concurrently without external
// synchronization. Operations on the same key are linearizable, operations
// on distinct keys proceed in parallel.
type Map[K comparable, V any] struct {
	data *xsync.MapOf[K, *cell[V]]
}

// New creates an empty Map using the built-in hash for K.
func New[K comparable, V any]() *Map[K, V] {
	return &Map[K, V]{data: xsync.NewMapOf[K, *cell[V]]()}
}

// NewWithHasher creates an empty Map that hashes keys with the supplied
// function. The second argument passed to hasher is the map's random seed.
func NewWithHasher[K comparable, V any](hasher func(K, uint64) uint64) *Map[K, V] {
	return &Map[K, V]{data: xsync.NewMapOfWithHasher[K, *cell[V]](hasher)}
}

// Lookup returns a new counted handle to the value stored under key, or
// (nil, false) if the key is absent. The reference count is incremented
// inside the same atomic step that observes the entry, so a concurrent
// RemoveIf can never slip between the observation and the increment.
func (m *Map[K, V]) Lookup(key K) (*Handle[V], bool) {
	var h *Handle[V]
	m.data.Compute(key, func(c *cell[V], loaded bool) (*cell[V], bool) {
		if !loaded {
			// nothing stored and nothing to store
			return nil, true
		}
		c.refs.Add(1)
		h = &Handle[V]{c: c}
		return c, false
	})
	return h, h != nil
}

// InsertIfAbsent atomically inserts value under key if and only if the key
// is not already present. It returns whether the insertion happened and
// never overwrites an existing entry.
func (m *Map[K, V]) InsertIfAbsent(key K, value V) bool {
	inserted := false
	m.data.Compute(key, func(old *cell[V], loaded bool) (*cell[V], bool) {
		if loaded {
			return old, false
		}
		c := &cell[V]{value: value}
		c.refs.Store(1)
		inserted = true
		return c, false
	})
	return inserted
}

// RemoveIf atomically evaluates pred against the current value and its
// reference count and removes the entry only if pred returns true. The
// evaluation and the removal form a single indivisible step with respect
// to every other operation on the same key. It returns whether the entry
// was removed; false means the key was absent or pred rejected it.
//
// A reference count of 1 passed to pred means the map itself is the only
// holder at this instant.
func (m *Map[K, V]) RemoveIf(key K, pred func(value V, refs int64) bool) bool {
	removed := false
	m.data.Compute(key, func(c *cell[V], loaded bool) (*cell[V], bool) {
		if !loaded {
			return nil, true
		}
		if pred(c.value, c.refs.Load()) {
			removed = true
			return c, true
		}
		return c, false
	})
	return removed
}

// RemoveUnconditional removes the entry under key without evaluating any
// predicate. Outstanding handles keep working but the entry is gone.
//
// Precondition: the caller has proven externally that no other handle to
// this entry exists anywhere in the process. This is not checked at
// runtime; it exists for recovery paths that run before concurrent access
// starts.
func (m *Map[K, V]) RemoveUnconditional(key K) {
	m.data.Delete(key)
}

// Contains reports whether key is present. It does not touch the entry's
// reference count.
func (m *Map[K, V]) Contains(key K) bool {
	_, ok := m.data.Load(key)
	return ok
}

// Len returns the current number of entries.
func (m *Map[K, V]) Len() int {
	return m.data.Size()
}

// Keys returns a snapshot of the keys currently present. Entries inserted
// or removed while Keys runs may or may not be reflected; values are
// reached through Lookup so that the handle discipline stays intact.
func (m *Map[K, V]) Keys() []K {
	keys := make([]K, 0, m.data.Size())
	m.data.Range(func(key K, _ *cell[V]) bool {
		keys = append(keys, key)
		return true
	})
	return keys
}
