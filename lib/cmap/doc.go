// Package cmap provides a generic concurrent map whose entries are handed
// out as counted references. It is the structural primitive underneath the
// keyspace/table hierarchy in lib/core: every object in the hierarchy lives
// in one of these maps, and destructive operations are gated on the entry's
// live reference count.
//
// Core Functionality:
//   - Lookup returns a counted Handle to the current value; the caller must
//     release it when done
//   - InsertIfAbsent atomically inserts only if the key is missing and never
//     overwrites
//   - RemoveIf atomically evaluates a predicate over the current value and
//     its reference count and removes the entry only if the predicate holds,
//     all in one indivisible step
//   - RemoveUnconditional removes without any check, for callers that have
//     proven safety externally
//
// Implementation Approach:
//
//	The map is backed by xsync.MapOf, and every mutating path (including
//	Lookup, which has to bump the reference count) funnels through its
//	Compute method. Compute executes the supplied closure under the
//	per-bucket lock for the key, which linearizes all operations on the
//	same key while leaving operations on other keys fully parallel. This
//	is what closes the check-then-act window in RemoveIf: between the
//	predicate reading the reference count and the entry being unlinked, no
//	other goroutine can obtain a new handle for that key.
//
//	Reference counting is explicit because Go's runtime offers no
//	observable pointer strong count. Each entry owns an atomic counter
//	that starts at 1, accounting for the map's own reference. Lookup
//	increments it inside Compute; Handle.Release decrements it. A count of
//	exactly 1 therefore means the map is the only holder, which is the
//	condition drop operations test before removing an entry.
//
// Thread Safety:
//
//	All methods are safe for unsynchronized concurrent use. Operations on
//	distinct keys never block one another. Handle.Release may be called
//	from any goroutine; releasing the same handle twice panics, since a
//	double release would silently license a premature removal.
//
// Usage Example:
//
//	m := cmap.New[string, *Thing]()
//	m.InsertIfAbsent("a", thing)
//
//	if h, ok := m.Lookup("a"); ok {
//	    use(h.Value())
//	    h.Release()
//	}
//
//	// remove only if nobody else holds a handle
//	removed := m.RemoveIf("a", func(_ *Thing, refs int64) bool {
//	    return refs == 1
//	})
package cmap
