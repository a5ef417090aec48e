// Package core implements the concurrent in-memory object hierarchy at the
// heart of the database: a process-wide Memstore of keyspaces, each keyspace
// a namespace of named tables, shared by every client-handling goroutine.
//
// The hierarchy looks like this:
//
//	Memstore
//	├── keyspace "default"
//	│   ├── table "default"
//	│   └── table ...
//	├── keyspace "system"
//	│   └── (reserved tables)
//	└── keyspace ...
//
// Core Functionality:
//   - ObjectID: the bounded identifier type keying both hierarchy levels
//   - Memstore: the root container holding keyspaces
//   - Keyspace: a namespace holding tables
//   - Reference-count-gated drops: an object is only removed when the
//     owning map is its sole remaining holder
//   - Advisory locks serializing external file maintenance (preload and
//     per-keyspace partition map)
//
// Implementation Approach:
//
//	Both hierarchy levels are cmap.Map instances, so structural mutation
//	(create and drop) goes through the map's per-key atomic primitives and
//	never through a lock over the whole map. Unrelated identifiers never
//	contend. The drop protocol relies entirely on cmap's RemoveIf: the
//	"is the map the only holder" question and the removal itself happen in
//	one indivisible step, which is what makes destroying objects safe while
//	arbitrarily many goroutines resolve and use handles concurrently.
//
//	Lookups hand out counted handles (cmap.Handle). Callers release a
//	handle when done with the object; until then, every drop of that
//	object fails with ErrStillInUse. Callers needing to wait for an object
//	to become droppable retry on their own schedule, the hierarchy itself
//	never blocks or retries a drop.
//
// Reserved Identifiers:
//
//	The identifiers `default` and `system` name the two boot keyspaces and
//	can never be dropped. Inside the default keyspace the table `default`
//	is equally protected. The table identifier `default` belongs
//	exclusively to the default keyspace; front ends must not create user
//	tables under that name elsewhere.
//
// Lock Order:
//
//	Code paths that hold both advisory locks acquire the Memstore's
//	preload lock strictly before any keyspace's partition-map lock.
//
// Lifecycle:
//
//	A Memstore is constructed exactly once at startup, either empty, with
//	the two reserved keyspaces, or restored in bulk from persisted state,
//	and is then passed by reference into every component that needs it.
//	There is no package-level instance.
//
// Thread Safety:
//
//	Every operation on Memstore and Keyspace is safe for unsynchronized
//	concurrent use. Same-identifier operations are linearizable. Only the
//	advisory lock acquisitions block; all other operations complete
//	promptly and support no cancellation.
package core
