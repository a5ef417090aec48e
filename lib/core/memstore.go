package core

import (
	"github.com/ValentinKolb/dKS/lib/cmap"
)

// KeyspaceHandle is a counted reference to a keyspace. Obtained from
// Memstore.GetKeyspace, released by the caller when done.
type KeyspaceHandle = cmap.Handle[*Keyspace]

// --------------------------------------------------------------------------
// Memstore
// --------------------------------------------------------------------------

// Memstore is the root of the hierarchy: the process-wide container of all
// keyspaces, plus the node-level snapshot state. It is constructed once at
// startup and shared by reference; this package deliberately keeps no
// global instance.
//
// The keyspace identifiers `default` and `system` are reserved and can
// never be dropped.
type Memstore struct {
	keyspaces *cmap.Map[ObjectID, *Keyspace]

	// snapshot tracking state, nil when snapshots are disabled
	snapStatus *SnapshotStatus

	// advisory lock on the preload file
	preloadLock VLock
}

func newKeyspaceMap() *cmap.Map[ObjectID, *Keyspace] {
	return cmap.NewWithHasher[ObjectID, *Keyspace](ObjectID.Hash)
}

// NewEmptyMemstore creates a store with no keyspaces at all. Almost every
// caller wants NewDefaultMemstore instead; the empty variant exists for
// restore paths and tests that build the hierarchy themselves.
func NewEmptyMemstore() *Memstore {
	return &Memstore{keyspaces: newKeyspaceMap()}
}

// NewDefaultMemstore creates the boot hierarchy every fresh node starts
// with: the `default` keyspace containing the `default` table, and the
// empty `system` keyspace. A client that connects without choosing an
// entity operates on default:default.
func NewDefaultMemstore() *Memstore {
	ms := NewEmptyMemstore()
	ms.keyspaces.InsertIfAbsent(DefaultID, NewDefaultKeyspace())
	ms.keyspaces.InsertIfAbsent(SystemID, NewEmptyKeyspace())
	return ms
}

// RestoreMemstore bulk-constructs the hierarchy from an externally supplied
// keyspace map, deriving snapshot tracking state from cfg. A nil cfg means
// snapshots are disabled and no state is kept.
func RestoreMemstore(keyspaces map[ObjectID]*Keyspace, cfg *SnapshotConfig) *Memstore {
	ms := NewEmptyMemstore()
	for id, ks := range keyspaces {
		ms.keyspaces.InsertIfAbsent(id, ks)
	}
	if cfg != nil {
		ms.snapStatus = NewSnapshotStatus(cfg.Atmost)
	}
	return ms
}

// GetKeyspace returns a new counted handle to the keyspace under id, or
// (nil, false) if no such keyspace exists. The caller releases the handle
// when done; while it is held, every DropKeyspace of that identifier fails
// with ErrStillInUse.
func (ms *Memstore) GetKeyspace(id ObjectID) (*KeyspaceHandle, bool) {
	return ms.keyspaces.Lookup(id)
}

// CreateKeyspace creates an empty keyspace under id if and only if the
// identifier is free. It returns whether the keyspace was created and never
// overwrites.
func (ms *Memstore) CreateKeyspace(id ObjectID) bool {
	return ms.keyspaces.InsertIfAbsent(id, NewEmptyKeyspace())
}

// DropKeyspace removes the keyspace under id. It fails with
// ErrProtectedObject for `default` and `system`, ErrObjectNotFound if the
// identifier is unknown and ErrStillInUse if any handle to the keyspace is
// live. The reference check and the removal happen as one atomic step.
func (ms *Memstore) DropKeyspace(id ObjectID) error {
	if id == SystemID || id == DefaultID {
		return ErrProtectedObject
	}
	if !ms.keyspaces.Contains(id) {
		return ErrObjectNotFound
	}
	if ms.keyspaces.RemoveIf(id, func(_ *Keyspace, refs int64) bool {
		// 1 is the map's own reference, meaning nobody else holds one
		return refs == 1
	}) {
		return nil
	}
	return ErrStillInUse
}

// ForceRemoveKeyspace removes the keyspace under id without any reference
// check.
//
// Precondition: no handle to this keyspace exists anywhere in the process.
// Not verified at runtime; reserved for recovery code that runs before
// concurrent access begins.
func (ms *Memstore) ForceRemoveKeyspace(id ObjectID) {
	ms.keyspaces.RemoveUnconditional(id)
}

// LockPreload acquires the advisory lock serializing preload file
// maintenance, blocking until it is free. In code paths that also take a
// keyspace's partition-map lock, this lock is acquired first.
func (ms *Memstore) LockPreload() *Guard {
	return ms.preloadLock.Lock()
}

// HasKeyspace reports whether a keyspace exists under id, without touching
// its reference count.
func (ms *Memstore) HasKeyspace(id ObjectID) bool {
	return ms.keyspaces.Contains(id)
}

// Keyspaces returns a snapshot of the keyspace identifiers currently
// present.
func (ms *Memstore) Keyspaces() []ObjectID {
	return ms.keyspaces.Keys()
}

// KeyspaceCount returns the current number of keyspaces.
func (ms *Memstore) KeyspaceCount() int {
	return ms.keyspaces.Len()
}

// SnapshotStatus returns the node's snapshot tracking state, or nil when
// snapshots are disabled.
func (ms *Memstore) SnapshotStatus() *SnapshotStatus {
	return ms.snapStatus
}

// ShardRange returns the slice of the cluster this node serves.
func (ms *Memstore) ShardRange() ClusterShardRange {
	return ShardRangeSingleNode
}
