package core

import (
	"github.com/ValentinKolb/dKS/lib/cmap"
	"github.com/ValentinKolb/dKS/lib/table"
)

// TableHandle is a counted reference to a table. Obtained from
// Keyspace.GetTable, released by the caller when done.
type TableHandle = cmap.Handle[*table.Table]

// --------------------------------------------------------------------------
// Keyspace
// --------------------------------------------------------------------------

// Keyspace is a namespace owning a set of named tables. All operations are
// safe for unsynchronized concurrent use.
//
// The table identifier `default` is special: it exists only in the keyspace
// created by NewDefaultKeyspace and can never be dropped, in any keyspace.
type Keyspace struct {
	tables      *cmap.Map[ObjectID, *table.Table]
	replication ReplicationStrategy

	// advisory lock on this keyspace's partition map file
	partmapLock VLock
}

func newTableMap() *cmap.Map[ObjectID, *table.Table] {
	return cmap.NewWithHasher[ObjectID, *table.Table](ObjectID.Hash)
}

// NewEmptyKeyspace creates a keyspace with no tables.
func NewEmptyKeyspace() *Keyspace {
	return &Keyspace{tables: newTableMap()}
}

// NewDefaultKeyspace creates a keyspace pre-populated with the protected
// `default` table, built with the default table model.
func NewDefaultKeyspace() *Keyspace {
	ks := NewEmptyKeyspace()
	ks.tables.InsertIfAbsent(DefaultID, table.NewDefault())
	return ks
}

// RestoreKeyspace bulk-constructs a keyspace from an externally supplied
// table map, with the default replication strategy. This is the entry point
// the persistence layer uses when rebuilding the hierarchy from disk.
func RestoreKeyspace(tables map[ObjectID]*table.Table) *Keyspace {
	ks := NewEmptyKeyspace()
	for id, tbl := range tables {
		ks.tables.InsertIfAbsent(id, tbl)
	}
	return ks
}

// GetTable returns a new counted handle to the table under id, or
// (nil, false) if no such table exists. The caller releases the handle when
// done; while it is held, every DropTable of that identifier fails with
// ErrStillInUse.
func (ks *Keyspace) GetTable(id ObjectID) (*TableHandle, bool) {
	return ks.tables.Lookup(id)
}

// CreateTable inserts tbl under id if and only if the identifier is free.
// It returns whether the table was created and never overwrites.
func (ks *Keyspace) CreateTable(id ObjectID, tbl *table.Table) bool {
	return ks.tables.InsertIfAbsent(id, tbl)
}

// DropTable removes the table under id. It fails with ErrProtectedObject
// for the `default` table, ErrObjectNotFound if the identifier is unknown
// and ErrStillInUse if any handle to the table is live. The reference check
// and the removal happen as one atomic step, so no goroutine can obtain a
// fresh handle in between.
func (ks *Keyspace) DropTable(id ObjectID) error {
	if id == DefaultID {
		return ErrProtectedObject
	}
	if !ks.tables.Contains(id) {
		return ErrObjectNotFound
	}
	if ks.tables.RemoveIf(id, func(_ *table.Table, refs int64) bool {
		// 1 is the map's own reference, meaning nobody else holds one
		return refs == 1
	}) {
		return nil
	}
	return ErrStillInUse
}

// ForceRemoveTable removes the table under id without any reference check.
//
// Precondition: no handle to this table exists anywhere in the process.
// This is not verified at runtime; the operation exists for recovery code
// that runs strictly before concurrent access begins and has proven safety
// on its own.
func (ks *Keyspace) ForceRemoveTable(id ObjectID) {
	ks.tables.RemoveUnconditional(id)
}

// LockPartmap acquires the advisory lock serializing edits to this
// keyspace's partition map file, blocking until it is free. Callers holding
// the Memstore preload lock as well must acquire that one first.
func (ks *Keyspace) LockPartmap() *Guard {
	return ks.partmapLock.Lock()
}

// HasTable reports whether a table exists under id, without touching its
// reference count.
func (ks *Keyspace) HasTable(id ObjectID) bool {
	return ks.tables.Contains(id)
}

// Tables returns a snapshot of the table identifiers currently present.
func (ks *Keyspace) Tables() []ObjectID {
	return ks.tables.Keys()
}

// TableCount returns the current number of tables.
func (ks *Keyspace) TableCount() int {
	return ks.tables.Len()
}

// ReplicationStrategy returns the keyspace's replication strategy.
func (ks *Keyspace) ReplicationStrategy() ReplicationStrategy {
	return ks.replication
}
