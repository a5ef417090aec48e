// Package storage persists and restores the keyspace hierarchy. The
// hierarchy itself performs no I/O; this package is the collaborator that
// serializes it to disk, rebuilds it on boot through the bulk restore
// constructors, and takes snapshots.
//
// On-Disk Layout:
//
//	<dir>/PRELOAD            the list of keyspace identifiers
//	<dir>/<keyspace>/PARTMAP one table manifest per keyspace
//
// File Formats:
//
//	Both files start with an 8-byte magic string and a version byte.
//	Identifiers are stored as a fixed 65-byte cell: one length byte
//	(0..64) followed by the 64-byte buffer with a zeroed tail. A PARTMAP
//	entry is an identifier cell followed by two descriptor bytes. For user
//	keyspaces these are the data model tag (0..7, matching table.Model)
//	and the storage class tag (0 persistent, 1 volatile). The system
//	keyspace has a descriptor space of its own: the first byte is the
//	table kind, where 0 names the built-in authentication table, and the
//	second byte is reserved as zero. Multi-byte integers are
//	little-endian.
//
//	Volatile tables are persisted as descriptors only, so they come back
//	existing but empty after a reboot.
//
// Locking:
//
//	Flush takes the Memstore's preload advisory lock for the whole pass
//	and each keyspace's partition-map lock around that keyspace's
//	manifest. The preload lock is always acquired before any
//	partition-map lock; every caller that ever holds both must keep that
//	order.
//
// Snapshots:
//
//	Snapshot writes a full flush into a timestamped directory under the
//	snapshot root, gated by the Memstore's snapshot status so only one
//	snapshot runs at a time, and prunes the oldest timestamped snapshots
//	beyond the configured retention. Named snapshots are never pruned.
//
// Crash Safety:
//
//	Files are written to a temporary sibling and atomically renamed into
//	place, so a crash mid-flush leaves the previous generation readable.
package storage
