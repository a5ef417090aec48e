package core

import (
	"sync/atomic"
	"time"
)

// --------------------------------------------------------------------------
// Snapshot policy and tracking state
// --------------------------------------------------------------------------

// SnapshotConfig is the operator-facing snapshot policy. A nil
// *SnapshotConfig means snapshots are disabled and no tracking state is
// kept on the Memstore.
type SnapshotConfig struct {
	Every  time.Duration // interval between scheduled snapshots
	Atmost uint64        // number of recent snapshots to retain (0 = unlimited)
}

// SnapshotStatus is the runtime tracking state the Memstore derives from an
// enabled SnapshotConfig: the retention bound plus a flag ensuring only one
// snapshot runs at a time.
type SnapshotStatus struct {
	atmost     uint64
	inProgress atomic.Bool
}

// NewSnapshotStatus creates tracking state with the given retention bound.
func NewSnapshotStatus(atmost uint64) *SnapshotStatus {
	return &SnapshotStatus{atmost: atmost}
}

// Atmost returns the number of recent snapshots to retain, 0 meaning
// unlimited.
func (s *SnapshotStatus) Atmost() uint64 {
	return s.atmost
}

// Begin claims the single snapshot slot. It returns false if another
// snapshot is currently in flight; the caller must then back off instead
// of starting a second one.
func (s *SnapshotStatus) Begin() bool {
	return s.inProgress.CompareAndSwap(false, true)
}

// Done releases the snapshot slot claimed by Begin.
func (s *SnapshotStatus) Done() {
	s.inProgress.Store(false)
}

// InProgress reports whether a snapshot is currently running.
func (s *SnapshotStatus) InProgress() bool {
	return s.inProgress.Load()
}
