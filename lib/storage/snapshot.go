package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/ValentinKolb/dKS/lib/core"
)

// snapTimeFormat names timestamped snapshot directories. Fixed width, so
// lexicographic order equals chronological order.
const snapTimeFormat = "20060102-150405.000000000"

// Snapshot flushes the hierarchy into a new timestamped directory under
// root and prunes the oldest timestamped snapshots beyond the configured
// retention. It returns the snapshot's name.
//
// Only one snapshot may run at a time; a second caller gets
// ErrSnapshotBusy instead of queueing. A Memstore without snapshot state
// gets ErrSnapshotsDisabled.
func Snapshot(ms *core.Memstore, root string) (string, error) {
	status := ms.SnapshotStatus()
	if status == nil {
		return "", ErrSnapshotsDisabled
	}
	if !status.Begin() {
		return "", ErrSnapshotBusy
	}
	defer status.Done()

	name := time.Now().UTC().Format(snapTimeFormat)
	if err := FlushAll(filepath.Join(root, name), ms); err != nil {
		return "", err
	}
	if err := pruneSnapshots(root, status.Atmost()); err != nil {
		return "", err
	}
	return name, nil
}

// SnapshotNamed flushes the hierarchy into root/name. Named snapshots are
// the operator's responsibility and never pruned by retention.
func SnapshotNamed(ms *core.Memstore, root, name string) error {
	status := ms.SnapshotStatus()
	if status == nil {
		return ErrSnapshotsDisabled
	}
	if !safeComponent(name) {
		return fmt.Errorf("%w: %q", ErrUnsafeIdentifier, name)
	}
	if !status.Begin() {
		return ErrSnapshotBusy
	}
	defer status.Done()

	return FlushAll(filepath.Join(root, name), ms)
}

// ListSnapshots returns the timestamped snapshots under root, oldest
// first.
func ListSnapshots(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, err := time.Parse(snapTimeFormat, e.Name()); err != nil {
			// named snapshot or foreign directory
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

// pruneSnapshots removes the oldest timestamped snapshots so that at most
// `atmost` remain. A bound of 0 means unlimited.
func pruneSnapshots(root string, atmost uint64) error {
	if atmost == 0 {
		return nil
	}
	names, err := ListSnapshots(root)
	if err != nil {
		return err
	}
	for uint64(len(names)) > atmost {
		if err := os.RemoveAll(filepath.Join(root, names[0])); err != nil {
			return err
		}
		names = names[1:]
	}
	return nil
}
