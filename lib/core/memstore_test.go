package core

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ValentinKolb/dKS/lib/table"
)

func TestDefaultMemstoreLayout(t *testing.T) {
	ms := NewDefaultMemstore()

	if ms.KeyspaceCount() != 2 {
		t.Fatalf("Expected exactly two keyspaces, got %d", ms.KeyspaceCount())
	}

	dh, ok := ms.GetKeyspace(DefaultID)
	if !ok {
		t.Fatalf("Expected the default keyspace to exist")
	}
	if dh.Value().TableCount() != 1 {
		t.Errorf("Expected the default keyspace to hold one table, got %d", dh.Value().TableCount())
	}
	if !dh.Value().HasTable(DefaultID) {
		t.Errorf("Expected the default keyspace to hold the default table")
	}
	dh.Release()

	sh, ok := ms.GetKeyspace(SystemID)
	if !ok {
		t.Fatalf("Expected the system keyspace to exist")
	}
	if sh.Value().TableCount() != 0 {
		t.Errorf("Expected the system keyspace to be empty, got %d tables", sh.Value().TableCount())
	}
	sh.Release()

	if ms.SnapshotStatus() != nil {
		t.Errorf("Expected no snapshot state on a default store")
	}
}

func TestCreateKeyspaceOncePerLifetime(t *testing.T) {
	ms := NewDefaultMemstore()
	apps := MustObjectID("apps")

	if !ms.CreateKeyspace(apps) {
		t.Fatalf("Expected first create of %q to succeed", "apps")
	}
	if ms.CreateKeyspace(apps) {
		t.Errorf("Expected second create of %q to report false", "apps")
	}

	if err := ms.DropKeyspace(apps); err != nil {
		t.Fatalf("Expected drop of %q to succeed, got %v", "apps", err)
	}

	// after a successful drop the identifier is creatable again
	if !ms.CreateKeyspace(apps) {
		t.Errorf("Expected create of %q to succeed after the drop", "apps")
	}
}

func TestDropKeyspaceProtected(t *testing.T) {
	ms := NewDefaultMemstore()

	if err := ms.DropKeyspace(SystemID); !errors.Is(err, ErrProtectedObject) {
		t.Errorf("Expected ErrProtectedObject for %q, got %v", "system", err)
	}
	if err := ms.DropKeyspace(DefaultID); !errors.Is(err, ErrProtectedObject) {
		t.Errorf("Expected ErrProtectedObject for %q, got %v", "default", err)
	}
	if ms.KeyspaceCount() != 2 {
		t.Errorf("Expected both reserved keyspaces to survive, got %d", ms.KeyspaceCount())
	}
}

func TestDropKeyspaceMissing(t *testing.T) {
	ms := NewDefaultMemstore()

	ghost := MustObjectID("ghost")
	if err := ms.DropKeyspace(ghost); !errors.Is(err, ErrObjectNotFound) {
		t.Errorf("Expected ErrObjectNotFound, got %v", err)
	}
}

func TestDropKeyspaceStillInUse(t *testing.T) {
	ms := NewDefaultMemstore()
	apps := MustObjectID("apps")
	ms.CreateKeyspace(apps)

	h, ok := ms.GetKeyspace(apps)
	if !ok {
		t.Fatalf("Expected lookup of %q to succeed", "apps")
	}

	if err := ms.DropKeyspace(apps); !errors.Is(err, ErrStillInUse) {
		t.Errorf("Expected ErrStillInUse while a handle is held, got %v", err)
	}

	h.Release()

	if err := ms.DropKeyspace(apps); err != nil {
		t.Errorf("Expected drop to succeed after release, got %v", err)
	}
}

func TestDefaultKeyspaceTableLifecycle(t *testing.T) {
	ms := NewDefaultMemstore()
	apps := MustObjectID("apps")

	kh, _ := ms.GetKeyspace(DefaultID)
	ks := kh.Value()

	if !ks.CreateTable(apps, table.NewDefault()) {
		t.Fatalf("Expected creation of %q to succeed", "apps")
	}
	if err := ks.DropTable(apps); err != nil {
		t.Errorf("Expected drop of %q to succeed, got %v", "apps", err)
	}

	// held table handles block the drop until released
	ks.CreateTable(apps, table.NewDefault())
	th, _ := ks.GetTable(apps)
	if err := ks.DropTable(apps); !errors.Is(err, ErrStillInUse) {
		t.Errorf("Expected ErrStillInUse, got %v", err)
	}
	th.Release()
	if err := ks.DropTable(apps); err != nil {
		t.Errorf("Expected drop to succeed after release, got %v", err)
	}

	if err := ks.DropTable(DefaultID); !errors.Is(err, ErrProtectedObject) {
		t.Errorf("Expected ErrProtectedObject for the default table, got %v", err)
	}

	kh.Release()
}

func TestRestoreMemstore(t *testing.T) {
	apps := MustObjectID("apps")
	users := MustObjectID("users")

	keyspaces := map[ObjectID]*Keyspace{
		DefaultID: NewDefaultKeyspace(),
		SystemID:  NewEmptyKeyspace(),
		apps: RestoreKeyspace(map[ObjectID]*table.Table{
			users: table.New(table.KVStrStr, false),
		}),
	}

	ms := RestoreMemstore(keyspaces, &SnapshotConfig{Every: time.Minute, Atmost: 4})

	if ms.KeyspaceCount() != 3 {
		t.Fatalf("Expected 3 keyspaces after restore, got %d", ms.KeyspaceCount())
	}
	h, ok := ms.GetKeyspace(apps)
	if !ok {
		t.Fatalf("Expected restored keyspace %q to resolve", "apps")
	}
	if !h.Value().HasTable(users) {
		t.Errorf("Expected restored keyspace to hold its tables")
	}
	h.Release()

	status := ms.SnapshotStatus()
	if status == nil {
		t.Fatalf("Expected snapshot state to be derived from the config")
	}
	if status.Atmost() != 4 {
		t.Errorf("Expected retention bound 4, got %d", status.Atmost())
	}

	// a nil config derives no state
	if RestoreMemstore(nil, nil).SnapshotStatus() != nil {
		t.Errorf("Expected no snapshot state without a config")
	}
}

func TestSnapshotStatusSingleFlight(t *testing.T) {
	status := NewSnapshotStatus(2)

	if !status.Begin() {
		t.Fatalf("Expected the first Begin to claim the slot")
	}
	if status.Begin() {
		t.Errorf("Expected a second Begin to be refused while in flight")
	}
	if !status.InProgress() {
		t.Errorf("Expected InProgress to report the running snapshot")
	}
	status.Done()
	if !status.Begin() {
		t.Errorf("Expected Begin to succeed again after Done")
	}
	status.Done()
}

func TestConcurrentCreateKeyspaceSingleWinner(t *testing.T) {
	ms := NewDefaultMemstore()
	contested := MustObjectID("contested")

	numGoroutines := 32
	var wins atomic.Int64
	var wg sync.WaitGroup

	wg.Add(numGoroutines)
	for g := 0; g < numGoroutines; g++ {
		go func() {
			defer wg.Done()
			if ms.CreateKeyspace(contested) {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	if wins.Load() != 1 {
		t.Errorf("Expected exactly one winning create, got %d", wins.Load())
	}
	if !ms.HasKeyspace(contested) {
		t.Errorf("Expected the contested keyspace to exist afterwards")
	}
	if ms.KeyspaceCount() != 3 {
		t.Errorf("Expected exactly one new keyspace, got %d total", ms.KeyspaceCount())
	}
}

func TestConcurrentDisjointLifecycles(t *testing.T) {
	ms := NewDefaultMemstore()

	numGoroutines := 16
	numOperations := 100

	var wg sync.WaitGroup
	wg.Add(numGoroutines)
	for g := 0; g < numGoroutines; g++ {
		go func(id int) {
			defer wg.Done()
			ksid := MustObjectID(fmt.Sprintf("ks-%d", id))
			for i := 0; i < numOperations; i++ {
				if !ms.CreateKeyspace(ksid) {
					t.Errorf("Expected create of ks-%d to succeed on iteration %d", id, i)
				}
				// every successful create is immediately visible
				h, ok := ms.GetKeyspace(ksid)
				if !ok {
					t.Errorf("Expected ks-%d to be visible right after create", id)
					continue
				}
				h.Release()
				if err := ms.DropKeyspace(ksid); err != nil {
					t.Errorf("Expected drop of ks-%d to succeed on iteration %d, got %v", id, i, err)
				}
			}
		}(g)
	}
	wg.Wait()

	if ms.KeyspaceCount() != 2 {
		t.Errorf("Expected only the reserved keyspaces to remain, got %d", ms.KeyspaceCount())
	}
}

func TestForceRemoveKeyspace(t *testing.T) {
	ms := NewDefaultMemstore()
	apps := MustObjectID("apps")
	ms.CreateKeyspace(apps)

	ms.ForceRemoveKeyspace(apps)
	if ms.HasKeyspace(apps) {
		t.Errorf("Expected %q to be gone after force removal", "apps")
	}
}

func TestPreloadLock(t *testing.T) {
	ms := NewDefaultMemstore()

	guard := ms.LockPreload()
	guard.Release()

	g := ms.LockPreload()
	g.Release()
}
