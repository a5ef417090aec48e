package cmap

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
)

func TestInsertIfAbsent(t *testing.T) {
	m := New[string, int]()

	if !m.InsertIfAbsent("a", 1) {
		t.Errorf("Expected first insert of %q to succeed", "a")
	}
	if m.InsertIfAbsent("a", 2) {
		t.Errorf("Expected second insert of %q to fail", "a")
	}
	if !m.Contains("a") {
		t.Errorf("Expected map to contain %q after insert", "a")
	}
	if m.Len() != 1 {
		t.Errorf("Expected length 1, got %d", m.Len())
	}

	// the losing insert must not have overwritten the value
	h, ok := m.Lookup("a")
	if !ok {
		t.Fatalf("Expected lookup of %q to succeed", "a")
	}
	if h.Value() != 1 {
		t.Errorf("Expected original value 1 to survive, got %d", h.Value())
	}
	h.Release()
}

func TestLookupAndRelease(t *testing.T) {
	m := New[string, string]()

	if _, ok := m.Lookup("missing"); ok {
		t.Errorf("Expected lookup of missing key to fail")
	}

	m.InsertIfAbsent("k", "v")

	h, ok := m.Lookup("k")
	if !ok {
		t.Fatalf("Expected lookup of %q to succeed", "k")
	}
	if h.Value() != "v" {
		t.Errorf("Expected value %q, got %q", "v", h.Value())
	}
	if h.Refs() != 2 {
		t.Errorf("Expected refs 2 while handle is held, got %d", h.Refs())
	}

	h2, _ := m.Lookup("k")
	if h.Refs() != 3 {
		t.Errorf("Expected refs 3 with two handles held, got %d", h.Refs())
	}

	h2.Release()
	h.Release()

	if !m.RemoveIf("k", func(_ string, refs int64) bool { return refs == 1 }) {
		t.Errorf("Expected removal to succeed after all handles were released")
	}
}

func TestRemoveIf(t *testing.T) {
	m := New[string, int]()

	if m.RemoveIf("missing", func(int, int64) bool { return true }) {
		t.Errorf("Expected RemoveIf on missing key to return false")
	}

	m.InsertIfAbsent("k", 42)

	if m.RemoveIf("k", func(int, int64) bool { return false }) {
		t.Errorf("Expected RemoveIf with false predicate to return false")
	}
	if !m.Contains("k") {
		t.Errorf("Expected entry to survive a rejected removal")
	}

	if !m.RemoveIf("k", func(v int, refs int64) bool { return v == 42 && refs == 1 }) {
		t.Errorf("Expected RemoveIf with true predicate to succeed")
	}
	if m.Contains("k") {
		t.Errorf("Expected entry to be gone after removal")
	}
}

func TestRemoveIfBlockedByHandle(t *testing.T) {
	m := New[string, int]()
	m.InsertIfAbsent("k", 1)

	h, _ := m.Lookup("k")

	unique := func(_ int, refs int64) bool { return refs == 1 }

	if m.RemoveIf("k", unique) {
		t.Errorf("Expected removal to fail while a handle is held")
	}
	if !m.Contains("k") {
		t.Errorf("Expected entry to still exist after failed removal")
	}

	h.Release()

	if !m.RemoveIf("k", unique) {
		t.Errorf("Expected removal to succeed after the handle was released")
	}
}

func TestRemoveUnconditional(t *testing.T) {
	m := New[string, int]()
	m.InsertIfAbsent("k", 7)

	h, _ := m.Lookup("k")

	m.RemoveUnconditional("k")

	if m.Contains("k") {
		t.Errorf("Expected entry to be gone after unconditional removal")
	}

	// the detached handle keeps working
	if h.Value() != 7 {
		t.Errorf("Expected detached handle to still read 7, got %d", h.Value())
	}
	h.Release()

	// removing a missing key is a no-op
	m.RemoveUnconditional("k")
}

func TestDoubleReleasePanics(t *testing.T) {
	m := New[string, int]()
	m.InsertIfAbsent("k", 1)

	h, _ := m.Lookup("k")
	h.Release()

	defer func() {
		if recover() == nil {
			t.Errorf("Expected second release to panic")
		}
	}()
	h.Release()
}

func TestKeys(t *testing.T) {
	m := New[string, int]()
	want := map[string]bool{"a": true, "b": true, "c": true}
	for k := range want {
		m.InsertIfAbsent(k, 0)
	}

	keys := m.Keys()
	if len(keys) != len(want) {
		t.Fatalf("Expected %d keys, got %d", len(want), len(keys))
	}
	for _, k := range keys {
		if !want[k] {
			t.Errorf("Unexpected key %q", k)
		}
	}
}

func TestConcurrentInsertSingleWinner(t *testing.T) {
	m := New[string, int]()

	numGoroutines := 32
	var wins atomic.Int64
	var wg sync.WaitGroup

	wg.Add(numGoroutines)
	for g := 0; g < numGoroutines; g++ {
		go func(id int) {
			defer wg.Done()
			if m.InsertIfAbsent("contested", id) {
				wins.Add(1)
			}
		}(g)
	}
	wg.Wait()

	if wins.Load() != 1 {
		t.Errorf("Expected exactly one winning insert, got %d", wins.Load())
	}
	if m.Len() != 1 {
		t.Errorf("Expected exactly one entry, got %d", m.Len())
	}
}

func TestConcurrentLookupVsRemove(t *testing.T) {
	m := New[string, int]()
	m.InsertIfAbsent("k", 1)

	numReaders := 8
	numOperations := 1000

	var wg sync.WaitGroup
	wg.Add(numReaders + 1)

	// readers continuously check out and release handles
	for g := 0; g < numReaders; g++ {
		go func() {
			defer wg.Done()
			for i := 0; i < numOperations; i++ {
				if h, ok := m.Lookup("k"); ok {
					if h.Value() != 1 {
						t.Errorf("Expected value 1 through handle, got %d", h.Value())
					}
					h.Release()
				}
			}
		}()
	}

	// one remover races drop-and-recreate against the readers
	go func() {
		defer wg.Done()
		for i := 0; i < numOperations; i++ {
			if m.RemoveIf("k", func(_ int, refs int64) bool { return refs == 1 }) {
				m.InsertIfAbsent("k", 1)
			}
		}
	}()

	wg.Wait()

	// whatever interleaving happened, the entry must end up droppable
	m.InsertIfAbsent("k", 1)
	if !m.RemoveIf("k", func(_ int, refs int64) bool { return refs == 1 }) {
		t.Errorf("Expected final removal to succeed once all handles are released")
	}
}

func TestConcurrentDistinctKeys(t *testing.T) {
	// exercises the custom-hasher constructor at the same time
	m := NewWithHasher[string, int](func(key string, seed uint64) uint64 {
		h := seed
		for i := 0; i < len(key); i++ {
			h ^= uint64(key[i])
			h *= 1099511628211
		}
		return h
	})

	numGoroutines := 16
	numOperations := 200

	var wg sync.WaitGroup
	wg.Add(numGoroutines)
	for g := 0; g < numGoroutines; g++ {
		go func(id int) {
			defer wg.Done()
			key := fmt.Sprintf("key-%d", id)
			for i := 0; i < numOperations; i++ {
				if !m.InsertIfAbsent(key, id) {
					t.Errorf("Expected insert of %s to succeed on iteration %d", key, i)
				}
				h, ok := m.Lookup(key)
				if !ok {
					t.Errorf("Expected %s to be visible right after insert", key)
					continue
				}
				if h.Value() != id {
					t.Errorf("Expected value %d under %s, got %d", id, key, h.Value())
				}
				h.Release()
				if !m.RemoveIf(key, func(_ int, refs int64) bool { return refs == 1 }) {
					t.Errorf("Expected removal of %s to succeed on iteration %d", key, i)
				}
			}
		}(g)
	}
	wg.Wait()

	if m.Len() != 0 {
		t.Errorf("Expected empty map after all goroutines finished, got %d entries", m.Len())
	}
}
