package core

import (
	"bytes"
	"strings"
	"testing"
)

func TestObjectIDConstruction(t *testing.T) {
	id, ok := ObjectIDFromString("apps")
	if !ok {
		t.Fatalf("Expected construction of %q to succeed", "apps")
	}
	if id.String() != "apps" {
		t.Errorf("Expected string %q, got %q", "apps", id.String())
	}
	if id.Len() != 4 {
		t.Errorf("Expected length 4, got %d", id.Len())
	}
	if !bytes.Equal(id.Bytes(), []byte("apps")) {
		t.Errorf("Expected bytes %q, got %q", "apps", id.Bytes())
	}

	empty, ok := NewObjectID(nil)
	if !ok {
		t.Errorf("Expected construction from nil to succeed")
	}
	if empty.Len() != 0 {
		t.Errorf("Expected empty identifier, got length %d", empty.Len())
	}
}

func TestObjectIDCapacity(t *testing.T) {
	max, ok := ObjectIDFromString(strings.Repeat("x", ObjectIDSize))
	if !ok {
		t.Errorf("Expected construction of a %d byte identifier to succeed", ObjectIDSize)
	}
	if max.Len() != ObjectIDSize {
		t.Errorf("Expected length %d, got %d", ObjectIDSize, max.Len())
	}

	// one over capacity is rejected, never truncated
	tooLong, ok := ObjectIDFromString(strings.Repeat("x", ObjectIDSize+1))
	if ok {
		t.Errorf("Expected construction of a %d byte identifier to fail", ObjectIDSize+1)
	}
	if tooLong != (ObjectID{}) {
		t.Errorf("Expected the zero identifier on failure")
	}
}

func TestObjectIDEquality(t *testing.T) {
	a1 := MustObjectID("apps")
	a2, _ := NewObjectID([]byte("apps"))
	if a1 != a2 {
		t.Errorf("Expected identifiers with identical bytes to be equal")
	}

	// byte-exact means case-sensitive
	upper := MustObjectID("Apps")
	if a1 == upper {
		t.Errorf("Expected %q and %q to differ", "apps", "Apps")
	}

	if a1.Hash(42) != a2.Hash(42) {
		t.Errorf("Expected equal identifiers to hash equally under the same seed")
	}
	b := MustObjectID("b")
	a := MustObjectID("a")
	if a.Hash(42) == b.Hash(42) {
		t.Errorf("Expected %q and %q to hash differently", "a", "b")
	}
}

func TestReservedIdentifiers(t *testing.T) {
	if DefaultID.String() != "default" {
		t.Errorf("Expected DefaultID to spell %q, got %q", "default", DefaultID.String())
	}
	if SystemID.String() != "system" {
		t.Errorf("Expected SystemID to spell %q, got %q", "system", SystemID.String())
	}
	if DefaultID == SystemID {
		t.Errorf("Expected the reserved identifiers to differ")
	}
}
