package table

import "testing"

func TestModelTagOrder(t *testing.T) {
	// the numeric values are the persisted tag bytes and must stay fixed
	expected := map[Model]uint8{
		KVBinBin:     0,
		KVBinStr:     1,
		KVStrStr:     2,
		KVStrBin:     3,
		KVBinListBin: 4,
		KVBinListStr: 5,
		KVStrListBin: 6,
		KVStrListStr: 7,
	}
	for model, tag := range expected {
		if uint8(model) != tag {
			t.Errorf("Expected model %s to have tag %d, got %d", model, tag, uint8(model))
		}
		if !model.Valid() {
			t.Errorf("Expected model %s to be valid", model)
		}
	}
	if Model(8).Valid() {
		t.Errorf("Expected model tag 8 to be invalid")
	}
}

func TestNewDefault(t *testing.T) {
	tbl := NewDefault()
	if tbl.Kind() != KindData {
		t.Errorf("Expected default table to be a data table")
	}
	if tbl.Model() != KVBinBin {
		t.Errorf("Expected default model kv<binary,binary>, got %s", tbl.Model())
	}
	if tbl.IsVolatile() {
		t.Errorf("Expected default table to be persistent")
	}
	if tbl.Describe() != "kv<binary,binary> persistent" {
		t.Errorf("Unexpected descriptor %q", tbl.Describe())
	}
}

func TestNewSystemAuth(t *testing.T) {
	tbl := NewSystemAuth()
	if !tbl.IsSystemAuth() {
		t.Errorf("Expected IsSystemAuth to be true")
	}
	if tbl.Kind() != KindSystemAuth {
		t.Errorf("Expected kind KindSystemAuth, got %d", tbl.Kind())
	}
	if tbl.Describe() != "system:auth" {
		t.Errorf("Unexpected descriptor %q", tbl.Describe())
	}
}

func TestVolatileDescriptor(t *testing.T) {
	tbl := New(KVStrListStr, true)
	if !tbl.IsVolatile() {
		t.Errorf("Expected volatile table")
	}
	if tbl.Describe() != "kv<string,list<string>> volatile" {
		t.Errorf("Unexpected descriptor %q", tbl.Describe())
	}
}
