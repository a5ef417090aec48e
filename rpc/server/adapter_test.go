package server

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ValentinKolb/dKS/lib/core"
	"github.com/ValentinKolb/dKS/lib/storage"
	"github.com/ValentinKolb/dKS/lib/table"
	"github.com/ValentinKolb/dKS/rpc/common"
)

// newTestAdapter opens a fresh hierarchy in a temp directory and returns the
// adapter serving it
func newTestAdapter(t *testing.T, cfg *core.SnapshotConfig) (IRPCServerAdapter, *core.Memstore, string) {
	t.Helper()

	dir := t.TempDir()
	storeDir := filepath.Join(dir, "store")
	ms, err := storage.Open(storeDir, cfg)
	if err != nil {
		t.Fatalf("Expected store to open, got %v", err)
	}
	return NewDDLServerAdapter(storeDir, filepath.Join(dir, "snaps")), ms, dir
}

func expectOk(t *testing.T, resp *common.Message) {
	t.Helper()
	if resp.Err != "" {
		t.Fatalf("Expected no error, got %q", resp.Err)
	}
}

func expectCode(t *testing.T, resp *common.Message, want core.DdlCode) {
	t.Helper()
	if resp.Err == "" {
		t.Fatalf("Expected failure with code %s, got success", want)
	}
	code, ok := resp.DdlCode()
	if !ok {
		t.Fatalf("Expected failure code %s, got untyped error %q", want, resp.Err)
	}
	if code != want {
		t.Errorf("Expected failure code %s, got %s (%q)", want, code, resp.Err)
	}
}

func TestAdapterCreateAndDropSpace(t *testing.T) {
	adapter, ms, _ := newTestAdapter(t, nil)

	expectOk(t, adapter.Handle(common.NewCreateSpaceRequest("apps"), ms))
	expectCode(t, adapter.Handle(common.NewCreateSpaceRequest("apps"), ms), core.DdlCAlreadyExists)

	expectOk(t, adapter.Handle(common.NewDropSpaceRequest("apps", false), ms))
	expectCode(t, adapter.Handle(common.NewDropSpaceRequest("apps", false), ms), core.DdlCObjectNotFound)
}

func TestAdapterProtectedSpaces(t *testing.T) {
	adapter, ms, _ := newTestAdapter(t, nil)

	expectCode(t, adapter.Handle(common.NewDropSpaceRequest("default", false), ms), core.DdlCProtectedObject)
	expectCode(t, adapter.Handle(common.NewDropSpaceRequest("system", true), ms), core.DdlCProtectedObject)
	expectCode(t, adapter.Handle(common.NewCreateModelRequest("system", "users", uint8(table.KVStrStr), false), ms), core.DdlCProtectedObject)
}

func TestAdapterCreateModel(t *testing.T) {
	adapter, ms, _ := newTestAdapter(t, nil)

	expectOk(t, adapter.Handle(common.NewCreateSpaceRequest("apps"), ms))
	expectOk(t, adapter.Handle(common.NewCreateModelRequest("apps", "sessions", uint8(table.KVStrListStr), true), ms))

	// An empty space targets the default space
	expectOk(t, adapter.Handle(common.NewCreateModelRequest("", "users", uint8(table.KVStrStr), false), ms))

	resp := adapter.Handle(common.NewInspectModelRequest("apps", "sessions"), ms)
	expectOk(t, resp)
	if len(resp.Entries) != 1 || resp.Entries[0] != "sessions: kv<string,list<string>> volatile" {
		t.Errorf("Expected volatile list model description, got %v", resp.Entries)
	}

	resp = adapter.Handle(common.NewInspectModelRequest("", "users"), ms)
	expectOk(t, resp)
	if len(resp.Entries) != 1 || resp.Entries[0] != "users: kv<string,string> persistent" {
		t.Errorf("Expected persistent model description, got %v", resp.Entries)
	}

	// Unknown spaces and invalid tags are rejected
	expectCode(t, adapter.Handle(common.NewCreateModelRequest("nosuch", "m", uint8(table.KVStrStr), false), ms), core.DdlCObjectNotFound)
	resp = adapter.Handle(common.NewCreateModelRequest("apps", "bad", 42, false), ms)
	if resp.Err == "" || !strings.Contains(resp.Err, "invalid model tag") {
		t.Errorf("Expected invalid model tag error, got %q", resp.Err)
	}
}

func TestAdapterDropModelStillInUse(t *testing.T) {
	adapter, ms, _ := newTestAdapter(t, nil)

	expectOk(t, adapter.Handle(common.NewCreateSpaceRequest("apps"), ms))
	expectOk(t, adapter.Handle(common.NewCreateModelRequest("apps", "jobs", uint8(table.KVBinBin), false), ms))

	// A held handle blocks the drop
	ks, ok := ms.GetKeyspace(core.MustObjectID("apps"))
	if !ok {
		t.Fatalf("Expected apps keyspace to exist")
	}
	tbl, ok := ks.Value().GetTable(core.MustObjectID("jobs"))
	if !ok {
		t.Fatalf("Expected jobs table to exist")
	}

	expectCode(t, adapter.Handle(common.NewDropModelRequest("apps", "jobs", false), ms), core.DdlCStillInUse)

	// Force ignores the live handle
	expectOk(t, adapter.Handle(common.NewDropModelRequest("apps", "jobs", true), ms))

	tbl.Release()
	ks.Release()
}

func TestAdapterUse(t *testing.T) {
	adapter, ms, _ := newTestAdapter(t, nil)

	expectOk(t, adapter.Handle(common.NewCreateSpaceRequest("apps"), ms))
	expectOk(t, adapter.Handle(common.NewCreateModelRequest("apps", "sessions", uint8(table.KVStrStr), false), ms))

	resp := adapter.Handle(common.NewUseRequest("apps", "sessions"), ms)
	expectOk(t, resp)
	if len(resp.Entries) != 1 || resp.Entries[0] != "apps.sessions" {
		t.Errorf("Expected resolved cursor apps.sessions, got %v", resp.Entries)
	}

	resp = adapter.Handle(common.NewUseRequest("apps", ""), ms)
	expectOk(t, resp)
	if len(resp.Entries) != 1 || resp.Entries[0] != "apps" {
		t.Errorf("Expected resolved cursor apps, got %v", resp.Entries)
	}

	expectCode(t, adapter.Handle(common.NewUseRequest("apps", "nosuch"), ms), core.DdlCObjectNotFound)
	expectCode(t, adapter.Handle(common.NewUseRequest("nosuch", ""), ms), core.DdlCObjectNotFound)
}

func TestAdapterInspect(t *testing.T) {
	adapter, ms, _ := newTestAdapter(t, nil)

	expectOk(t, adapter.Handle(common.NewCreateSpaceRequest("apps"), ms))

	resp := adapter.Handle(common.NewInspectSpacesRequest(), ms)
	expectOk(t, resp)
	want := []string{"apps", "default", "system"}
	if len(resp.Entries) != len(want) {
		t.Fatalf("Expected %v, got %v", want, resp.Entries)
	}
	for i, name := range want {
		if resp.Entries[i] != name {
			t.Errorf("Expected %v, got %v", want, resp.Entries)
			break
		}
	}

	// The default space starts with its default table
	resp = adapter.Handle(common.NewInspectSpaceRequest("default"), ms)
	expectOk(t, resp)
	if len(resp.Entries) != 1 || resp.Entries[0] != "default" {
		t.Errorf("Expected the default table, got %v", resp.Entries)
	}

	// An empty name falls back to the session default
	resp = adapter.Handle(common.NewInspectSpaceRequest(""), ms)
	expectOk(t, resp)
	if len(resp.Entries) != 1 || resp.Entries[0] != "default" {
		t.Errorf("Expected the default table, got %v", resp.Entries)
	}
}

func TestAdapterStatement(t *testing.T) {
	adapter, ms, _ := newTestAdapter(t, nil)

	expectOk(t, adapter.Handle(common.NewStatementRequest("", []byte("create space logs")), ms))

	// The request cursor scopes unqualified names
	req := common.NewStatementRequest("logs", []byte("create model events(string, list<binary>)"))
	expectOk(t, adapter.Handle(req, ms))

	resp := adapter.Handle(common.NewInspectSpaceRequest("logs"), ms)
	expectOk(t, resp)
	if len(resp.Entries) != 2 || resp.Entries[0] != "default" || resp.Entries[1] != "events" {
		t.Errorf("Expected [default events], got %v", resp.Entries)
	}

	// Parse errors surface as plain errors without a failure class
	resp = adapter.Handle(common.NewStatementRequest("", []byte("banana split")), ms)
	if resp.Err == "" {
		t.Errorf("Expected a parse error, got success")
	}
	if _, ok := resp.DdlCode(); ok {
		t.Errorf("Expected no failure class for a parse error, got one")
	}
}

func TestAdapterFlushAndReopen(t *testing.T) {
	adapter, ms, dir := newTestAdapter(t, nil)

	expectOk(t, adapter.Handle(common.NewCreateSpaceRequest("apps"), ms))
	expectOk(t, adapter.Handle(common.NewCreateModelRequest("apps", "sessions", uint8(table.KVStrListStr), true), ms))
	expectOk(t, adapter.Handle(common.NewFlushRequest(), ms))

	reopened, err := storage.Open(filepath.Join(dir, "store"), nil)
	if err != nil {
		t.Fatalf("Expected reopen to succeed, got %v", err)
	}
	ks, ok := reopened.GetKeyspace(core.MustObjectID("apps"))
	if !ok {
		t.Fatalf("Expected apps keyspace to survive the flush")
	}
	defer ks.Release()
	tbl, ok := ks.Value().GetTable(core.MustObjectID("sessions"))
	if !ok {
		t.Fatalf("Expected sessions table to survive the flush")
	}
	defer tbl.Release()
	if tbl.Value().Model() != table.KVStrListStr || !tbl.Value().IsVolatile() {
		t.Errorf("Expected volatile kv<string,list<string>>, got %s", tbl.Value().Describe())
	}
}

func TestAdapterSnapshotDisabled(t *testing.T) {
	adapter, ms, _ := newTestAdapter(t, nil)

	expectCode(t, adapter.Handle(common.NewSnapshotRequest(""), ms), core.DdlCNotReady)
}

func TestAdapterSnapshot(t *testing.T) {
	adapter, ms, dir := newTestAdapter(t, &core.SnapshotConfig{Every: time.Minute, Atmost: 4})

	expectOk(t, adapter.Handle(common.NewCreateSpaceRequest("apps"), ms))

	resp := adapter.Handle(common.NewSnapshotRequest(""), ms)
	expectOk(t, resp)
	if len(resp.Entries) != 1 || resp.Entries[0] == "" {
		t.Fatalf("Expected a snapshot name, got %v", resp.Entries)
	}
	if _, err := os.Stat(filepath.Join(dir, "snaps", resp.Entries[0], "PRELOAD")); err != nil {
		t.Errorf("Expected snapshot files on disk, got %v", err)
	}

	resp = adapter.Handle(common.NewSnapshotRequest("pre-upgrade"), ms)
	expectOk(t, resp)
	if len(resp.Entries) != 1 || resp.Entries[0] != "pre-upgrade" {
		t.Errorf("Expected the named snapshot, got %v", resp.Entries)
	}
	if _, err := os.Stat(filepath.Join(dir, "snaps", "pre-upgrade", "PRELOAD")); err != nil {
		t.Errorf("Expected named snapshot files on disk, got %v", err)
	}
}

func TestAdapterPing(t *testing.T) {
	adapter, ms, _ := newTestAdapter(t, nil)

	resp := adapter.Handle(common.NewPingRequest(), ms)
	expectOk(t, resp)
	if !resp.Ok {
		t.Errorf("Expected Ok on ping, got %+v", resp)
	}
}

func TestAdapterUnsupportedType(t *testing.T) {
	adapter, ms, _ := newTestAdapter(t, nil)

	resp := adapter.Handle(&common.Message{MsgType: common.MsgTSuccess}, ms)
	if resp.MsgType != common.MsgTError || resp.Err == "" {
		t.Errorf("Expected an error response, got %+v", resp)
	}
}

func TestAdapterNilHierarchy(t *testing.T) {
	adapter := NewDDLServerAdapter(t.TempDir(), t.TempDir())

	resp := adapter.Handle(common.NewPingRequest(), nil)
	if resp.MsgType != common.MsgTError || resp.Err == "" {
		t.Errorf("Expected an error response, got %+v", resp)
	}
}
