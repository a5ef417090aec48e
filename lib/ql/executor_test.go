package ql

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/ValentinKolb/dKS/lib/core"
	"github.com/ValentinKolb/dKS/lib/table"
)

func run(t *testing.T, e *Executor, src string) Result {
	t.Helper()
	res, err := e.Execute([]byte(src))
	if err != nil {
		t.Fatalf("Expected no error for %q, got %v", src, err)
	}
	return res
}

func runErr(t *testing.T, e *Executor, src string, want error) {
	t.Helper()
	if _, err := e.Execute([]byte(src)); !errors.Is(err, want) {
		t.Errorf("Expected %v for %q, got %v", want, src, err)
	}
}

func TestCreateAndDropSpace(t *testing.T) {
	e := NewExecutor(core.NewDefaultMemstore())

	run(t, e, "create space apps")
	runErr(t, e, "create space apps", core.ErrAlreadyExists)
	run(t, e, "drop space apps")
	runErr(t, e, "drop space apps", core.ErrObjectNotFound)
}

func TestCreateSpaceReservedNames(t *testing.T) {
	e := NewExecutor(core.NewDefaultMemstore())

	// both exist from the start, so creating them collides
	runErr(t, e, "create space default", core.ErrAlreadyExists)
	runErr(t, e, "create space system", core.ErrAlreadyExists)
}

func TestCreateModelInCurrentSpace(t *testing.T) {
	ms := core.NewDefaultMemstore()
	e := NewExecutor(ms)

	run(t, e, "create model users(string, string)")
	runErr(t, e, "create model users(string, string)", core.ErrAlreadyExists)

	ks, _ := ms.GetKeyspace(core.DefaultID)
	defer ks.Release()
	tbl, ok := ks.Value().GetTable(core.MustObjectID("users"))
	if !ok {
		t.Fatalf("Expected users table in default space")
	}
	defer tbl.Release()
	if tbl.Value().Model() != table.KVStrStr {
		t.Errorf("Expected model %v, got %v", table.KVStrStr, tbl.Value().Model())
	}
	if tbl.Value().IsVolatile() {
		t.Errorf("Expected persistent table")
	}
}

func TestCreateModelQualifiedAndVolatile(t *testing.T) {
	ms := core.NewDefaultMemstore()
	e := NewExecutor(ms)

	run(t, e, "create space apps")
	run(t, e, "create model apps.cache(binary, binary) volatile")

	ks, _ := ms.GetKeyspace(core.MustObjectID("apps"))
	defer ks.Release()
	tbl, ok := ks.Value().GetTable(core.MustObjectID("cache"))
	if !ok {
		t.Fatalf("Expected cache table in apps space")
	}
	defer tbl.Release()
	if tbl.Value().Model() != table.KVBinBin || !tbl.Value().IsVolatile() {
		t.Errorf("Expected volatile kv<binary,binary>, got %s", tbl.Value().Describe())
	}
}

func TestCreateModelMissingSpace(t *testing.T) {
	e := NewExecutor(core.NewDefaultMemstore())
	runErr(t, e, "create model nosuch.users(string, string)", core.ErrObjectNotFound)
}

func TestCreateModelReservedName(t *testing.T) {
	e := NewExecutor(core.NewDefaultMemstore())

	run(t, e, "create space apps")
	runErr(t, e, "create model default(string, string)", core.ErrProtectedObject)
	runErr(t, e, "create model apps.default(string, string)", core.ErrProtectedObject)
}

func TestSystemSpaceProtected(t *testing.T) {
	e := NewExecutor(core.NewDefaultMemstore())

	runErr(t, e, "create model system.auth(string, string)", core.ErrProtectedObject)
	runErr(t, e, "drop model system.auth", core.ErrProtectedObject)
}

func TestCreateModelWrongModel(t *testing.T) {
	e := NewExecutor(core.NewDefaultMemstore())

	runErr(t, e, "create model a(list, string)", core.ErrWrongModel)
	runErr(t, e, "create model b(string, list)", core.ErrWrongModel)
	runErr(t, e, "create model c(string, list<list<string>>)", core.ErrWrongModel)
	runErr(t, e, "create model d(list, list<string>)", core.ErrWrongModel)
}

func TestModelMapping(t *testing.T) {
	cases := []struct {
		key   Type
		value TypeExpression
		want  table.Model
	}{
		{TypeBinary, TypeExpression{TypeBinary}, table.KVBinBin},
		{TypeBinary, TypeExpression{TypeString}, table.KVBinStr},
		{TypeString, TypeExpression{TypeString}, table.KVStrStr},
		{TypeString, TypeExpression{TypeBinary}, table.KVStrBin},
		{TypeBinary, TypeExpression{TypeList, TypeBinary}, table.KVBinListBin},
		{TypeBinary, TypeExpression{TypeList, TypeString}, table.KVBinListStr},
		{TypeString, TypeExpression{TypeList, TypeBinary}, table.KVStrListBin},
		{TypeString, TypeExpression{TypeList, TypeString}, table.KVStrListStr},
	}
	for _, c := range cases {
		got, err := ModelFor(c.key, c.value)
		if err != nil {
			t.Errorf("Expected no error for kv<%s,%s>, got %v", c.key, c.value, err)
			continue
		}
		if got != c.want {
			t.Errorf("Expected %v for kv<%s,%s>, got %v", c.want, c.key, c.value, got)
		}

		// ModelTypes must invert ModelFor
		key, value, ok := ModelTypes(got)
		if !ok {
			t.Errorf("Expected ModelTypes to know %v", got)
			continue
		}
		if key != c.key || !reflect.DeepEqual(value, c.value) {
			t.Errorf("Expected kv<%s,%s> back for %v, got kv<%s,%s>", c.key, c.value, got, key, value)
		}
	}

	if _, _, ok := ModelTypes(table.Model(42)); ok {
		t.Errorf("Expected ModelTypes to reject an invalid tag")
	}
}

func TestDropModel(t *testing.T) {
	e := NewExecutor(core.NewDefaultMemstore())

	run(t, e, "create model users(string, string)")
	run(t, e, "drop model users")
	runErr(t, e, "drop model users", core.ErrObjectNotFound)
	runErr(t, e, "drop model default", core.ErrProtectedObject)
}

func TestDropModelStillInUseAndForce(t *testing.T) {
	ms := core.NewDefaultMemstore()
	e := NewExecutor(ms)

	run(t, e, "create model users(string, string)")

	ks, _ := ms.GetKeyspace(core.DefaultID)
	defer ks.Release()
	tbl, _ := ks.Value().GetTable(core.MustObjectID("users"))

	runErr(t, e, "drop model users", core.ErrStillInUse)

	// force skips the reference-count check; the detached handle keeps
	// working until released
	run(t, e, "drop model users force")
	if ks.Value().HasTable(core.MustObjectID("users")) {
		t.Errorf("Expected users to be gone after forced drop")
	}
	if tbl.Value().Model() != table.KVStrStr {
		t.Errorf("Expected detached handle to stay readable")
	}
	tbl.Release()
}

func TestDropSpaceForce(t *testing.T) {
	ms := core.NewDefaultMemstore()
	e := NewExecutor(ms)

	run(t, e, "create space apps")
	ks, _ := ms.GetKeyspace(core.MustObjectID("apps"))

	runErr(t, e, "drop space apps", core.ErrStillInUse)
	run(t, e, "drop space apps force")
	ks.Release()

	runErr(t, e, "drop space apps force", core.ErrObjectNotFound)
	runErr(t, e, "drop space default force", core.ErrProtectedObject)
	runErr(t, e, "drop space system force", core.ErrProtectedObject)
}

func TestUse(t *testing.T) {
	ms := core.NewDefaultMemstore()
	e := NewExecutor(ms)

	run(t, e, "create space apps")
	run(t, e, "create model apps.users(string, string)")

	res := run(t, e, "use apps")
	if !reflect.DeepEqual(res.Entries, []string{"apps"}) {
		t.Errorf("Expected [apps], got %v", res.Entries)
	}
	if e.CurrentSpace() != core.MustObjectID("apps") {
		t.Errorf("Expected cursor on apps, got %s", e.CurrentSpace())
	}
	if _, ok := e.CurrentModel(); ok {
		t.Errorf("Expected no current model after use apps")
	}

	res = run(t, e, "use apps.users")
	if !reflect.DeepEqual(res.Entries, []string{"apps.users"}) {
		t.Errorf("Expected [apps.users], got %v", res.Entries)
	}
	model, ok := e.CurrentModel()
	if !ok || model != core.MustObjectID("users") {
		t.Errorf("Expected cursor model users, got %s (%v)", model, ok)
	}

	runErr(t, e, "use nosuch", core.ErrObjectNotFound)
	runErr(t, e, "use apps.nosuch", core.ErrObjectNotFound)
}

func TestUnqualifiedAfterUse(t *testing.T) {
	ms := core.NewDefaultMemstore()
	e := NewExecutor(ms)

	run(t, e, "create space apps")
	run(t, e, "use apps")
	run(t, e, "create model users(string, string)")

	ks, _ := ms.GetKeyspace(core.MustObjectID("apps"))
	defer ks.Release()
	if !ks.Value().HasTable(core.MustObjectID("users")) {
		t.Errorf("Expected users to land in apps, the current space")
	}
}

func TestCurrentSpaceDropped(t *testing.T) {
	ms := core.NewDefaultMemstore()
	e := NewExecutor(ms)

	run(t, e, "create space apps")
	run(t, e, "use apps")
	if err := ms.DropKeyspace(core.MustObjectID("apps")); err != nil {
		t.Fatalf("Expected drop to succeed, got %v", err)
	}

	// the implicit target is gone, which is distinct from naming a
	// missing space explicitly
	runErr(t, e, "create model users(string, string)", core.ErrDefaultNotFound)
	runErr(t, e, "inspect space", core.ErrDefaultNotFound)
}

func TestInspectSpaces(t *testing.T) {
	e := NewExecutor(core.NewDefaultMemstore())

	res := run(t, e, "inspect spaces")
	if !reflect.DeepEqual(res.Entries, []string{"default", "system"}) {
		t.Errorf("Expected [default system], got %v", res.Entries)
	}

	run(t, e, "create space apps")
	res = run(t, e, "inspect spaces")
	if !reflect.DeepEqual(res.Entries, []string{"apps", "default", "system"}) {
		t.Errorf("Expected [apps default system], got %v", res.Entries)
	}
}

func TestInspectSpace(t *testing.T) {
	e := NewExecutor(core.NewDefaultMemstore())

	res := run(t, e, "inspect space")
	if !reflect.DeepEqual(res.Entries, []string{"default"}) {
		t.Errorf("Expected [default], got %v", res.Entries)
	}

	run(t, e, "create space apps")
	run(t, e, "create model apps.users(string, string)")
	run(t, e, "create model apps.cache(binary, binary) volatile")
	res = run(t, e, "inspect space apps")
	if !reflect.DeepEqual(res.Entries, []string{"cache", "users"}) {
		t.Errorf("Expected [cache users], got %v", res.Entries)
	}
}

func TestInspectModel(t *testing.T) {
	e := NewExecutor(core.NewDefaultMemstore())

	res := run(t, e, "inspect model default")
	if len(res.Entries) != 1 || !strings.Contains(res.Entries[0], "kv<binary,binary>") {
		t.Errorf("Expected default descriptor, got %v", res.Entries)
	}

	run(t, e, "create space apps")
	run(t, e, "create model apps.logs(string, list<binary>) volatile")
	res = run(t, e, "inspect model apps.logs")
	want := "logs: kv<string,list<binary>> volatile"
	if len(res.Entries) != 1 || res.Entries[0] != want {
		t.Errorf("Expected %q, got %v", want, res.Entries)
	}

	runErr(t, e, "inspect model nosuch", core.ErrObjectNotFound)

	// after switching to a bare space there is no current model
	run(t, e, "use apps")
	runErr(t, e, "inspect model", core.ErrDefaultNotFound)

	run(t, e, "use apps.logs")
	res = run(t, e, "inspect model")
	if len(res.Entries) != 1 || res.Entries[0] != want {
		t.Errorf("Expected %q via cursor, got %v", want, res.Entries)
	}
}

func TestIdentifierTooLong(t *testing.T) {
	e := NewExecutor(core.NewDefaultMemstore())
	long := strings.Repeat("a", 65)
	runErr(t, e, "create space "+long, ErrIdentifierTooLong)
}

func TestExecuteSurfacesParseErrors(t *testing.T) {
	e := NewExecutor(core.NewDefaultMemstore())
	runErr(t, e, "create", ErrUnexpectedEOF)
	runErr(t, e, "create space 42", ErrUnexpectedToken)
}
