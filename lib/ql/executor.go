package ql

import (
	"errors"
	"fmt"
	"sort"

	"github.com/ValentinKolb/dKS/lib/core"
	"github.com/ValentinKolb/dKS/lib/table"
)

// ErrIdentifierTooLong is returned when a name does not fit an object
// identifier.
var ErrIdentifierTooLong = errors.New("ql: identifier too long")

// Result carries the output of a statement. Entries is set by the inspect
// statements and by use (the resolved cursor); mutating statements leave
// it empty.
type Result struct {
	Entries []string
}

// Executor runs statements against a Memstore on behalf of one session.
// It holds the session's cursor (current space and model), which starts at
// default:default.
//
// Thread-safety: an Executor is NOT safe for concurrent use; give every
// session its own. All executors of a process share the Memstore, which
// is safe for concurrent use.
type Executor struct {
	ms       *core.Memstore
	curSpace core.ObjectID
	curModel core.ObjectID
	hasModel bool
}

// NewExecutor creates an executor for one session with the cursor at
// default:default.
func NewExecutor(ms *core.Memstore) *Executor {
	return &Executor{
		ms:       ms,
		curSpace: core.DefaultID,
		curModel: core.DefaultID,
		hasModel: true,
	}
}

// Execute lexes, parses and runs one statement.
func (e *Executor) Execute(src []byte) (Result, error) {
	stmt, err := ParseSource(src)
	if err != nil {
		return Result{}, err
	}
	return e.Run(stmt)
}

// Run applies one parsed statement.
func (e *Executor) Run(stmt Statement) (Result, error) {
	switch s := stmt.(type) {
	case CreateSpace:
		return Result{}, e.createSpace(s)
	case CreateModel:
		return Result{}, e.createModel(s)
	case DropSpace:
		return Result{}, e.dropSpace(s)
	case DropModel:
		return Result{}, e.dropModel(s)
	case Use:
		return e.use(s)
	case InspectSpaces:
		return e.inspectSpaces()
	case InspectSpace:
		return e.inspectSpace(s)
	case InspectModel:
		return e.inspectModel(s)
	default:
		return Result{}, fmt.Errorf("%w: %T", ErrUnknownStatement, stmt)
	}
}

// SetCurrent moves the cursor without validation. The zero model clears
// the model part. Callers that restore a session cursor from the wire use
// this; interactive sessions go through Use.
func (e *Executor) SetCurrent(space core.ObjectID, model core.ObjectID) {
	e.curSpace = space
	e.curModel = model
	e.hasModel = model.Len() > 0
}

// CurrentSpace returns the cursor's space.
func (e *Executor) CurrentSpace() core.ObjectID {
	return e.curSpace
}

// CurrentModel returns the cursor's model and whether one is set.
func (e *Executor) CurrentModel() (core.ObjectID, bool) {
	return e.curModel, e.hasModel
}

// ----------------------------------------
// Statement Implementations
// ----------------------------------------

func (e *Executor) createSpace(s CreateSpace) error {
	id, err := oid(s.Name)
	if err != nil {
		return err
	}
	if !e.ms.CreateKeyspace(id) {
		return core.NewDdlError(core.DdlCAlreadyExists, "space "+s.Name+" already exists")
	}
	return nil
}

func (e *Executor) createModel(s CreateModel) error {
	// The default table exists per space creation policy and is never user
	// managed, so the name is refused everywhere. The system space only
	// holds internally managed tables.
	id, err := oid(s.Entity.Name)
	if err != nil {
		return err
	}
	if id == core.DefaultID {
		return core.NewDdlError(core.DdlCProtectedObject, "the model identifier default is reserved")
	}
	model, err := ModelFor(s.KeyType, s.Value)
	if err != nil {
		return err
	}
	spaceID, ks, err := e.resolveSpace(s.Entity.Space)
	if err != nil {
		return err
	}
	defer ks.Release()
	if spaceID == core.SystemID {
		return core.NewDdlError(core.DdlCProtectedObject, "the system space is internally managed")
	}
	if !ks.Value().CreateTable(id, table.New(model, s.Volatile)) {
		return core.NewDdlError(core.DdlCAlreadyExists, "model "+s.Entity.String()+" already exists")
	}
	return nil
}

func (e *Executor) dropSpace(s DropSpace) error {
	id, err := oid(s.Name)
	if err != nil {
		return err
	}
	if !s.Force {
		return e.ms.DropKeyspace(id)
	}
	// Force skips the reference-count check but never the identifier
	// protection. The caller must be certain no handle is held.
	if id == core.DefaultID || id == core.SystemID {
		return core.NewDdlError(core.DdlCProtectedObject, "the space "+s.Name+" is protected")
	}
	if !e.ms.HasKeyspace(id) {
		return core.NewDdlError(core.DdlCObjectNotFound, "space "+s.Name+" not found")
	}
	e.ms.ForceRemoveKeyspace(id)
	return nil
}

func (e *Executor) dropModel(s DropModel) error {
	id, err := oid(s.Entity.Name)
	if err != nil {
		return err
	}
	spaceID, ks, err := e.resolveSpace(s.Entity.Space)
	if err != nil {
		return err
	}
	defer ks.Release()
	if spaceID == core.SystemID {
		return core.NewDdlError(core.DdlCProtectedObject, "the system space is internally managed")
	}
	if !s.Force {
		return ks.Value().DropTable(id)
	}
	if id == core.DefaultID {
		return core.NewDdlError(core.DdlCProtectedObject, "the model identifier default is protected")
	}
	if !ks.Value().HasTable(id) {
		return core.NewDdlError(core.DdlCObjectNotFound, "model "+s.Entity.String()+" not found")
	}
	ks.Value().ForceRemoveTable(id)
	return nil
}

func (e *Executor) use(s Use) (Result, error) {
	spaceID, err := oid(s.Space)
	if err != nil {
		return Result{}, err
	}
	ks, ok := e.ms.GetKeyspace(spaceID)
	if !ok {
		return Result{}, core.NewDdlError(core.DdlCObjectNotFound, "space "+s.Space+" not found")
	}
	defer ks.Release()
	if s.Model == "" {
		e.curSpace = spaceID
		e.curModel = core.ObjectID{}
		e.hasModel = false
		return Result{Entries: []string{s.Space}}, nil
	}
	modelID, err := oid(s.Model)
	if err != nil {
		return Result{}, err
	}
	if !ks.Value().HasTable(modelID) {
		return Result{}, core.NewDdlError(core.DdlCObjectNotFound, "model "+s.Space+"."+s.Model+" not found")
	}
	e.curSpace = spaceID
	e.curModel = modelID
	e.hasModel = true
	return Result{Entries: []string{s.Space + "." + s.Model}}, nil
}

func (e *Executor) inspectSpaces() (Result, error) {
	ids := e.ms.Keyspaces()
	entries := make([]string, 0, len(ids))
	for _, id := range ids {
		entries = append(entries, id.String())
	}
	sort.Strings(entries)
	return Result{Entries: entries}, nil
}

func (e *Executor) inspectSpace(s InspectSpace) (Result, error) {
	_, ks, err := e.resolveSpace(s.Name)
	if err != nil {
		return Result{}, err
	}
	defer ks.Release()
	ids := ks.Value().Tables()
	entries := make([]string, 0, len(ids))
	for _, id := range ids {
		entries = append(entries, id.String())
	}
	sort.Strings(entries)
	return Result{Entries: entries}, nil
}

func (e *Executor) inspectModel(s InspectModel) (Result, error) {
	name := s.Entity.Name
	if name == "" {
		if !e.hasModel {
			return Result{}, core.NewDdlError(core.DdlCDefaultNotFound, "no current model set")
		}
		name = e.curModel.String()
	}
	id, err := oid(name)
	if err != nil {
		return Result{}, err
	}
	spaceID, ks, err := e.resolveSpace(s.Entity.Space)
	if err != nil {
		return Result{}, err
	}
	defer ks.Release()
	tbl, ok := ks.Value().GetTable(id)
	if !ok {
		return Result{}, core.NewDdlError(core.DdlCObjectNotFound, "model "+spaceID.String()+"."+name+" not found")
	}
	defer tbl.Release()
	return Result{Entries: []string{name + ": " + tbl.Value().Describe()}}, nil
}

// ----------------------------------------
// Helpers
// ----------------------------------------

// resolveSpace returns the space a statement targets. An empty name means
// the cursor's space; if that space has been dropped since the session
// selected it, the implicit target no longer exists and the error is
// DefaultNotFound rather than ObjectNotFound.
func (e *Executor) resolveSpace(name string) (core.ObjectID, *core.KeyspaceHandle, error) {
	if name == "" {
		ks, ok := e.ms.GetKeyspace(e.curSpace)
		if !ok {
			return core.ObjectID{}, nil, core.NewDdlError(core.DdlCDefaultNotFound, "current space "+e.curSpace.String()+" no longer exists")
		}
		return e.curSpace, ks, nil
	}
	id, err := oid(name)
	if err != nil {
		return core.ObjectID{}, nil, err
	}
	ks, ok := e.ms.GetKeyspace(id)
	if !ok {
		return core.ObjectID{}, nil, core.NewDdlError(core.DdlCObjectNotFound, "space "+name+" not found")
	}
	return id, ks, nil
}

func oid(name string) (core.ObjectID, error) {
	id, ok := core.ObjectIDFromString(name)
	if !ok {
		return core.ObjectID{}, fmt.Errorf("%w: %q", ErrIdentifierTooLong, name)
	}
	return id, nil
}

// ModelFor maps a parsed key type and value type expression onto one of
// the supported table models.
func ModelFor(key Type, value TypeExpression) (table.Model, error) {
	bad := func() error {
		return core.NewDdlError(core.DdlCWrongModel, fmt.Sprintf("kv<%s,%s> is not a supported model", key, value))
	}
	var list bool
	var elem Type
	switch len(value) {
	case 1:
		if value[0] == TypeList {
			return 0, bad()
		}
		elem = value[0]
	case 2:
		if value[0] != TypeList || value[1] == TypeList {
			return 0, bad()
		}
		list = true
		elem = value[1]
	default:
		return 0, bad()
	}
	switch {
	case key == TypeBinary && !list && elem == TypeBinary:
		return table.KVBinBin, nil
	case key == TypeBinary && !list && elem == TypeString:
		return table.KVBinStr, nil
	case key == TypeString && !list && elem == TypeString:
		return table.KVStrStr, nil
	case key == TypeString && !list && elem == TypeBinary:
		return table.KVStrBin, nil
	case key == TypeBinary && list && elem == TypeBinary:
		return table.KVBinListBin, nil
	case key == TypeBinary && list && elem == TypeString:
		return table.KVBinListStr, nil
	case key == TypeString && list && elem == TypeBinary:
		return table.KVStrListBin, nil
	case key == TypeString && list && elem == TypeString:
		return table.KVStrListStr, nil
	default:
		return 0, bad()
	}
}

// ModelTypes is the inverse of ModelFor. It reports the key type and value
// type expression of a table model, with ok false for tags outside the
// supported range.
func ModelTypes(m table.Model) (Type, TypeExpression, bool) {
	switch m {
	case table.KVBinBin:
		return TypeBinary, TypeExpression{TypeBinary}, true
	case table.KVBinStr:
		return TypeBinary, TypeExpression{TypeString}, true
	case table.KVStrStr:
		return TypeString, TypeExpression{TypeString}, true
	case table.KVStrBin:
		return TypeString, TypeExpression{TypeBinary}, true
	case table.KVBinListBin:
		return TypeBinary, TypeExpression{TypeList, TypeBinary}, true
	case table.KVBinListStr:
		return TypeBinary, TypeExpression{TypeList, TypeString}, true
	case table.KVStrListBin:
		return TypeString, TypeExpression{TypeList, TypeBinary}, true
	case table.KVStrListStr:
		return TypeString, TypeExpression{TypeList, TypeString}, true
	default:
		return 0, nil, false
	}
}
