package table

import "fmt"

// --------------------------------------------------------------------------
// Data models
// --------------------------------------------------------------------------

// Model identifies the key/value type combination of a data table. The
// numeric value of each constant doubles as the model's tag byte in the
// persisted descriptor, so the order here is load-bearing.
type Model uint8

const (
	// plain key-value models
	KVBinBin Model = iota // key: binary, value: binary
	KVBinStr              // key: binary, value: string
	KVStrStr              // key: string, value: string
	KVStrBin              // key: string, value: binary

	// list-valued models
	KVBinListBin // key: binary, value: list<binary>
	KVBinListStr // key: binary, value: list<string>
	KVStrListBin // key: string, value: list<binary>
	KVStrListStr // key: string, value: list<string>
)

// Valid reports whether m is one of the defined models.
func (m Model) Valid() bool {
	return m <= KVStrListStr
}

// String renders the model the way the DDL language spells types.
func (m Model) String() string {
	switch m {
	case KVBinBin:
		return "kv<binary,binary>"
	case KVBinStr:
		return "kv<binary,string>"
	case KVStrStr:
		return "kv<string,string>"
	case KVStrBin:
		return "kv<string,binary>"
	case KVBinListBin:
		return "kv<binary,list<binary>>"
	case KVBinListStr:
		return "kv<binary,list<string>>"
	case KVStrListBin:
		return "kv<string,list<binary>>"
	case KVStrListStr:
		return "kv<string,list<string>>"
	default:
		return fmt.Sprintf("kv<invalid:%d>", uint8(m))
	}
}

// --------------------------------------------------------------------------
// Table kinds
// --------------------------------------------------------------------------

// Kind separates user data tables from the reserved system tables, which
// live in a descriptor space of their own.
type Kind uint8

const (
	KindData       Kind = iota // user table described by a Model
	KindSystemAuth             // the built-in authentication table
)

// --------------------------------------------------------------------------
// Table
// --------------------------------------------------------------------------

// Table is the opaque leaf unit of the hierarchy. Instances are immutable
// after construction and safe to share between goroutines.
type Table struct {
	kind     Kind
	model    Model
	volatile bool
}

// New creates a data table with the given model and storage class.
func New(model Model, volatile bool) *Table {
	return &Table{kind: KindData, model: model, volatile: volatile}
}

// NewDefault creates a table with the default model: plain key-value over
// binary keys and binary values, persistent. This is the model of the
// `default` table every default-initialized keyspace hierarchy starts with.
func NewDefault() *Table {
	return New(KVBinBin, false)
}

// NewSystemAuth creates the built-in authentication table of the system
// keyspace.
func NewSystemAuth() *Table {
	return &Table{kind: KindSystemAuth}
}

// Kind returns the table's kind.
func (t *Table) Kind() Kind {
	return t.kind
}

// Model returns the data model. Meaningless for system tables.
func (t *Table) Model() Model {
	return t.model
}

// IsVolatile reports whether the table's contents are memory-only.
func (t *Table) IsVolatile() bool {
	return t.volatile
}

// IsSystemAuth reports whether this is the built-in authentication table.
func (t *Table) IsSystemAuth() bool {
	return t.kind == KindSystemAuth
}

// Describe renders a one-line human-readable descriptor for inspection
// output.
func (t *Table) Describe() string {
	if t.kind == KindSystemAuth {
		return "system:auth"
	}
	class := "persistent"
	if t.volatile {
		class = "volatile"
	}
	return fmt.Sprintf("%s %s", t.model, class)
}
