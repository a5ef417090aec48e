package core

// --------------------------------------------------------------------------
// Object identifiers
// --------------------------------------------------------------------------

// ObjectIDSize is the fixed capacity of an ObjectID in bytes.
const ObjectIDSize = 64

// ObjectID is the identifier type for keyspaces and tables: an immutable,
// fixed-capacity byte buffer with an explicit used length. Comparison is
// byte-exact and case-sensitive. The unused tail of the buffer is always
// zero, so two ObjectIDs are equal exactly when == says so, and the type
// can key ordinary maps as well as cmap maps.
//
// ObjectIDs are small and copied by value; there is no normalization of any
// kind.
type ObjectID struct {
	buf [ObjectIDSize]byte
	n   uint8
}

// Reserved identifiers. DefaultID names the boot keyspace every client
// lands in (and its protected default table), SystemID the keyspace
// holding reserved system tables. Neither can ever be dropped.
var (
	DefaultID = MustObjectID("default")
	SystemID  = MustObjectID("system")
)

// NewObjectID constructs an ObjectID from the given bytes. It returns
// ok == false if the input exceeds ObjectIDSize; long input is rejected,
// never truncated.
func NewObjectID(b []byte) (id ObjectID, ok bool) {
	if len(b) > ObjectIDSize {
		return ObjectID{}, false
	}
	id.n = uint8(len(b))
	copy(id.buf[:], b)
	return id, true
}

// ObjectIDFromString is NewObjectID over the bytes of s.
func ObjectIDFromString(s string) (ObjectID, bool) {
	return NewObjectID([]byte(s))
}

// MustObjectID is ObjectIDFromString but panics on oversized input. For
// identifiers known at compile time.
func MustObjectID(s string) ObjectID {
	id, ok := ObjectIDFromString(s)
	if !ok {
		panic("core: object identifier too long: " + s)
	}
	return id
}

// Bytes returns the used portion of the identifier.
func (id ObjectID) Bytes() []byte {
	return id.buf[:id.n]
}

// String returns the identifier as a string.
func (id ObjectID) String() string {
	return string(id.buf[:id.n])
}

// Len returns the used length in bytes.
func (id ObjectID) Len() int {
	return int(id.n)
}

// Hash mixes the identifier's bytes with the given seed (FNV-1a). It is the
// hash function the hierarchy's maps are built with.
func (id ObjectID) Hash(seed uint64) uint64 {
	h := seed ^ 14695981039346656037
	for i := uint8(0); i < id.n; i++ {
		h ^= uint64(id.buf[i])
		h *= 1099511628211
	}
	return h
}
