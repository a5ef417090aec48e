package storage

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/ValentinKolb/dKS/lib/core"
	"github.com/ValentinKolb/dKS/lib/table"
)

// --------------------------------------------------------------------------
// Format constants
// --------------------------------------------------------------------------

const (
	preloadMagic   = "DKSPRLD\x00" // preload file identifier
	partmapMagic   = "DKSPMAP\x00" // partmap file identifier
	formatVersion  = 1
	identifierCell = 1 + core.ObjectIDSize // length byte + fixed buffer
)

// Descriptor tag bytes. The model tag is the numeric value of table.Model;
// the values below cover the second descriptor byte and the system
// keyspace's separate descriptor space.
const (
	tagStoragePersistent byte = 0
	tagStorageVolatile   byte = 1

	// system keyspace table kinds
	tagSystemAuth byte = 0
)

// Sentinel errors for callers that need to distinguish failure classes.
var (
	ErrBadMagic          = errors.New("storage: magic number mismatch")
	ErrBadVersion        = errors.New("storage: unsupported format version")
	ErrCorrupted         = errors.New("storage: corrupted file")
	ErrMisplacedTable    = errors.New("storage: table kind not valid for this keyspace")
	ErrUnsafeIdentifier  = errors.New("storage: identifier is not a safe path component")
	ErrSnapshotsDisabled = errors.New("storage: snapshots are disabled")
	ErrSnapshotBusy      = errors.New("storage: a snapshot is already in progress")
)

// --------------------------------------------------------------------------
// Identifier cells
// --------------------------------------------------------------------------

// writeIdentifierCell writes id in its fixed 65-byte encoding: the used
// length followed by the full 64-byte buffer with a zeroed tail.
func writeIdentifierCell(w io.Writer, id core.ObjectID) error {
	var cell [identifierCell]byte
	cell[0] = uint8(id.Len())
	copy(cell[1:], id.Bytes())
	_, err := w.Write(cell[:])
	return err
}

// readIdentifierCell reads one 65-byte identifier cell.
func readIdentifierCell(r io.Reader) (core.ObjectID, error) {
	var cell [identifierCell]byte
	if _, err := io.ReadFull(r, cell[:]); err != nil {
		return core.ObjectID{}, err
	}
	n := int(cell[0])
	if n > core.ObjectIDSize {
		return core.ObjectID{}, fmt.Errorf("%w: identifier length %d exceeds %d", ErrCorrupted, n, core.ObjectIDSize)
	}
	id, _ := core.NewObjectID(cell[1 : 1+n])
	return id, nil
}

// --------------------------------------------------------------------------
// Preload codec
// --------------------------------------------------------------------------

// writePreload serializes the list of keyspace identifiers.
func writePreload(w io.Writer, ids []core.ObjectID) error {
	if _, err := io.WriteString(w, preloadMagic); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint8(formatVersion)); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint64(len(ids))); err != nil {
		return err
	}
	for _, id := range ids {
		if err := writeIdentifierCell(w, id); err != nil {
			return err
		}
	}
	return nil
}

// readPreload deserializes the list of keyspace identifiers.
func readPreload(r io.Reader) ([]core.ObjectID, error) {
	if err := checkHeader(r, preloadMagic); err != nil {
		return nil, err
	}
	var count uint64
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return nil, err
	}
	ids := make([]core.ObjectID, 0, count)
	for i := uint64(0); i < count; i++ {
		id, err := readIdentifierCell(r)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// --------------------------------------------------------------------------
// Partmap codec
// --------------------------------------------------------------------------

// writePartmap serializes a keyspace's table manifest. The system keyspace
// uses its own descriptor space, so the caller states which space applies.
// Tables are reached through counted handles like any other reader.
func writePartmap(w io.Writer, ks *core.Keyspace, system bool) error {
	type manifestEntry struct {
		id  core.ObjectID
		tbl *table.Table
	}

	// collect a consistent snapshot first so the entry count is exact
	ids := ks.Tables()
	entries := make([]manifestEntry, 0, len(ids))
	for _, id := range ids {
		h, ok := ks.GetTable(id)
		if !ok {
			// dropped between listing and lookup
			continue
		}
		entries = append(entries, manifestEntry{id: id, tbl: h.Value()})
		h.Release()
	}

	if _, err := io.WriteString(w, partmapMagic); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint8(formatVersion)); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint64(len(entries))); err != nil {
		return err
	}

	for _, e := range entries {
		if err := writeIdentifierCell(w, e.id); err != nil {
			return err
		}
		desc, err := descriptorBytes(e.tbl, system)
		if err != nil {
			return fmt.Errorf("table %q: %w", e.id.String(), err)
		}
		if _, err := w.Write(desc[:]); err != nil {
			return err
		}
	}
	return nil
}

// readPartmap deserializes a table manifest back into a table map suitable
// for core.RestoreKeyspace.
func readPartmap(r io.Reader, system bool) (map[core.ObjectID]*table.Table, error) {
	if err := checkHeader(r, partmapMagic); err != nil {
		return nil, err
	}
	var count uint64
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return nil, err
	}
	tables := make(map[core.ObjectID]*table.Table, count)
	for i := uint64(0); i < count; i++ {
		id, err := readIdentifierCell(r)
		if err != nil {
			return nil, err
		}
		var desc [2]byte
		if _, err := io.ReadFull(r, desc[:]); err != nil {
			return nil, err
		}
		tbl, err := tableFromDescriptor(desc, system)
		if err != nil {
			return nil, fmt.Errorf("table %q: %w", id.String(), err)
		}
		tables[id] = tbl
	}
	return tables, nil
}

// descriptorBytes encodes a table's two descriptor bytes for the given
// descriptor space.
func descriptorBytes(tbl *table.Table, system bool) ([2]byte, error) {
	if system {
		if !tbl.IsSystemAuth() {
			return [2]byte{}, ErrMisplacedTable
		}
		return [2]byte{tagSystemAuth, 0}, nil
	}
	if tbl.Kind() != table.KindData {
		return [2]byte{}, ErrMisplacedTable
	}
	storageTag := tagStoragePersistent
	if tbl.IsVolatile() {
		storageTag = tagStorageVolatile
	}
	return [2]byte{byte(tbl.Model()), storageTag}, nil
}

// tableFromDescriptor decodes two descriptor bytes for the given
// descriptor space.
func tableFromDescriptor(desc [2]byte, system bool) (*table.Table, error) {
	if system {
		if desc[0] != tagSystemAuth || desc[1] != 0 {
			return nil, fmt.Errorf("%w: unknown system descriptor %v", ErrCorrupted, desc)
		}
		return table.NewSystemAuth(), nil
	}
	model := table.Model(desc[0])
	if !model.Valid() {
		return nil, fmt.Errorf("%w: unknown model tag %d", ErrCorrupted, desc[0])
	}
	switch desc[1] {
	case tagStoragePersistent:
		return table.New(model, false), nil
	case tagStorageVolatile:
		return table.New(model, true), nil
	default:
		return nil, fmt.Errorf("%w: unknown storage tag %d", ErrCorrupted, desc[1])
	}
}

// checkHeader consumes and validates a file's magic string and version.
func checkHeader(r io.Reader, magic string) error {
	buf := make([]byte, len(magic))
	if _, err := io.ReadFull(r, buf); err != nil {
		return err
	}
	if string(buf) != magic {
		return ErrBadMagic
	}
	var version uint8
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return err
	}
	if version != formatVersion {
		return fmt.Errorf("%w: %d (expected %d)", ErrBadVersion, version, formatVersion)
	}
	return nil
}
