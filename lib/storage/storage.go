package storage

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/ValentinKolb/dKS/lib/core"
	"github.com/ValentinKolb/dKS/lib/table"
)

const (
	preloadFile = "PRELOAD"
	partmapFile = "PARTMAP"
)

// --------------------------------------------------------------------------
// Flush
// --------------------------------------------------------------------------

// FlushAll writes the full hierarchy under dir: every keyspace's PARTMAP
// first, then the PRELOAD list of the keyspaces whose manifests were
// written, so a reboot never finds a keyspace without its manifest. The
// whole pass runs under the preload advisory lock; each manifest is
// additionally written under its keyspace's partition-map lock, acquired
// strictly after the preload lock.
func FlushAll(dir string, ms *core.Memstore) error {
	guard := ms.LockPreload()
	defer guard.Release()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	flushed := make([]core.ObjectID, 0, ms.KeyspaceCount())
	for _, id := range ms.Keyspaces() {
		h, ok := ms.GetKeyspace(id)
		if !ok {
			// dropped between listing and lookup
			continue
		}
		err := flushKeyspace(dir, id, h.Value())
		h.Release()
		if err != nil {
			return err
		}
		flushed = append(flushed, id)
	}

	return writeFileAtomic(filepath.Join(dir, preloadFile), func(w io.Writer) error {
		return writePreload(w, flushed)
	})
}

func flushKeyspace(dir string, id core.ObjectID, ks *core.Keyspace) error {
	name, err := pathComponent(id)
	if err != nil {
		return err
	}
	ksdir := filepath.Join(dir, name)
	if err := os.MkdirAll(ksdir, 0o755); err != nil {
		return err
	}

	guard := ks.LockPartmap()
	defer guard.Release()

	return writeFileAtomic(filepath.Join(ksdir, partmapFile), func(w io.Writer) error {
		return writePartmap(w, ks, id == core.SystemID)
	})
}

// --------------------------------------------------------------------------
// Restore
// --------------------------------------------------------------------------

// RestoreAll rebuilds a hierarchy from a directory previously written by
// FlushAll, deriving snapshot state from cfg. The reserved keyspaces are
// recreated in their boot shape if the on-disk state lacks them, so a
// restored node always satisfies the boot invariants.
func RestoreAll(dir string, cfg *core.SnapshotConfig) (*core.Memstore, error) {
	ids, err := readPreloadFile(filepath.Join(dir, preloadFile))
	if err != nil {
		return nil, err
	}

	keyspaces := make(map[core.ObjectID]*core.Keyspace, len(ids))
	for _, id := range ids {
		name, err := pathComponent(id)
		if err != nil {
			return nil, err
		}
		tables, err := readPartmapFile(filepath.Join(dir, name, partmapFile), id == core.SystemID)
		if err != nil {
			return nil, fmt.Errorf("keyspace %q: %w", name, err)
		}
		keyspaces[id] = core.RestoreKeyspace(tables)
	}

	if _, ok := keyspaces[core.DefaultID]; !ok {
		keyspaces[core.DefaultID] = core.NewDefaultKeyspace()
	}
	if _, ok := keyspaces[core.SystemID]; !ok {
		keyspaces[core.SystemID] = core.NewEmptyKeyspace()
	}

	return core.RestoreMemstore(keyspaces, cfg), nil
}

// Open restores the hierarchy from dir if it holds persisted state and
// returns a default-initialized one otherwise. This is the boot entry
// point.
func Open(dir string, cfg *core.SnapshotConfig) (*core.Memstore, error) {
	_, err := os.Stat(filepath.Join(dir, preloadFile))
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return defaultMemstore(cfg), nil
	case err != nil:
		return nil, err
	}
	return RestoreAll(dir, cfg)
}

func defaultMemstore(cfg *core.SnapshotConfig) *core.Memstore {
	if cfg == nil {
		return core.NewDefaultMemstore()
	}
	return core.RestoreMemstore(map[core.ObjectID]*core.Keyspace{
		core.DefaultID: core.NewDefaultKeyspace(),
		core.SystemID:  core.NewEmptyKeyspace(),
	}, cfg)
}

// --------------------------------------------------------------------------
// File helpers
// --------------------------------------------------------------------------

func readPreloadFile(path string) ([]core.ObjectID, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return readPreload(bufio.NewReader(f))
}

func readPartmapFile(path string, system bool) (map[core.ObjectID]*table.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return readPartmap(bufio.NewReader(f), system)
}

// writeFileAtomic writes through a temporary sibling and renames it into
// place so readers only ever see complete generations.
func writeFileAtomic(path string, write func(io.Writer) error) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}

	w := bufio.NewWriterSize(f, 1<<20)
	if err := write(w); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := w.Flush(); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

// pathComponent renders an identifier as a directory name. Identifiers
// created through the DDL front end are always safe; arbitrary byte
// identifiers that would escape the data directory are refused.
func pathComponent(id core.ObjectID) (string, error) {
	s := id.String()
	if !safeComponent(s) {
		return "", fmt.Errorf("%w: %q", ErrUnsafeIdentifier, s)
	}
	return s, nil
}

func safeComponent(s string) bool {
	if s == "" || strings.HasPrefix(s, ".") {
		return false
	}
	return !strings.ContainsAny(s, "/\\\x00")
}
