// Package snapshot persists graphs to disk as snappy-compressed
// GraphML files, so a combined model can be saved before a risky merge
// and restored after a crash.
package snapshot

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/golang/snappy"

	"github.com/openbroker/resgraph/pkg/propgraph"
)

// Ext is the snapshot file extension.
const Ext = ".gml.sz"

// Repository stores snapshots under one directory.
type Repository struct {
	dir string
}

// NewRepository creates the snapshot directory when missing.
func NewRepository(dir string) (*Repository, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create snapshot dir: %w", err)
	}
	return &Repository{dir: dir}, nil
}

// Path returns the on-disk path of a named snapshot.
func (r *Repository) Path(name string) string {
	return filepath.Join(r.dir, name+Ext)
}

// Save serializes g and writes it as a named snapshot. The write goes
// through a temp file and rename, so a crash never leaves a truncated
// snapshot behind.
func (r *Repository) Save(name string, g propgraph.Graph) error {
	serialized, err := g.Serialize(propgraph.FormatGraphML)
	if err != nil {
		return err
	}
	compressed := snappy.Encode(nil, []byte(serialized))

	path := r.Path(name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, compressed, 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("finalize snapshot: %w", err)
	}
	return nil
}

// Load reads a named snapshot and imports it into store under graphID.
func (r *Repository) Load(name string, store propgraph.Store, graphID string) (propgraph.Graph, error) {
	compressed, err := os.ReadFile(r.Path(name))
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	data, err := snappy.Decode(nil, compressed)
	if err != nil {
		return nil, fmt.Errorf("decompress snapshot %s: %w", name, err)
	}
	return store.ImportGraph(string(data), propgraph.FormatGraphML, graphID)
}

// List returns the names of all stored snapshots.
func (r *Repository) List() ([]string, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if len(name) > len(Ext) && name[len(name)-len(Ext):] == Ext {
			names = append(names, name[:len(name)-len(Ext)])
		}
	}
	return names, nil
}

// Remove deletes a named snapshot.
func (r *Repository) Remove(name string) error {
	return os.Remove(r.Path(name))
}
