package history

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/doeshing/termflow/internal/domain"
	"github.com/doeshing/termflow/internal/ports"
)

// Snapshot persists the history log and derived intelligence state as a
// JSON file between process runs. The in-memory store is authoritative
// while the process lives; Restore seeds it on startup and Flush writes it
// back on shutdown.
type Snapshot struct {
	path string
}

// NewSnapshot binds a snapshot to a file path. An empty path disables
// persistence; Restore and Flush become no-ops.
func NewSnapshot(path string) *Snapshot {
	return &Snapshot{path: path}
}

// Path reports the backing file.
func (s *Snapshot) Path() string { return s.path }

// Restore loads the snapshot file into imp. A missing file is a fresh
// install and not an error.
func (s *Snapshot) Restore(imp ports.HistoryExporter) error {
	if s.path == "" {
		return nil
	}
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	return imp.Import(raw)
}

// Flush writes exp's full state to the snapshot file, creating the parent
// directory if needed.
func (s *Snapshot) Flush(exp ports.HistoryExporter) error {
	if s.path == "" {
		return nil
	}
	raw, err := exp.Export("")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), domain.DirectoryPermissions); err != nil {
		return err
	}
	return os.WriteFile(s.path, raw, domain.SecureFilePermissions)
}
