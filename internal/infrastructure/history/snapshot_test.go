package history

import (
	"os"
	"path/filepath"
	"testing"
)

type fakeExporter struct {
	state     []byte
	exportErr error
	imports   [][]byte
}

func (f *fakeExporter) Export(sessionID string) ([]byte, error) {
	return f.state, f.exportErr
}

func (f *fakeExporter) Import(data []byte) error {
	f.imports = append(f.imports, data)
	return nil
}

func TestSnapshotFlushThenRestore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "history.json")
	snap := NewSnapshot(path)

	exp := &fakeExporter{state: []byte(`{"entries":[]}`)}
	if err := snap.Flush(exp); err != nil {
		t.Fatalf("flush: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if mode := info.Mode().Perm(); mode != 0o600 {
		t.Fatalf("snapshot mode = %v, want 0600", mode)
	}

	imp := &fakeExporter{}
	if err := snap.Restore(imp); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if len(imp.imports) != 1 || string(imp.imports[0]) != `{"entries":[]}` {
		t.Fatalf("restore fed %q, want flushed state", imp.imports)
	}
}

func TestSnapshotRestoreMissingFileIsFreshInstall(t *testing.T) {
	snap := NewSnapshot(filepath.Join(t.TempDir(), "absent.json"))
	imp := &fakeExporter{}
	if err := snap.Restore(imp); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if len(imp.imports) != 0 {
		t.Fatalf("missing file must not import, got %d calls", len(imp.imports))
	}
}

func TestSnapshotEmptyPathDisablesPersistence(t *testing.T) {
	snap := NewSnapshot("")
	exp := &fakeExporter{state: []byte("x")}
	if err := snap.Flush(exp); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if err := snap.Restore(exp); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if len(exp.imports) != 0 {
		t.Fatalf("empty path must be inert, got %d imports", len(exp.imports))
	}
}
