package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/doeshing/termflow/internal/domain"
)

func TestLoadWritesDefaultsOnFirstRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	loader := NewFileLoader(path)

	cfg, err := loader.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !cfg.Preferences.ConfirmDestructive {
		t.Fatal("defaults must confirm destructive commands")
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("default config not written: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != domain.SecureFilePermissions {
		t.Fatalf("config mode = %v, want %v", info.Mode().Perm(), os.FileMode(domain.SecureFilePermissions))
	}
}

func TestLoadHydratesPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	partial := "preferences:\n  dry_run: true\n"
	if err := os.WriteFile(path, []byte(partial), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := NewFileLoader(path).Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !cfg.Preferences.DryRun {
		t.Fatal("explicit preference lost")
	}
	if cfg.Completion.Endpoint == "" {
		t.Fatal("completion endpoint not hydrated")
	}
	if cfg.History.MaxEntries != domain.DefaultHistoryCap {
		t.Fatalf("history cap = %d, want %d", cfg.History.MaxEntries, domain.DefaultHistoryCap)
	}
	if cfg.History.SnapshotFile == "" {
		t.Fatal("snapshot file not hydrated")
	}
}

func TestEnvOverrideWins(t *testing.T) {
	path := filepath.Join(t.TempDir(), "elsewhere.yaml")
	t.Setenv("TERMFLOW_CONFIG", path)

	loader := NewFileLoader("")
	if got := loader.Path(); got != path {
		t.Fatalf("resolved path = %s, want %s", got, path)
	}
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("{not yaml"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := NewFileLoader(path).Load(context.Background()); err == nil {
		t.Fatal("malformed yaml must fail")
	}
}
