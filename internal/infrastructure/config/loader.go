// Package config loads the persisted user configuration.
package config

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/doeshing/termflow/internal/domain"
	"github.com/doeshing/termflow/internal/pkg/filesystem"
	"github.com/doeshing/termflow/internal/ports"
)

// FileLoader loads YAML configuration from ~/.termflow/config.yaml
// (overridable via TERMFLOW_CONFIG). A missing file is written out with
// defaults on first load.
type FileLoader struct {
	overridePath string
}

// NewFileLoader builds a new loader. An empty path uses the default
// location.
func NewFileLoader(path string) *FileLoader {
	return &FileLoader{overridePath: path}
}

// Load implements ports.ConfigProvider.
func (l *FileLoader) Load(context.Context) (domain.Config, error) {
	path := l.resolvePath()
	if err := os.MkdirAll(filepath.Dir(path), domain.DirectoryPermissions); err != nil {
		return domain.Config{}, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := writeDefault(path, cfg); err != nil {
				return domain.Config{}, err
			}
			return cfg, nil
		}
		return domain.Config{}, err
	}

	var cfg domain.Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return domain.Config{}, err
	}
	return hydrateDefaults(cfg), nil
}

// Path reports where configuration is read from.
func (l *FileLoader) Path() string { return l.resolvePath() }

func (l *FileLoader) resolvePath() string {
	if l.overridePath != "" {
		return expandPath(l.overridePath)
	}
	if custom := os.Getenv("TERMFLOW_CONFIG"); custom != "" {
		return expandPath(custom)
	}
	return filepath.Join(filesystem.UserHomeDir(), ".termflow", "config.yaml")
}

func writeDefault(path string, cfg domain.Config) error {
	raw, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, domain.SecureFilePermissions)
}

// DefaultConfig is what a fresh installation starts with.
func DefaultConfig() domain.Config {
	home := filesystem.UserHomeDir()
	return domain.Config{
		Completion: domain.CompletionConfig{
			Endpoint:   "https://api.openai.com/v1/chat/completions",
			Model:      "gpt-4o-mini",
			AuthEnvVar: "OPENAI_API_KEY",
			MaxTokens:  512,
		},
		Security: domain.SecurityConfig{
			PolicyFile: filepath.Join(home, ".termflow", "policy.yaml"),
			RulesFile:  filepath.Join(home, ".termflow", "rules.yaml"),
		},
		Preferences: domain.Preferences{
			ConfirmDestructive: true,
			AutoExecuteSafe:    true,
		},
		History: domain.HistoryConfig{
			MaxEntries:    domain.DefaultHistoryCap,
			RecentWindow:  domain.DefaultRecentWindow,
			AuditDatabase: filepath.Join(home, ".termflow", "audit.db"),
			SnapshotFile:  filepath.Join(home, ".termflow", "history.json"),
		},
	}
}

func hydrateDefaults(cfg domain.Config) domain.Config {
	def := DefaultConfig()
	if cfg.Completion.Endpoint == "" {
		cfg.Completion = def.Completion
	}
	if cfg.Completion.MaxTokens == 0 {
		cfg.Completion.MaxTokens = def.Completion.MaxTokens
	}
	if cfg.Security.PolicyFile == "" {
		cfg.Security.PolicyFile = def.Security.PolicyFile
	}
	if cfg.Security.RulesFile == "" {
		cfg.Security.RulesFile = def.Security.RulesFile
	}
	if cfg.History.MaxEntries == 0 {
		cfg.History.MaxEntries = def.History.MaxEntries
	}
	if cfg.History.RecentWindow == 0 {
		cfg.History.RecentWindow = def.History.RecentWindow
	}
	if cfg.History.AuditDatabase == "" {
		cfg.History.AuditDatabase = def.History.AuditDatabase
	}
	if cfg.History.SnapshotFile == "" {
		cfg.History.SnapshotFile = def.History.SnapshotFile
	}
	return cfg
}

func expandPath(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if len(path) > 1 && path[:2] == "~/" {
		return filepath.Join(filesystem.UserHomeDir(), path[2:])
	}
	return filepath.Clean(path)
}

var _ ports.ConfigProvider = (*FileLoader)(nil)
