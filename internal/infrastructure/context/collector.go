// Package contextcollector gathers the environmental snapshot that
// enriches completion prompts and interpreter rule generators.
package contextcollector

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/doeshing/termflow/internal/domain"
)

// Collector detects project type, package manager, and git state for a
// working directory.
type Collector struct{}

// NewCollector builds a collector.
func NewCollector() *Collector {
	return &Collector{}
}

// Collect assembles a PromptContext for the session's working directory.
// Detection is best-effort; missing tools simply leave fields empty.
func (c *Collector) Collect(ctx context.Context, session domain.Session, recent []string) domain.PromptContext {
	wd := session.WorkingDir
	if wd == "" {
		wd, _ = os.Getwd()
	}
	projectType, packageManager := detectProject(wd)
	branch, dirty := collectGitInfo(ctx, wd)

	return domain.PromptContext{
		WorkingDir:     wd,
		Shell:          detectShell(session.Preferences),
		OS:             runtime.GOOS,
		ProjectType:    projectType,
		PackageManager: packageManager,
		GitBranch:      branch,
		GitDirty:       dirty,
		RecentCommands: recent,
		Preferences:    session.Preferences,
	}
}

func detectShell(prefs domain.Preferences) string {
	if prefs.PreferredShell != "" {
		return prefs.PreferredShell
	}
	if shell := os.Getenv("SHELL"); shell != "" {
		return filepath.Base(shell)
	}
	return "sh"
}

// detectProject inspects marker files the way most tooling does.
func detectProject(dir string) (projectType, packageManager string) {
	exists := func(name string) bool {
		_, err := os.Stat(filepath.Join(dir, name))
		return err == nil
	}
	switch {
	case exists("go.mod"):
		return "go", "go"
	case exists("Cargo.toml"):
		return "rust", "cargo"
	case exists("package.json"):
		switch {
		case exists("yarn.lock"):
			return "node", "yarn"
		case exists("pnpm-lock.yaml"):
			return "node", "pnpm"
		default:
			return "node", "npm"
		}
	case exists("pyproject.toml"), exists("requirements.txt"):
		return "python", "pip"
	case exists("pom.xml"):
		return "java", "mvn"
	case exists("Makefile"):
		return "make", ""
	default:
		return "", ""
	}
}

func collectGitInfo(ctx context.Context, dir string) (branch string, dirty bool) {
	if _, err := exec.LookPath("git"); err != nil {
		return "", false
	}
	out, err := exec.CommandContext(ctx, "git", "-C", dir, "rev-parse", "--abbrev-ref", "HEAD").Output()
	if err != nil {
		return "", false
	}
	branch = strings.TrimSpace(string(out))

	status, err := exec.CommandContext(ctx, "git", "-C", dir, "status", "--porcelain").Output()
	if err == nil && len(strings.TrimSpace(string(status))) > 0 {
		dirty = true
	}
	return branch, dirty
}
