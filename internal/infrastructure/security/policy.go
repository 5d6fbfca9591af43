// Package security validates candidate commands against a declarative
// policy and runs them as bounded subprocesses. Validation fails closed:
// any violation refuses the run entirely and no process is spawned.
package security

import (
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/doeshing/termflow/internal/domain"
	"github.com/doeshing/termflow/internal/pkg/filesystem"
)

// PolicyDocument is the YAML schema root for externally loadable policies.
type PolicyDocument struct {
	Policy domain.SecurityPolicy `yaml:"policy"`
}

// LoadPolicy reads the policy file, falling back to the built-in default
// when the file is missing. Empty rule sections hydrate from defaults.
func LoadPolicy(path string) (domain.SecurityPolicy, error) {
	path = expandPolicyPath(path)
	data, err := os.ReadFile(path)
	if err != nil {
		return DefaultPolicy(), nil
	}
	var doc PolicyDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return domain.SecurityPolicy{}, err
	}
	return hydratePolicy(doc.Policy), nil
}

// SavePolicy writes the policy document to disk.
func SavePolicy(path string, policy domain.SecurityPolicy) error {
	path = expandPolicyPath(path)
	if err := os.MkdirAll(filepath.Dir(path), domain.DirectoryPermissions); err != nil {
		return err
	}
	data, err := yaml.Marshal(PolicyDocument{Policy: policy})
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func hydratePolicy(policy domain.SecurityPolicy) domain.SecurityPolicy {
	if len(policy.BlockedCommands) == 0 {
		policy.BlockedCommands = defaultBlockedCommands()
	}
	if len(policy.DangerPatterns) == 0 {
		policy.DangerPatterns = DefaultDangerPatterns()
	}
	if len(policy.RestrictedEnv) == 0 {
		policy.RestrictedEnv = defaultRestrictedEnv()
	}
	if policy.MaxExecutionTime == 0 {
		policy.MaxExecutionTime = domain.DefaultCommandTimeout
	}
	if policy.MaxOutputSize == 0 {
		policy.MaxOutputSize = domain.DefaultMaxOutputSize
	}
	return policy
}

// DefaultPolicy is the policy applied when no file overrides it.
func DefaultPolicy() domain.SecurityPolicy {
	return domain.SecurityPolicy{
		BlockedCommands:  defaultBlockedCommands(),
		BlockedPaths:     defaultBlockedPaths(),
		DangerPatterns:   DefaultDangerPatterns(),
		RestrictedEnv:    defaultRestrictedEnv(),
		MaxExecutionTime: domain.DefaultCommandTimeout,
		MaxOutputSize:    domain.DefaultMaxOutputSize,
		AllowNetwork:     true,
		AllowFSWrite:     true,
		AllowSpawn:       true,
	}
}

func defaultBlockedCommands() []string {
	return []string{"mkfs", "mkfs.ext4", "shutdown", "reboot", "halt", "init"}
}

func defaultBlockedPaths() []string {
	return []string{"/etc/shadow", "/etc/sudoers", "/boot/*", "/dev/sd*", "/dev/nvme*"}
}

func defaultRestrictedEnv() []string {
	return []string{"LD_PRELOAD", "LD_LIBRARY_PATH", "DYLD_INSERT_LIBRARIES", "PATH", "IFS"}
}

// DefaultDangerPatterns is the built-in dangerous-pattern library. Kept as
// data so matcher coverage is unit-testable without spawning processes.
func DefaultDangerPatterns() []domain.DangerPattern {
	return []domain.DangerPattern{
		{
			ID:             "fork-bomb",
			Pattern:        `:\(\)\s*\{\s*:\s*\|\s*:\s*&\s*\}\s*;\s*:`,
			Severity:       "critical",
			Description:    "Fork bomb",
			Recommendation: "Do not run; this exhausts the process table.",
		},
		{
			ID:             "curl-pipe-shell",
			Pattern:        `(curl|wget)[^|]*\|\s*(sudo\s+)?(ba)?sh`,
			Severity:       "high",
			Description:    "Piping a remote script into a shell",
			Recommendation: "Download the script, inspect it, then run it.",
		},
		{
			ID:             "rm-root",
			Pattern:        `rm\s+(-[a-zA-Z]*[rf][a-zA-Z]*\s+)+/(\s|$)`,
			Severity:       "critical",
			Description:    "Recursive delete of the filesystem root",
			Recommendation: "Target a specific path instead of /.",
		},
		{
			ID:             "reverse-shell",
			Pattern:        `nc\s+(-[a-zA-Z]*\s+)*-l[a-zA-Z]*\s.*-e\s|nc\s.*-e\s+/bin/(ba)?sh`,
			Severity:       "critical",
			Description:    "Netcat listener executing a shell (reverse shell)",
			Recommendation: "Remove the -e option; use ssh for remote access.",
		},
		{
			ID:             "command-substitution",
			Pattern:        "\\$\\([^)]*\\)|`[^`]*`",
			Severity:       "medium",
			Description:    "Command substitution in arguments",
			Recommendation: "Expand the substitution yourself and pass literal values.",
		},
		{
			ID:             "background-null-redirect",
			Pattern:        `>\s*/dev/null\s+2>&1\s*&`,
			Severity:       "medium",
			Description:    "Backgrounded command with all output discarded",
			Recommendation: "Keep output visible so failures are noticed.",
		},
		{
			ID:             "dd-raw-device",
			Pattern:        `dd\s+[^|]*of=/dev/(sd|nvme|hd)`,
			Severity:       "critical",
			Description:    "Raw write to a block device",
			Recommendation: "Double-check the target device; this destroys data.",
		},
	}
}

func expandPolicyPath(path string) string {
	if path == "" {
		return filepath.Join(filesystem.UserHomeDir(), ".termflow", "policy.yaml")
	}
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(filesystem.UserHomeDir(), path[2:])
	}
	return filepath.Join(filesystem.UserHomeDir(), path)
}

// elevationCommands are refused unless the policy allows elevation.
var elevationCommands = map[string]bool{
	"sudo": true,
	"su":   true,
	"doas": true,
}

// parseSeverity maps pattern severities, defaulting to medium.
func parseSeverity(value string) domain.ViolationSeverity {
	switch strings.ToLower(value) {
	case "low":
		return domain.SeverityLow
	case "medium":
		return domain.SeverityMedium
	case "high":
		return domain.SeverityHigh
	case "critical":
		return domain.SeverityCritical
	default:
		return domain.SeverityMedium
	}
}
