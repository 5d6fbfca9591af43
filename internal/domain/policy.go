package domain

import "time"

// ViolationType identifies which policy check a command failed.
type ViolationType string

const (
	ViolationBlockedCommand     ViolationType = "blocked_command"
	ViolationCommandNotAllowed  ViolationType = "command_not_allowed"
	ViolationElevationDenied    ViolationType = "elevation_denied"
	ViolationBlockedPath        ViolationType = "blocked_path"
	ViolationPathNotAllowed     ViolationType = "path_not_allowed"
	ViolationDangerousPattern   ViolationType = "dangerous_pattern"
	ViolationRestrictedEnv      ViolationType = "restricted_env"
	ViolationOutputSizeExceeded ViolationType = "output_size_exceeded"
)

// SecurityViolation is a single failed policy check. Any non-empty set of
// violations fails the command closed.
type SecurityViolation struct {
	Type           ViolationType     `json:"type"`
	Severity       ViolationSeverity `json:"severity"`
	Description    string            `json:"description"`
	Recommendation string            `json:"recommendation,omitempty"`
}

// DangerPattern is one entry in the dangerous-pattern library. Patterns are
// data, not code, so coverage can be tested without spawning processes.
type DangerPattern struct {
	ID             string `json:"id" yaml:"id"`
	Pattern        string `json:"pattern" yaml:"pattern"`
	Severity       string `json:"severity" yaml:"severity"`
	Description    string `json:"description" yaml:"description"`
	Recommendation string `json:"recommendation,omitempty" yaml:"recommendation,omitempty"`
}

// SecurityPolicy is the declarative rule set commands are validated
// against before any process starts.
type SecurityPolicy struct {
	AllowedCommands  []string        `json:"allowed_commands,omitempty" yaml:"allowed_commands,omitempty"`
	BlockedCommands  []string        `json:"blocked_commands,omitempty" yaml:"blocked_commands,omitempty"`
	AllowedPaths     []string        `json:"allowed_paths,omitempty" yaml:"allowed_paths,omitempty"`
	BlockedPaths     []string        `json:"blocked_paths,omitempty" yaml:"blocked_paths,omitempty"`
	DangerPatterns   []DangerPattern `json:"danger_patterns,omitempty" yaml:"danger_patterns,omitempty"`
	RestrictedEnv    []string        `json:"restricted_env,omitempty" yaml:"restricted_env,omitempty"`
	MaxExecutionTime time.Duration   `json:"max_execution_time,omitempty" yaml:"max_execution_time,omitempty"`
	MaxOutputSize    int             `json:"max_output_size,omitempty" yaml:"max_output_size,omitempty"`
	AllowElevation   bool            `json:"allow_elevation" yaml:"allow_elevation"`
	AllowNetwork     bool            `json:"allow_network" yaml:"allow_network"`
	AllowFSWrite     bool            `json:"allow_fs_write" yaml:"allow_fs_write"`
	AllowSpawn       bool            `json:"allow_process_spawn" yaml:"allow_process_spawn"`
}

// Merge overlays override onto p field by field; any field set in the
// override wins. Neither input is mutated.
func (p SecurityPolicy) Merge(override *SecurityPolicy) SecurityPolicy {
	if override == nil {
		return p
	}
	merged := p
	if override.AllowedCommands != nil {
		merged.AllowedCommands = override.AllowedCommands
	}
	if override.BlockedCommands != nil {
		merged.BlockedCommands = override.BlockedCommands
	}
	if override.AllowedPaths != nil {
		merged.AllowedPaths = override.AllowedPaths
	}
	if override.BlockedPaths != nil {
		merged.BlockedPaths = override.BlockedPaths
	}
	if override.DangerPatterns != nil {
		merged.DangerPatterns = override.DangerPatterns
	}
	if override.RestrictedEnv != nil {
		merged.RestrictedEnv = override.RestrictedEnv
	}
	if override.MaxExecutionTime != 0 {
		merged.MaxExecutionTime = override.MaxExecutionTime
	}
	if override.MaxOutputSize != 0 {
		merged.MaxOutputSize = override.MaxOutputSize
	}
	merged.AllowElevation = p.AllowElevation || override.AllowElevation
	merged.AllowNetwork = p.AllowNetwork || override.AllowNetwork
	merged.AllowFSWrite = p.AllowFSWrite || override.AllowFSWrite
	merged.AllowSpawn = p.AllowSpawn || override.AllowSpawn
	return merged
}

// AuditRecord is one line in the append-only execution audit log. Every
// validation pass is recorded whether or not a process ran.
type AuditRecord struct {
	ID         string              `json:"id"`
	Timestamp  time.Time           `json:"timestamp"`
	Program    string              `json:"program"`
	Args       []string            `json:"args,omitempty"`
	WorkingDir string              `json:"working_dir,omitempty"`
	ExitCode   int                 `json:"exit_code"`
	Duration   time.Duration       `json:"duration"`
	OutputSize int                 `json:"output_size"`
	Refused    bool                `json:"refused"`
	Violations []SecurityViolation `json:"violations,omitempty"`
}
