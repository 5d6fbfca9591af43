package domain

import "time"

// CommandCategory groups commands for analysis and suggestion purposes.
type CommandCategory string

const (
	CategoryGit               CommandCategory = "git"
	CategoryFileManagement    CommandCategory = "file_management"
	CategoryPackageManagement CommandCategory = "package_management"
	CategoryDevelopment       CommandCategory = "development"
	CategorySystem            CommandCategory = "system"
	CategoryNetwork           CommandCategory = "network"
	CategoryCustom            CommandCategory = "custom"
)

// Command is a single concrete shell invocation produced by the
// interpreter. It is immutable once created.
type Command struct {
	ID                string            `json:"id"`
	Program           string            `json:"program"`
	Args              []string          `json:"args"`
	WorkingDir        string            `json:"working_dir,omitempty"`
	Env               map[string]string `json:"env,omitempty"`
	Category          CommandCategory   `json:"category"`
	Risk              RiskLevel         `json:"risk_level"`
	RequiresElevation bool              `json:"requires_elevation"`
	Timeout           time.Duration     `json:"timeout,omitempty"`
	SuccessCriteria   []string          `json:"success_criteria,omitempty"`
	FailureCriteria   []string          `json:"failure_criteria,omitempty"`
}

// String renders the command as it would appear on a shell line.
func (c Command) String() string {
	line := c.Program
	for _, arg := range c.Args {
		line += " " + arg
	}
	return line
}

// ParsedCommand is the interpreter's answer to one natural-language query.
// Confidence is in [0,1]; zero confidence means the query could not be
// resolved and Warnings explains why.
type ParsedCommand struct {
	ID                   string    `json:"id"`
	OriginalQuery        string    `json:"original_query"`
	Commands             []Command `json:"commands"`
	Confidence           float64   `json:"confidence"`
	OverallRisk          RiskLevel `json:"overall_risk"`
	RequiresConfirmation bool      `json:"requires_confirmation"`
	Warnings             []string  `json:"warnings,omitempty"`
}

// OverallRiskOf computes the maximum risk across a command list.
func OverallRiskOf(commands []Command) RiskLevel {
	risk := RiskSafe
	for _, cmd := range commands {
		risk = MaxRisk(risk, cmd.Risk)
	}
	return risk
}

// NeedsConfirmation reports whether any command in the list is high or
// critical risk, or requests elevation.
func NeedsConfirmation(commands []Command) bool {
	for _, cmd := range commands {
		if cmd.Risk.Severity() >= RiskHigh.Severity() || cmd.RequiresElevation {
			return true
		}
	}
	return false
}
