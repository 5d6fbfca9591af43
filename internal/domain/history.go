package domain

import "time"

// ExecutionResult records one subprocess run. Non-zero exit codes are
// captured here as data, never as Go errors.
type ExecutionResult struct {
	CommandID  string        `json:"command_id"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Duration   time.Duration `json:"duration"`
	ExitCode   int           `json:"exit_code"`
	Signal     string        `json:"signal,omitempty"`
	Stdout     string        `json:"stdout,omitempty"`
	Stderr     string        `json:"stderr,omitempty"`
	Success    bool          `json:"success"`
	Killed     bool          `json:"killed"`
	DryRun     bool          `json:"dry_run,omitempty"`
	DryRunNote string        `json:"dry_run_note,omitempty"`
	// Violations raised while the process ran (the output cap). Violations
	// found before start refuse execution and never produce a result.
	Violations []SecurityViolation `json:"violations,omitempty"`
}

// HistoryEntry is the immutable record of one executed command. Entries
// are appended to the history log and never edited.
type HistoryEntry struct {
	ID           string          `json:"id"`
	SessionID    string          `json:"session_id"`
	Query        string          `json:"query,omitempty"`
	Command      Command         `json:"command"`
	Result       ExecutionResult `json:"result"`
	Analysis     *OutputAnalysis `json:"analysis,omitempty"`
	Risk         RiskLevel       `json:"risk_level"`
	UserApproved bool            `json:"user_approved"`
	Timestamp    time.Time       `json:"timestamp"`
}

// CommandLine is the entry's command rendered as a shell line, used as the
// key for pattern mining and learning.
func (e HistoryEntry) CommandLine() string {
	return e.Command.String()
}
