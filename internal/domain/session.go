package domain

import "time"

// SessionStatus tracks session lifecycle.
type SessionStatus string

const (
	SessionActive   SessionStatus = "active"
	SessionInactive SessionStatus = "inactive"
	SessionError    SessionStatus = "error"
)

// Preferences captures per-session user choices that influence parsing,
// approval, and execution.
type Preferences struct {
	ConfirmDestructive bool   `json:"confirm_destructive" yaml:"confirm_destructive"`
	AutoExecuteSafe    bool   `json:"auto_execute_safe" yaml:"auto_execute_safe"`
	AllowElevation     bool   `json:"allow_elevation" yaml:"allow_elevation"`
	ContinueOnError    bool   `json:"continue_on_error" yaml:"continue_on_error"`
	DryRun             bool   `json:"dry_run" yaml:"dry_run"`
	PreferredShell     string `json:"preferred_shell,omitempty" yaml:"preferred_shell,omitempty"`
}

// Session is an isolated execution context. Each session runs at most one
// command sequence at a time; separate sessions execute in parallel.
type Session struct {
	ID           string            `json:"id"`
	WorkingDir   string            `json:"working_dir"`
	Env          map[string]string `json:"env,omitempty"`
	Preferences  Preferences       `json:"preferences"`
	Status       SessionStatus     `json:"status"`
	CreatedAt    time.Time         `json:"created_at"`
	LastActivity time.Time         `json:"last_activity"`
}

// CommandState is the per-command lifecycle inside a session.
type CommandState string

const (
	StatePending           CommandState = "pending"
	StateApprovalRequested CommandState = "approval_requested"
	StateApproved          CommandState = "approved"
	StateRejected          CommandState = "rejected"
	StateRunning           CommandState = "running"
	StateCompleted         CommandState = "completed"
	StateFailed            CommandState = "failed"
	StateCancelled         CommandState = "cancelled"
)

// SessionEvent is emitted on session channels as commands move through
// their lifecycle.
type SessionEvent struct {
	SessionID string        `json:"session_id"`
	CommandID string        `json:"command_id"`
	State     CommandState  `json:"state"`
	Command   string        `json:"command,omitempty"`
	Timeout   time.Duration `json:"timeout,omitempty"`
	At        time.Time     `json:"at"`
}

// ApprovalRequest asks an external surface to approve one command.
type ApprovalRequest struct {
	SessionID string        `json:"session_id"`
	CommandID string        `json:"command_id"`
	Command   string        `json:"command"`
	Risk      RiskLevel     `json:"risk_level"`
	Timeout   time.Duration `json:"timeout"`
}

// ApprovalResponse answers an ApprovalRequest, correlated by CommandID.
type ApprovalResponse struct {
	SessionID string `json:"session_id"`
	CommandID string `json:"command_id"`
	Approved  bool   `json:"approved"`
}
