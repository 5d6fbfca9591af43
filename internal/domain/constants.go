package domain

import "time"

// File permission constants
const (
	// DirectoryPermissions is the default permission for directories (rwxr-xr-x)
	DirectoryPermissions = 0o755
	// SecureFilePermissions is the permission for sensitive files (rw-------)
	SecureFilePermissions = 0o600
)

// Timeout and duration constants
const (
	// DefaultCommandTimeout bounds a subprocess when the policy sets no cap
	DefaultCommandTimeout = 30 * time.Second
	// KillGracePeriod is how long a terminated process gets before a forceful kill
	KillGracePeriod = 5 * time.Second
	// DefaultApprovalTimeout is how long an approval request waits before auto-rejecting
	DefaultApprovalTimeout = 30 * time.Second
	// DefaultHTTPClientTimeout is the timeout for completion-service requests
	DefaultHTTPClientTimeout = 60 * time.Second
	// WorkflowGap is the maximum pause between commands grouped into one workflow
	WorkflowGap = 10 * time.Minute
	// PatternRefreshInterval is how often patterns are re-mined in the background
	PatternRefreshInterval = time.Hour
	// LearningRefreshInterval is how often learning data is recomputed
	LearningRefreshInterval = 30 * time.Minute
)

// Limit constants
const (
	// DefaultMaxOutputSize caps captured subprocess output (1 MiB)
	DefaultMaxOutputSize = 1 << 20
	// DefaultHistoryCap is how many entries the history log retains per session
	DefaultHistoryCap = 1000
	// DefaultRecentWindow is how many entries are surfaced as "recent"
	DefaultRecentWindow = 50
	// AnalysisHistoryCap bounds the per-command-type analysis ring
	AnalysisHistoryCap = 50
	// PatternWindow is the sliding-window length for pattern mining
	PatternWindow = 3
	// MinPatternFrequency is the threshold below which mined patterns are discarded
	MinPatternFrequency = 2
	// MaxSuggestions caps the merged suggestion list
	MaxSuggestions = 10
	// AvoidAfterFailures is how many failures of one command add it to the avoid list
	AvoidAfterFailures = 3
)

// Scoring constants
const (
	// PatternConfidence is assigned to interpreter rule matches
	PatternConfidence = 0.9
	// SuccessScoreDelta is added to a command's preference score on success
	SuccessScoreDelta = 1.0
	// FailureScoreDelta is subtracted on failure (score floors at zero)
	FailureScoreDelta = 0.5
)
