// Package ports defines the interfaces (ports) for the hexagonal architecture.
//
// The application core depends only on these contracts; adapters in the
// infrastructure layer provide the concrete implementations (HTTP
// completion clients, the OS process runner, SQLite audit storage). Tests
// substitute in-memory fakes through the same interfaces.
package ports

import (
	"context"
	"time"

	"github.com/doeshing/termflow/internal/domain"
)

// ConfigProvider loads the latest configuration from persistent storage.
// Implementations typically read from ~/.termflow/config.yaml.
type ConfigProvider interface {
	Load(context.Context) (domain.Config, error)
}

// CompletionService is the opaque prompt-in/text-out boundary to the
// external language-model service. The interpreter treats the reply as a
// JSON candidate array when possible and as unparsable text otherwise.
type CompletionService interface {
	Complete(ctx context.Context, prompt string, pctx domain.PromptContext) (string, error)
}

// Interpreter turns free text into a ranked, risk-scored ParsedCommand.
// Parse never fails: unparseable input yields a zero-confidence result
// whose warnings explain what went wrong.
type Interpreter interface {
	Parse(ctx context.Context, query string, pctx domain.PromptContext) domain.ParsedCommand
}

// ExecRequest is one validated-and-run request handed to the policy
// executor.
type ExecRequest struct {
	Command  domain.Command
	Override *domain.SecurityPolicy
}

// PolicyExecutor validates a command against the security policy and runs
// it as a bounded subprocess. Execute fails closed: any violation refuses
// the run entirely and no process is spawned.
type PolicyExecutor interface {
	Validate(cmd domain.Command, policy domain.SecurityPolicy) []domain.SecurityViolation
	Execute(ctx context.Context, req ExecRequest) (domain.ExecutionResult, error)
	Policy() domain.SecurityPolicy
}

// AnalyzeRequest pairs raw process output with the command that produced
// it.
type AnalyzeRequest struct {
	Command domain.Command
	Result  domain.ExecutionResult
}

// Analyzer classifies raw process output into structured findings. Analyze
// never fails; degraded input produces a generic summary.
type Analyzer interface {
	Analyze(req AnalyzeRequest) domain.OutputAnalysis
}

// ProcessSpec describes one subprocess to run. This is the only place raw
// OS processes are touched.
type ProcessSpec struct {
	Program       string
	Args          []string
	WorkingDir    string
	Env           map[string]string
	Timeout       time.Duration
	GracePeriod   time.Duration
	MaxOutputSize int
}

// ProcessResult is the raw outcome of a subprocess run.
type ProcessResult struct {
	ExitCode       int
	Signal         string
	Stdout         string
	Stderr         string
	Killed         bool
	OutputExceeded bool
	StartedAt      time.Time
	FinishedAt     time.Time
}

// ProcessRunner spawns subprocesses. The real implementation wraps
// os/exec; tests use an in-memory fake.
type ProcessRunner interface {
	Run(ctx context.Context, spec ProcessSpec) (ProcessResult, error)
}

// PathChecker abstracts glob matching and path detection so validation
// logic is testable without a filesystem.
type PathChecker interface {
	Matches(pattern, path string) bool
	LooksLikePath(arg string) bool
}

// HistoryStore is the append-only, size-bounded execution log.
type HistoryStore interface {
	Append(entry domain.HistoryEntry)
	Entries(sessionID string) []domain.HistoryEntry
	Recent(sessionID string, n int) []domain.HistoryEntry
	Len() int
}

// HistoryExporter round-trips the log (plus derived state) through plain
// structured data.
type HistoryExporter interface {
	Export(sessionID string) ([]byte, error)
	Import(data []byte) error
}

// AuditLog records every execution attempt, refused or run.
type AuditLog interface {
	Record(rec domain.AuditRecord) error
	Records(limit int) ([]domain.AuditRecord, error)
	Close() error
}

// HistoryObserver is notified after every appended history entry.
// HistoryIntelligence implements this to invalidate caches and learn
// incrementally.
type HistoryObserver interface {
	Observe(entry domain.HistoryEntry)
}

// Logger provides structured logging abstraction for the application layer.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, err error, fields map[string]interface{})
}

// Clock abstracts time for deterministic tests.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to the Clock interface.
type ClockFunc func() time.Time

// Now implements Clock.
func (f ClockFunc) Now() time.Time { return f() }
