package security

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/doeshing/termflow/internal/domain"
	"github.com/doeshing/termflow/internal/ports"
)

// ViolationError is returned by Execute when validation fails. It carries
// the full violation list; the process was never spawned.
type ViolationError struct {
	Command    string
	Violations []domain.SecurityViolation
}

func (e *ViolationError) Error() string {
	types := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		types[i] = string(v.Type)
	}
	return fmt.Sprintf("command %q refused: %s", e.Command, strings.Join(types, ", "))
}

// Executor is the SecurityPolicyExecutor: declarative validation followed
// by bounded subprocess execution through the ProcessRunner port.
type Executor struct {
	policy domain.SecurityPolicy
	runner ports.ProcessRunner
	paths  ports.PathChecker
	audit  ports.AuditLog
	clock  ports.Clock
	log    ports.Logger

	patternMu    sync.Mutex
	patternCache map[string]*regexp.Regexp
}

// NewExecutor wires the executor with its collaborators. audit may be nil
// when auditing is disabled (tests).
func NewExecutor(policy domain.SecurityPolicy, runner ports.ProcessRunner, paths ports.PathChecker, audit ports.AuditLog, clock ports.Clock, log ports.Logger) *Executor {
	return &Executor{
		policy:       policy,
		runner:       runner,
		paths:        paths,
		audit:        audit,
		clock:        clock,
		log:          log,
		patternCache: map[string]*regexp.Regexp{},
	}
}

// Policy returns the executor's default policy.
func (e *Executor) Policy() domain.SecurityPolicy {
	return e.policy
}

// Validate implements ports.PolicyExecutor.
func (e *Executor) Validate(cmd domain.Command, policy domain.SecurityPolicy) []domain.SecurityViolation {
	return e.validate(cmd, policy)
}

// Execute validates and runs one command. Validation failure returns a
// *ViolationError and nothing is spawned. Once a process has started, its
// outcome is data: non-zero exits, timeouts, and kills all come back as a
// result with Success=false.
func (e *Executor) Execute(ctx context.Context, req ports.ExecRequest) (domain.ExecutionResult, error) {
	cmd := req.Command
	policy := e.policy.Merge(req.Override)

	if violations := e.validate(cmd, policy); len(violations) > 0 {
		e.recordAudit(domain.AuditRecord{
			ID:         uuid.NewString(),
			Timestamp:  e.clock.Now(),
			Program:    cmd.Program,
			Args:       cmd.Args,
			WorkingDir: cmd.WorkingDir,
			Refused:    true,
			Violations: violations,
		})
		return domain.ExecutionResult{}, &ViolationError{Command: cmd.String(), Violations: violations}
	}

	timeout := cmd.Timeout
	if timeout <= 0 {
		timeout = policy.MaxExecutionTime
	}

	spec := ports.ProcessSpec{
		Program:       cmd.Program,
		Args:          cmd.Args,
		WorkingDir:    cmd.WorkingDir,
		Env:           cmd.Env,
		Timeout:       timeout,
		GracePeriod:   domain.KillGracePeriod,
		MaxOutputSize: policy.MaxOutputSize,
	}

	procResult, err := e.runner.Run(ctx, spec)
	result := domain.ExecutionResult{
		CommandID:  cmd.ID,
		StartedAt:  procResult.StartedAt,
		FinishedAt: procResult.FinishedAt,
		Duration:   procResult.FinishedAt.Sub(procResult.StartedAt),
		ExitCode:   procResult.ExitCode,
		Signal:     procResult.Signal,
		Stdout:     procResult.Stdout,
		Stderr:     procResult.Stderr,
		Killed:     procResult.Killed,
	}
	if err != nil {
		// Spawn failure (program missing, bad cwd). Still audited.
		result.ExitCode = -1
		e.recordAudit(e.auditFor(cmd, result))
		return result, fmt.Errorf("spawn %s: %w", cmd.Program, err)
	}

	if procResult.OutputExceeded {
		result.Violations = append(result.Violations, domain.SecurityViolation{
			Type:           domain.ViolationOutputSizeExceeded,
			Severity:       domain.SeverityMedium,
			Description:    fmt.Sprintf("output exceeded the %d byte cap", policy.MaxOutputSize),
			Recommendation: "Narrow the command's output or raise max_output_size.",
		})
	}
	result.Success = result.ExitCode == 0 && !result.Killed

	e.recordAudit(e.auditFor(cmd, result))
	return result, nil
}

func (e *Executor) auditFor(cmd domain.Command, result domain.ExecutionResult) domain.AuditRecord {
	return domain.AuditRecord{
		ID:         uuid.NewString(),
		Timestamp:  e.clock.Now(),
		Program:    cmd.Program,
		Args:       cmd.Args,
		WorkingDir: cmd.WorkingDir,
		ExitCode:   result.ExitCode,
		Duration:   result.Duration,
		OutputSize: len(result.Stdout) + len(result.Stderr),
		Violations: result.Violations,
	}
}

func (e *Executor) recordAudit(rec domain.AuditRecord) {
	if e.audit == nil {
		return
	}
	if err := e.audit.Record(rec); err != nil {
		e.log.Warn("audit record failed", map[string]interface{}{"error": err.Error()})
	}
}

var _ ports.PolicyExecutor = (*Executor)(nil)
