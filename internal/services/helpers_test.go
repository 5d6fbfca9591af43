package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/doeshing/termflow/internal/domain"
	"github.com/doeshing/termflow/internal/infrastructure/history"
	"github.com/doeshing/termflow/internal/ports"
)

type nopLogger struct{}

func (nopLogger) Debug(string, map[string]interface{})        {}
func (nopLogger) Info(string, map[string]interface{})         {}
func (nopLogger) Warn(string, map[string]interface{})         {}
func (nopLogger) Error(string, error, map[string]interface{}) {}

// fakeExecutor scripts execution results by program name. A non-nil block
// channel makes Execute wait until it is closed or the context ends.
type fakeExecutor struct {
	mu      sync.Mutex
	policy  domain.SecurityPolicy
	results map[string]domain.ExecutionResult
	block   chan struct{}
	calls   []domain.Command
}

func (f *fakeExecutor) Validate(domain.Command, domain.SecurityPolicy) []domain.SecurityViolation {
	return nil
}

func (f *fakeExecutor) Policy() domain.SecurityPolicy { return f.policy }

func (f *fakeExecutor) Execute(ctx context.Context, req ports.ExecRequest) (domain.ExecutionResult, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req.Command)
	f.mu.Unlock()

	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return domain.ExecutionResult{CommandID: req.Command.ID, ExitCode: -1, Killed: true}, ctx.Err()
		}
	}
	if out, ok := f.results[req.Command.Program]; ok {
		out.CommandID = req.Command.ID
		return out, nil
	}
	return domain.ExecutionResult{CommandID: req.Command.ID, ExitCode: 0, Success: true}, nil
}

func (f *fakeExecutor) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeExecutor) calledPrograms() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	for i, c := range f.calls {
		out[i] = c.Program
	}
	return out
}

type fakeAnalyzer struct{}

func (fakeAnalyzer) Analyze(req ports.AnalyzeRequest) domain.OutputAnalysis {
	return domain.OutputAnalysis{Summary: "analyzed: " + req.Command.Program, Severity: domain.AnalysisInfo}
}

var _ ports.PolicyExecutor = (*fakeExecutor)(nil)
var _ ports.Analyzer = (*fakeAnalyzer)(nil)

func command(program string, risk domain.RiskLevel, args ...string) domain.Command {
	return domain.Command{
		ID:       uuid.NewString(),
		Program:  program,
		Args:     args,
		Category: domain.CategoryCustom,
		Risk:     risk,
	}
}

func parsedFrom(commands ...domain.Command) domain.ParsedCommand {
	return domain.ParsedCommand{
		ID:            uuid.NewString(),
		OriginalQuery: "test query",
		Commands:      commands,
		Confidence:    domain.PatternConfidence,
		OverallRisk:   domain.OverallRiskOf(commands),
	}
}

type fixture struct {
	orch     *Orchestrator
	executor *fakeExecutor
	store    *history.MemoryStore
}

func newFixture(approvalTimeout time.Duration) *fixture {
	executor := &fakeExecutor{policy: domain.SecurityPolicy{AllowElevation: false}}
	store := history.NewMemoryStore(0)
	orch := NewOrchestrator(executor, fakeAnalyzer{}, store, ports.ClockFunc(time.Now), nopLogger{}, approvalTimeout)
	return &fixture{orch: orch, executor: executor, store: store}
}
