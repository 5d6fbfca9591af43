package process

import (
	"context"
	"sync"
	"time"

	"github.com/doeshing/termflow/internal/ports"
)

// FakeOutcome scripts one response from the FakeRunner.
type FakeOutcome struct {
	ExitCode   int
	Stdout     string
	Stderr     string
	Sleep      time.Duration
	OutputSize int
	Err        error
}

// FakeRunner is the in-memory ProcessRunner used by tests. Outcomes are
// keyed by program name; unmatched programs succeed with empty output.
type FakeRunner struct {
	mu       sync.Mutex
	outcomes map[string]FakeOutcome
	calls    []ports.ProcessSpec
}

// NewFakeRunner builds an empty fake.
func NewFakeRunner() *FakeRunner {
	return &FakeRunner{outcomes: map[string]FakeOutcome{}}
}

// Script registers the outcome returned when program runs.
func (f *FakeRunner) Script(program string, outcome FakeOutcome) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.outcomes[program] = outcome
}

// Calls returns every spec Run has seen, in order.
func (f *FakeRunner) Calls() []ports.ProcessSpec {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]ports.ProcessSpec, len(f.calls))
	copy(out, f.calls)
	return out
}

// CallCount reports how many processes were "spawned".
func (f *FakeRunner) CallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// Run implements ports.ProcessRunner with scripted behavior, honoring the
// spec's timeout and output cap the way the real runner does.
func (f *FakeRunner) Run(ctx context.Context, spec ports.ProcessSpec) (ports.ProcessResult, error) {
	f.mu.Lock()
	f.calls = append(f.calls, spec)
	outcome := f.outcomes[spec.Program]
	f.mu.Unlock()

	started := time.Now()
	result := ports.ProcessResult{StartedAt: started}

	if outcome.Err != nil {
		result.FinishedAt = time.Now()
		return result, outcome.Err
	}

	if outcome.Sleep > 0 {
		wait := outcome.Sleep
		timedOut := false
		if spec.Timeout > 0 && spec.Timeout < wait {
			wait = spec.Timeout
			timedOut = true
		}
		select {
		case <-time.After(wait):
			if timedOut {
				result.Killed = true
				result.Signal = "SIGTERM"
				result.ExitCode = -1
				result.FinishedAt = time.Now()
				return result, nil
			}
		case <-ctx.Done():
			result.Killed = true
			result.Signal = "SIGTERM"
			result.ExitCode = -1
			result.FinishedAt = time.Now()
			return result, nil
		}
	}

	if spec.MaxOutputSize > 0 && outcome.OutputSize > spec.MaxOutputSize {
		result.Killed = true
		result.OutputExceeded = true
		result.Signal = "SIGKILL"
		result.ExitCode = -1
		result.FinishedAt = time.Now()
		return result, nil
	}

	result.ExitCode = outcome.ExitCode
	result.Stdout = outcome.Stdout
	result.Stderr = outcome.Stderr
	result.FinishedAt = time.Now()
	return result, nil
}

var _ ports.ProcessRunner = (*FakeRunner)(nil)
