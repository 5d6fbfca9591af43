// Package process is the only place raw OS processes are touched. The
// security executor is its sole production caller.
package process

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"sort"
	"sync"
	"syscall"
	"time"

	"github.com/doeshing/termflow/internal/domain"
	"github.com/doeshing/termflow/internal/ports"
)

// Runner spawns local subprocesses with timeout, cancellation, and output
// caps enforced while the process runs.
type Runner struct{}

// NewRunner builds the host process runner.
func NewRunner() *Runner {
	return &Runner{}
}

// Run implements ports.ProcessRunner. A timeout or cancellation first sends
// SIGTERM, then escalates to SIGKILL after the grace period. Exceeding the
// output cap kills the process immediately.
func (r *Runner) Run(ctx context.Context, spec ports.ProcessSpec) (ports.ProcessResult, error) {
	cmd := exec.Command(spec.Program, spec.Args...)
	if spec.WorkingDir != "" {
		cmd.Dir = spec.WorkingDir
	}
	cmd.Env = mergedEnviron(spec.Env)

	exceeded := make(chan struct{})
	var once sync.Once
	signalExceeded := func() { once.Do(func() { close(exceeded) }) }

	stdout := &cappedBuffer{limit: spec.MaxOutputSize, onExceed: signalExceeded}
	stderr := &cappedBuffer{limit: spec.MaxOutputSize, onExceed: signalExceeded}
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	started := time.Now()
	if err := cmd.Start(); err != nil {
		return ports.ProcessResult{StartedAt: started, FinishedAt: time.Now()}, err
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	timeout := spec.Timeout
	if timeout <= 0 {
		timeout = domain.DefaultCommandTimeout
	}
	grace := spec.GracePeriod
	if grace <= 0 {
		grace = domain.KillGracePeriod
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	result := ports.ProcessResult{StartedAt: started}
	var waitErr error

	select {
	case waitErr = <-done:
	case <-timer.C:
		waitErr = r.terminate(cmd, done, grace, &result)
	case <-ctx.Done():
		waitErr = r.terminate(cmd, done, grace, &result)
	case <-exceeded:
		// No graceful phase: the cap is already blown.
		_ = cmd.Process.Kill()
		result.Killed = true
		result.OutputExceeded = true
		result.Signal = "SIGKILL"
		waitErr = <-done
	}

	result.FinishedAt = time.Now()
	result.Stdout = stdout.String()
	result.Stderr = stderr.String()
	result.ExitCode = exitCodeOf(waitErr)
	if result.Signal == "" {
		result.Signal = signalNameOf(waitErr)
	}
	return result, nil
}

// terminate sends SIGTERM and waits out the grace period before forcing a
// kill. It always returns only once the process has fully exited.
func (r *Runner) terminate(cmd *exec.Cmd, done <-chan error, grace time.Duration, result *ports.ProcessResult) error {
	result.Killed = true
	result.Signal = "SIGTERM"
	_ = cmd.Process.Signal(syscall.SIGTERM)
	graceTimer := time.NewTimer(grace)
	defer graceTimer.Stop()
	select {
	case err := <-done:
		return err
	case <-graceTimer.C:
		_ = cmd.Process.Kill()
		result.Signal = "SIGKILL"
		return <-done
	}
}

func exitCodeOf(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

func signalNameOf(err error) string {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if status, ok := exitErr.Sys().(syscall.WaitStatus); ok && status.Signaled() {
			return status.Signal().String()
		}
	}
	return ""
}

// mergedEnviron overlays extra variables on the parent environment with a
// stable ordering.
func mergedEnviron(extra map[string]string) []string {
	if len(extra) == 0 {
		return os.Environ()
	}
	env := os.Environ()
	keys := make([]string, 0, len(extra))
	for key := range extra {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		env = append(env, key+"="+extra[key])
	}
	return env
}

var _ ports.ProcessRunner = (*Runner)(nil)
