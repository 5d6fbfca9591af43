package process

import (
	"context"
	"runtime"
	"testing"
	"time"

	"github.com/doeshing/termflow/internal/ports"
)

func skipOnWindows(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("POSIX shell required")
	}
}

func TestRunnerCapturesOutput(t *testing.T) {
	skipOnWindows(t)
	runner := NewRunner()
	result, err := runner.Run(context.Background(), ports.ProcessSpec{
		Program: "echo",
		Args:    []string{"hello"},
		Timeout: 5 * time.Second,
	})
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if result.ExitCode != 0 || result.Stdout != "hello\n" {
		t.Fatalf("unexpected result %+v", result)
	}
	if result.Killed {
		t.Fatal("natural exit must not be marked killed")
	}
}

func TestRunnerReportsExitCode(t *testing.T) {
	skipOnWindows(t)
	runner := NewRunner()
	result, err := runner.Run(context.Background(), ports.ProcessSpec{
		Program: "sh",
		Args:    []string{"-c", "exit 3"},
		Timeout: 5 * time.Second,
	})
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if result.ExitCode != 3 {
		t.Fatalf("expected exit 3, got %d", result.ExitCode)
	}
}

func TestRunnerKillsOnTimeout(t *testing.T) {
	skipOnWindows(t)
	runner := NewRunner()
	start := time.Now()
	result, err := runner.Run(context.Background(), ports.ProcessSpec{
		Program:     "sleep",
		Args:        []string{"10"},
		Timeout:     200 * time.Millisecond,
		GracePeriod: time.Second,
	})
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if !result.Killed {
		t.Fatalf("expected killed, got %+v", result)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Fatalf("kill took too long: %v", elapsed)
	}
}

func TestRunnerKillsOnOutputCap(t *testing.T) {
	skipOnWindows(t)
	runner := NewRunner()
	result, err := runner.Run(context.Background(), ports.ProcessSpec{
		Program:       "sh",
		Args:          []string{"-c", "yes | head -c 100000; sleep 5"},
		Timeout:       10 * time.Second,
		MaxOutputSize: 1024,
	})
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if !result.OutputExceeded || !result.Killed {
		t.Fatalf("expected output-cap kill, got %+v", result)
	}
	if len(result.Stdout) > 1024 {
		t.Fatalf("stdout exceeds cap: %d bytes", len(result.Stdout))
	}
}

func TestRunnerHonorsCancellation(t *testing.T) {
	skipOnWindows(t)
	runner := NewRunner()
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()
	result, err := runner.Run(ctx, ports.ProcessSpec{
		Program: "sleep",
		Args:    []string{"10"},
		Timeout: 30 * time.Second,
	})
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if !result.Killed {
		t.Fatalf("cancelled run must be killed: %+v", result)
	}
}

func TestCappedBufferFiresOnce(t *testing.T) {
	fired := 0
	buf := &cappedBuffer{limit: 4, onExceed: func() { fired++ }}
	if _, err := buf.Write([]byte("ab")); err != nil {
		t.Fatal(err)
	}
	if _, err := buf.Write([]byte("cdef")); err != nil {
		t.Fatal(err)
	}
	if _, err := buf.Write([]byte("gh")); err != nil {
		t.Fatal(err)
	}
	if buf.Len() != 4 {
		t.Fatalf("buffer must stop at the cap, got %d", buf.Len())
	}
	if fired != 2 {
		// onExceed fires per overflowing write; the runner dedupes with
		// sync.Once.
		t.Fatalf("unexpected fire count %d", fired)
	}
}
