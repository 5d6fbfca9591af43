package analyzer

import (
	"strings"
	"testing"

	"github.com/doeshing/termflow/internal/domain"
	"github.com/doeshing/termflow/internal/pkg/logger"
	"github.com/doeshing/termflow/internal/ports"
)

func analyze(t *testing.T, cmd domain.Command, result domain.ExecutionResult) domain.OutputAnalysis {
	t.Helper()
	a := New(logger.NewNop())
	return a.Analyze(ports.AnalyzeRequest{Command: cmd, Result: result})
}

func TestNonZeroExitForcesError(t *testing.T) {
	analysis := analyze(t,
		domain.Command{Program: "git", Category: domain.CategoryGit},
		domain.ExecutionResult{ExitCode: 128, Stdout: "Cloning into 'repo'..."},
	)
	if !analysis.ErrorDetected {
		t.Fatal("exit code 128 must force error detection")
	}
	if analysis.Severity != domain.AnalysisError {
		t.Fatalf("expected error severity, got %s", analysis.Severity)
	}
}

func TestHighestPriorityMatcherWins(t *testing.T) {
	// Output matches both the git-clone matcher and the error detector; the
	// error detector has the higher priority and must win.
	analysis := analyze(t,
		domain.Command{Program: "git", Category: domain.CategoryGit},
		domain.ExecutionResult{ExitCode: 0, Stdout: "Cloning into 'repo'...\nfatal: repository not found"},
	)
	if !analysis.ErrorDetected {
		t.Fatalf("error detector must dominate: %+v", analysis)
	}
	if !strings.Contains(analysis.Summary, "fatal") {
		t.Fatalf("summary should carry the error line, got %q", analysis.Summary)
	}
}

func TestGitCloneSuccess(t *testing.T) {
	analysis := analyze(t,
		domain.Command{Program: "git", Category: domain.CategoryGit},
		domain.ExecutionResult{ExitCode: 0, Stdout: "Cloning into 'termflow'...\ndone."},
	)
	if analysis.ExtractedData["clone_dir"] != "termflow" {
		t.Fatalf("expected clone_dir extraction, got %+v", analysis.ExtractedData)
	}
	if len(analysis.FollowUpCommands) == 0 || analysis.FollowUpCommands[0] != "cd termflow" {
		t.Fatalf("expected cd follow-up, got %+v", analysis.FollowUpCommands)
	}
}

func TestGrepMatchCount(t *testing.T) {
	out := "main.go:10:func main\nmain.go:22:fmt.Println\nutil.go:3:package util\n"
	analysis := analyze(t,
		domain.Command{Program: "grep"},
		domain.ExecutionResult{ExitCode: 0, Stdout: out},
	)
	if analysis.ExtractedData["matched_files"] != "2" {
		t.Fatalf("expected 2 matched files, got %+v", analysis.ExtractedData)
	}
}

func TestPackageInstallSummary(t *testing.T) {
	analysis := analyze(t,
		domain.Command{Program: "npm", Category: domain.CategoryPackageManagement},
		domain.ExecutionResult{ExitCode: 0, Stdout: "added 128 packages in 4s\nfound 2 vulnerabilities"},
	)
	if analysis.ExtractedData["package_count"] != "128" {
		t.Fatalf("expected package count, got %+v", analysis.ExtractedData)
	}
	if !analysis.WarningsDetected {
		t.Fatal("vulnerability note must set the warning flag")
	}
}

func TestSynthesizedSummaryForUnmatchedOutput(t *testing.T) {
	analysis := analyze(t,
		domain.Command{Program: "cat"},
		domain.ExecutionResult{ExitCode: 0, Stdout: "lorem ipsum\ndolor sit amet"},
	)
	if analysis.Summary == "" {
		t.Fatal("non-empty output must synthesize a summary")
	}
	if analysis.ErrorDetected {
		t.Fatalf("benign output flagged as error: %+v", analysis)
	}
}

func TestDevelopmentCategoryDetectsTestFailures(t *testing.T) {
	analysis := analyze(t,
		domain.Command{Program: "go", Category: domain.CategoryDevelopment},
		domain.ExecutionResult{ExitCode: 0, Stdout: "--- FAIL: TestThing (0.01s)\nFAIL"},
	)
	if !analysis.ErrorDetected {
		t.Fatal("test failures must be detected even on exit 0 streams")
	}
}

func TestAnalysisHistoryIsBounded(t *testing.T) {
	a := New(logger.NewNop())
	for i := 0; i < domain.AnalysisHistoryCap+25; i++ {
		a.Analyze(ports.AnalyzeRequest{
			Command: domain.Command{Program: "ls", Category: domain.CategoryFileManagement},
			Result:  domain.ExecutionResult{ExitCode: 0, Stdout: "file.txt"},
		})
	}
	if got := len(a.History(domain.CategoryFileManagement)); got != domain.AnalysisHistoryCap {
		t.Fatalf("history must cap at %d, got %d", domain.AnalysisHistoryCap, got)
	}
}
