package interpreter

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/doeshing/termflow/internal/domain"
	"github.com/doeshing/termflow/internal/pkg/logger"
)

// scriptedCompletion returns a fixed reply or error.
type scriptedCompletion struct {
	reply string
	err   error
	calls int
}

func (s *scriptedCompletion) Complete(ctx context.Context, prompt string, pctx domain.PromptContext) (string, error) {
	s.calls++
	return s.reply, s.err
}

func testContext() domain.PromptContext {
	return domain.PromptContext{WorkingDir: "/work", ProjectType: "go", PackageManager: "go", GitBranch: "main"}
}

func TestRecentBranchesScenario(t *testing.T) {
	interp := New(DefaultRules(), nil, logger.NewNop())

	parsed := interp.Parse(context.Background(), "show recent branches", testContext())
	if len(parsed.Commands) != 1 {
		t.Fatalf("expected one command, got %d", len(parsed.Commands))
	}
	cmd := parsed.Commands[0]
	if got := cmd.String(); got != "git branch --sort=-committerdate -a" {
		t.Fatalf("unexpected command %q", got)
	}
	if cmd.Risk != domain.RiskSafe {
		t.Fatalf("expected safe risk, got %s", cmd.Risk)
	}
	if parsed.Confidence != domain.PatternConfidence {
		t.Fatalf("expected confidence %v, got %v", domain.PatternConfidence, parsed.Confidence)
	}
	if parsed.RequiresConfirmation {
		t.Fatal("safe command must not require confirmation")
	}
}

func TestFirstMatchWinsNotBestMatch(t *testing.T) {
	// Both rules match; table order decides, not specificity.
	rules := []Rule{
		{
			ID:       "broad",
			Pattern:  regexp.MustCompile(`(?i)branches`),
			Risk:     domain.RiskSafe,
			Category: domain.CategoryGit,
			Generate: func(m []string, p domain.PromptContext) []domain.Command {
				return []domain.Command{newCommand("git", []string{"branch"}, domain.RiskSafe, domain.CategoryGit, p)}
			},
		},
		{
			ID:       "specific",
			Pattern:  regexp.MustCompile(`(?i)show recent branches`),
			Risk:     domain.RiskSafe,
			Category: domain.CategoryGit,
			Generate: func(m []string, p domain.PromptContext) []domain.Command {
				return []domain.Command{newCommand("git", []string{"branch", "-a"}, domain.RiskSafe, domain.CategoryGit, p)}
			},
		},
	}
	completion := &scriptedCompletion{}
	interp := New(rules, completion, logger.NewNop())

	parsed := interp.Parse(context.Background(), "show recent branches", testContext())
	if got := parsed.Commands[0].String(); got != "git branch" {
		t.Fatalf("first rule in table order must win, got %q", got)
	}
	if completion.calls != 0 {
		t.Fatal("pattern match must short-circuit the completion fallback")
	}
}

func TestHighRiskRequiresConfirmation(t *testing.T) {
	interp := New(DefaultRules(), nil, logger.NewNop())

	parsed := interp.Parse(context.Background(), "delete /tmp/build-cache", testContext())
	if parsed.OverallRisk != domain.RiskHigh {
		t.Fatalf("expected high risk, got %s", parsed.OverallRisk)
	}
	if !parsed.RequiresConfirmation {
		t.Fatal("high risk must require confirmation")
	}
}

func TestCommitSequenceKeepsOrder(t *testing.T) {
	interp := New(DefaultRules(), nil, logger.NewNop())

	parsed := interp.Parse(context.Background(), `commit all changes with message "fix parser"`, testContext())
	if len(parsed.Commands) != 2 {
		t.Fatalf("expected two-step sequence, got %d", len(parsed.Commands))
	}
	if parsed.Commands[0].String() != "git add -A" {
		t.Fatalf("first step must stage, got %q", parsed.Commands[0].String())
	}
	if parsed.Commands[1].Args[2] != "fix parser" {
		t.Fatalf("commit message not carried: %+v", parsed.Commands[1].Args)
	}
}

func TestFallbackParsesCompletionJSON(t *testing.T) {
	completion := &scriptedCompletion{reply: `[
		{"command": "kubectl get pods -n staging", "description": "list pods", "confidence": 1.7, "riskLevel": "bogus", "category": "system"}
	]`}
	interp := New(DefaultRules(), completion, logger.NewNop())

	parsed := interp.Parse(context.Background(), "what pods are running in staging", testContext())
	if len(parsed.Commands) != 1 {
		t.Fatalf("expected one command, got %+v", parsed)
	}
	cmd := parsed.Commands[0]
	if cmd.Program != "kubectl" || len(cmd.Args) != 4 {
		t.Fatalf("bad shellwords split: %+v", cmd)
	}
	if cmd.Risk != domain.RiskMedium {
		t.Fatalf("invalid risk level must clamp to medium, got %s", cmd.Risk)
	}
	if parsed.Confidence != 1.0 {
		t.Fatalf("confidence must clamp into [0,1], got %v", parsed.Confidence)
	}
}

func TestFallbackHandlesCodeFence(t *testing.T) {
	completion := &scriptedCompletion{reply: "```json\n[{\"command\": \"uptime\", \"confidence\": 0.6}]\n```"}
	interp := New(DefaultRules(), completion, logger.NewNop())

	parsed := interp.Parse(context.Background(), "how long has this machine been up", testContext())
	if len(parsed.Commands) != 1 || parsed.Commands[0].Program != "uptime" {
		t.Fatalf("fenced JSON must parse, got %+v", parsed)
	}
}

func TestUnparsableCompletionYieldsZeroConfidence(t *testing.T) {
	completion := &scriptedCompletion{reply: "Sorry, I can't help with that."}
	interp := New(DefaultRules(), completion, logger.NewNop())

	parsed := interp.Parse(context.Background(), "do something impossible please", testContext())
	if parsed.Confidence != 0 || len(parsed.Commands) != 0 {
		t.Fatalf("unparsable reply must yield zero confidence, got %+v", parsed)
	}
	if len(parsed.Warnings) == 0 {
		t.Fatal("warnings must carry the raw reply")
	}
}

func TestCompletionErrorYieldsZeroConfidence(t *testing.T) {
	completion := &scriptedCompletion{err: errors.New("connection refused")}
	interp := New(DefaultRules(), completion, logger.NewNop())

	parsed := interp.Parse(context.Background(), "something the rules never cover", testContext())
	if parsed.Confidence != 0 {
		t.Fatalf("completion failure must yield zero confidence, got %v", parsed.Confidence)
	}
	if len(parsed.Warnings) == 0 {
		t.Fatal("failure must be explained in warnings")
	}
}

func TestEmptyQuery(t *testing.T) {
	interp := New(DefaultRules(), nil, logger.NewNop())
	parsed := interp.Parse(context.Background(), "   ", testContext())
	if parsed.Confidence != 0 || len(parsed.Warnings) == 0 {
		t.Fatalf("empty query must warn with zero confidence, got %+v", parsed)
	}
}

func TestInstallDepsUsesDetectedPackageManager(t *testing.T) {
	interp := New(DefaultRules(), nil, logger.NewNop())
	pctx := testContext()
	pctx.PackageManager = "yarn"

	parsed := interp.Parse(context.Background(), "install the dependencies", pctx)
	if parsed.Commands[0].Program != "yarn" {
		t.Fatalf("expected yarn install, got %q", parsed.Commands[0].String())
	}
}
