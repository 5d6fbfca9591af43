// Package analyzer classifies raw process output into structured findings.
// Analysis never fails the pipeline: anything unrecognized degrades to a
// synthesized generic summary.
package analyzer

import (
	"fmt"
	"strings"
	"sync"

	"github.com/dustin/go-humanize"

	"github.com/doeshing/termflow/internal/domain"
	"github.com/doeshing/termflow/internal/ports"
)

// OutputAnalyzer matches combined stdout+stderr against a priority-ordered
// matcher table and layers category-specific analysis on top.
type OutputAnalyzer struct {
	matchers []matcher
	log      ports.Logger

	mu      sync.Mutex
	history map[domain.CommandCategory][]domain.OutputAnalysis
}

// New builds an analyzer with the built-in matcher table.
func New(log ports.Logger) *OutputAnalyzer {
	return &OutputAnalyzer{
		matchers: defaultMatchers(),
		log:      log,
		history:  map[domain.CommandCategory][]domain.OutputAnalysis{},
	}
}

// Analyze implements ports.Analyzer. It never returns an error and never
// panics outward.
func (a *OutputAnalyzer) Analyze(req ports.AnalyzeRequest) (analysis domain.OutputAnalysis) {
	defer func() {
		if r := recover(); r != nil {
			a.log.Warn("analysis panicked", map[string]interface{}{"recover": r})
			analysis = genericAnalysis(req)
			a.remember(req.Command.Category, analysis)
		}
	}()

	combined := combineOutput(req.Result.Stdout, req.Result.Stderr)
	analysis = domain.OutputAnalysis{
		Severity:   domain.AnalysisInfo,
		Confidence: 0.5,
	}

	// Scan the whole table; the highest-priority matcher that matched wins,
	// not the first in table order.
	best := -1
	var bestMatcher *matcher
	var bestGroups []string
	for i := range a.matchers {
		m := &a.matchers[i]
		groups := m.re.FindStringSubmatch(combined)
		if groups == nil {
			continue
		}
		if m.priority > best {
			best = m.priority
			bestMatcher = m
			bestGroups = groups
		}
	}
	if bestMatcher != nil {
		bestMatcher.apply(bestGroups, combined, &analysis)
		analysis.Confidence = 0.8
	}

	if fn, ok := categoryAnalyzers[req.Command.Category]; ok {
		fn(combined, req, &analysis)
	}

	// Exit code is authoritative: a non-zero exit is an error no matter
	// what the patterns said.
	if req.Result.ExitCode != 0 {
		analysis.ErrorDetected = true
		analysis.Severity = domain.AnalysisError
		if len(analysis.FailureIndicators) == 0 {
			analysis.FailureIndicators = append(analysis.FailureIndicators,
				fmt.Sprintf("exit code %d", req.Result.ExitCode))
		}
	}

	if analysis.Summary == "" {
		analysis.Summary = synthesizeSummary(combined, req)
	}

	a.remember(req.Command.Category, analysis)
	return analysis
}

// History returns the bounded analysis history for one command category.
func (a *OutputAnalyzer) History(category domain.CommandCategory) []domain.OutputAnalysis {
	a.mu.Lock()
	defer a.mu.Unlock()
	entries := a.history[category]
	out := make([]domain.OutputAnalysis, len(entries))
	copy(out, entries)
	return out
}

func (a *OutputAnalyzer) remember(category domain.CommandCategory, analysis domain.OutputAnalysis) {
	a.mu.Lock()
	defer a.mu.Unlock()
	ring := append(a.history[category], analysis)
	if len(ring) > domain.AnalysisHistoryCap {
		ring = ring[len(ring)-domain.AnalysisHistoryCap:]
	}
	a.history[category] = ring
}

func combineOutput(stdout, stderr string) string {
	switch {
	case stdout == "":
		return stderr
	case stderr == "":
		return stdout
	default:
		return stdout + "\n" + stderr
	}
}

func synthesizeSummary(combined string, req ports.AnalyzeRequest) string {
	if strings.TrimSpace(combined) == "" {
		if req.Result.ExitCode == 0 {
			return fmt.Sprintf("%s completed with no output", req.Command.Program)
		}
		return fmt.Sprintf("%s failed with exit code %d and no output", req.Command.Program, req.Result.ExitCode)
	}
	lines := strings.Count(combined, "\n") + 1
	return fmt.Sprintf("%s produced %s lines (%s)",
		req.Command.Program,
		humanize.Comma(int64(lines)),
		humanize.Bytes(uint64(len(combined))))
}

func genericAnalysis(req ports.AnalyzeRequest) domain.OutputAnalysis {
	severity := domain.AnalysisInfo
	if req.Result.ExitCode != 0 {
		severity = domain.AnalysisError
	}
	return domain.OutputAnalysis{
		Summary:       synthesizeSummary(combineOutput(req.Result.Stdout, req.Result.Stderr), req),
		ErrorDetected: req.Result.ExitCode != 0,
		Severity:      severity,
		Confidence:    0.1,
	}
}

var _ ports.Analyzer = (*OutputAnalyzer)(nil)
