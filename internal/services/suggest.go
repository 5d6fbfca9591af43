package services

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/doeshing/termflow/internal/domain"
)

const slowCommandThreshold = 10 * time.Second

// Suggest merges suggestions from all four generators, sorts by priority
// then confidence, and returns at most ten.
func (i *Intelligence) Suggest(sctx domain.SuggestionContext) []domain.IntelligentSuggestion {
	analysis := i.AnalyzeHistory(sctx.SessionID)
	learning := i.Learning()
	entries := i.store.Entries(sctx.SessionID)

	var out []domain.IntelligentSuggestion
	out = append(out, patternSuggestions(analysis.Patterns, sctx.RecentCommands)...)
	out = append(out, workflowSuggestions(analysis.Workflows)...)
	out = append(out, optimizationSuggestions(analysis.Patterns, entries)...)
	out = append(out, learningSuggestions(learning, sctx.RecentCommands)...)

	sort.SliceStable(out, func(a, b int) bool {
		if out[a].Priority != out[b].Priority {
			return out[a].Priority > out[b].Priority
		}
		return out[a].Confidence > out[b].Confidence
	})
	if len(out) > domain.MaxSuggestions {
		out = out[:domain.MaxSuggestions]
	}
	return out
}

// patternSuggestions proposes the next command of a mined pattern whose
// prefix matches what the user just ran.
func patternSuggestions(patterns []domain.CommandPattern, recent []string) []domain.IntelligentSuggestion {
	var out []domain.IntelligentSuggestion
	for _, p := range patterns {
		if len(p.Commands) < 2 {
			continue
		}
		prefix := p.Commands[:len(p.Commands)-1]
		next := p.Commands[len(p.Commands)-1]
		if !tailMatches(recent, prefix) {
			continue
		}
		out = append(out, domain.IntelligentSuggestion{
			Kind:        domain.SuggestionPattern,
			Command:     next,
			Description: "you usually run this next",
			Priority:    8,
			Confidence:  p.SuccessRate,
			Reasoning:   fmt.Sprintf("sequence seen %d times after %s", p.Frequency, strings.Join(prefix, " && ")),
		})
	}
	return out
}

func tailMatches(recent, prefix []string) bool {
	if len(recent) < len(prefix) {
		return false
	}
	tail := recent[len(recent)-len(prefix):]
	for i := range prefix {
		if tail[i] != prefix[i] {
			return false
		}
	}
	return true
}

func workflowSuggestions(workflows []domain.WorkflowPattern) []domain.IntelligentSuggestion {
	var out []domain.IntelligentSuggestion
	for _, w := range workflows {
		out = append(out, domain.IntelligentSuggestion{
			Kind:        domain.SuggestionWorkflow,
			Command:     w.Steps[0],
			Description: "recurring workflow: " + strings.Join(w.Steps, " -> "),
			Priority:    6,
			Confidence:  w.SuccessRate,
			Reasoning:   fmt.Sprintf("ran as a group %d times", w.Frequency),
		})
	}
	return out
}

// optimizationSuggestions covers alias candidates and chronically slow
// commands.
func optimizationSuggestions(patterns []domain.CommandPattern, entries []domain.HistoryEntry) []domain.IntelligentSuggestion {
	var out []domain.IntelligentSuggestion
	for _, p := range patterns {
		if p.Frequency < 3 {
			continue
		}
		out = append(out, domain.IntelligentSuggestion{
			Kind:        domain.SuggestionOptimization,
			Description: "consider an alias for: " + strings.Join(p.Commands, " && "),
			Priority:    7,
			Confidence:  0.7,
			Reasoning:   fmt.Sprintf("sequence repeated %d times", p.Frequency),
		})
	}

	type durAgg struct {
		count int
		total time.Duration
	}
	durations := map[string]*durAgg{}
	for _, entry := range entries {
		agg, ok := durations[entry.CommandLine()]
		if !ok {
			agg = &durAgg{}
			durations[entry.CommandLine()] = agg
		}
		agg.count++
		agg.total += entry.Result.Duration
	}
	var slow []string
	for line, agg := range durations {
		if agg.count >= 3 && agg.total/time.Duration(agg.count) >= slowCommandThreshold {
			slow = append(slow, line)
		}
	}
	sort.Strings(slow)
	for _, line := range slow {
		agg := durations[line]
		out = append(out, domain.IntelligentSuggestion{
			Kind:        domain.SuggestionOptimization,
			Command:     line,
			Description: "this command is consistently slow, a faster alternative may exist",
			Priority:    5,
			Confidence:  0.6,
			Reasoning:   fmt.Sprintf("average %s over %d runs", agg.total/time.Duration(agg.count), agg.count),
		})
	}
	return out
}

// learningSuggestions flags commands that keep failing and surfaces
// well-scored commands the user has not run recently.
func learningSuggestions(learning domain.LearningData, recent []string) []domain.IntelligentSuggestion {
	var out []domain.IntelligentSuggestion
	for _, line := range learning.AvoidedCommands {
		out = append(out, domain.IntelligentSuggestion{
			Kind:        domain.SuggestionLearning,
			Command:     line,
			Description: "this command keeps failing, consider an alternative",
			Priority:    9,
			Confidence:  0.8,
			Reasoning:   fmt.Sprintf("failed %d times", learning.FailureCounts[line]),
		})
	}

	recentSet := map[string]bool{}
	for _, line := range recent {
		recentSet[line] = true
	}
	type scored struct {
		line  string
		score float64
	}
	var preferred []scored
	for line, score := range learning.PreferredCommands {
		if score >= 3 && !recentSet[line] {
			preferred = append(preferred, scored{line, score})
		}
	}
	sort.Slice(preferred, func(a, b int) bool {
		if preferred[a].score != preferred[b].score {
			return preferred[a].score > preferred[b].score
		}
		return preferred[a].line < preferred[b].line
	})
	for _, p := range preferred {
		out = append(out, domain.IntelligentSuggestion{
			Kind:        domain.SuggestionLearning,
			Command:     p.line,
			Description: "frequently useful command you have not run lately",
			Priority:    4,
			Confidence:  0.5,
			Reasoning:   fmt.Sprintf("preference score %.1f", p.score),
		})
	}
	return out
}
