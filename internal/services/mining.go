package services

import (
	"sort"
	"strings"
	"time"

	"github.com/doeshing/termflow/internal/domain"
)

// patternAgg accumulates occurrences of one command subsequence.
type patternAgg struct {
	commands  []string
	count     int
	successes int
	total     time.Duration
	context   string
}

func (a *patternAgg) add(window []domain.HistoryEntry) {
	a.count++
	success := true
	for _, entry := range window {
		a.total += entry.Result.Duration
		if !entry.Result.Success {
			success = false
		}
	}
	if success {
		a.successes++
	}
	if a.context == "" {
		a.context = window[0].Command.WorkingDir
	}
}

// minePatterns slides a fixed-length window over the chronological log and
// counts identical command subsequences. Sequences seen fewer than twice
// are noise and never surface.
func minePatterns(entries []domain.HistoryEntry) []domain.CommandPattern {
	if len(entries) < domain.PatternWindow {
		return nil
	}
	aggs := map[string]*patternAgg{}
	for i := 0; i+domain.PatternWindow <= len(entries); i++ {
		window := entries[i : i+domain.PatternWindow]
		commands := make([]string, domain.PatternWindow)
		for j, entry := range window {
			commands[j] = entry.CommandLine()
		}
		sig := strings.Join(commands, "\n")
		agg, ok := aggs[sig]
		if !ok {
			agg = &patternAgg{commands: commands}
			aggs[sig] = agg
		}
		agg.add(window)
	}

	var out []domain.CommandPattern
	for _, agg := range aggs {
		if agg.count < domain.MinPatternFrequency {
			continue
		}
		out = append(out, domain.CommandPattern{
			Commands:    agg.commands,
			Frequency:   agg.count,
			SuccessRate: float64(agg.successes) / float64(agg.count),
			AvgDuration: agg.total / time.Duration(agg.count),
			Context:     agg.context,
		})
	}
	sortPatterns(out)
	return out
}

func sortPatterns(patterns []domain.CommandPattern) {
	sort.Slice(patterns, func(a, b int) bool {
		if patterns[a].Frequency != patterns[b].Frequency {
			return patterns[a].Frequency > patterns[b].Frequency
		}
		return strings.Join(patterns[a].Commands, "\n") < strings.Join(patterns[b].Commands, "\n")
	})
}

// mineWorkflows groups commands that ran close together in time and counts
// recurring groups. A pause longer than the workflow gap starts a new
// group; single-command groups are not workflows.
func mineWorkflows(entries []domain.HistoryEntry) []domain.WorkflowPattern {
	groups := groupByTime(entries)
	aggs := map[string]*patternAgg{}
	for _, group := range groups {
		if len(group) < 2 {
			continue
		}
		steps := make([]string, len(group))
		for i, entry := range group {
			steps[i] = entry.CommandLine()
		}
		sig := strings.Join(steps, "\n")
		agg, ok := aggs[sig]
		if !ok {
			agg = &patternAgg{commands: steps}
			aggs[sig] = agg
		}
		agg.add(group)
	}

	var out []domain.WorkflowPattern
	for _, agg := range aggs {
		if agg.count < domain.MinPatternFrequency {
			continue
		}
		out = append(out, domain.WorkflowPattern{
			Steps:       agg.commands,
			Frequency:   agg.count,
			SuccessRate: float64(agg.successes) / float64(agg.count),
			AvgDuration: agg.total / time.Duration(agg.count),
			Context:     agg.context,
		})
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].Frequency != out[b].Frequency {
			return out[a].Frequency > out[b].Frequency
		}
		return strings.Join(out[a].Steps, "\n") < strings.Join(out[b].Steps, "\n")
	})
	return out
}

func groupByTime(entries []domain.HistoryEntry) [][]domain.HistoryEntry {
	var groups [][]domain.HistoryEntry
	var current []domain.HistoryEntry
	for _, entry := range entries {
		if len(current) > 0 && entry.Timestamp.Sub(current[len(current)-1].Timestamp) > domain.WorkflowGap {
			groups = append(groups, current)
			current = nil
		}
		current = append(current, entry)
	}
	if len(current) > 0 {
		groups = append(groups, current)
	}
	return groups
}

// aliasOpportunities names sequences repeated often enough that a shell
// alias or script would pay off.
func aliasOpportunities(patterns []domain.CommandPattern) []string {
	var out []string
	for _, p := range patterns {
		if p.Frequency >= 3 {
			out = append(out, "alias candidate: "+strings.Join(p.Commands, " && "))
		}
	}
	return out
}
