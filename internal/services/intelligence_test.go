package services

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doeshing/termflow/internal/domain"
	"github.com/doeshing/termflow/internal/infrastructure/history"
	"github.com/doeshing/termflow/internal/ports"
)

func fixedClock(at time.Time) ports.Clock {
	return ports.ClockFunc(func() time.Time { return at })
}

func histEntry(session, program string, args []string, at time.Time, success bool, dur time.Duration) domain.HistoryEntry {
	exit := 0
	if !success {
		exit = 1
	}
	return domain.HistoryEntry{
		ID:        fmt.Sprintf("%s-%d", program, at.UnixNano()),
		SessionID: session,
		Command:   domain.Command{ID: "c", Program: program, Args: args, Category: domain.CategoryCustom},
		Result:    domain.ExecutionResult{ExitCode: exit, Success: success, Duration: dur},
		Timestamp: at,
	}
}

func newIntelligence(entries []domain.HistoryEntry, now time.Time) (*Intelligence, *history.MemoryStore) {
	store := history.NewMemoryStore(0)
	for _, e := range entries {
		store.Append(e)
	}
	return NewIntelligence(store, fixedClock(now), nopLogger{}), store
}

func TestPatternMiningFindsRepeatedWindows(t *testing.T) {
	base := time.Date(2026, 2, 3, 10, 0, 0, 0, time.UTC)
	programs := []string{"a", "b", "c", "x", "a", "b", "c"}
	var entries []domain.HistoryEntry
	for i, p := range programs {
		entries = append(entries, histEntry("s1", p, nil, base.Add(time.Duration(i)*time.Minute), true, time.Second))
	}
	intel, _ := newIntelligence(entries, base.Add(time.Hour))

	analysis := intel.AnalyzeHistory("s1")
	require.Len(t, analysis.Patterns, 1, "only the a,b,c window repeats")
	p := analysis.Patterns[0]
	assert.Equal(t, []string{"a", "b", "c"}, p.Commands)
	assert.Equal(t, 2, p.Frequency)
	assert.Equal(t, 1.0, p.SuccessRate)
	assert.Equal(t, 3*time.Second, p.AvgDuration)
}

func TestPatternsBelowFrequencyThresholdSuppressed(t *testing.T) {
	base := time.Date(2026, 2, 3, 10, 0, 0, 0, time.UTC)
	var entries []domain.HistoryEntry
	for i, p := range []string{"a", "b", "c", "d"} {
		entries = append(entries, histEntry("s1", p, nil, base.Add(time.Duration(i)*time.Minute), true, 0))
	}
	intel, _ := newIntelligence(entries, base.Add(time.Hour))
	assert.Empty(t, intel.AnalyzeHistory("s1").Patterns)
}

func TestWorkflowMiningRespectsGap(t *testing.T) {
	base := time.Date(2026, 2, 3, 10, 0, 0, 0, time.UTC)
	entries := []domain.HistoryEntry{
		histEntry("s1", "make", nil, base, true, 0),
		histEntry("s1", "deploy", nil, base.Add(time.Minute), true, 0),
		// Gap well beyond the grouping window starts a new workflow.
		histEntry("s1", "make", nil, base.Add(time.Hour), true, 0),
		histEntry("s1", "deploy", nil, base.Add(time.Hour+time.Minute), true, 0),
		// A lone command is never a workflow.
		histEntry("s1", "ls", nil, base.Add(3*time.Hour), true, 0),
	}
	intel, _ := newIntelligence(entries, base.Add(4*time.Hour))

	workflows := intel.AnalyzeHistory("s1").Workflows
	require.Len(t, workflows, 1)
	assert.Equal(t, []string{"make", "deploy"}, workflows[0].Steps)
	assert.Equal(t, 2, workflows[0].Frequency)
}

func TestLearningScoresAndAvoidList(t *testing.T) {
	base := time.Date(2026, 2, 3, 10, 0, 0, 0, time.UTC)
	intel, _ := newIntelligence(nil, base)

	good := histEntry("s1", "git", []string{"status"}, base, true, 0)
	bad := histEntry("s1", "flaky", nil, base, false, 0)

	intel.Observe(good)
	intel.Observe(good)
	intel.Observe(bad)
	intel.Observe(bad)

	learning := intel.Learning()
	assert.Equal(t, 2.0, learning.PreferredCommands["git status"])
	assert.Equal(t, 0.0, learning.PreferredCommands["flaky"], "scores floor at zero")
	assert.Equal(t, 2, learning.FailureCounts["flaky"])
	assert.Empty(t, learning.AvoidedCommands, "two failures are not yet avoidance")

	intel.Observe(bad)
	learning = intel.Learning()
	assert.Equal(t, []string{"flaky"}, learning.AvoidedCommands)
}

func TestObserveInvalidatesAnalysisCache(t *testing.T) {
	base := time.Date(2026, 2, 3, 10, 0, 0, 0, time.UTC)
	intel, store := newIntelligence(nil, base)

	before := intel.AnalyzeHistory("s1")
	assert.Zero(t, before.TotalEntries)

	entry := histEntry("s1", "git", []string{"status"}, base, true, 0)
	store.Append(entry)
	intel.Observe(entry)

	after := intel.AnalyzeHistory("s1")
	assert.Equal(t, 1, after.TotalEntries)
}

func TestTrendsCountAndChange(t *testing.T) {
	now := time.Date(2026, 2, 3, 12, 0, 0, 0, time.UTC)
	git := func(at time.Time) domain.HistoryEntry {
		e := histEntry("s1", "git", []string{"status"}, at, true, 0)
		e.Command.Category = domain.CategoryGit
		return e
	}
	entries := []domain.HistoryEntry{
		// previous hour: one git command
		git(now.Add(-90 * time.Minute)),
		// current hour: three git commands
		git(now.Add(-30 * time.Minute)),
		git(now.Add(-20 * time.Minute)),
		git(now.Add(-10 * time.Minute)),
	}
	intel, _ := newIntelligence(entries, now)

	var hourly *domain.UsageTrend
	for _, tr := range intel.AnalyzeHistory("s1").Trends {
		if tr.Period == domain.TrendHourly && tr.CommandType == string(domain.CategoryGit) {
			hourly = &tr
			break
		}
	}
	require.NotNil(t, hourly)
	assert.Equal(t, 3, hourly.Count)
	assert.Equal(t, 200.0, hourly.ChangePct)
	assert.Equal(t, 5.0, hourly.Prediction)
}

func TestSuggestionsOrderedAndCapped(t *testing.T) {
	base := time.Date(2026, 2, 3, 10, 0, 0, 0, time.UTC)
	// A window repeated three times becomes an alias candidate.
	var entries []domain.HistoryEntry
	programs := []string{"a", "b", "c", "a", "b", "c", "a", "b", "c"}
	for i, p := range programs {
		entries = append(entries, histEntry("s1", p, nil, base.Add(time.Duration(i)*time.Minute), true, time.Second))
	}
	intel, _ := newIntelligence(entries, base.Add(time.Hour))

	// A chronically failing command outranks everything else.
	failing := histEntry("s1", "flaky", nil, base, false, 0)
	for i := 0; i < domain.AvoidAfterFailures; i++ {
		intel.Observe(failing)
	}

	suggestions := intel.Suggest(domain.SuggestionContext{SessionID: "s1"})
	require.NotEmpty(t, suggestions)
	assert.LessOrEqual(t, len(suggestions), domain.MaxSuggestions)
	assert.Equal(t, domain.SuggestionLearning, suggestions[0].Kind)
	assert.Equal(t, "flaky", suggestions[0].Command)
	for i := 1; i < len(suggestions); i++ {
		if suggestions[i-1].Priority == suggestions[i].Priority {
			assert.GreaterOrEqual(t, suggestions[i-1].Confidence, suggestions[i].Confidence)
		} else {
			assert.Greater(t, suggestions[i-1].Priority, suggestions[i].Priority)
		}
	}
}

func TestPatternSuggestionMatchesRecentTail(t *testing.T) {
	base := time.Date(2026, 2, 3, 10, 0, 0, 0, time.UTC)
	programs := []string{"a", "b", "c", "a", "b", "c"}
	var entries []domain.HistoryEntry
	for i, p := range programs {
		entries = append(entries, histEntry("s1", p, nil, base.Add(time.Duration(i)*time.Minute), true, 0))
	}
	intel, _ := newIntelligence(entries, base.Add(time.Hour))

	suggestions := intel.Suggest(domain.SuggestionContext{
		SessionID:      "s1",
		RecentCommands: []string{"a", "b"},
	})
	var next string
	for _, s := range suggestions {
		if s.Kind == domain.SuggestionPattern {
			next = s.Command
			break
		}
	}
	assert.Equal(t, "c", next, "pattern suggestion completes the sequence")
}

func TestExportImportRoundTrip(t *testing.T) {
	base := time.Date(2026, 2, 3, 10, 0, 0, 0, time.UTC)
	var entries []domain.HistoryEntry
	for i, p := range []string{"a", "b", "c", "a", "b", "c"} {
		entries = append(entries, histEntry("s1", p, nil, base.Add(time.Duration(i)*time.Minute), i%2 == 0, time.Second))
	}
	intel, store := newIntelligence(nil, base.Add(time.Hour))
	for _, e := range entries {
		store.Append(e)
		intel.Observe(e)
	}

	exported, err := intel.Export("")
	require.NoError(t, err)

	fresh, _ := newIntelligence(nil, base.Add(time.Hour))
	require.NoError(t, fresh.Import(exported))

	again, err := fresh.Export("")
	require.NoError(t, err)
	if diff := cmp.Diff(string(exported), string(again)); diff != "" {
		t.Fatalf("round trip not identity (-first +second):\n%s", diff)
	}
}

func TestImportRejectsGarbage(t *testing.T) {
	intel, _ := newIntelligence(nil, time.Now())
	assert.Error(t, intel.Import([]byte("not json")))
}
