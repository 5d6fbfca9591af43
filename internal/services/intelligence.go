package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/doeshing/termflow/internal/domain"
	"github.com/doeshing/termflow/internal/ports"
)

// historyLog is the store surface intelligence needs beyond the read-only
// port: snapshotting for export and wholesale replacement for import.
type historyLog interface {
	ports.HistoryStore
	Snapshot() []domain.HistoryEntry
	Replace([]domain.HistoryEntry)
}

// Intelligence mines the execution history for patterns, workflows,
// trends, and per-user preference signal, and turns them into ranked
// suggestions. It observes every appended entry and keeps its analysis
// caches fresh.
type Intelligence struct {
	store historyLog
	clock ports.Clock
	log   ports.Logger

	mu       sync.Mutex
	cache    map[string]domain.HistoryAnalysis
	learning domain.LearningData

	cancel context.CancelFunc
	group  *errgroup.Group
}

// NewIntelligence builds the service. Call Start to enable background
// refresh; without it everything still works on demand.
func NewIntelligence(store historyLog, clock ports.Clock, log ports.Logger) *Intelligence {
	return &Intelligence{
		store: store,
		clock: clock,
		log:   log,
		cache: map[string]domain.HistoryAnalysis{},
		learning: domain.LearningData{
			PreferredCommands: map[string]float64{},
			FailureCounts:     map[string]int{},
		},
	}
}

// Observe implements ports.HistoryObserver. Each new entry invalidates the
// cached analysis for its session and the global view, and updates the
// learning scores incrementally.
func (i *Intelligence) Observe(entry domain.HistoryEntry) {
	i.mu.Lock()
	defer i.mu.Unlock()
	delete(i.cache, entry.SessionID)
	delete(i.cache, "")
	i.applyOutcomeLocked(entry.CommandLine(), entry.Result.Success)
}

// AnalyzeHistory mines the log for one session, or the whole log when
// sessionID is empty. Results are cached until the next relevant append.
func (i *Intelligence) AnalyzeHistory(sessionID string) domain.HistoryAnalysis {
	i.mu.Lock()
	if cached, ok := i.cache[sessionID]; ok {
		i.mu.Unlock()
		return cached
	}
	i.mu.Unlock()

	entries := i.store.Entries(sessionID)
	analysis := domain.HistoryAnalysis{
		SessionID:    sessionID,
		TotalEntries: len(entries),
		Patterns:     minePatterns(entries),
		Workflows:    mineWorkflows(entries),
		Trends:       mineTrends(entries, i.clock.Now()),
		GeneratedAt:  i.clock.Now(),
	}

	i.mu.Lock()
	i.cache[sessionID] = analysis
	i.mu.Unlock()
	return analysis
}

// Learning returns a copy of the accumulated learning data.
func (i *Intelligence) Learning() domain.LearningData {
	i.mu.Lock()
	defer i.mu.Unlock()
	out := domain.LearningData{
		PreferredCommands:         make(map[string]float64, len(i.learning.PreferredCommands)),
		FailureCounts:             make(map[string]int, len(i.learning.FailureCounts)),
		AvoidedCommands:           append([]string(nil), i.learning.AvoidedCommands...),
		OptimizationOpportunities: append([]string(nil), i.learning.OptimizationOpportunities...),
	}
	for k, v := range i.learning.PreferredCommands {
		out.PreferredCommands[k] = v
	}
	for k, v := range i.learning.FailureCounts {
		out.FailureCounts[k] = v
	}
	return out
}

// applyOutcomeLocked adjusts the preference score for one command line.
// Success adds a full point, failure takes half a point, and scores never
// go below zero. Three cumulative failures move the command to the avoid
// list.
func (i *Intelligence) applyOutcomeLocked(commandLine string, success bool) {
	if success {
		i.learning.PreferredCommands[commandLine] += domain.SuccessScoreDelta
		return
	}
	score := i.learning.PreferredCommands[commandLine] - domain.FailureScoreDelta
	if score < 0 {
		score = 0
	}
	i.learning.PreferredCommands[commandLine] = score
	i.learning.FailureCounts[commandLine]++
	if i.learning.FailureCounts[commandLine] == domain.AvoidAfterFailures {
		i.learning.AvoidedCommands = append(i.learning.AvoidedCommands, commandLine)
		sort.Strings(i.learning.AvoidedCommands)
	}
}

// rebuildLearning recomputes all learning state from the current log
// snapshot. Used by the periodic refresh and by import.
func (i *Intelligence) rebuildLearning() {
	entries := i.store.Snapshot()

	i.mu.Lock()
	i.learning = domain.LearningData{
		PreferredCommands: map[string]float64{},
		FailureCounts:     map[string]int{},
	}
	for _, entry := range entries {
		i.applyOutcomeLocked(entry.CommandLine(), entry.Result.Success)
	}
	i.mu.Unlock()

	opportunities := aliasOpportunities(minePatterns(entries))
	i.mu.Lock()
	i.learning.OptimizationOpportunities = opportunities
	i.mu.Unlock()
}

// Start launches the background refresh loops: patterns are re-mined
// hourly and learning data is rebuilt every thirty minutes. Close stops
// both.
func (i *Intelligence) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	i.cancel = cancel
	group, gctx := errgroup.WithContext(ctx)
	i.group = group

	group.Go(func() error {
		ticker := time.NewTicker(domain.PatternRefreshInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				i.mu.Lock()
				i.cache = map[string]domain.HistoryAnalysis{}
				i.mu.Unlock()
				i.AnalyzeHistory("")
				i.log.Debug("background pattern refresh complete", nil)
			}
		}
	})
	group.Go(func() error {
		ticker := time.NewTicker(domain.LearningRefreshInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				i.rebuildLearning()
				i.log.Debug("background learning refresh complete", nil)
			}
		}
	})
}

// Close stops the background loops and waits for them to exit.
func (i *Intelligence) Close() error {
	if i.cancel != nil {
		i.cancel()
	}
	if i.group != nil {
		return i.group.Wait()
	}
	return nil
}

var _ ports.HistoryObserver = (*Intelligence)(nil)
