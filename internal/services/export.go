package services

import (
	"encoding/json"
	"fmt"

	"github.com/doeshing/termflow/internal/domain"
	"github.com/doeshing/termflow/internal/ports"
)

// historyEnvelope is the portable history format. Patterns and workflows
// are included for inspection but rebuilt from the entries on import, so a
// round trip through Export and Import preserves all state.
type historyEnvelope struct {
	Entries   []domain.HistoryEntry    `json:"entries"`
	Patterns  []domain.CommandPattern  `json:"patterns,omitempty"`
	Workflows []domain.WorkflowPattern `json:"workflows,omitempty"`
	Learning  domain.LearningData      `json:"learning"`
}

// Export implements ports.HistoryExporter. An empty sessionID exports the
// whole log.
func (i *Intelligence) Export(sessionID string) ([]byte, error) {
	analysis := i.AnalyzeHistory(sessionID)
	env := historyEnvelope{
		Entries:   i.store.Entries(sessionID),
		Patterns:  analysis.Patterns,
		Workflows: analysis.Workflows,
		Learning:  i.Learning(),
	}
	data, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode history export: %w", err)
	}
	return data, nil
}

// Import replaces the history log and learning state with the envelope's
// contents and rebuilds derived analysis.
func (i *Intelligence) Import(data []byte) error {
	var env historyEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("decode history import: %w", err)
	}
	i.store.Replace(env.Entries)

	i.mu.Lock()
	i.cache = map[string]domain.HistoryAnalysis{}
	i.learning = env.Learning
	if i.learning.PreferredCommands == nil {
		i.learning.PreferredCommands = map[string]float64{}
	}
	if i.learning.FailureCounts == nil {
		i.learning.FailureCounts = map[string]int{}
	}
	i.mu.Unlock()
	return nil
}

var _ ports.HistoryExporter = (*Intelligence)(nil)
