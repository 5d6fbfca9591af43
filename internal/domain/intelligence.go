package domain

import "time"

// CommandPattern is a recurring fixed-length command subsequence mined
// from history. Patterns with Frequency < 2 are never surfaced.
type CommandPattern struct {
	Commands    []string      `json:"commands"`
	Frequency   int           `json:"frequency"`
	SuccessRate float64       `json:"success_rate"`
	AvgDuration time.Duration `json:"avg_duration"`
	Context     string        `json:"context,omitempty"`
}

// WorkflowPattern is a recurring time-proximate group of commands treated
// as one logical task.
type WorkflowPattern struct {
	Steps       []string      `json:"steps"`
	Frequency   int           `json:"frequency"`
	SuccessRate float64       `json:"success_rate"`
	AvgDuration time.Duration `json:"avg_duration"`
	Context     string        `json:"context,omitempty"`
}

// TrendPeriod is a bucketing granularity for usage trends.
type TrendPeriod string

const (
	TrendHourly  TrendPeriod = "hour"
	TrendDaily   TrendPeriod = "day"
	TrendWeekly  TrendPeriod = "week"
	TrendMonthly TrendPeriod = "month"
)

// UsageTrend describes how often one command type was used in the most
// recent period, how that compares to the period before, and a naive
// linear extrapolation for the next one.
type UsageTrend struct {
	Period      TrendPeriod `json:"period"`
	CommandType string      `json:"command_type"`
	Count       int         `json:"count"`
	ChangePct   float64     `json:"change_pct"`
	Prediction  float64     `json:"prediction"`
}

// HistoryAnalysis is the output of one mining pass over the history log.
type HistoryAnalysis struct {
	SessionID    string            `json:"session_id,omitempty"`
	TotalEntries int               `json:"total_entries"`
	Patterns     []CommandPattern  `json:"patterns,omitempty"`
	Workflows    []WorkflowPattern `json:"workflows,omitempty"`
	Trends       []UsageTrend      `json:"trends,omitempty"`
	GeneratedAt  time.Time         `json:"generated_at"`
}

// LearningData accumulates per-user preference signal from execution
// outcomes.
type LearningData struct {
	PreferredCommands         map[string]float64 `json:"preferred_commands"`
	AvoidedCommands           []string           `json:"avoided_commands,omitempty"`
	FailureCounts             map[string]int     `json:"failure_counts,omitempty"`
	OptimizationOpportunities []string           `json:"optimization_opportunities,omitempty"`
}

// SuggestionKind labels which generator produced a suggestion.
type SuggestionKind string

const (
	SuggestionPattern      SuggestionKind = "pattern"
	SuggestionWorkflow     SuggestionKind = "workflow"
	SuggestionOptimization SuggestionKind = "optimization"
	SuggestionLearning     SuggestionKind = "learning"
)

// IntelligentSuggestion is one ranked suggestion surfaced to the UI or
// back into the interpreter.
type IntelligentSuggestion struct {
	Kind        SuggestionKind `json:"kind"`
	Command     string         `json:"command,omitempty"`
	Description string         `json:"description"`
	Priority    int            `json:"priority"`
	Confidence  float64        `json:"confidence"`
	Reasoning   string         `json:"reasoning,omitempty"`
}

// SuggestionContext carries what the caller knows about the user's current
// situation when asking for suggestions.
type SuggestionContext struct {
	SessionID      string   `json:"session_id,omitempty"`
	WorkingDir     string   `json:"working_dir,omitempty"`
	RecentCommands []string `json:"recent_commands,omitempty"`
}
