package domain

// AnalysisSeverity grades the overall tone of an output analysis.
type AnalysisSeverity string

const (
	AnalysisInfo    AnalysisSeverity = "info"
	AnalysisWarning AnalysisSeverity = "warning"
	AnalysisError   AnalysisSeverity = "error"
)

// OutputAnalysis is the analyzer's structured reading of raw process
// output. Analysis never fails harder than a generic summary.
type OutputAnalysis struct {
	Summary           string            `json:"summary"`
	ErrorDetected     bool              `json:"error_detected"`
	WarningsDetected  bool              `json:"warnings_detected"`
	SuccessIndicators []string          `json:"success_indicators,omitempty"`
	FailureIndicators []string          `json:"failure_indicators,omitempty"`
	ExtractedData     map[string]string `json:"extracted_data,omitempty"`
	Recommendations   []string          `json:"recommendations,omitempty"`
	FollowUpCommands  []string          `json:"follow_up_commands,omitempty"`
	Severity          AnalysisSeverity  `json:"severity"`
	Confidence        float64           `json:"confidence"`
}
