package domain

import "strings"

// RiskLevel classifies how dangerous a command is. Levels form a total
// order safe < low < medium < high < critical.
type RiskLevel string

const (
	RiskSafe     RiskLevel = "safe"
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

var riskOrder = map[RiskLevel]int{
	RiskSafe:     0,
	RiskLow:      1,
	RiskMedium:   2,
	RiskHigh:     3,
	RiskCritical: 4,
}

// Severity returns the position of the level in the total order.
// Unknown levels rank below safe so they never escalate anything.
func (r RiskLevel) Severity() int {
	if v, ok := riskOrder[r]; ok {
		return v
	}
	return -1
}

// Valid reports whether r is one of the five known levels.
func (r RiskLevel) Valid() bool {
	_, ok := riskOrder[r]
	return ok
}

// MaxRisk returns the more severe of a and b.
func MaxRisk(a, b RiskLevel) RiskLevel {
	if b.Severity() > a.Severity() {
		return b
	}
	return a
}

// ParseRiskLevel maps a string to a RiskLevel, returning fallback when the
// value is empty or not a known level.
func ParseRiskLevel(value string, fallback RiskLevel) RiskLevel {
	level := RiskLevel(strings.ToLower(strings.TrimSpace(value)))
	if level.Valid() {
		return level
	}
	return fallback
}

// ViolationSeverity grades a single policy violation.
type ViolationSeverity string

const (
	SeverityLow      ViolationSeverity = "low"
	SeverityMedium   ViolationSeverity = "medium"
	SeverityHigh     ViolationSeverity = "high"
	SeverityCritical ViolationSeverity = "critical"
)
