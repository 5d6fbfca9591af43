package interpreter

import (
	"encoding/json"
	"fmt"
	"strings"

	shellwords "github.com/mattn/go-shellwords"

	"github.com/doeshing/termflow/internal/domain"
)

// buildPrompt assembles the context block sent with fallback completions.
func buildPrompt(query string, pctx domain.PromptContext) string {
	var b strings.Builder
	b.WriteString("Translate the user's request into shell commands.\n")
	b.WriteString("Respond with a JSON array of {\"command\", \"description\", \"confidence\", \"riskLevel\", \"category\"}.\n\n")
	fmt.Fprintf(&b, "Working directory: %s\n", pctx.WorkingDir)
	if pctx.OS != "" {
		fmt.Fprintf(&b, "Operating system: %s\n", pctx.OS)
	}
	if pctx.ProjectType != "" {
		fmt.Fprintf(&b, "Project type: %s\n", pctx.ProjectType)
	}
	if pctx.PackageManager != "" {
		fmt.Fprintf(&b, "Package manager: %s\n", pctx.PackageManager)
	}
	if pctx.GitBranch != "" {
		fmt.Fprintf(&b, "Git branch: %s (dirty: %v)\n", pctx.GitBranch, pctx.GitDirty)
	}
	if len(pctx.RecentCommands) > 0 {
		fmt.Fprintf(&b, "Recent commands: %s\n", strings.Join(pctx.RecentCommands, "; "))
	}
	fmt.Fprintf(&b, "\nRequest: %s\n", query)
	return b.String()
}

// candidate mirrors the JSON shape the completion service is asked for.
type candidate struct {
	Command     string  `json:"command"`
	Description string  `json:"description"`
	Confidence  float64 `json:"confidence"`
	RiskLevel   string  `json:"riskLevel"`
	Category    string  `json:"category"`
}

// parseCandidates validates and clamps a completion response. Candidates
// become a strictly ordered command sequence; the result confidence is the
// lowest clamped candidate confidence.
func parseCandidates(raw string, pctx domain.PromptContext) ([]domain.Command, float64, bool) {
	payload := stripCodeFence(raw)
	var candidates []candidate
	if err := json.Unmarshal([]byte(payload), &candidates); err != nil || len(candidates) == 0 {
		return nil, 0, false
	}

	confidence := 1.0
	var commands []domain.Command
	for _, c := range candidates {
		tokens, err := shellwords.Parse(c.Command)
		if err != nil || len(tokens) == 0 {
			continue
		}
		risk := domain.ParseRiskLevel(c.RiskLevel, domain.RiskMedium)
		category := domain.CommandCategory(c.Category)
		if category == "" {
			category = domain.CategoryCustom
		}
		cmd := newCommand(tokens[0], tokens[1:], risk, category, pctx)
		cmd.RequiresElevation = tokens[0] == "sudo"
		commands = append(commands, cmd)
		if clamped := clamp01(c.Confidence); clamped < confidence {
			confidence = clamped
		}
	}
	if len(commands) == 0 {
		return nil, 0, false
	}
	return commands, confidence, true
}

// stripCodeFence unwraps ```json fenced replies, a common completion habit.
func stripCodeFence(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```")
	if idx := strings.IndexByte(trimmed, '\n'); idx >= 0 {
		trimmed = trimmed[idx+1:]
	}
	if idx := strings.LastIndex(trimmed, "```"); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	return strings.TrimSpace(trimmed)
}
