// Package interpreter turns free-text queries into ranked, risk-scored
// command candidates. A local pattern library is consulted first; the
// external completion service is only a fallback.
package interpreter

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/doeshing/termflow/internal/domain"
	"github.com/doeshing/termflow/internal/ports"
)

// Interpreter implements ports.Interpreter.
type Interpreter struct {
	rules      []Rule
	completion ports.CompletionService
	log        ports.Logger
}

// New builds an interpreter over the given rule library. completion may be
// nil, in which case unmatched queries resolve to zero confidence.
func New(rules []Rule, completion ports.CompletionService, log ports.Logger) *Interpreter {
	return &Interpreter{rules: rules, completion: completion, log: log}
}

// Parse never fails: every outcome is a ParsedCommand, and unparseable
// input carries its explanation in Warnings with zero confidence.
func (i *Interpreter) Parse(ctx context.Context, query string, pctx domain.PromptContext) domain.ParsedCommand {
	query = strings.TrimSpace(query)
	parsed := domain.ParsedCommand{
		ID:            uuid.NewString(),
		OriginalQuery: query,
		OverallRisk:   domain.RiskSafe,
	}
	if query == "" {
		parsed.Warnings = append(parsed.Warnings, "empty query")
		return parsed
	}

	// First match wins. Later rules are not evaluated even if they would
	// also match; suggestion ranking depends on this ordering.
	for _, rule := range i.rules {
		matches := rule.Pattern.FindStringSubmatch(query)
		if matches == nil {
			continue
		}
		commands := rule.Generate(matches, pctx)
		if len(commands) == 0 {
			continue
		}
		i.log.Debug("pattern rule matched", map[string]interface{}{
			"rule": rule.ID, "query": query,
		})
		return i.finalize(parsed, commands, domain.PatternConfidence)
	}

	return i.fallback(ctx, query, pctx, parsed)
}

func (i *Interpreter) finalize(parsed domain.ParsedCommand, commands []domain.Command, confidence float64) domain.ParsedCommand {
	for idx := range commands {
		if commands[idx].ID == "" {
			commands[idx].ID = uuid.NewString()
		}
		if commands[idx].Args == nil {
			commands[idx].Args = []string{}
		}
	}
	parsed.Commands = commands
	parsed.Confidence = clamp01(confidence)
	parsed.OverallRisk = domain.OverallRiskOf(commands)
	parsed.RequiresConfirmation = domain.NeedsConfirmation(commands)
	return parsed
}

// fallback delegates to the completion service and validates whatever
// comes back. Failures degrade to a zero-confidence result.
func (i *Interpreter) fallback(ctx context.Context, query string, pctx domain.PromptContext, parsed domain.ParsedCommand) domain.ParsedCommand {
	if i.completion == nil {
		parsed.Warnings = append(parsed.Warnings, "no pattern matched and no completion service configured")
		return parsed
	}

	prompt := buildPrompt(query, pctx)
	raw, err := i.completion.Complete(ctx, prompt, pctx)
	if err != nil {
		i.log.Warn("completion service failed", map[string]interface{}{"error": err.Error()})
		parsed.Warnings = append(parsed.Warnings, "completion service unavailable: "+err.Error())
		return parsed
	}

	commands, confidence, ok := parseCandidates(raw, pctx)
	if !ok {
		parsed.Warnings = append(parsed.Warnings, "unparsable completion response: "+strings.TrimSpace(raw))
		return parsed
	}
	return i.finalize(parsed, commands, confidence)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

var _ ports.Interpreter = (*Interpreter)(nil)
