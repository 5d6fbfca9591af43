package security

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/doeshing/termflow/internal/domain"
	"github.com/doeshing/termflow/internal/ports"
)

// validate runs every policy check and accumulates violations rather than
// short-circuiting, so callers always see the complete picture.
func (e *Executor) validate(cmd domain.Command, policy domain.SecurityPolicy) []domain.SecurityViolation {
	var violations []domain.SecurityViolation

	violations = append(violations, checkCommandLists(cmd, policy)...)
	violations = append(violations, checkElevation(cmd, policy)...)
	violations = append(violations, e.checkPaths(cmd, policy)...)
	violations = append(violations, e.checkDangerPatterns(cmd, policy)...)
	violations = append(violations, checkEnvironment(cmd, policy)...)

	return violations
}

func checkCommandLists(cmd domain.Command, policy domain.SecurityPolicy) []domain.SecurityViolation {
	var violations []domain.SecurityViolation
	program := filepath.Base(cmd.Program)

	if len(policy.AllowedCommands) > 0 && !containsString(policy.AllowedCommands, program) {
		violations = append(violations, domain.SecurityViolation{
			Type:           domain.ViolationCommandNotAllowed,
			Severity:       domain.SeverityMedium,
			Description:    fmt.Sprintf("command %q is not on the allow-list", program),
			Recommendation: "Use one of the allowed commands or extend the policy.",
		})
	}
	if containsString(policy.BlockedCommands, program) {
		violations = append(violations, domain.SecurityViolation{
			Type:           domain.ViolationBlockedCommand,
			Severity:       domain.SeverityHigh,
			Description:    fmt.Sprintf("command %q is blocked by policy", program),
			Recommendation: "Remove the command from the blocked list if this is intentional.",
		})
	}
	return violations
}

func checkElevation(cmd domain.Command, policy domain.SecurityPolicy) []domain.SecurityViolation {
	if policy.AllowElevation {
		return nil
	}
	program := filepath.Base(cmd.Program)
	if !elevationCommands[program] && !cmd.RequiresElevation {
		return nil
	}
	return []domain.SecurityViolation{{
		Type:           domain.ViolationElevationDenied,
		Severity:       domain.SeverityHigh,
		Description:    fmt.Sprintf("elevation via %q is not permitted by policy", program),
		Recommendation: "Run without elevation or enable allow_elevation.",
	}}
}

func (e *Executor) checkPaths(cmd domain.Command, policy domain.SecurityPolicy) []domain.SecurityViolation {
	var violations []domain.SecurityViolation
	for _, arg := range cmd.Args {
		if !e.paths.LooksLikePath(arg) {
			continue
		}
		for _, pattern := range policy.BlockedPaths {
			if e.paths.Matches(pattern, arg) {
				violations = append(violations, domain.SecurityViolation{
					Type:           domain.ViolationBlockedPath,
					Severity:       domain.SeverityHigh,
					Description:    fmt.Sprintf("path %q matches blocked pattern %q", arg, pattern),
					Recommendation: "Operate on a path outside the protected area.",
				})
			}
		}
		if len(policy.AllowedPaths) > 0 && !matchesAny(e.paths, policy.AllowedPaths, arg) {
			violations = append(violations, domain.SecurityViolation{
				Type:           domain.ViolationPathNotAllowed,
				Severity:       domain.SeverityMedium,
				Description:    fmt.Sprintf("path %q is outside the allowed paths", arg),
				Recommendation: "Stay inside the directories the policy allows.",
			})
		}
	}
	return violations
}

func (e *Executor) checkDangerPatterns(cmd domain.Command, policy domain.SecurityPolicy) []domain.SecurityViolation {
	var violations []domain.SecurityViolation
	compiled := e.compiledPatterns(policy.DangerPatterns)
	candidates := append([]string{cmd.String()}, cmd.Args...)
	for _, pattern := range compiled {
		for _, candidate := range candidates {
			if pattern.re.MatchString(candidate) {
				violations = append(violations, domain.SecurityViolation{
					Type:           domain.ViolationDangerousPattern,
					Severity:       parseSeverity(pattern.rule.Severity),
					Description:    pattern.rule.Description,
					Recommendation: pattern.rule.Recommendation,
				})
				break
			}
		}
	}
	return violations
}

func checkEnvironment(cmd domain.Command, policy domain.SecurityPolicy) []domain.SecurityViolation {
	var violations []domain.SecurityViolation
	for name := range cmd.Env {
		if containsString(policy.RestrictedEnv, name) {
			violations = append(violations, domain.SecurityViolation{
				Type:           domain.ViolationRestrictedEnv,
				Severity:       domain.SeverityMedium,
				Description:    fmt.Sprintf("environment variable %q is restricted", name),
				Recommendation: "Drop the variable or remove it from restricted_env.",
			})
		}
	}
	return violations
}

type compiledPattern struct {
	re   *regexp.Regexp
	rule domain.DangerPattern
}

// compiledPatterns caches regex compilation keyed by rule id+pattern.
// Invalid patterns are skipped rather than failing the whole pass.
func (e *Executor) compiledPatterns(rules []domain.DangerPattern) []compiledPattern {
	e.patternMu.Lock()
	defer e.patternMu.Unlock()
	out := make([]compiledPattern, 0, len(rules))
	for _, rule := range rules {
		key := rule.ID + "\x00" + rule.Pattern
		re, ok := e.patternCache[key]
		if !ok {
			var err error
			re, err = regexp.Compile(rule.Pattern)
			if err != nil {
				e.log.Warn("invalid danger pattern", map[string]interface{}{
					"id": rule.ID, "pattern": rule.Pattern,
				})
				continue
			}
			e.patternCache[key] = re
		}
		out = append(out, compiledPattern{re: re, rule: rule})
	}
	return out
}

func containsString(list []string, value string) bool {
	for _, item := range list {
		if item == value {
			return true
		}
	}
	return false
}

func matchesAny(checker ports.PathChecker, patterns []string, path string) bool {
	for _, pattern := range patterns {
		if checker.Matches(pattern, path) {
			return true
		}
	}
	return false
}

// GlobChecker is the production PathChecker: filepath globs plus a prefix
// rule for patterns without meta characters.
type GlobChecker struct{}

// Matches implements ports.PathChecker.
func (GlobChecker) Matches(pattern, path string) bool {
	if ok, err := filepath.Match(pattern, path); err == nil && ok {
		return true
	}
	if !strings.ContainsAny(pattern, "*?[") {
		return path == pattern || strings.HasPrefix(path, strings.TrimSuffix(pattern, "/")+"/")
	}
	return false
}

// LooksLikePath implements ports.PathChecker.
func (GlobChecker) LooksLikePath(arg string) bool {
	if arg == "" || strings.HasPrefix(arg, "-") {
		return false
	}
	return strings.HasPrefix(arg, "/") ||
		strings.HasPrefix(arg, "./") ||
		strings.HasPrefix(arg, "../") ||
		strings.HasPrefix(arg, "~") ||
		strings.Contains(arg, "/")
}

var _ ports.PathChecker = GlobChecker{}
