package interpreter

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	shellwords "github.com/mattn/go-shellwords"
	"gopkg.in/yaml.v3"

	"github.com/doeshing/termflow/internal/domain"
	"github.com/doeshing/termflow/internal/pkg/filesystem"
)

// GeneratorFunc expands regex captures and context into concrete commands.
type GeneratorFunc func(matches []string, pctx domain.PromptContext) []domain.Command

// Rule is one entry in the priority-ordered pattern library. Rules
// short-circuit: the first match wins, later rules are never evaluated.
type Rule struct {
	ID       string
	Pattern  *regexp.Regexp
	Risk     domain.RiskLevel
	Category domain.CommandCategory
	Generate GeneratorFunc
}

// RuleDocument is the YAML schema for externally loadable rules. Command
// templates expand $1..$n to regex captures and are split shell-style.
type RuleDocument struct {
	Rules []RuleSpec `yaml:"rules"`
}

// RuleSpec is one declarative rule.
type RuleSpec struct {
	ID       string `yaml:"id"`
	Pattern  string `yaml:"pattern"`
	Risk     string `yaml:"risk"`
	Category string `yaml:"category"`
	Command  string `yaml:"command"`
}

// LoadRules reads a rule file, compiling each entry. A missing file yields
// the built-in library.
func LoadRules(path string) ([]Rule, error) {
	path = expandRulesPath(path)
	data, err := os.ReadFile(path)
	if err != nil {
		return DefaultRules(), nil
	}
	var doc RuleDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if len(doc.Rules) == 0 {
		return DefaultRules(), nil
	}
	rules := make([]Rule, 0, len(doc.Rules))
	for _, spec := range doc.Rules {
		rule, err := compileRuleSpec(spec)
		if err != nil {
			return nil, fmt.Errorf("rule %s: %w", spec.ID, err)
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

func compileRuleSpec(spec RuleSpec) (Rule, error) {
	re, err := regexp.Compile(spec.Pattern)
	if err != nil {
		return Rule{}, err
	}
	risk := domain.ParseRiskLevel(spec.Risk, domain.RiskSafe)
	category := domain.CommandCategory(spec.Category)
	if category == "" {
		category = domain.CategoryCustom
	}
	template := spec.Command
	return Rule{
		ID:       spec.ID,
		Pattern:  re,
		Risk:     risk,
		Category: category,
		Generate: templateGenerator(template, risk, category),
	}, nil
}

// templateGenerator builds commands from a shell-style template with $n
// capture placeholders.
func templateGenerator(template string, risk domain.RiskLevel, category domain.CommandCategory) GeneratorFunc {
	return func(matches []string, pctx domain.PromptContext) []domain.Command {
		line := template
		for i := len(matches) - 1; i >= 1; i-- {
			line = strings.ReplaceAll(line, fmt.Sprintf("$%d", i), matches[i])
		}
		tokens, err := shellwords.Parse(line)
		if err != nil || len(tokens) == 0 {
			return nil
		}
		return []domain.Command{newCommand(tokens[0], tokens[1:], risk, category, pctx)}
	}
}

func newCommand(program string, args []string, risk domain.RiskLevel, category domain.CommandCategory, pctx domain.PromptContext) domain.Command {
	if args == nil {
		args = []string{}
	}
	return domain.Command{
		Program:    program,
		Args:       args,
		WorkingDir: pctx.WorkingDir,
		Category:   category,
		Risk:       risk,
	}
}

// DefaultRules is the built-in pattern library, most specific first.
func DefaultRules() []Rule {
	simple := func(id, pattern string, risk domain.RiskLevel, category domain.CommandCategory, program string, args ...string) Rule {
		return Rule{
			ID:       id,
			Pattern:  regexp.MustCompile(pattern),
			Risk:     risk,
			Category: category,
			Generate: func(matches []string, pctx domain.PromptContext) []domain.Command {
				return []domain.Command{newCommand(program, args, risk, category, pctx)}
			},
		}
	}

	return []Rule{
		simple("recent-branches", `(?i)\b(show|list)\s+(me\s+)?(recent|latest)\s+branch(es)?\b`,
			domain.RiskSafe, domain.CategoryGit, "git", "branch", "--sort=-committerdate", "-a"),
		simple("git-status", `(?i)\b(git\s+status|what('| ha)s changed|current changes)\b`,
			domain.RiskSafe, domain.CategoryGit, "git", "status"),
		{
			ID:       "git-commit-all",
			Pattern:  regexp.MustCompile(`(?i)\bcommit\s+(all\s+)?(my\s+)?changes(\s+with\s+message\s+(.+))?$`),
			Risk:     domain.RiskMedium,
			Category: domain.CategoryGit,
			Generate: func(matches []string, pctx domain.PromptContext) []domain.Command {
				message := strings.TrimSpace(matches[4])
				if message == "" {
					message = "work in progress"
				}
				message = strings.Trim(message, `"'`)
				return []domain.Command{
					newCommand("git", []string{"add", "-A"}, domain.RiskLow, domain.CategoryGit, pctx),
					newCommand("git", []string{"commit", "-m", message}, domain.RiskMedium, domain.CategoryGit, pctx),
				}
			},
		},
		simple("list-files", `(?i)\b(list|show)\s+(all\s+)?(the\s+)?files\b`,
			domain.RiskSafe, domain.CategoryFileManagement, "ls", "-la"),
		simple("disk-usage", `(?i)\b(disk|storage)\s+(usage|space)|how much (disk|space)\b`,
			domain.RiskSafe, domain.CategorySystem, "df", "-h"),
		{
			ID:       "find-file",
			Pattern:  regexp.MustCompile(`(?i)\bfind\s+(a\s+)?file\s+(named|called)\s+(\S+)`),
			Risk:     domain.RiskSafe,
			Category: domain.CategoryFileManagement,
			Generate: func(matches []string, pctx domain.PromptContext) []domain.Command {
				return []domain.Command{newCommand("find", []string{".", "-name", matches[3]},
					domain.RiskSafe, domain.CategoryFileManagement, pctx)}
			},
		},
		simple("processes", `(?i)\b(show|list)\s+(running\s+)?processes\b`,
			domain.RiskSafe, domain.CategorySystem, "ps", "aux"),
		simple("listening-ports", `(?i)\b(open|listening)\s+ports\b`,
			domain.RiskSafe, domain.CategoryNetwork, "ss", "-tlnp"),
		simple("containers", `(?i)\b(show|list)\s+(running\s+)?containers\b`,
			domain.RiskSafe, domain.CategorySystem, "docker", "ps"),
		{
			ID:       "install-deps",
			Pattern:  regexp.MustCompile(`(?i)\binstall\s+(the\s+)?(dependencies|deps|packages)\b`),
			Risk:     domain.RiskMedium,
			Category: domain.CategoryPackageManagement,
			Generate: func(matches []string, pctx domain.PromptContext) []domain.Command {
				program, args := installCommandFor(pctx)
				return []domain.Command{newCommand(program, args,
					domain.RiskMedium, domain.CategoryPackageManagement, pctx)}
			},
		},
		{
			ID:       "delete-path",
			Pattern:  regexp.MustCompile(`(?i)^(delete|remove)\s+(.+)$`),
			Risk:     domain.RiskHigh,
			Category: domain.CategoryFileManagement,
			Generate: func(matches []string, pctx domain.PromptContext) []domain.Command {
				target := strings.TrimSpace(matches[2])
				return []domain.Command{newCommand("rm", []string{"-rf", target},
					domain.RiskHigh, domain.CategoryFileManagement, pctx)}
			},
		},
	}
}

// installCommandFor picks the dependency install command for the detected
// package manager, defaulting to npm.
func installCommandFor(pctx domain.PromptContext) (string, []string) {
	switch pctx.PackageManager {
	case "yarn":
		return "yarn", []string{"install"}
	case "pnpm":
		return "pnpm", []string{"install"}
	case "go":
		return "go", []string{"mod", "download"}
	case "cargo":
		return "cargo", []string{"fetch"}
	case "pip":
		return "pip", []string{"install", "-r", "requirements.txt"}
	default:
		return "npm", []string{"install"}
	}
}

func expandRulesPath(path string) string {
	if path == "" {
		return filepath.Join(filesystem.UserHomeDir(), ".termflow", "rules.yaml")
	}
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(filesystem.UserHomeDir(), path[2:])
	}
	return filepath.Join(filesystem.UserHomeDir(), path)
}
