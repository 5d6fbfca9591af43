package analyzer

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/doeshing/termflow/internal/domain"
)

// matcher pairs a compiled pattern with the function that interprets its
// captures. Error and warning detectors carry the highest priorities so
// they dominate when present.
type matcher struct {
	id       string
	priority int
	re       *regexp.Regexp
	apply    func(groups []string, combined string, analysis *domain.OutputAnalysis)
}

func defaultMatchers() []matcher {
	return []matcher{
		{
			id:       "generic-error",
			priority: 100,
			re:       regexp.MustCompile(`(?im)^.*\b(error|fatal|failed|exception|panic)\b.*$`),
			apply: func(groups []string, combined string, a *domain.OutputAnalysis) {
				a.ErrorDetected = true
				a.Severity = domain.AnalysisError
				a.Summary = firstLineMatching(combined, groups[0])
				a.FailureIndicators = append(a.FailureIndicators, strings.TrimSpace(groups[0]))
				a.Recommendations = append(a.Recommendations, "Inspect the error line and re-run with more verbosity if needed.")
			},
		},
		{
			id:       "generic-warning",
			priority: 90,
			re:       regexp.MustCompile(`(?im)^.*\bwarn(ing)?\b.*$`),
			apply: func(groups []string, combined string, a *domain.OutputAnalysis) {
				a.WarningsDetected = true
				if a.Severity != domain.AnalysisError {
					a.Severity = domain.AnalysisWarning
				}
				a.Summary = "Completed with warnings"
			},
		},
		{
			id:       "git-clone",
			priority: 60,
			re:       regexp.MustCompile(`Cloning into '([^']+)'`),
			apply: func(groups []string, combined string, a *domain.OutputAnalysis) {
				a.Summary = fmt.Sprintf("Cloned repository into %s", groups[1])
				a.SuccessIndicators = append(a.SuccessIndicators, "repository cloned")
				setExtracted(a, "clone_dir", groups[1])
				a.FollowUpCommands = append(a.FollowUpCommands, "cd "+groups[1])
			},
		},
		{
			id:       "package-install",
			priority: 55,
			re:       regexp.MustCompile(`(?i)(added|installed|updated)\s+(\d+)\s+packages?`),
			apply: func(groups []string, combined string, a *domain.OutputAnalysis) {
				verb := strings.ToLower(groups[1])
				a.Summary = fmt.Sprintf("%s %s packages", strings.ToUpper(verb[:1])+verb[1:], groups[2])
				a.SuccessIndicators = append(a.SuccessIndicators, "packages installed")
				setExtracted(a, "package_count", groups[2])
			},
		},
		{
			id:       "grep-matches",
			priority: 50,
			re:       regexp.MustCompile(`(?m)^([^:\s][^:\n]*):(\d+):`),
			apply: func(groups []string, combined string, a *domain.OutputAnalysis) {
				files := map[string]bool{}
				re := regexp.MustCompile(`(?m)^([^:\s][^:\n]*):(\d+):`)
				for _, m := range re.FindAllStringSubmatch(combined, -1) {
					files[m[1]] = true
				}
				a.Summary = fmt.Sprintf("Matches found in %d file(s)", len(files))
				setExtracted(a, "matched_files", fmt.Sprintf("%d", len(files)))
			},
		},
		{
			id:       "process-listing",
			priority: 45,
			re:       regexp.MustCompile(`(?m)^\s*(USER|PID)\s+\S+`),
			apply: func(groups []string, combined string, a *domain.OutputAnalysis) {
				count := strings.Count(combined, "\n")
				a.Summary = fmt.Sprintf("Listed %d process(es)", count)
				setExtracted(a, "process_count", fmt.Sprintf("%d", count))
			},
		},
		{
			id:       "listening-socket",
			priority: 44,
			re:       regexp.MustCompile(`(?i)(listening on|LISTEN)`),
			apply: func(groups []string, combined string, a *domain.OutputAnalysis) {
				ports := regexp.MustCompile(`:(\d{2,5})\b`).FindAllStringSubmatch(combined, -1)
				seen := map[string]bool{}
				var list []string
				for _, p := range ports {
					if !seen[p[1]] {
						seen[p[1]] = true
						list = append(list, p[1])
					}
				}
				a.Summary = "Listening sockets detected"
				if len(list) > 0 {
					setExtracted(a, "ports", strings.Join(list, ","))
				}
			},
		},
		{
			id:       "build-success",
			priority: 40,
			re:       regexp.MustCompile(`(?i)(build (succeeded|successful|complete)|BUILD SUCCESS|compiled successfully)`),
			apply: func(groups []string, combined string, a *domain.OutputAnalysis) {
				a.Summary = "Build succeeded"
				a.SuccessIndicators = append(a.SuccessIndicators, "build succeeded")
			},
		},
	}
}

func setExtracted(a *domain.OutputAnalysis, key, value string) {
	if a.ExtractedData == nil {
		a.ExtractedData = map[string]string{}
	}
	a.ExtractedData[key] = value
}

func firstLineMatching(combined, fallback string) string {
	line := strings.TrimSpace(fallback)
	if idx := strings.IndexByte(line, '\n'); idx >= 0 {
		line = line[:idx]
	}
	if line == "" {
		return "Error detected in output"
	}
	return line
}
