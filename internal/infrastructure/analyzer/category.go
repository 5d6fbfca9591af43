package analyzer

import (
	"regexp"
	"strings"

	"github.com/doeshing/termflow/internal/domain"
	"github.com/doeshing/termflow/internal/ports"
)

// categoryAnalyzers layer domain knowledge on top of the generic matcher
// result when the originating command declares a category.
var categoryAnalyzers = map[domain.CommandCategory]func(combined string, req ports.AnalyzeRequest, a *domain.OutputAnalysis){
	domain.CategoryGit:               analyzeGit,
	domain.CategoryPackageManagement: analyzePackageManagement,
	domain.CategoryDevelopment:       analyzeDevelopment,
	domain.CategoryFileManagement:    analyzeFileManagement,
}

var gitBranchRe = regexp.MustCompile(`On branch (\S+)`)

func analyzeGit(combined string, req ports.AnalyzeRequest, a *domain.OutputAnalysis) {
	if m := gitBranchRe.FindStringSubmatch(combined); m != nil {
		setExtracted(a, "branch", m[1])
	}
	switch {
	case strings.Contains(combined, "nothing to commit"):
		a.SuccessIndicators = append(a.SuccessIndicators, "working tree clean")
	case strings.Contains(combined, "Changes not staged"):
		a.Recommendations = append(a.Recommendations, "Stage changes with git add before committing.")
		a.FollowUpCommands = append(a.FollowUpCommands, "git add -A")
	case strings.Contains(combined, "merge conflict"):
		a.WarningsDetected = true
		a.Recommendations = append(a.Recommendations, "Resolve conflicts, then git add and continue.")
	}
}

func analyzePackageManagement(combined string, req ports.AnalyzeRequest, a *domain.OutputAnalysis) {
	if strings.Contains(combined, "vulnerabilities") {
		a.WarningsDetected = true
		a.Recommendations = append(a.Recommendations, "Run the package manager's audit fix command.")
	}
	if strings.Contains(combined, "EACCES") || strings.Contains(combined, "permission denied") {
		a.Recommendations = append(a.Recommendations, "Check directory ownership; avoid running package installs with sudo.")
	}
}

var goTestFailRe = regexp.MustCompile(`(?m)^(FAIL|--- FAIL)`)

func analyzeDevelopment(combined string, req ports.AnalyzeRequest, a *domain.OutputAnalysis) {
	if goTestFailRe.MatchString(combined) {
		a.ErrorDetected = true
		a.Severity = domain.AnalysisError
		a.FailureIndicators = append(a.FailureIndicators, "test failures")
	} else if strings.Contains(combined, "ok  ") || strings.Contains(combined, "PASS") {
		a.SuccessIndicators = append(a.SuccessIndicators, "tests passed")
	}
}

func analyzeFileManagement(combined string, req ports.AnalyzeRequest, a *domain.OutputAnalysis) {
	if strings.Contains(combined, "No such file or directory") {
		a.ErrorDetected = true
		a.Severity = domain.AnalysisError
		a.Recommendations = append(a.Recommendations, "Verify the path exists before operating on it.")
	}
}
