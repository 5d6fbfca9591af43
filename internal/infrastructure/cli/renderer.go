package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/doeshing/termflow/internal/domain"
)

func renderParsed(out io.Writer, parsed domain.ParsedCommand) {
	for _, warning := range parsed.Warnings {
		fmt.Fprintf(out, "warning: %s\n", warning)
	}
	if len(parsed.Commands) == 0 {
		return
	}
	fmt.Fprintf(out, "interpreted (%.0f%% confidence, %s risk):\n", parsed.Confidence*100, parsed.OverallRisk)
	for i, cmd := range parsed.Commands {
		fmt.Fprintf(out, "  %d. %s\n", i+1, cmd.String())
	}
}

func renderResults(out io.Writer, results []domain.ExecutionResult, entries []domain.HistoryEntry) {
	analyses := map[string]*domain.OutputAnalysis{}
	for _, entry := range entries {
		if entry.Analysis != nil {
			analyses[entry.Result.CommandID] = entry.Analysis
		}
	}

	for _, result := range results {
		renderResult(out, result, analyses[result.CommandID])
	}
}

func renderResult(out io.Writer, result domain.ExecutionResult, analysis *domain.OutputAnalysis) {
	if result.DryRun {
		fmt.Fprintln(out, result.DryRunNote)
		return
	}

	if result.Stdout != "" {
		fmt.Fprint(out, result.Stdout)
		if !strings.HasSuffix(result.Stdout, "\n") {
			fmt.Fprintln(out)
		}
	}
	if result.Stderr != "" {
		fmt.Fprint(out, result.Stderr)
		if !strings.HasSuffix(result.Stderr, "\n") {
			fmt.Fprintln(out)
		}
	}

	status := "ok"
	if !result.Success {
		status = fmt.Sprintf("exit %d", result.ExitCode)
		if result.Killed {
			status += " (killed"
			if result.Signal != "" {
				status += " by " + result.Signal
			}
			status += ")"
		}
	}
	fmt.Fprintf(out, "[%s in %s]\n", status, result.Duration.Round(time.Millisecond))

	for _, v := range result.Violations {
		fmt.Fprintf(out, "violation: %s (%s)\n", v.Description, v.Type)
	}
	if analysis == nil {
		return
	}
	if analysis.Summary != "" {
		fmt.Fprintf(out, "summary: %s\n", analysis.Summary)
	}
	for _, rec := range analysis.Recommendations {
		fmt.Fprintf(out, "hint: %s\n", rec)
	}
	for _, follow := range analysis.FollowUpCommands {
		fmt.Fprintf(out, "next: %s\n", follow)
	}
}

func renderHistoryEntry(out io.Writer, entry domain.HistoryEntry) {
	status := "ok"
	if !entry.Result.Success {
		status = fmt.Sprintf("exit %d", entry.Result.ExitCode)
	}
	fmt.Fprintf(out, "%s  %-40s [%s] %s\n",
		entry.Timestamp.Format("2006-01-02 15:04:05"),
		entry.CommandLine(),
		status,
		humanize.Time(entry.Timestamp),
	)
	if entry.Query != "" {
		fmt.Fprintf(out, "%19s from: %q\n", "", entry.Query)
	}
}
