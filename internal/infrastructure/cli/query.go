package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/doeshing/termflow/internal/app"
	"github.com/doeshing/termflow/internal/domain"
	"github.com/doeshing/termflow/internal/services"
)

// queryOptions are the flags shared by the query subcommand and the
// root one-shot form "termflow <query>".
type queryOptions struct {
	dryRun  bool
	yes     bool
	timeout time.Duration
}

func (o *queryOptions) register(cmd *cobra.Command) {
	cmd.Flags().BoolVarP(&o.dryRun, "dry-run", "n", false, "Show what would run without executing")
	cmd.Flags().BoolVarP(&o.yes, "yes", "y", false, "Approve risky commands without prompting")
	cmd.Flags().DurationVar(&o.timeout, "timeout", 0, "Bound the whole pipeline run")
}

func newQueryCommand(container *app.Container) *cobra.Command {
	var opts queryOptions

	cmd := &cobra.Command{
		Use:   "query [natural language]",
		Short: "Interpret and run a natural-language command",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, container, opts, args)
		},
	}
	opts.register(cmd)
	return cmd
}

// runQuery drives the full pipeline for one query. It is called directly by
// both the query subcommand and the root command so the one-shot form never
// re-enters cobra's dispatch.
func runQuery(cmd *cobra.Command, container *app.Container, opts queryOptions, args []string) error {
	ctx := cmd.Context()
	if opts.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.timeout)
		defer cancel()
	}

	query := strings.Join(args, " ")
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}

	prefs := container.Config.Preferences
	prefs.DryRun = prefs.DryRun || opts.dryRun

	session := container.Orchestrator.CreateSession(cwd, nil, prefs)
	defer func() { _ = container.Orchestrator.DestroySession(session.ID) }()

	recent := commandLines(container.History.Recent("", 0))
	pctx := container.Collector.Collect(ctx, session, recent)
	parsed := container.Interpreter.Parse(ctx, query, pctx)
	renderParsed(cmd.OutOrStdout(), parsed)
	if parsed.Confidence == 0 || len(parsed.Commands) == 0 {
		return fmt.Errorf("could not interpret query")
	}

	approvals, err := container.Orchestrator.Approvals(session.ID)
	if err != nil {
		return err
	}
	go answerApprovals(ctx, container, approvals, opts.yes)

	results, err := container.Orchestrator.Submit(ctx, session.ID, parsed, services.SubmitOptions{})
	renderResults(cmd.OutOrStdout(), results, container.History.Entries(session.ID))
	return err
}

// answerApprovals services the session's approval channel. Without a TTY
// and without --yes every risky command is rejected outright rather than
// left to time out.
func answerApprovals(ctx context.Context, container *app.Container, approvals <-chan domain.ApprovalRequest, autoApprove bool) {
	prompter := NewPrompter(nil, nil)
	for {
		select {
		case <-ctx.Done():
			return
		case req, ok := <-approvals:
			if !ok {
				return
			}
			approved := autoApprove
			if !approved && prompter.Enabled() {
				answer, err := prompter.Confirm(req)
				approved = err == nil && answer
			}
			_ = container.Orchestrator.RespondApproval(req.SessionID, req.CommandID, approved)
		}
	}
}

func commandLines(entries []domain.HistoryEntry) []string {
	out := make([]string, len(entries))
	for i, entry := range entries {
		out[i] = entry.CommandLine()
	}
	return out
}
