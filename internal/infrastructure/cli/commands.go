package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/doeshing/termflow/internal/app"
	"github.com/doeshing/termflow/internal/domain"
)

func newSuggestCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "suggest",
		Short: "Suggest commands based on your history",
		RunE: func(cmd *cobra.Command, args []string) error {
			cwd, _ := os.Getwd()
			suggestions := container.Intelligence.Suggest(domain.SuggestionContext{
				WorkingDir:     cwd,
				RecentCommands: commandLines(container.History.Recent("", 0)),
			})
			if len(suggestions) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "nothing to suggest yet, run some commands first")
				return nil
			}
			for _, s := range suggestions {
				if s.Command != "" {
					fmt.Fprintf(cmd.OutOrStdout(), "[%s] %s\n        %s\n", s.Kind, s.Command, s.Description)
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "[%s] %s\n", s.Kind, s.Description)
				}
				if s.Reasoning != "" {
					fmt.Fprintf(cmd.OutOrStdout(), "        %s\n", s.Reasoning)
				}
			}
			return nil
		},
	}
}

func newPolicyCommand(container *app.Container) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "policy",
		Short: "Inspect the security policy",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective policy as YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := yaml.Marshal(container.Executor.Policy())
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), string(raw))
			return nil
		},
	})
	return cmd
}

func newSessionsCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "sessions",
		Short: "List live sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			sessions := container.Orchestrator.Sessions()
			if len(sessions) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no live sessions")
				return nil
			}
			for _, s := range sessions {
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  %s  last active %s\n",
					s.ID, s.Status, s.WorkingDir, s.LastActivity.Format("15:04:05"))
			}
			return nil
		},
	}
}

func newAuditCommand(container *app.Container) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "List the execution audit log",
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := container.Audit.Records(limit)
			if err != nil {
				return err
			}
			if len(records) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "audit log is empty")
				return nil
			}
			for _, rec := range records {
				status := fmt.Sprintf("exit %d", rec.ExitCode)
				if rec.Refused {
					status = "refused"
				}
				line := rec.Program
				for _, arg := range rec.Args {
					line += " " + arg
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %-40s [%s]\n",
					rec.Timestamp.Format("2006-01-02 15:04:05"), line, status)
				for _, v := range rec.Violations {
					fmt.Fprintf(cmd.OutOrStdout(), "%19s %s: %s\n", "", v.Type, v.Description)
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum records to show")
	return cmd
}

// version is set at build time via -ldflags.
var version = "dev"

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the termflow version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "termflow", version)
		},
	}
}
