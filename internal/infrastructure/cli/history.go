package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/doeshing/termflow/internal/app"
	"github.com/doeshing/termflow/internal/domain"
)

func newHistoryCommand(container *app.Container) *cobra.Command {
	var (
		limit  int
		search string
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List executed commands",
		RunE: func(cmd *cobra.Command, args []string) error {
			entries := container.History.Entries("")
			if search != "" {
				entries = filterEntries(entries, search)
			}
			if limit > 0 && len(entries) > limit {
				entries = entries[len(entries)-limit:]
			}
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no history")
				return nil
			}
			for _, entry := range entries {
				renderHistoryEntry(cmd.OutOrStdout(), entry)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", domain.DefaultRecentWindow, "Maximum entries to show")
	cmd.Flags().StringVar(&search, "search", "", "Only entries whose command or query contains this text")

	cmd.AddCommand(newHistoryExportCommand(container))
	cmd.AddCommand(newHistoryImportCommand(container))
	return cmd
}

func filterEntries(entries []domain.HistoryEntry, search string) []domain.HistoryEntry {
	needle := strings.ToLower(search)
	var out []domain.HistoryEntry
	for _, entry := range entries {
		if strings.Contains(strings.ToLower(entry.CommandLine()), needle) ||
			strings.Contains(strings.ToLower(entry.Query), needle) {
			out = append(out, entry)
		}
	}
	return out
}

func newHistoryExportCommand(container *app.Container) *cobra.Command {
	var session string
	cmd := &cobra.Command{
		Use:   "export [file]",
		Short: "Export history and learned state as JSON",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := container.Intelligence.Export(session)
			if err != nil {
				return err
			}
			if len(args) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return nil
			}
			return os.WriteFile(args[0], data, domain.SecureFilePermissions)
		},
	}
	cmd.Flags().StringVar(&session, "session", "", "Export a single session only")
	return cmd
}

func newHistoryImportCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Replace history and learned state from an export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			if err := container.Intelligence.Import(data); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d entries\n", container.History.Len())
			return nil
		},
	}
}
