// Package cli is the cobra command surface. Commands stay thin over the
// container; all behavior lives in the services and adapters.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/doeshing/termflow/internal/app"
)

// Options holds CLI-level configuration.
type Options struct {
	Verbose bool
}

// NewRootCmd builds the container and wires the cobra root command.
func NewRootCmd(ctx context.Context, opts Options) (*cobra.Command, error) {
	container, err := app.BuildContainer(ctx, opts.Verbose)
	if err != nil {
		return nil, err
	}
	return newRootCommand(container), nil
}

func newRootCommand(container *app.Container) *cobra.Command {
	var opts queryOptions

	root := &cobra.Command{
		Use:   "termflow [query]",
		Short: "termflow - natural language terminal commands",
		Long:  "termflow turns natural language into shell commands, validates them against a security policy, and learns from your history.",
		// Bare words at the root are a one-shot query, so anything goes.
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			return runQuery(cmd, container, opts, args)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return container.Close()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	opts.register(root)

	root.AddCommand(newQueryCommand(container))
	root.AddCommand(newHistoryCommand(container))
	root.AddCommand(newSuggestCommand(container))
	root.AddCommand(newPolicyCommand(container))
	root.AddCommand(newSessionsCommand(container))
	root.AddCommand(newAuditCommand(container))
	root.AddCommand(newVersionCommand())
	return root
}
