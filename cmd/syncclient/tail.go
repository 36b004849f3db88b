package main

import (
	"github.com/spf13/cobra"
)

func newTailCommand(rootOpts *rootOptions) *cobra.Command {
	opts := &runOptions{rootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Run the replica and print every applied event",
		Long: `Like run, and additionally print each change event after it has been
applied to the replica, one per line.

Example:
  syncclient tail --format json | jq .type`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClient(cmd, opts, printEvent(cmd.OutOrStdout(), opts.Format))
		},
	}
	addSelectionFlags(cmd, opts)

	return cmd
}
