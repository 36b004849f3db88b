package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/biasdo/syncclient/internal/version"
)

func newVersionCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.Format == "json" {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(version.Get())
			}
			fmt.Fprintln(cmd.OutOrStdout(), "syncclient", version.String())
			return nil
		},
	}
}
