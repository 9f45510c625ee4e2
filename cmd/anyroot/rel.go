package main

import (
	"fmt"

	"github.com/anyroot/anyroot/internal/relpath"
	"github.com/spf13/cobra"
)

func newRelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rel SOURCE TARGET",
		Short: "Print the relative path from SOURCE's directory to TARGET",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), relpath.Relative(args[0], args[1]))
			return err
		},
	}
}
