package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tbourn/go-lead-capture/internal/capi"
)

// newHashCmd prints the digest a value would carry in user_data, or null
// when it would be omitted. Handy for matching records by hand.
func newHashCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash [value]",
		Short: "Print the normalized SHA-256 digest of a contact value",
		Args:  cobra.MaximumNArgs(1),
		// No config needed.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			var v *string
			if len(args) == 1 {
				v = &args[0]
			}
			if d := capi.Hash(v); d != nil {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), *d)
				return err
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), "null")
			return err
		},
	}
}
