package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aayushdutt/mcinstall/internal/cli"
	"github.com/aayushdutt/mcinstall/internal/install"
)

// NewVerifyCommand checks an installed version without downloading
func NewVerifyCommand(a *cli.App) *cobra.Command {
	var tui bool

	verifyCmd := &cobra.Command{
		Use:   "verify <version>",
		Short: "Check an installed version's files against their digests",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := install.Request{VersionID: args[0], VerifyOnly: true}
			result, err := runTask(cmd.Context(), a, req, tui)
			if err != nil {
				return err
			}

			for _, p := range result.Problems {
				fmt.Fprintf(a.Out, "%-12s %-20s %s\n", p.Stage, p.Kind, p.Path)
			}
			fmt.Fprintln(a.Out, result.Summary())
			if n := len(result.Problems); n > 0 {
				return fmt.Errorf("%d file(s) failed verification; run install to repair", n)
			}
			return nil
		},
	}

	verifyCmd.Flags().BoolVar(&tui, "tui", false, "show an interactive progress view")
	return verifyCmd
}
