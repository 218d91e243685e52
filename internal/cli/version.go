package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/SebastianScherer88/graphit/pkg/buildinfo"
	"github.com/SebastianScherer88/graphit/pkg/render"
)

// versionCommand creates the version command.
func (c *CLI) versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version and renderer availability",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), buildinfo.String())
			if render.Available() {
				fmt.Fprintln(cmd.OutOrStdout(), "png/pdf: rsvg-convert found")
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "png/pdf: rsvg-convert not found, only svg and dot output available")
			}
			return nil
		},
	}
}
