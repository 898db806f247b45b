package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.trai.ch/nixplan/internal/app"
)

func (c *CLI) newBuildCmd() *cobra.Command {
	var opts app.BuildOptions

	cmd := &cobra.Command{
		Use:   "build <member>",
		Short: "Build one workspace member from the generated plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			storePath, err := c.app.Build(cmd.Context(), c.directory(), args[0], opts)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), storePath)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.System, "system", "", "Target system double, e.g. x86_64-linux (default: current platform)")
	cmd.Flags().StringVar(&opts.Channel, "channel", "", "Registry channel (default from nixplan.yaml)")
	cmd.Flags().StringVar(&opts.Plan, "plan", "", "Plan file to build from (default from nixplan.yaml)")

	return cmd
}
