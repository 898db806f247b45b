package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/nixplan/internal/app"
)

func (c *CLI) newGenerateCmd() *cobra.Command {
	var opts app.GenerateOptions

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate the build plan from the lockfile snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.app.Generate(cmd.Context(), c.directory(), opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.Stdout, "stdout", "s", false, "Write the plan to standard output instead of a file")
	cmd.Flags().StringVarP(&opts.File, "file", "f", "", "Plan output path (default from nixplan.yaml)")
	cmd.Flags().BoolVar(&opts.Force, "force", false, "Overwrite an existing plan without asking")

	return cmd
}
