package cli

import (
	"github.com/spf13/cobra"

	"github.com/GriffinCanCode/bugfinder/internal/providers/tips"
)

func newTipsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "tips",
		Short: "List debugging tips",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return renderTips(cmd.OutOrStdout(), tips.Default().All())
		},
	}
}
