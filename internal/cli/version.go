package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/noneedrelax/VoiceStream/internal/version"
)

// NewVersionCmd returns the command printing build information.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.Full())
		},
	}
}
