package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewDevicesCmd returns the command listing audio input devices.
func NewDevicesCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List audio input devices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			devices, err := deps.Devices()
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if len(devices) == 0 {
				fmt.Fprintln(w, "No input devices found")
				return nil
			}
			for _, d := range devices {
				mark := " "
				if d.Default {
					mark = "*"
				}
				fmt.Fprintf(w, "%s %s (%s, %d ch, %.0f Hz)\n", mark, d.Name, d.HostAPI, d.MaxInputChannels, d.DefaultSampleRate)
			}
			return nil
		},
	}
}
