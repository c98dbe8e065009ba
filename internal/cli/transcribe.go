package cli

import (
	"github.com/spf13/cobra"

	"github.com/noneedrelax/VoiceStream/internal/app"
)

// NewTranscribeCmd returns the command transcribing an existing WAV file.
func NewTranscribeCmd(deps *Dependencies) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "transcribe <file.wav>",
		Short: "Transcribe an existing WAV file",
		Long:  "Upload a PCM WAV file to the configured backend and print the text, or write it to --output.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := deps.Config()
			if err != nil {
				return err
			}
			ctx, stop := signalContext(cmd.Context())
			defer stop()
			return app.TranscribeFile(ctx, cfg, args[0], output, cmd.OutOrStdout(), deps.Loggers(cfg))
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "write the transcription to this file")

	return cmd
}
