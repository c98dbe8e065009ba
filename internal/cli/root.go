package cli

import (
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/noneedrelax/VoiceStream/internal/app"
	"github.com/noneedrelax/VoiceStream/internal/config"
	"github.com/noneedrelax/VoiceStream/internal/record"
	"github.com/noneedrelax/VoiceStream/internal/version"
)

// Dependencies are shared by every subcommand.
type Dependencies struct {
	Flags  *pflag.FlagSet
	Values *config.FlagValues
	// Lookup reads environment variables.
	Lookup func(string) (string, bool)
	// DotEnv lists .env files loaded before the environment is read.
	DotEnv []string
	// Devices lists capture devices.
	Devices func() ([]record.InputDevice, error)
	Stderr  io.Writer
}

// Config resolves the effective configuration.
func (d *Dependencies) Config() (config.Config, error) {
	if err := config.LoadDotEnv(d.DotEnv...); err != nil {
		return config.Config{}, err
	}
	return config.Resolve(d.Flags, d.Values, d.Lookup)
}

// Loggers returns per-component loggers for cfg. The *_DEBUG switches lower
// the level of their component to debug.
func (d *Dependencies) Loggers(cfg config.Config) app.LoggerFunc {
	base, err := config.ParseLevel(cfg.LogLevel)
	if err != nil {
		base = slog.LevelInfo
	}
	debug := map[string]bool{
		"record": cfg.RECORD_DEBUG,
		"asr":    cfg.UPLOAD_DEBUG,
		"paste":  cfg.UPLOAD_DEBUG,
		"hotkey": cfg.HOTKEY_DEBUG,
	}
	return func(component string) *slog.Logger {
		level := base
		if debug[component] {
			level = slog.LevelDebug
		}
		h := slog.NewTextHandler(d.Stderr, &slog.HandlerOptions{Level: level})
		return slog.New(h).With(slog.String("component", component))
	}
}

// NewRootCmd builds the voicestream command tree with its persistent config flags.
func NewRootCmd() *cobra.Command {
	return newRootCmd(&Dependencies{
		Lookup:  os.LookupEnv,
		DotEnv:  []string{".env"},
		Devices: record.InputDevices,
		Stderr:  os.Stderr,
	})
}

func newRootCmd(deps *Dependencies) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "voicestream",
		Short: "Dictate anywhere with a global hotkey",
		Long: "VoiceStream records the microphone between two global hotkeys, sends the audio to a\n" +
			"speech-to-text service and pastes the transcription at the cursor.",
		SilenceUsage: true,
	}

	deps.Flags = rootCmd.PersistentFlags()
	deps.Values = config.BindFlags(deps.Flags)

	rootCmd.Version = version.Version
	rootCmd.SetVersionTemplate(version.Full() + "\n")

	runCmd := NewRunCmd(deps)
	rootCmd.RunE = runCmd.RunE

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(NewTranscribeCmd(deps))
	rootCmd.AddCommand(NewDevicesCmd(deps))
	rootCmd.AddCommand(NewDoctorCmd(deps))
	rootCmd.AddCommand(NewInitConfigCmd())
	rootCmd.AddCommand(NewVersionCmd())

	return rootCmd
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	if err := NewRootCmd().Execute(); err != nil {
		return 1
	}
	return 0
}
